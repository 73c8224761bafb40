package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPProvider is a generic client for JSON news search APIs. The base URL,
// API key and paths come from configuration, so new providers can be added
// without code changes as long as they speak the normalized wire format.
type HTTPProvider struct {
	name       string
	baseURL    *url.URL
	apiKey     string
	searchPath string
	healthPath string
	client     *http.Client
}

// HTTPProviderOptions configure a single HTTPProvider instance.
type HTTPProviderOptions struct {
	Name       string
	BaseURL    string
	APIKey     string
	SearchPath string // defaults to /v2/everything
	HealthPath string // defaults to /health
	Timeout    time.Duration
}

// NewHTTPProvider creates a provider client from its options.
// An empty API key is allowed here; it surfaces later via IsConfigured.
func NewHTTPProvider(opts HTTPProviderOptions) (*HTTPProvider, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("provider name cannot be empty")
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL for provider %s: %w", opts.Name, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("provider %s base URL must use http or https", opts.Name)
	}

	searchPath := opts.SearchPath
	if searchPath == "" {
		searchPath = "/v2/everything"
	}

	healthPath := opts.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPProvider{
		name:       opts.Name,
		baseURL:    base,
		apiKey:     opts.APIKey,
		searchPath: searchPath,
		healthPath: healthPath,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider's unique name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// IsConfigured reports whether an API key is present.
func (p *HTTPProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// Search queries the provider's search endpoint and decodes the normalized
// result. HTTP status codes are mapped onto the error taxonomy: 5xx and
// transport failures are transient, 4xx are terminal.
func (p *HTTPProvider) Search(ctx context.Context, params SearchParams) (*NewsResult, error) {
	if !p.IsConfigured() {
		return nil, &ConfigurationError{Provider: p.name, Reason: "missing API key"}
	}

	searchURL := p.baseURL.ResolveReference(&url.URL{Path: p.searchPath})

	query := searchURL.Query()
	query.Set("q", params.Query)
	if params.Language != "" {
		query.Set("language", params.Language)
	}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.From != "" {
		query.Set("from", params.From)
	}
	if params.To != "" {
		query.Set("to", params.To)
	}
	searchURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, &TerminalError{Provider: p.name, Err: err}
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Provider: p.name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return nil, &TransientError{
			Provider:   p.name,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("server error"),
		}
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, &TerminalError{
			Provider:   p.name,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("request rejected"),
		}
	}

	var result NewsResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, &TransientError{Provider: p.name, Err: fmt.Errorf("malformed response: %w", err)}
	}

	result.Provider = p.name
	result.Query = params.Query

	return &result, nil
}

// HealthCheck probes the provider's health endpoint.
func (p *HTTPProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	healthURL := p.baseURL.ResolveReference(&url.URL{Path: p.healthPath})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return nil, err
	}

	res, err := p.client.Do(req)
	if err != nil {
		return &HealthStatus{
			Healthy:   false,
			Message:   err.Error(),
			Timestamp: time.Now(),
		}, nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return &HealthStatus{
			Healthy:   false,
			Message:   fmt.Sprintf("health endpoint returned status %d", res.StatusCode),
			Timestamp: time.Now(),
		}, nil
	}

	return &HealthStatus{
		Healthy:   true,
		Message:   "ok",
		Timestamp: time.Now(),
	}, nil
}
