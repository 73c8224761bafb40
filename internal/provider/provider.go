package provider

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Provider is the contract every news search provider must implement.
// Implementations are expected to be safe for concurrent use.
type Provider interface {
	// Name returns the unique provider name (e.g. "newsapi").
	Name() string

	// IsConfigured reports whether the provider has the credentials and
	// settings it needs. Synchronous, no side effects.
	IsConfigured() bool

	// Search runs a news search and returns a normalized result.
	Search(ctx context.Context, params SearchParams) (*NewsResult, error)

	// HealthCheck performs a cheap liveness probe against the provider.
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// SearchParams are the caller-supplied search parameters fanned out to
// every provider.
type SearchParams struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// Validate checks the parameters before any provider is contacted.
// An empty query is the only caller-side failure mode of an aggregate call.
func (p SearchParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Query,
			validation.Required.Error("query is required"),
			validation.Length(1, 500),
		),
		validation.Field(&p.PageSize,
			validation.Min(0),
			validation.Max(100),
		),
	)
}

// ArticleSource identifies the publication an article came from.
type ArticleSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is a single normalized news article.
type Article struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     string        `json:"content"`
	URL         string        `json:"url"`
	ImageURL    string        `json:"url_to_image"`
	PublishedAt time.Time     `json:"published_at"`
	Source      ArticleSource `json:"source"`
	Author      string        `json:"author"`
}

// NewsResult is the normalized response of a single provider search.
type NewsResult struct {
	Status         string            `json:"status"`
	TotalResults   int               `json:"total_results"`
	Articles       []Article         `json:"articles"`
	Provider       string            `json:"provider"`
	Query          string            `json:"query"`
	SearchMetadata map[string]string `json:"search_metadata,omitempty"`
}

// HealthStatus is the result of a provider health probe.
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
