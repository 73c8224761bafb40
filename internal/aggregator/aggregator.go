package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/angeloszaimis/news-aggregator/internal/circuitbreaker"
	"github.com/angeloszaimis/news-aggregator/internal/metrics"
	"github.com/angeloszaimis/news-aggregator/internal/provider"
	"github.com/angeloszaimis/news-aggregator/internal/retry"
)

// Options configure an Aggregator. Zero values fall back to sane defaults.
type Options struct {
	Logger          *slog.Logger
	BreakerSettings circuitbreaker.Settings
	RetryPolicy     retry.Policy
	Collector       *metrics.Collector
}

// Aggregator fans a search request out to every registered provider,
// each call wrapped in that provider's circuit breaker around the shared
// retry handler, and fans the settled outcomes back in. One failing
// provider can never abort or corrupt the others' results.
type Aggregator struct {
	logger    *slog.Logger
	providers map[string]provider.Provider
	order     []string
	breakers  *circuitbreaker.Registry
	retrier   *retry.Handler
	stats     *statsStore
	collector *metrics.Collector
}

// New builds an aggregator over the given providers. Provider names are
// sorted once at construction; that order is the registration order used by
// streaming responses.
func New(providers map[string]provider.Provider, opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	order := make([]string, 0, len(providers))
	for name := range providers {
		order = append(order, name)
	}
	sort.Strings(order)

	agg := &Aggregator{
		logger:    logger,
		providers: providers,
		order:     order,
		retrier:   retry.NewHandler(opts.RetryPolicy, logger),
		stats:     newStatsStore(order),
		collector: opts.Collector,
	}

	agg.breakers = circuitbreaker.NewRegistry(opts.BreakerSettings, agg.onBreakerEvent)

	// Create every breaker up front so health snapshots are complete even
	// before the first request.
	for _, name := range order {
		agg.breakers.GetBreaker(name)
	}

	return agg
}

// Providers returns the registration order of the configured providers.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Breaker exposes a provider's circuit breaker, used by operational tooling
// and tests.
func (a *Aggregator) Breaker(providerName string) *circuitbreaker.CircuitBreaker {
	return a.breakers.GetBreaker(providerName)
}

// Aggregate runs the bulk aggregation: concurrent fan-out, settle-all
// fan-in. The returned result contains exactly one outcome per registered
// provider; the call itself fails only on invalid search parameters.
func (a *Aggregator) Aggregate(ctx context.Context, params provider.SearchParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	channels := a.fanOut(ctx, params)

	result := &Result{
		Query:     params.Query,
		Timestamp: start,
		Providers: make(map[string]Outcome, len(a.order)),
	}

	for _, name := range a.order {
		outcome := <-channels[name]
		a.recordOutcome(name, outcome)
		result.Providers[name] = outcome

		if outcome.Status == StatusSuccess {
			result.Summary.Successful++
			result.Summary.TotalArticles += outcome.ArticlesCount
		} else {
			result.Summary.Failed++
			result.Errors = append(result.Errors, ProviderError{
				Provider:    name,
				Message:     outcome.Error,
				Recoverable: !outcome.CircuitOpen,
			})
		}
	}

	result.ResponseTime = time.Since(start)

	a.logger.Info("Aggregation completed",
		slog.String("query", params.Query),
		slog.Int("successful", result.Summary.Successful),
		slog.Int("failed", result.Summary.Failed),
		slog.Duration("response_time", result.ResponseTime))

	return result, nil
}

// fanOut launches one goroutine per provider. Each writes its settled
// outcome into a dedicated buffered channel, so no provider ever blocks on
// a slow reader and every outcome can be awaited independently.
func (a *Aggregator) fanOut(ctx context.Context, params provider.SearchParams) map[string]chan Outcome {
	channels := make(map[string]chan Outcome, len(a.order))

	for _, name := range a.order {
		ch := make(chan Outcome, 1)
		channels[name] = ch

		go func(p provider.Provider, ch chan<- Outcome) {
			ch <- a.fetch(ctx, p, params)
		}(a.providers[name], ch)
	}

	return channels
}

// fetch runs a single provider call through the full resilience pipeline:
// configuration check, circuit breaker, retry handler, search.
func (a *Aggregator) fetch(ctx context.Context, p provider.Provider, params provider.SearchParams) Outcome {
	start := time.Now()

	// Misconfiguration is not a live failure: it bypasses the breaker and
	// retry pipeline entirely.
	if !p.IsConfigured() {
		cfgErr := &provider.ConfigurationError{Provider: p.Name(), Reason: "missing credentials"}
		return Outcome{
			Status:       StatusFailed,
			Error:        cfgErr.Error(),
			ResponseTime: time.Since(start),
		}
	}

	var result *provider.NewsResult

	cb := a.breakers.GetBreaker(p.Name())
	err := cb.Execute(func() error {
		return a.retrier.Do(ctx, p.Name(), func(ctx context.Context) error {
			res, searchErr := p.Search(ctx, params)
			if searchErr != nil {
				return searchErr
			}
			result = res
			return nil
		})
	})

	elapsed := time.Since(start)

	if err != nil {
		var openErr *circuitbreaker.OpenError
		circuitOpen := errors.As(err, &openErr)

		a.logger.Warn("Provider call failed",
			slog.String("provider", p.Name()),
			slog.Bool("circuit_open", circuitOpen),
			slog.String("error", err.Error()))

		return Outcome{
			Status:       StatusFailed,
			Error:        err.Error(),
			ResponseTime: elapsed,
			CircuitOpen:  circuitOpen,
		}
	}

	return Outcome{
		Status:        StatusSuccess,
		Data:          result,
		ResponseTime:  elapsed,
		ArticlesCount: len(result.Articles),
	}
}

func (a *Aggregator) recordOutcome(providerName string, outcome Outcome) {
	if outcome.Status == StatusSuccess {
		a.stats.RecordSuccess(providerName)
		a.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventProviderSuccess,
			Timestamp: time.Now(),
			Provider:  providerName,
			Duration:  outcome.ResponseTime,
			Articles:  outcome.ArticlesCount,
		})
		return
	}

	a.stats.RecordFailure(providerName)
	a.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventProviderFailure,
		Timestamp: time.Now(),
		Provider:  providerName,
		Duration:  outcome.ResponseTime,
		Error:     outcome.Error,
	})
}

func (a *Aggregator) onBreakerEvent(event circuitbreaker.Event) {
	switch event.To {
	case circuitbreaker.StateOpen:
		errMsg := ""
		if event.Err != nil {
			errMsg = event.Err.Error()
		}

		a.logger.Warn("Circuit breaker opened",
			slog.String("provider", event.Provider),
			slog.Int("failures", event.Failures),
			slog.String("error", errMsg))

		a.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventCircuitOpened,
			Timestamp: time.Now(),
			Provider:  event.Provider,
			Error:     errMsg,
		})

	case circuitbreaker.StateClosed:
		a.logger.Info("Circuit breaker recovered",
			slog.String("provider", event.Provider))

		a.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventCircuitRecovered,
			Timestamp: time.Now(),
			Provider:  event.Provider,
		})
	}
}

// ProvidersHealth probes every provider concurrently and combines each
// probe with the breaker snapshot and rolling stats. A failing health check
// on one provider never prevents reporting on the others.
func (a *Aggregator) ProvidersHealth(ctx context.Context) map[string]HealthInfo {
	type report struct {
		name string
		info HealthInfo
	}

	ch := make(chan report, len(a.order))

	for _, name := range a.order {
		go func(name string, p provider.Provider) {
			info := HealthInfo{Configured: p.IsConfigured()}

			status, err := p.HealthCheck(ctx)
			if err != nil {
				info.Health = provider.HealthStatus{
					Healthy:   false,
					Message:   err.Error(),
					Timestamp: time.Now(),
				}
			} else {
				info.Health = *status
			}

			info.CircuitBreaker = a.breakers.GetBreaker(name).Snapshot()
			info.Stats = a.stats.Get(name)

			ch <- report{name: name, info: info}
		}(name, a.providers[name])
	}

	health := make(map[string]HealthInfo, len(a.order))
	for range a.order {
		r := <-ch
		health[r.name] = r.info
	}

	return health
}

// Statistics returns per-provider counters with derived error rates and
// the totals across all providers.
func (a *Aggregator) Statistics() Statistics {
	return a.stats.Statistics()
}

// ResetStatistics zeroes every counter and returns every breaker to a
// pristine closed state. Intended for test isolation, not production use.
func (a *Aggregator) ResetStatistics() {
	a.stats.Reset()
	a.breakers.ResetAll()
}
