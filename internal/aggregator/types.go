package aggregator

import (
	"time"

	"github.com/angeloszaimis/news-aggregator/internal/circuitbreaker"
	"github.com/angeloszaimis/news-aggregator/internal/provider"
)

// OutcomeStatus is the terminal status of a single provider call.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome is the settled result of one provider within an aggregate call.
type Outcome struct {
	Status        OutcomeStatus        `json:"status"`
	Data          *provider.NewsResult `json:"data,omitempty"`
	Error         string               `json:"error,omitempty"`
	ResponseTime  time.Duration        `json:"response_time"`
	ArticlesCount int                  `json:"articles_count"`
	CircuitOpen   bool                 `json:"circuit_open,omitempty"`
}

// Summary rolls up the per-provider outcomes of one aggregate call.
type Summary struct {
	TotalArticles int `json:"total"`
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
}

// ProviderError is one entry in the aggregate error list. Recoverable is
// false only when the provider's circuit is open.
type ProviderError struct {
	Provider    string `json:"provider"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Result is the bulk response of an aggregate call. It always contains
// exactly one Outcome per registered provider.
type Result struct {
	Query        string             `json:"query"`
	Timestamp    time.Time          `json:"timestamp"`
	Providers    map[string]Outcome `json:"providers"`
	Summary      Summary            `json:"summary"`
	Errors       []ProviderError    `json:"errors,omitempty"`
	ResponseTime time.Duration      `json:"response_time"`
}

// StreamEventType discriminates the events of a streaming aggregate call.
type StreamEventType string

const (
	StreamStart          StreamEventType = "start"
	StreamProviderResult StreamEventType = "provider-result"
	StreamComplete       StreamEventType = "complete"
)

// StreamEvent is one element of the finite event sequence produced by
// AggregateStream: one start, one provider-result per provider in
// registration order, one complete.
type StreamEvent struct {
	Type          StreamEventType      `json:"type"`
	Query         string               `json:"query,omitempty"`
	Providers     []string             `json:"providers,omitempty"`
	Provider      string               `json:"provider,omitempty"`
	Status        OutcomeStatus        `json:"status,omitempty"`
	Data          *provider.NewsResult `json:"data,omitempty"`
	Error         string               `json:"error,omitempty"`
	ResponseTime  time.Duration        `json:"response_time,omitempty"`
	ArticlesCount int                  `json:"articles_count,omitempty"`
	CircuitOpen   bool                 `json:"circuit_open,omitempty"`
	TotalDuration time.Duration        `json:"total_duration,omitempty"`
}

// HealthInfo combines a provider's own health probe with the aggregator's
// view of it.
type HealthInfo struct {
	Configured     bool                   `json:"configured"`
	Health         provider.HealthStatus  `json:"health"`
	CircuitBreaker circuitbreaker.Snapshot `json:"circuit_breaker"`
	Stats          ProviderStats          `json:"stats"`
}

// ProviderStats are the rolling per-provider counters kept for the lifetime
// of the aggregator.
type ProviderStats struct {
	SuccessCount  int64     `json:"success_count"`
	FailureCount  int64     `json:"failure_count"`
	TotalRequests int64     `json:"total_requests"`
	LastSuccess   time.Time `json:"last_success,omitzero"`
	LastFailure   time.Time `json:"last_failure,omitzero"`
}

// ProviderStatistics is ProviderStats plus the derived error rate.
type ProviderStatistics struct {
	ProviderStats
	ErrorRate float64 `json:"error_rate"`
}

// AggregatedStatistics are the totals across all providers.
type AggregatedStatistics struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalSuccesses   int64   `json:"total_successes"`
	TotalFailures    int64   `json:"total_failures"`
	OverallErrorRate float64 `json:"overall_error_rate"`
}

// Statistics is the full statistics view returned by Statistics().
type Statistics struct {
	Providers  map[string]ProviderStatistics `json:"providers"`
	Aggregated AggregatedStatistics          `json:"aggregated"`
}
