package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventProviderSuccess  EventType = "provider_success"
	EventProviderFailure  EventType = "provider_failure"
	EventCircuitOpened    EventType = "circuit_opened"
	EventCircuitRecovered EventType = "circuit_recovered"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Provider  string
	Duration  time.Duration
	Articles  int
	Error     string
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit sends an event without blocking; under backpressure the event is
// dropped rather than slowing down the request path.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventProviderSuccess:
		c.metrics.RecordSuccess(event.Provider, event.Duration, event.Articles)

	case EventProviderFailure:
		c.metrics.RecordFailure(event.Provider, event.Duration)

	case EventCircuitOpened:
		c.metrics.RecordCircuitOpened(event.Provider)
		c.logger.Warn("Circuit breaker opened",
			slog.String("provider", event.Provider),
			slog.String("error", event.Error))

	case EventCircuitRecovered:
		c.metrics.RecordCircuitRecovered(event.Provider)
		c.logger.Info("Circuit breaker recovered",
			slog.String("provider", event.Provider))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
