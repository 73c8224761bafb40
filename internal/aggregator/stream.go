package aggregator

import (
	"context"
	"time"

	"github.com/angeloszaimis/news-aggregator/internal/provider"
)

// AggregateStream runs the same fan-out as Aggregate but delivers outcomes
// as a finite, forward-only event sequence: one start event, one
// provider-result per provider in registration order, one complete event.
//
// Provider calls are issued concurrently; emission order is registration
// order, so a slow provider listed first delays the emission (not the
// computation) of faster providers listed after it. Each call produces a
// fresh, non-restartable channel, closed after the complete event. If ctx
// is cancelled mid-stream the channel is closed early; outcomes that were
// never emitted are not recorded in the statistics.
func (a *Aggregator) AggregateStream(ctx context.Context, params provider.SearchParams) (<-chan StreamEvent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	channels := a.fanOut(ctx, params)

	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		startEvent := StreamEvent{
			Type:      StreamStart,
			Query:     params.Query,
			Providers: a.Providers(),
		}
		if !a.emit(ctx, events, startEvent) {
			return
		}

		for _, name := range a.order {
			var outcome Outcome
			select {
			case outcome = <-channels[name]:
			case <-ctx.Done():
				return
			}

			a.recordOutcome(name, outcome)

			event := StreamEvent{
				Type:          StreamProviderResult,
				Provider:      name,
				Status:        outcome.Status,
				Data:          outcome.Data,
				Error:         outcome.Error,
				ResponseTime:  outcome.ResponseTime,
				ArticlesCount: outcome.ArticlesCount,
				CircuitOpen:   outcome.CircuitOpen,
			}
			if !a.emit(ctx, events, event) {
				return
			}
		}

		a.emit(ctx, events, StreamEvent{
			Type:          StreamComplete,
			TotalDuration: time.Since(start),
		})
	}()

	return events, nil
}

// emit delivers one event unless the caller has gone away.
func (a *Aggregator) emit(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
