// Package aggregator orchestrates concurrent, isolated queries across all
// registered news providers and merges the settled results.
//
// Every provider call runs as
//
//	breaker.Execute(func() error {
//	    return retrier.Do(ctx, name, func(ctx context.Context) error {
//	        _, err := provider.Search(ctx, params)
//	        return err
//	    })
//	})
//
// so transient failures are retried, repeated failures trip that provider's
// circuit breaker, and no provider's failure can abort the others. Results
// are returned either as a single bulk Result or as an ordered StreamEvent
// sequence. Rolling per-provider statistics persist for the aggregator's
// lifetime and can be reset on demand.
package aggregator
