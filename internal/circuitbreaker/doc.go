// Package circuitbreaker implements the circuit breaker pattern for
// unreliable news providers.
//
// A circuit breaker prevents wasted work against a provider that is currently
// failing. It has three states:
//
//   - CLOSED: Normal operation, calls pass through
//   - OPEN: Provider failing, calls rejected immediately
//   - HALF-OPEN: Testing recovery with a single probe call
//
// Failures are counted over a sliding monitoring window, so old failures
// never trip the breaker, and a minimum-requests guard keeps one or two
// failures on a quiet provider from opening the circuit. While half-open,
// exactly one probe call is admitted; concurrent callers fail fast until the
// probe settles.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultSettings(), nil)
//	cb := registry.GetBreaker("newsapi")
//	err := cb.Execute(func() error {
//	    _, searchErr := client.Search(ctx, params)
//	    return searchErr
//	})
package circuitbreaker
