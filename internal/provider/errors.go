package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ConfigurationError indicates a provider is missing credentials or settings.
// It is terminal: never retried and never counted against the circuit breaker.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s is not configured: %s", e.Provider, e.Reason)
}

// TransientError is a network, timeout, or 5xx failure that is worth retrying.
type TransientError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: transient failure (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: transient failure: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// TerminalError is a 4xx or authentication failure; retrying cannot help.
type TerminalError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TerminalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: terminal failure (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: terminal failure: %v", e.Provider, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies an error for the retry handler.
//
// Configuration and terminal errors are never retried. Context cancellation
// is not retried either: the caller has already given up. Everything else
// (explicit transient errors, net errors, unclassified failures) is treated
// as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}

	var termErr *TerminalError
	if errors.As(err, &termErr) {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}
