package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/angeloszaimis/news-aggregator/internal/provider"
)

// Policy describes the bounded retry behavior for a single provider call.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// Multiplier grows the delay exponentially between attempts.
	Multiplier float64

	// MaxJitter bounds the random duration added to every delay so
	// concurrent clients do not retry in lockstep.
	MaxJitter time.Duration
}

// DefaultPolicy is the policy the aggregator ships with.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		MaxJitter:   250 * time.Millisecond,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy().BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultPolicy().Multiplier
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

// delay computes the backoff before the given attempt (1-based: delay(1) is
// the wait after the first failure). No delay precedes the first attempt.
func (p Policy) delay(attempt int) time.Duration {
	backoff := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if backoff > float64(math.MaxInt64) {
		backoff = float64(math.MaxInt64)
	}

	delay := time.Duration(backoff)
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}

// AttemptsError wraps the last error after every attempt was exhausted.
type AttemptsError struct {
	Attempts int
	Err      error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error {
	return e.Err
}

// Handler retries transient provider failures with exponential backoff and
// jitter. It is stateless and safe to share across providers.
type Handler struct {
	policy Policy
	logger *slog.Logger
}

func NewHandler(policy Policy, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		policy: policy.normalized(),
		logger: logger,
	}
}

// Do runs fn up to MaxAttempts times. Terminal errors (configuration, auth,
// 4xx) are returned immediately without consuming a retry. Retryable errors
// wait baseDelay * multiplier^(attempt-1) + rand(0, jitter) between attempts;
// the wait honors context cancellation. Once attempts are exhausted the last
// error is returned wrapped in an *AttemptsError.
func (h *Handler) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= h.policy.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !provider.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == h.policy.MaxAttempts {
			break
		}

		delay := h.policy.delay(attempt)

		h.logger.Warn("Retrying provider call",
			slog.String("provider", name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &AttemptsError{Attempts: h.policy.MaxAttempts, Err: lastErr}
}
