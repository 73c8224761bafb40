package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Testing with one probe request
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// OpenError is returned when the breaker rejects a call without invoking it:
// either the breaker is open and still cooling down, or a half-open probe is
// already in flight.
type OpenError struct {
	Provider  string
	RetryIn   time.Duration
	LastError error
}

func (e *OpenError) Error() string {
	if e.RetryIn > 0 {
		return fmt.Sprintf("circuit breaker for %s is open, retry in %s", e.Provider, e.RetryIn.Round(time.Millisecond))
	}
	return fmt.Sprintf("circuit breaker for %s is open: probe in flight", e.Provider)
}

// Event describes a breaker state transition delivered to subscribers.
type Event struct {
	Provider string
	From     State
	To       State
	Failures int
	Err      error
}

// Settings configure a single breaker.
type Settings struct {
	// FailureThreshold is the number of failures inside MonitoringWindow
	// that trips the breaker.
	FailureThreshold int

	// RecoveryTimeout is how long an open breaker blocks calls before
	// letting a single probe through.
	RecoveryTimeout time.Duration

	// MonitoringWindow is the sliding window over which failures and calls
	// are counted. Failures older than the window never trip the breaker.
	MonitoringWindow time.Duration

	// MinimumRequests guards low-traffic providers: the breaker only trips
	// once at least this many calls were observed inside the window.
	MinimumRequests int
}

// DefaultSettings are the values the aggregator ships with.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		MonitoringWindow: time.Minute,
		MinimumRequests:  3,
	}
}

// CircuitBreaker isolates a single provider. All state transitions happen
// under the mutex; the wrapped call itself runs unlocked so a slow provider
// never blocks admission decisions for concurrent callers.
type CircuitBreaker struct {
	mutex          sync.Mutex
	provider       string
	state          State
	settings       Settings
	calls          []time.Time
	failures       []time.Time
	lastFailure    time.Time
	lastErr        error
	lastTransition time.Time
	probeInFlight  bool
	onStateChange  func(Event)
}

// Snapshot is a point-in-time view of a breaker, used by health reporting.
type Snapshot struct {
	Provider          string    `json:"provider"`
	State             string    `json:"state"`
	FailuresInWindow  int       `json:"failures_in_window"`
	RequestsInWindow  int       `json:"requests_in_window"`
	LastFailure       time.Time `json:"last_failure,omitzero"`
	LastTransition    time.Time `json:"last_transition,omitzero"`
	ProbeInFlight     bool      `json:"probe_in_flight,omitempty"`
	RecoveryTimeoutMS int64     `json:"recovery_timeout_ms"`
}

// New creates a breaker for one provider, starting closed.
// onStateChange may be nil; when set it is invoked outside the breaker lock
// for every opened/recovered transition.
func New(provider string, settings Settings, onStateChange func(Event)) *CircuitBreaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = DefaultSettings().FailureThreshold
	}
	if settings.RecoveryTimeout <= 0 {
		settings.RecoveryTimeout = DefaultSettings().RecoveryTimeout
	}
	if settings.MonitoringWindow <= 0 {
		settings.MonitoringWindow = DefaultSettings().MonitoringWindow
	}
	if settings.MinimumRequests <= 0 {
		settings.MinimumRequests = 1
	}

	return &CircuitBreaker{
		provider:       provider,
		state:          StateClosed,
		settings:       settings,
		lastTransition: time.Now(),
		onStateChange:  onStateChange,
	}
}

// Execute runs fn under the breaker's admission policy.
//
// Open breaker, cool-down not elapsed: fn is never invoked and an *OpenError
// is returned. Open breaker past cool-down: exactly one caller becomes the
// half-open probe; concurrent callers fail fast until the probe settles.
// A probe success closes the breaker and clears the failure window; a probe
// failure reopens it and restarts the recovery timer.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	if callErr := fn(); callErr != nil {
		cb.recordFailure(callErr, probe)
		return callErr
	}

	cb.recordSuccess(probe)
	return nil
}

// admit decides whether a call may proceed and whether it is the half-open
// probe. Returns an *OpenError when the call must fail fast.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return false, nil

	case StateOpen:
		elapsed := time.Since(cb.lastTransition)
		if elapsed < cb.settings.RecoveryTimeout {
			return false, &OpenError{
				Provider:  cb.provider,
				RetryIn:   cb.settings.RecoveryTimeout - elapsed,
				LastError: cb.lastErr,
			}
		}

		cb.state = StateHalfOpen
		cb.lastTransition = time.Now()
		cb.probeInFlight = true
		return true, nil

	case StateHalfOpen:
		// A probe is already testing the provider; nobody else gets in.
		return false, &OpenError{Provider: cb.provider, LastError: cb.lastErr}

	default:
		return false, nil
	}
}

func (cb *CircuitBreaker) recordSuccess(probe bool) {
	cb.mutex.Lock()

	now := time.Now()
	cb.calls = append(cb.calls, now)
	cb.prune(now)

	var event *Event
	if probe || cb.state == StateHalfOpen {
		event = &Event{Provider: cb.provider, From: cb.state, To: StateClosed}
		cb.state = StateClosed
		cb.probeInFlight = false
		cb.failures = nil
		cb.calls = nil
		cb.lastErr = nil
		cb.lastTransition = now
	}

	cb.mutex.Unlock()

	if event != nil {
		cb.notify(*event)
	}
}

func (cb *CircuitBreaker) recordFailure(callErr error, probe bool) {
	cb.mutex.Lock()

	now := time.Now()
	cb.calls = append(cb.calls, now)
	cb.failures = append(cb.failures, now)
	cb.lastFailure = now
	cb.lastErr = callErr
	cb.prune(now)

	var event *Event

	switch {
	case probe || cb.state == StateHalfOpen:
		// Probe failed: reopen and restart the recovery timer.
		event = &Event{
			Provider: cb.provider,
			From:     StateHalfOpen,
			To:       StateOpen,
			Failures: len(cb.failures),
			Err:      callErr,
		}
		cb.state = StateOpen
		cb.probeInFlight = false
		cb.lastTransition = now

	case cb.state == StateClosed &&
		len(cb.failures) >= cb.settings.FailureThreshold &&
		len(cb.calls) >= cb.settings.MinimumRequests:
		event = &Event{
			Provider: cb.provider,
			From:     StateClosed,
			To:       StateOpen,
			Failures: len(cb.failures),
			Err:      callErr,
		}
		cb.state = StateOpen
		cb.lastTransition = now
	}

	cb.mutex.Unlock()

	if event != nil {
		cb.notify(*event)
	}
}

// prune drops calls and failures that fell out of the monitoring window.
// Caller must hold the mutex.
func (cb *CircuitBreaker) prune(now time.Time) {
	cutoff := now.Add(-cb.settings.MonitoringWindow)

	cb.calls = pruneBefore(cb.calls, cutoff)
	cb.failures = pruneBefore(cb.failures, cutoff)
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && stamps[idx].Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[idx:]...)
}

func (cb *CircuitBreaker) notify(event Event) {
	if cb.onStateChange != nil {
		cb.onStateChange(event)
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// ForceOpen trips the breaker immediately and starts the recovery timer.
// Used by operational tooling and tests.
func (cb *CircuitBreaker) ForceOpen() {
	cb.mutex.Lock()
	from := cb.state
	cb.state = StateOpen
	cb.probeInFlight = false
	cb.lastTransition = time.Now()
	cb.mutex.Unlock()

	if from != StateOpen {
		cb.notify(Event{Provider: cb.provider, From: from, To: StateOpen})
	}
}

// Reset returns the breaker to a pristine closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.state = StateClosed
	cb.probeInFlight = false
	cb.calls = nil
	cb.failures = nil
	cb.lastErr = nil
	cb.lastFailure = time.Time{}
	cb.lastTransition = time.Now()
}

// Snapshot captures the breaker's current state for health reporting.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.prune(time.Now())

	return Snapshot{
		Provider:          cb.provider,
		State:             cb.state.String(),
		FailuresInWindow:  len(cb.failures),
		RequestsInWindow:  len(cb.calls),
		LastFailure:       cb.lastFailure,
		LastTransition:    cb.lastTransition,
		ProbeInFlight:     cb.probeInFlight,
		RecoveryTimeoutMS: cb.settings.RecoveryTimeout.Milliseconds(),
	}
}
