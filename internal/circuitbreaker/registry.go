package circuitbreaker

import (
	"sync"
)

// Registry holds one breaker per provider name. All breakers share the same
// settings and state-change callback.
type Registry struct {
	mutex         sync.RWMutex
	breakers      map[string]*CircuitBreaker
	settings      Settings
	onStateChange func(Event)
}

func NewRegistry(settings Settings, onStateChange func(Event)) *Registry {
	return &Registry{
		breakers:      make(map[string]*CircuitBreaker),
		settings:      settings,
		onStateChange: onStateChange,
	}
}

// GetBreaker returns the breaker for a provider, creating it on first use.
func (r *Registry) GetBreaker(providerName string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[providerName]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[providerName]; exists {
		return cb
	}

	cb = New(providerName, r.settings, r.onStateChange)
	r.breakers[providerName] = cb
	return cb
}

// ResetAll returns every breaker to a pristine closed state.
func (r *Registry) ResetAll() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
}

// Snapshots returns a point-in-time view of every registered breaker.
func (r *Registry) Snapshots() map[string]Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshots := make(map[string]Snapshot, len(r.breakers))
	for name, cb := range r.breakers {
		snapshots[name] = cb.Snapshot()
	}
	return snapshots
}
