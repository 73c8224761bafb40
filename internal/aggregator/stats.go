package aggregator

import (
	"sync"
	"time"
)

// statsStore keeps the per-provider counters. Guarded by a mutex: distinct
// aggregate calls settle outcomes for the same provider concurrently.
type statsStore struct {
	mutex sync.RWMutex
	stats map[string]*ProviderStats
}

func newStatsStore(providerNames []string) *statsStore {
	store := &statsStore{
		stats: make(map[string]*ProviderStats, len(providerNames)),
	}
	for _, name := range providerNames {
		store.stats[name] = &ProviderStats{}
	}
	return store
}

func (s *statsStore) RecordSuccess(providerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.get(providerName)
	stats.SuccessCount++
	stats.TotalRequests++
	stats.LastSuccess = time.Now()
}

func (s *statsStore) RecordFailure(providerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.get(providerName)
	stats.FailureCount++
	stats.TotalRequests++
	stats.LastFailure = time.Now()
}

// get must be called with the mutex held.
func (s *statsStore) get(providerName string) *ProviderStats {
	stats, exists := s.stats[providerName]
	if !exists {
		stats = &ProviderStats{}
		s.stats[providerName] = stats
	}
	return stats
}

func (s *statsStore) Get(providerName string) ProviderStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[providerName]; exists {
		return *stats
	}
	return ProviderStats{}
}

func (s *statsStore) Statistics() Statistics {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := Statistics{
		Providers: make(map[string]ProviderStatistics, len(s.stats)),
	}

	for name, stats := range s.stats {
		ps := ProviderStatistics{ProviderStats: *stats}
		if stats.TotalRequests > 0 {
			ps.ErrorRate = float64(stats.FailureCount) / float64(stats.TotalRequests)
		}
		result.Providers[name] = ps

		result.Aggregated.TotalRequests += stats.TotalRequests
		result.Aggregated.TotalSuccesses += stats.SuccessCount
		result.Aggregated.TotalFailures += stats.FailureCount
	}

	if result.Aggregated.TotalRequests > 0 {
		result.Aggregated.OverallErrorRate =
			float64(result.Aggregated.TotalFailures) / float64(result.Aggregated.TotalRequests)
	}

	return result
}

func (s *statsStore) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name := range s.stats {
		s.stats[name] = &ProviderStats{}
	}
}
