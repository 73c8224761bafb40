package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamplesPerProvider = 1000

type Metrics struct {
	mutex         sync.RWMutex
	successes     map[string]int64
	failures      map[string]int64
	articles      map[string]int64
	responseTimes map[string][]time.Duration
	circuitOpens  map[string]int64
	recoveries    map[string]int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	Uptime        time.Duration              `json:"uptime"`
	Providers     map[string]ProviderMetrics `json:"providers"`
}

type ProviderMetrics struct {
	Successes    int64         `json:"successes"`
	Failures     int64         `json:"failures"`
	Articles     int64         `json:"articles"`
	CircuitOpens int64         `json:"circuit_opens"`
	Recoveries   int64         `json:"recoveries"`
	AvgResponse  time.Duration `json:"avg_response"`
	P50Response  time.Duration `json:"p50_response"`
	P95Response  time.Duration `json:"p95_response"`
	P99Response  time.Duration `json:"p99_response"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		successes:     make(map[string]int64),
		failures:      make(map[string]int64),
		articles:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		circuitOpens:  make(map[string]int64),
		recoveries:    make(map[string]int64),
		startTime:     time.Now(),
	}
}

func (m *Metrics) RecordSuccess(providerName string, duration time.Duration, articles int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.successes[providerName]++
	m.articles[providerName] += int64(articles)
	m.recordResponseTime(providerName, duration)
}

func (m *Metrics) RecordFailure(providerName string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.failures[providerName]++
	m.recordResponseTime(providerName, duration)
}

func (m *Metrics) RecordCircuitOpened(providerName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.circuitOpens[providerName]++
}

func (m *Metrics) RecordCircuitRecovered(providerName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.recoveries[providerName]++
}

func (m *Metrics) recordResponseTime(providerName string, duration time.Duration) {
	m.responseTimes[providerName] = append(m.responseTimes[providerName], duration)

	if len(m.responseTimes[providerName]) > maxSamplesPerProvider {
		m.responseTimes[providerName] = m.responseTimes[providerName][1:]
	}
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Providers: make(map[string]ProviderMetrics),
	}

	// Collect all provider names seen by any counter
	names := make(map[string]bool)
	for name := range m.successes {
		names[name] = true
	}
	for name := range m.failures {
		names[name] = true
	}
	for name := range m.circuitOpens {
		names[name] = true
	}
	for name := range m.recoveries {
		names[name] = true
	}

	for name := range names {
		snap.TotalRequests += m.successes[name] + m.failures[name]

		pm := ProviderMetrics{
			Successes:    m.successes[name],
			Failures:     m.failures[name],
			Articles:     m.articles[name],
			CircuitOpens: m.circuitOpens[name],
			Recoveries:   m.recoveries[name],
		}

		durations := m.responseTimes[name]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			pm.AvgResponse = average(sorted)
			pm.P50Response = percentile(sorted, 0.50)
			pm.P95Response = percentile(sorted, 0.95)
			pm.P99Response = percentile(sorted, 0.99)
		}

		snap.Providers[name] = pm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
