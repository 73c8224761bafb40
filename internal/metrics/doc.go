// Package metrics provides real-time telemetry for the aggregation layer.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Per-provider success and failure counts
//   - Article volumes
//   - Response times with percentile calculations (P50, P95, P99)
//   - Circuit breaker trips and recoveries
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are emitted with non-blocking semantics,
// so under backpressure telemetry is dropped instead of slowing requests.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventProviderSuccess,
//		Provider: "newsapi",
//		Duration: 150 * time.Millisecond,
//		Articles: 12,
//	})
//
//	snapshot := collector.Snapshot()
//
// The store is guarded by sync.RWMutex and the collector drains pending
// events on shutdown to prevent data loss.
package metrics
