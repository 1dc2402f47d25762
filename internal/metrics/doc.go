// Package metrics collects runtime figures about extraction attempts.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Attempts, successes and failures per strategy profile
//   - Failure kinds per profile (bot check, unavailable, ...)
//   - Attempt latency with percentile calculations (P50, P95, P99)
//   - Request totals and engine readiness
//
// The collector runs in a dedicated goroutine. Emit never blocks the request
// path: when the buffer is full the event is dropped.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventAttemptFailed,
//		Profile:  "Native",
//		Duration: 800 * time.Millisecond,
//		Kind:     "bot check",
//	})
//
//	snapshot := collector.Snapshot()
//
// Remaining events are drained when the context passed to Start is cancelled.
package metrics
