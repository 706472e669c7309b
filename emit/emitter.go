// Package emit provides pluggable observability for pipeline runs: step
// lifecycle events fan out from the scheduler's StepLogCallback hooks to
// any combination of structured logging, OpenTelemetry spans, Prometheus
// metrics, or in-memory buffers.
package emit

import "context"

// Emitter receives observability events from a pipeline run.
//
// Implementations must be:
//   - Non-blocking: an emitter must never slow a run down; buffer or drop
//     rather than wait on a backend.
//   - Thread-safe: the throughput controller can emit from concurrent
//     loader tasks.
//   - Resilient: a backend failure is logged internally, never panicked
//     or surfaced to the scheduler.
type Emitter interface {
	// Emit sends one event to the backend. Must not panic; errors are
	// handled internally.
	Emit(event Event)

	// EmitBatch sends multiple events in order. Returns an error only on
	// catastrophic failures (misconfiguration); individual event failures
	// are logged and skipped.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until buffered events reach the backend or ctx
	// expires. Safe to call multiple times. Call before shutdown so no
	// trailing events are lost.
	Flush(ctx context.Context) error
}
