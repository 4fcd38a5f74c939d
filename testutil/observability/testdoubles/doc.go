// Package testdoubles provides test doubles (spies) for the observability interfaces of the timeline store.
//
// This package contains spy implementations for:
//   - MetricsCollectorSpy and ContextualMetricsCollectorSpy: capture metrics recording calls
//   - TracingCollectorSpy: captures started and finished spans
//   - ContextualLoggerSpy: captures structured logging with context
//   - LogHandlerSpy: captures slog records and their attributes
//
// These test doubles allow asserting the observability behavior of store operations
// without running any telemetry backend.
package testdoubles
