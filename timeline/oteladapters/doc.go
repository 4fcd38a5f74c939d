// Package oteladapters provides OpenTelemetry implementations of the timeline observability interfaces.
//
// MetricsCollector maps the Tracker's mirror and the Store's value metrics to OTel instruments,
// TracingCollector opens one OTel span per store operation, and SlogBridgeLogger and OTelLogger
// implement timeline.ContextualLogger with trace correlation.
package oteladapters
