package oteladapters

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/caffinitas/barker/timeline"
)

// MetricsCollector implements timeline.MetricsCollector using the OpenTelemetry metrics API.
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Histogram without unit (fan-out sizes and entries read are distributions)
//
// Instruments are created on first use and cached. It is safe for concurrent use.
type MetricsCollector struct {
	meter metric.Meter

	mu         sync.Mutex
	durations  map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	values     map[string]metric.Float64Histogram
	onInstrErr func(name string, err error)
}

// MetricsOption configures a MetricsCollector.
type MetricsOption func(*MetricsCollector)

// WithInstrumentErrorHandler sets a callback for instruments the meter refuses to create.
// Such observations are dropped.
func WithInstrumentErrorHandler(handler func(name string, err error)) MetricsOption {
	return func(m *MetricsCollector) {
		m.onInstrErr = handler
	}
}

// NewMetricsCollector creates a new OpenTelemetry metrics collector on the given meter.
func NewMetricsCollector(meter metric.Meter, options ...MetricsOption) *MetricsCollector {
	m := &MetricsCollector{
		meter:      meter,
		durations:  make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		values:     make(map[string]metric.Float64Histogram),
		onInstrErr: func(string, error) {},
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// RecordDuration records a duration in seconds.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

// RecordDurationContext records a duration in seconds with context for exemplar and trace correlation.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, metricName string, duration time.Duration, labels map[string]string) {
	if histogram := m.durationHistogram(metricName); histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(toAttributes(labels)...))
	}
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

// IncrementCounterContext adds one to the counter with context.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	if counter := m.counter(metricName); counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
	}
}

// RecordValue records one observation of a value distribution.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

// RecordValueContext records one observation of a value distribution with context.
func (m *MetricsCollector) RecordValueContext(ctx context.Context, metricName string, value float64, labels map[string]string) {
	if histogram := m.valueHistogram(metricName); histogram != nil {
		histogram.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
	}
}

func (m *MetricsCollector) durationHistogram(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.durations[name]; exists {
		return histogram
	}

	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription("Duration of barker storage operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		m.onInstrErr(name, err)
		return nil
	}

	m.durations[name] = histogram

	return histogram
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	counter, err := m.meter.Int64Counter(name, metric.WithDescription("Count of barker storage operations"))
	if err != nil {
		m.onInstrErr(name, err)
		return nil
	}

	m.counters[name] = counter

	return counter
}

func (m *MetricsCollector) valueHistogram(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.values[name]; exists {
		return histogram
	}

	histogram, err := m.meter.Float64Histogram(name, metric.WithDescription("Distribution of barker operation sizes"))
	if err != nil {
		m.onInstrErr(name, err)
		return nil
	}

	m.values[name] = histogram

	return histogram
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var (
	_ timeline.MetricsCollector           = (*MetricsCollector)(nil)
	_ timeline.ContextualMetricsCollector = (*MetricsCollector)(nil)
)
