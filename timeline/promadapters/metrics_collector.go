// Package promadapters provides a Prometheus implementation of timeline.MetricsCollector.
package promadapters

import (
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caffinitas/barker/timeline"
)

var (
	durationBuckets = prometheus.ExponentialBuckets(0.0001, 2, 16) // 100µs .. ~3.3s
	valueBuckets    = prometheus.ExponentialBuckets(1, 2, 10)      // 1 .. 512
)

// MetricsCollector implements timeline.MetricsCollector on a Prometheus registry.
//
// Each metric name becomes one vector; its label names are fixed by the first observation.
// Later observations of the same metric with a different label set are dropped and counted in
// barker_dropped_observations_total. Durations are exported in seconds.
type MetricsCollector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]*labelledHistogram
	counters   map[string]*labelledCounter
	dropped    prometheus.Counter
}

type labelledHistogram struct {
	vec    *prometheus.HistogramVec
	labels []string
}

type labelledCounter struct {
	vec    *prometheus.CounterVec
	labels []string
}

// NewMetricsCollector creates a collector registering its vectors with registerer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barker_dropped_observations_total",
		Help: "Observations dropped because their label set did not match the metric",
	})
	registerer.MustRegister(dropped)

	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]*labelledHistogram),
		counters:   make(map[string]*labelledCounter),
		dropped:    dropped,
	}
}

// RecordDuration observes duration in seconds.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.observe(metric, durationBuckets, duration.Seconds(), labels)
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	counter := m.counter(metric, labels)
	if counter == nil {
		m.dropped.Inc()
		return
	}

	counter.With(labels).Inc()
}

// RecordValue observes value into a histogram of small counts.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.observe(metric, valueBuckets, value, labels)
}

func (m *MetricsCollector) observe(metric string, buckets []float64, value float64, labels map[string]string) {
	histogram := m.histogram(metric, buckets, labels)
	if histogram == nil {
		m.dropped.Inc()
		return
	}

	histogram.With(labels).Observe(value)
}

func (m *MetricsCollector) histogram(metric string, buckets []float64, labels map[string]string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := labelNames(labels)

	if h, exists := m.histograms[metric]; exists {
		if !slices.Equal(h.labels, names) {
			return nil
		}
		return h.vec
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metric,
		Help:    helpFor(metric),
		Buckets: buckets,
	}, names)

	if err := m.registerer.Register(vec); err != nil {
		return nil
	}

	m.histograms[metric] = &labelledHistogram{vec: vec, labels: names}

	return vec
}

func (m *MetricsCollector) counter(metric string, labels map[string]string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := labelNames(labels)

	if c, exists := m.counters[metric]; exists {
		if !slices.Equal(c.labels, names) {
			return nil
		}
		return c.vec
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metric,
		Help: helpFor(metric),
	}, names)

	if err := m.registerer.Register(vec); err != nil {
		return nil
	}

	m.counters[metric] = &labelledCounter{vec: vec, labels: names}

	return vec
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func helpFor(metric string) string {
	switch metric {
	case timeline.MetricOperationDuration:
		return "Duration of storage operations in seconds"
	case timeline.MetricOperationsTotal:
		return "Number of completed storage operations"
	case timeline.MetricErrorsTotal:
		return "Number of failed storage operations by error type"
	case timeline.MetricFanoutSize:
		return "Number of followers a post was fanned out to"
	case timeline.MetricEntriesRead:
		return "Number of entries returned by a feed read"
	default:
		return metric
	}
}

var _ timeline.MetricsCollector = (*MetricsCollector)(nil)
