package timeline

import (
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

const (
	reservoirSize  = 1028
	reservoirAlpha = 0.015
)

// OperationClass designates the latency histogram an operation is recorded into.
type OperationClass int

const (
	// ReadOperation covers follower reads and feed slice reads.
	ReadOperation OperationClass = iota
	// WriteOperation covers feed inserts and follow set updates.
	WriteOperation
)

// String returns the label value of the class.
func (c OperationClass) String() string {
	switch c {
	case ReadOperation:
		return "read"
	case WriteOperation:
		return "write"
	default:
		return "unknown"
	}
}

// Registry holds the read and write latency histograms (in microseconds) and the success and error meters.
//
// It is constructed once and handed to every component that records observations.
// All methods are safe for concurrent use.
type Registry struct {
	reads     metrics.Histogram
	writes    metrics.Histogram
	successes metrics.Meter
	errors    metrics.Meter
}

// NewRegistry creates a Registry with exponentially decaying reservoirs that bias towards the last five minutes.
func NewRegistry() *Registry {
	return &Registry{
		reads:     metrics.NewHistogram(metrics.NewExpDecaySample(reservoirSize, reservoirAlpha)),
		writes:    metrics.NewHistogram(metrics.NewExpDecaySample(reservoirSize, reservoirAlpha)),
		successes: metrics.NewMeter(),
		errors:    metrics.NewMeter(),
	}
}

// Observe records one completed operation: its latency into the histogram of its class
// and one mark on either the success or the error meter.
func (r *Registry) Observe(class OperationClass, latency time.Duration, err error) {
	r.histogram(class).Update(latency.Microseconds())

	if err != nil {
		r.errors.Mark(1)
		return
	}

	r.successes.Mark(1)
}

// Stop releases the background rate tickers of the meters.
func (r *Registry) Stop() {
	r.successes.Stop()
	r.errors.Stop()
}

func (r *Registry) histogram(class OperationClass) metrics.Histogram {
	if class == ReadOperation {
		return r.reads
	}

	return r.writes
}

// HistogramSnapshot is a point-in-time view of a latency histogram. All values are in microseconds.
type HistogramSnapshot struct {
	Count  int64   `json:"count"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P98    float64 `json:"p98"`
	P99    float64 `json:"p99"`
	P999   float64 `json:"p999"`
}

// MeterSnapshot is a point-in-time view of an outcome meter. Rates are events per second.
type MeterSnapshot struct {
	Count  int64   `json:"count"`
	Rate1  float64 `json:"rate1"`
	Rate5  float64 `json:"rate5"`
	Rate15 float64 `json:"rate15"`
}

// Snapshot is a point-in-time view of the whole Registry.
type Snapshot struct {
	Taken     time.Time         `json:"taken"`
	Reads     HistogramSnapshot `json:"reads"`
	Writes    HistogramSnapshot `json:"writes"`
	Successes MeterSnapshot     `json:"successes"`
	Errors    MeterSnapshot     `json:"errors"`
}

// Snapshot captures the current state of all histograms and meters.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Taken:     time.Now(),
		Reads:     snapshotHistogram(r.reads),
		Writes:    snapshotHistogram(r.writes),
		Successes: snapshotMeter(r.successes),
		Errors:    snapshotMeter(r.errors),
	}
}

var snapshotPercentiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

func snapshotHistogram(h metrics.Histogram) HistogramSnapshot {
	s := h.Snapshot()
	ps := s.Percentiles(snapshotPercentiles)

	return HistogramSnapshot{
		Count:  s.Count(),
		Min:    s.Min(),
		Max:    s.Max(),
		Mean:   s.Mean(),
		Median: ps[0],
		StdDev: s.StdDev(),
		P75:    ps[1],
		P95:    ps[2],
		P98:    ps[3],
		P99:    ps[4],
		P999:   ps[5],
	}
}

func snapshotMeter(m metrics.Meter) MeterSnapshot {
	s := m.Snapshot()

	return MeterSnapshot{
		Count:  s.Count(),
		Rate1:  s.Rate1(),
		Rate5:  s.Rate5(),
		Rate15: s.Rate15(),
	}
}
