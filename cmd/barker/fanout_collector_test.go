package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caffinitas/barker/testutil/observability/testdoubles"
)

func Test_FanoutCollector_MirrorsToEveryCollector(t *testing.T) {
	// setup
	first := testdoubles.NewMetricsCollectorSpy(true)
	second := testdoubles.NewMetricsCollectorSpy(true)
	collector := fanoutCollector{first, second}
	labels := map[string]string{"operation": "post"}

	// act
	collector.RecordDurationContext(context.Background(), "barker_operation_duration_seconds", time.Millisecond, labels)
	collector.IncrementCounter("barker_operations_total", labels)
	collector.RecordValue("barker_fanout_size", 3, labels)

	// assert
	for _, spy := range []*testdoubles.MetricsCollectorSpy{first, second} {
		assert.Len(t, spy.GetDurationRecords(), 1)
		assert.Len(t, spy.GetCounterRecords(), 1)
		assert.Len(t, spy.GetValueRecords(), 1)
	}
}
