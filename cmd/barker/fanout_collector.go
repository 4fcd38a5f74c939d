package main

import (
	"context"
	"time"

	"github.com/caffinitas/barker/timeline"
)

// fanoutCollector mirrors every observation to each collector, using the context-aware
// methods of those that have them.
type fanoutCollector []timeline.MetricsCollector

func (f fanoutCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	f.RecordDurationContext(context.Background(), metric, duration, labels)
}

func (f fanoutCollector) IncrementCounter(metric string, labels map[string]string) {
	f.IncrementCounterContext(context.Background(), metric, labels)
}

func (f fanoutCollector) RecordValue(metric string, value float64, labels map[string]string) {
	f.RecordValueContext(context.Background(), metric, value, labels)
}

func (f fanoutCollector) RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(timeline.ContextualMetricsCollector); ok {
			contextual.RecordDurationContext(ctx, metric, duration, labels)
			continue
		}
		c.RecordDuration(metric, duration, labels)
	}
}

func (f fanoutCollector) IncrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(timeline.ContextualMetricsCollector); ok {
			contextual.IncrementCounterContext(ctx, metric, labels)
			continue
		}
		c.IncrementCounter(metric, labels)
	}
}

func (f fanoutCollector) RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(timeline.ContextualMetricsCollector); ok {
			contextual.RecordValueContext(ctx, metric, value, labels)
			continue
		}
		c.RecordValue(metric, value, labels)
	}
}

var _ timeline.ContextualMetricsCollector = fanoutCollector(nil)
