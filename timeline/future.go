package timeline

import (
	"context"
	"errors"
	"time"
)

// Waiter is anything that can be waited on until it settles.
type Waiter interface {
	Wait() error
}

// Future is the result-or-error of one asynchronous storage operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done returns a channel that is closed once the operation has settled and its bookkeeping is complete.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the operation has settled and returns its value or its failure.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// Wait blocks until the operation has settled and returns only its failure.
func (f *Future[T]) Wait() error {
	<-f.done
	return f.err
}

// AwaitAll waits for every given operation to settle and returns one error slot per operation, nil for success.
// It never stops early; a failed operation does not affect the others.
func AwaitAll[W Waiter](waiters ...W) []error {
	errs := make([]error, len(waiters))
	for i, w := range waiters {
		errs[i] = w.Wait()
	}

	return errs
}

// CountFailures returns the number of non-nil errors.
func CountFailures(errs []error) int {
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}

	return failed
}

// ErrorClassifier maps an operation failure to a short error type label.
type ErrorClassifier func(err error) string

// ClassifyContextError labels context failures and anything else as "unknown".
func ClassifyContextError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

// Tracker wraps asynchronous storage calls so that each one records its latency and outcome exactly once.
type Tracker struct {
	registry   *Registry
	collector  MetricsCollector
	classifier ErrorClassifier
}

// NewTracker creates a Tracker recording into the given Registry.
// The collector is optional; a nil classifier falls back to ClassifyContextError.
func NewTracker(registry *Registry, collector MetricsCollector, classifier ErrorClassifier) *Tracker {
	if classifier == nil {
		classifier = ClassifyContextError
	}

	return &Tracker{
		registry:   registry,
		collector:  collector,
		classifier: classifier,
	}
}

// Registry returns the Registry the Tracker records into.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Track issues fn on its own goroutine and returns a Future for its result.
//
// When fn returns, successfully or not, the elapsed time since issue is recorded into the histogram of the class
// and the outcome meter is marked, then the Future resolves.
func Track[T any](ctx context.Context, t *Tracker, class OperationClass, operation string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	start := time.Now()

	go func() {
		defer close(f.done)

		f.value, f.err = fn(ctx)
		t.observe(ctx, class, operation, time.Since(start), f.err)
	}()

	return f
}

func (t *Tracker) observe(ctx context.Context, class OperationClass, operation string, latency time.Duration, err error) {
	t.registry.Observe(class, latency, err)

	if t.collector == nil {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	labels := map[string]string{
		LabelOperation: operation,
		LabelClass:     class.String(),
		LabelStatus:    status,
	}

	contextual, isContextual := t.collector.(ContextualMetricsCollector)

	if isContextual {
		contextual.RecordDurationContext(ctx, MetricOperationDuration, latency, labels)
		contextual.IncrementCounterContext(ctx, MetricOperationsTotal, labels)
	} else {
		t.collector.RecordDuration(MetricOperationDuration, latency, labels)
		t.collector.IncrementCounter(MetricOperationsTotal, labels)
	}

	if err == nil {
		return
	}

	errorLabels := map[string]string{
		LabelOperation: operation,
		LabelClass:     class.String(),
		LabelErrorType: t.classifier(err),
	}

	if isContextual {
		contextual.IncrementCounterContext(ctx, MetricErrorsTotal, errorLabels)
	} else {
		t.collector.IncrementCounter(MetricErrorsTotal, errorLabels)
	}
}
