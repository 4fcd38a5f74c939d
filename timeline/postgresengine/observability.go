package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/caffinitas/barker/timeline"
)

const (
	logMsgStatementExecuted    = "executed statement: "
	logMsgOperation            = "barker operation: "
	logMsgFanoutWritesFailed   = "fan-out writes failed"
	logMsgReadFollowersFailed  = "reading followers failed, post aborted"
	logMsgReadSliceFailed      = "reading feed slice failed, scan aborted"
	logMsgScanRowFailed        = "failed to scan database row"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgPrepareFailed        = "preparing statement failed"
	logMsgMigrationApplied     = "schema migration applied"
	logMsgCloseStatementFailed = "failed to close prepared statements"

	logAttrError          = "error"
	logAttrStatement      = "statement"
	logAttrShard          = "shard"
	logAttrDurationMS     = "duration_ms"
	logAttrFollowerCount  = "follower_count"
	logAttrFailedWrites   = "failed_writes"
	logAttrEntryCount     = "entry_count"
	logAttrSlicesScanned  = "slices_scanned"
	logAttrUser           = "user"
	logAttrTarget         = "target"
	logAttrMigration      = "migration"
	logAttrSchemaVersion  = "schema_version"
	logAttrOperationLabel = "operation"

	operationFollow       = "follow"
	operationUnfollow     = "unfollow"
	operationPost         = "post"
	operationReadOwnFeed  = "read_own_feed"
	operationReadTimeline = "read_timeline"

	spanNamePrefix          = "barker."
	spanAttrOperation       = "operation"
	spanAttrUser            = "user"
	spanAttrTarget          = "target"
	spanAttrFollowerCount   = "follower_count"
	spanAttrFailedWrites    = "failed_writes"
	spanAttrEntryCount      = "entry_count"
	spanAttrSlicesScanned   = "slices_scanned"
	spanAttrErrorType       = "error_type"
	spanAttrDurationMS      = "duration_ms"
	spanStatusPartialFanout = "partial"
)

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// logStatement logs a statement execution with its timing at debug level.
func (s *Store) logStatement(ctx context.Context, name string, shard int, duration time.Duration) {
	args := []any{logAttrStatement, name, logAttrShard, shard, logAttrDurationMS, toMilliseconds(duration)}

	if s.logger != nil {
		s.logger.Debug(logMsgStatementExecuted+name, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgStatementExecuted+name, args...)
	}
}

// logOperation logs a completed store operation at info level.
func (s *Store) logOperation(ctx context.Context, operation string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+operation, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+operation, args...)
	}
}

// logWarn logs non-fatal failures at warn level.
func (s *Store) logWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.logger != nil {
		s.logger.Warn(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

// logError logs failures that abort an operation at error level.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// recordValueMetricsContext records value metrics with context if the collector supports it.
func (s *Store) recordValueMetricsContext(ctx context.Context, metricName string, value float64, operation string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		timeline.LabelOperation: operation,
	}

	if contextualCollector, ok := s.metricsCollector.(timeline.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		s.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// === Tracing Observer Pattern ===

// tracingObserver encapsulates the span lifecycle of one store operation.
type tracingObserver struct {
	s    *Store
	span timeline.SpanContext
}

// startTracing starts a span for the operation if the tracing collector is configured.
func (s *Store) startTracing(ctx context.Context, operation string, attrs map[string]string) (*tracingObserver, context.Context) {
	observer := &tracingObserver{s: s}

	if s.tracingCollector == nil {
		return observer, ctx
	}

	spanAttrs := map[string]string{spanAttrOperation: operation}
	for k, v := range attrs {
		spanAttrs[k] = v
	}

	newCtx, span := s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
	observer.span = span

	return observer, newCtx
}

// finish completes the span with the given status, attributes and duration.
func (o *tracingObserver) finish(status string, attrs map[string]string, duration time.Duration) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(status)
	for k, v := range attrs {
		o.span.AddAttribute(k, v)
	}
	o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))

	o.s.tracingCollector.FinishSpan(o.span, status, attrs)
}

// finishError completes the span with error details.
func (o *tracingObserver) finishError(err error, duration time.Duration) {
	o.finish(timeline.StatusError, map[string]string{spanAttrErrorType: classifyError(err)}, duration)
}
