// Package logging adapts zerolog to the timeline logger interfaces for the barker CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/caffinitas/barker/timeline"
)

// RFC3339Milli is the timestamp layout of console output.
const RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"

// Logger implements timeline.Logger and timeline.ContextualLogger on a zerolog.Logger.
// Arguments are slog-style alternating keys and values. Context-aware calls add the trace and span ID
// of a recording span in ctx.
type Logger struct {
	delegate zerolog.Logger
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(logger zerolog.Logger) *Logger {
	return &Logger{delegate: logger}
}

// NewConsoleLogger creates a plain text logger on out, at debug level when debug is set and at info level otherwise.
func NewConsoleLogger(out io.Writer, debug bool) *Logger {
	return newConsoleLogger(out, debug, true)
}

// NewStderrLogger is a colored console logger on os.Stderr.
func NewStderrLogger(debug bool) *Logger {
	return newConsoleLogger(os.Stderr, debug, false)
}

func newConsoleLogger(out io.Writer, debug bool, noColor bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: RFC3339Milli,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("%-5s", i))
		},
		NoColor: noColor,
	}

	return FromZerolog(zerolog.New(writer).Level(level).With().Timestamp().Logger())
}

// Zerolog returns the wrapped logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.delegate
}

func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), l.delegate.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(context.Background(), l.delegate.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(context.Background(), l.delegate.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), l.delegate.Error(), msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.delegate.Debug(), msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.delegate.Info(), msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.delegate.Warn(), msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.delegate.Error(), msg, args)
}

// log writes one event. event is nil when its level is disabled.
func (l *Logger) log(ctx context.Context, event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 == len(args) {
			event = event.Interface("!BADKEY", args[i])
			continue
		}

		event = addField(event, key, args[i+1])
	}

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		event = event.Str("trace_id", spanCtx.TraceID().String()).Str("span_id", spanCtx.SpanID().String())
	}

	event.Msg(msg)
}

func addField(event *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case error:
		return event.AnErr(key, v)
	default:
		return event.Interface(key, v)
	}
}

var (
	_ timeline.Logger           = (*Logger)(nil)
	_ timeline.ContextualLogger = (*Logger)(nil)
)
