package postgresengine

import (
	"regexp"
	"time"

	"github.com/caffinitas/barker/timeline"
)

var validSchemaName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithSchema sets the Postgres schema holding the users, barks and timeline tables.
// The name must be a plain lower-case identifier.
func WithSchema(schema string) Option {
	return func(s *Store) error {
		if schema == "" || !validSchemaName.MatchString(schema) {
			return timeline.ErrEmptySchemaName
		}

		s.schema = schema

		return nil
	}
}

// WithRegistry sets the metrics Registry the Store records every statement execution into.
// A Store without this option creates and owns its own Registry.
func WithRegistry(registry *timeline.Registry) Option {
	return func(s *Store) error {
		if registry == nil {
			return timeline.ErrNilRegistry
		}

		s.registry = registry
		s.ownsRegistry = false

		return nil
	}
}

// WithClock sets the source of post timestamps. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) error {
		if clock != nil {
			s.clock = clock
		}

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: statement executions with timing (development use)
// Info level: completed operations with counts and durations (production-safe)
// Warn level: swallowed fan-out write failures, cleanup failures
// Error level: failures that abort an operation.
func WithLogger(logger timeline.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// The contextual logger receives the same messages as the Logger, together with the operation's context,
// so trace and span IDs can be attached when tracing is enabled.
func WithContextualLogger(logger timeline.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It mirrors every statement execution recorded into the Registry and additionally receives
// fan-out sizes and the number of entries returned by feed reads.
func WithMetrics(collector timeline.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// One span is created per store operation (follow, unfollow, post, read_own_feed, read_timeline).
func WithTracing(collector timeline.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
