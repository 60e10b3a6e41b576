package postgresengine

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithBooksTableName sets the name of the books table.
func WithBooksTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return circulation.ErrEmptyTableName
		}

		s.booksTable = tableName

		return nil
	}
}

// WithLoansTableName sets the name of the loans table.
func WithLoansTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return circulation.ErrEmptyTableName
		}

		s.loansTable = tableName

		return nil
	}
}

// WithLockTimeout sets how long a transaction waits for a row lock before giving up
// with circulation.ErrTransientStore. It must be positive, waiting forever is not an option.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout <= 0 {
			return circulation.ErrInvalidLockTimeout
		}

		s.lockTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operation outcomes with durations (production-safe)
// Warn level: transient failures like lock timeouts, cleanup failures
// Error level: failures that abort an operation.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, which is preferred over the plain logger.
// It enables trace/span correlation in log records when tracing is configured.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives operation durations, call counts, database errors and business conflicts.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store. Every operation gets its own span.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
