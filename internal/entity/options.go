package entity

import (
	"log/slog"
	"time"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNow sets the time source used for export timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides id generation for elements registered
// without an id.
func WithIDGenerator(gen func(elementType string) string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}
