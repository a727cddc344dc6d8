package state

import (
	"log/slog"

	"github.com/dshills/vectorcore/internal/tree"
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

// WithDefaults replaces the built-in default tree.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Store) {
		if defaults != nil {
			s.defaults = tree.CloneMap(defaults)
		}
	}
}
