package history

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/vectorcore/internal/debounce"
)

const (
	// DefaultMaxEntries bounds each stack.
	DefaultMaxEntries = 50

	// DefaultDebounceDelay is the quiet period before a batch is flushed.
	DefaultDebounceDelay = 100 * time.Millisecond
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxEntries sets the stack bound. Values <= 0 select the default.
func WithMaxEntries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxEntries = n
		}
	}
}

// WithDebounceDelay sets the batch quiet period.
func WithDebounceDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithClock sets the time source for debouncing and action timestamps.
func WithClock(c debounce.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer used for undo, redo and flush spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithState attaches a canvas state source. Canvas changes are logged
// but never recorded.
func WithState(s StateSource) Option {
	return func(e *Engine) {
		e.state = s
	}
}

// WithFlushOnDestroy makes Destroy record a pending batch instead of
// discarding it.
func WithFlushOnDestroy() Option {
	return func(e *Engine) {
		e.flushOnDestroy = true
	}
}
