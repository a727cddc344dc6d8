package editor

import (
	"log/slog"

	"github.com/dshills/vectorcore/internal/debounce"
	"github.com/dshills/vectorcore/internal/entity"
	"github.com/dshills/vectorcore/internal/event"
	"github.com/dshills/vectorcore/internal/history"
)

// Option configures a Context.
type Option func(*contextConfig)

type contextConfig struct {
	logger      *slog.Logger
	clock       debounce.Clock
	configPath  string
	watch       bool
	busOpts     []event.BusOption
	entityOpts  []entity.Option
	historyOpts []history.Option
}

func defaultContextConfig() contextConfig {
	return contextConfig{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(c *contextConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock driving the history debounce.
func WithClock(clock debounce.Clock) Option {
	return func(c *contextConfig) {
		c.clock = clock
	}
}

// WithConfigFile loads options from path and the VECTORCORE_*
// environment before the explicit overrides are applied.
func WithConfigFile(path string) Option {
	return func(c *contextConfig) {
		c.configPath = path
	}
}

// WithWatch reloads the config file into the state store whenever it
// changes. It has no effect without WithConfigFile.
func WithWatch() Option {
	return func(c *contextConfig) {
		c.watch = true
	}
}

// WithBusOptions passes options through to the event bus.
func WithBusOptions(opts ...event.BusOption) Option {
	return func(c *contextConfig) {
		c.busOpts = append(c.busOpts, opts...)
	}
}

// WithEntityOptions passes options through to the entity store.
func WithEntityOptions(opts ...entity.Option) Option {
	return func(c *contextConfig) {
		c.entityOpts = append(c.entityOpts, opts...)
	}
}

// WithHistoryOptions passes options through to the history engine.
func WithHistoryOptions(opts ...history.Option) Option {
	return func(c *contextConfig) {
		c.historyOpts = append(c.historyOpts, opts...)
	}
}
