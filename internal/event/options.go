package event

import "log/slog"

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives handler faults.
	logger *slog.Logger

	// faultHandler is called for every handler error or panic, after logging.
	faultHandler FaultHandler
}

// FaultHandler observes handler faults. err is a *HandlerError or a
// *PanicError.
type FaultHandler func(err error)

// defaultBusConfig returns the default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for handler faults.
func WithLogger(l *slog.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFaultHandler registers a hook called after a handler fault is logged.
func WithFaultHandler(h FaultHandler) BusOption {
	return func(c *busConfig) {
		c.faultHandler = h
	}
}

// ListenerOption configures a listener registration.
type ListenerOption func(*listenerConfig)

type listenerConfig struct {
	once bool
}

// WithOnce makes the listener fire at most once per topic, after which it
// is removed.
func WithOnce() ListenerOption {
	return func(c *listenerConfig) {
		c.once = true
	}
}
