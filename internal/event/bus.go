package event

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Bus is a synchronous publish/subscribe channel keyed by topic name.
//
// Listeners run in registration order on the goroutine that calls Emit.
// The registry lock is never held while a handler runs, so handlers may
// register, remove, or emit re-entrantly.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Topic][]*entry
	destroyed bool

	nextID atomic.Uint64
	config busConfig

	// Stats
	eventsEmitted    atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.logger = config.logger.With(slog.String("component", "event"))

	return &Bus{
		listeners: make(map[Topic][]*entry),
		config:    config,
	}
}

// On registers handler for topic.
func (b *Bus) On(topic Topic, handler Handler, opts ...ListenerOption) *Listener {
	return b.OnEach([]Topic{topic}, handler, opts...)
}

// Once registers handler for topic and removes it after its first call.
func (b *Bus) Once(topic Topic, handler Handler) *Listener {
	return b.OnEach([]Topic{topic}, handler, WithOnce())
}

// OnEach registers one listener under several topics. A once listener
// fires at most once for each of its topics.
func (b *Bus) OnEach(topics []Topic, handler Handler, opts ...ListenerOption) *Listener {
	var cfg listenerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &Listener{
		id:      b.nextID.Add(1),
		topics:  append([]Topic(nil), topics...),
		handler: handler,
		once:    cfg.once,
		bus:     b,
	}

	if handler == nil {
		b.config.logger.Warn("listener registered without handler", slog.Any("topics", topics))
		return l
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return l
	}
	for _, t := range l.topics {
		b.listeners[t] = append(b.listeners[t], &entry{listener: l})
	}
	return l
}

// Off removes listener from topic. A nil listener removes every listener
// registered for topic.
func (b *Bus) Off(topic Topic, listener *Listener) {
	b.OffEach([]Topic{topic}, listener)
}

// OffEach removes listener from each topic. A nil listener clears the
// topics entirely.
func (b *Bus) OffEach(topics []Topic, listener *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range topics {
		if listener == nil {
			b.dropTopicLocked(t)
			continue
		}
		b.removeLocked(t, func(e *entry) bool { return e.listener == listener })
	}
}

// Emit calls every listener registered for topic, in registration order,
// passing args through. It reports whether any listener was registered.
//
// Handler errors and panics are logged and do not stop dispatch. Once
// listeners are removed after dispatch completes.
func (b *Bus) Emit(topic Topic, args ...any) bool {
	b.mu.RLock()
	registered := b.listeners[topic]
	if len(registered) == 0 {
		b.mu.RUnlock()
		return false
	}
	entries := make([]*entry, len(registered))
	copy(entries, registered)
	b.mu.RUnlock()

	b.eventsEmitted.Add(1)

	var fired []*entry
	for _, e := range entries {
		if !e.claim() {
			continue
		}
		b.invoke(topic, e.listener, args)
		if e.listener.once {
			fired = append(fired, e)
		}
	}

	if len(fired) > 0 {
		b.mu.Lock()
		for _, f := range fired {
			b.removeLocked(topic, func(e *entry) bool { return e == f })
		}
		b.mu.Unlock()
	}

	return true
}

// RemoveAllListeners clears the given topics, or the whole registry when
// no topic is given.
func (b *Bus) RemoveAllListeners(topics ...Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(topics) == 0 {
		for t := range b.listeners {
			b.dropTopicLocked(t)
		}
		return
	}
	for _, t := range topics {
		b.dropTopicLocked(t)
	}
}

// ListenerCount returns the number of registrations summed across topics.
func (b *Bus) ListenerCount(topics ...Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, t := range topics {
		total += len(b.listeners[t])
	}
	return total
}

// Topics returns every topic that currently has listeners.
func (b *Bus) Topics() []Topic {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]Topic, 0, len(b.listeners))
	for t := range b.listeners {
		topics = append(topics, t)
	}
	return topics
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	count := 0
	for _, entries := range b.listeners {
		count += len(entries)
	}
	b.mu.RUnlock()

	return Stats{
		EventsEmitted:    b.eventsEmitted.Load(),
		HandlersExecuted: b.handlersExecuted.Load(),
		HandlerErrors:    b.handlerErrors.Load(),
		HandlerPanics:    b.handlerPanics.Load(),
		Listeners:        count,
	}
}

// Destroy removes every listener. Later registrations are ignored.
func (b *Bus) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t := range b.listeners {
		b.dropTopicLocked(t)
	}
	b.destroyed = true
}

// invoke runs one handler with panic recovery.
func (b *Bus) invoke(topic Topic, l *Listener, args []any) {
	b.handlersExecuted.Add(1)

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			b.fault(&PanicError{
				Topic:      topic,
				ListenerID: l.id,
				Value:      r,
				Stack:      string(debug.Stack()),
			})
		}
	}()

	if err := l.handler(args...); err != nil {
		b.handlerErrors.Add(1)
		b.fault(&HandlerError{Topic: topic, ListenerID: l.id, Err: err})
	}
}

func (b *Bus) fault(err error) {
	b.config.logger.Error("event handler failed", slog.String("error", err.Error()))
	if b.config.faultHandler == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				b.config.logger.Error("fault handler panicked", slog.String("panic", fmt.Sprint(r)))
			}
		}()
		b.config.faultHandler(err)
	}()
}

// removeLocked removes the entries of topic matched by match.
func (b *Bus) removeLocked(topic Topic, match func(*entry) bool) {
	entries := b.listeners[topic]
	kept := entries[:0:0]
	for _, e := range entries {
		if match(e) {
			e.removed.Store(true)
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(b.listeners, topic)
		return
	}
	b.listeners[topic] = kept
}

func (b *Bus) dropTopicLocked(topic Topic) {
	for _, e := range b.listeners[topic] {
		e.removed.Store(true)
	}
	delete(b.listeners, topic)
}
