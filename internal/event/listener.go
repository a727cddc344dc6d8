package event

import "sync/atomic"

// Listener is the handle returned by On. It identifies the registration
// for Off and can remove itself from every topic it was registered under.
type Listener struct {
	id      uint64
	topics  []Topic
	handler Handler
	once    bool
	bus     *Bus
}

// ID returns the listener identifier, unique within its bus.
func (l *Listener) ID() uint64 {
	return l.id
}

// Topics returns the topics the listener was registered under.
func (l *Listener) Topics() []Topic {
	out := make([]Topic, len(l.topics))
	copy(out, l.topics)
	return out
}

// Once reports whether the listener fires at most once per topic.
func (l *Listener) Once() bool {
	return l.once
}

// Off removes the listener from all of its topics.
func (l *Listener) Off() {
	if l == nil || l.bus == nil {
		return
	}
	l.bus.OffEach(l.topics, l)
}

// entry is one registration of a listener under one topic.
type entry struct {
	listener *Listener

	// fired is claimed before a once handler runs, so a re-entrant Emit
	// cannot invoke it a second time.
	fired atomic.Bool

	// removed is set when the entry leaves the registry. An Emit already
	// iterating a snapshot skips removed entries.
	removed atomic.Bool
}

// claim reports whether the entry may run now.
func (e *entry) claim() bool {
	if e.removed.Load() {
		return false
	}
	if e.listener.once {
		return e.fired.CompareAndSwap(false, true)
	}
	return true
}
