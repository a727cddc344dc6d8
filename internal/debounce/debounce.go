// Package debounce groups rapid successive calls into a single deferred
// callback.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs its callback once a quiet period has passed since the
// last Call.
//
// Thread-safety: All methods are safe for concurrent use. The callback
// runs without the debouncer lock held, on the clock's timer goroutine
// or on the goroutine that calls Flush.
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	timer    Timer
	pending  bool
	seq      uint64 // detects stale timer callbacks
	callback func()
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the time source. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// New creates a debouncer that calls callback after delay of quiet.
func New(delay time.Duration, callback func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		clock:    RealClock(),
		delay:    delay,
		callback: callback,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call schedules the callback, restarting the quiet period if one is
// already running.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending && d.seq == currentSeq && d.callback != nil {
			d.pending = false
			d.timer = nil
			d.mu.Unlock()
			d.callback()
			return
		}
		d.mu.Unlock()
	})
}

// Flush runs the callback now if a call is pending and cancels the
// scheduled one. It reports whether the callback ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++

	if d.pending && d.callback != nil {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return true
	}
	d.mu.Unlock()
	return false
}

// Cancel drops any pending call without running the callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether a call is waiting for its quiet period.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// SetDelay changes the quiet period. It applies from the next Call.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}
