// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/vectorcore/internal/debounce"
)

// FakeClock is a manually advanced debounce.Clock.
//
// Timers fire only from Advance, synchronously on the calling goroutine,
// in deadline order. Callbacks run without the clock lock held, so they
// may schedule or stop timers.
//
// Thread-safety: All methods are safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	id    uint64
	when  time.Time
	f     func()
}

// NewFakeClock creates a clock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &fakeTimer{clock: c, id: c.nextID, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, running every timer that falls
// due on the way.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.nextDueLocked(target)
		if t == nil {
			break
		}
		c.removeLocked(t)
		c.now = t.when
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// Pending returns the number of scheduled timers.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].when.Before(c.timers[j].when)
	})
	if c.timers[0].when.After(target) {
		return nil
	}
	return c.timers[0]
}

// removeLocked reports whether t was still scheduled.
func (c *FakeClock) removeLocked(t *fakeTimer) bool {
	for i, s := range c.timers {
		if s == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.removeLocked(t)
}
