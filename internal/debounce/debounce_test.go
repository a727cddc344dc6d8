package debounce_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/vectorcore/internal/debounce"
	"github.com/dshills/vectorcore/internal/testutil"
)

func newFake(t *testing.T, delay time.Duration) (*debounce.Debouncer, *testutil.FakeClock, *int) {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	calls := new(int)
	d := debounce.New(delay, func() { *calls++ }, debounce.WithClock(clock))
	return d, clock, calls
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d, clock, calls := newFake(t, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Call()
		clock.Advance(50 * time.Millisecond)
	}
	assert.Zero(t, *calls)
	assert.True(t, d.IsPending())

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, *calls)
	assert.False(t, d.IsPending())
}

func TestDebouncer_SpacedCalls(t *testing.T) {
	d, clock, calls := newFake(t, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		d.Call()
		clock.Advance(150 * time.Millisecond)
	}

	assert.Equal(t, 3, *calls)
}

func TestDebouncer_Cancel(t *testing.T) {
	d, clock, calls := newFake(t, 100*time.Millisecond)

	d.Call()
	d.Cancel()
	clock.Advance(time.Second)

	assert.Zero(t, *calls)
	assert.Zero(t, clock.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	d, clock, calls := newFake(t, 100*time.Millisecond)

	assert.False(t, d.Flush())

	d.Call()
	assert.True(t, d.Flush())
	assert.Equal(t, 1, *calls)

	clock.Advance(time.Second)
	assert.Equal(t, 1, *calls)
}

func TestDebouncer_SetDelay(t *testing.T) {
	d, clock, calls := newFake(t, 100*time.Millisecond)

	d.SetDelay(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, d.Delay())

	d.Call()
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, *calls)
}

func TestDebouncer_RealClock(t *testing.T) {
	var calls atomic.Int32
	d := debounce.New(20*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 10; i++ {
		d.Call()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
