package event

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, opts ...BusOption) (*Bus, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewBus(append([]BusOption{WithLogger(logger)}, opts...)...), &buf
}

func TestBus_EmitWithoutListeners(t *testing.T) {
	bus, _ := newTestBus(t)

	assert.False(t, bus.Emit("nothing"))
}

func TestBus_EmitOrderAndArgs(t *testing.T) {
	bus, _ := newTestBus(t)

	var calls []string
	bus.On("shape", func(args ...any) error {
		calls = append(calls, "first:"+args[0].(string))
		return nil
	})
	bus.On("shape", func(args ...any) error {
		require.Len(t, args, 2)
		calls = append(calls, "second:"+args[1].(string))
		return nil
	})

	assert.True(t, bus.Emit("shape", "a", "b"))
	assert.Equal(t, []string{"first:a", "second:b"}, calls)
}

func TestBus_HandlerFaultDoesNotStopDispatch(t *testing.T) {
	var faults []error
	bus, logs := newTestBus(t, WithFaultHandler(func(err error) {
		faults = append(faults, err)
	}))

	boom := errors.New("boom")
	ran := 0
	bus.On("t", func(args ...any) error { return boom })
	bus.On("t", func(args ...any) error { panic("kaput") })
	bus.On("t", func(args ...any) error {
		ran++
		return nil
	})

	assert.True(t, bus.Emit("t"))
	assert.Equal(t, 1, ran)
	require.Len(t, faults, 2)
	assert.ErrorIs(t, faults[0], boom)
	assert.ErrorIs(t, faults[1], ErrHandlerPanic)
	assert.Contains(t, logs.String(), "event handler failed")

	stats := bus.Stats()
	assert.Equal(t, uint64(3), stats.HandlersExecuted)
	assert.Equal(t, uint64(1), stats.HandlerErrors)
	assert.Equal(t, uint64(1), stats.HandlerPanics)
}

func TestBus_OnceFiresExactlyOnce(t *testing.T) {
	bus, _ := newTestBus(t)

	var first, second, regular int
	bus.Once("t", func(args ...any) error {
		first++
		return nil
	})
	bus.On("t", func(args ...any) error {
		regular++
		return nil
	})
	bus.On("t", func(args ...any) error {
		second++
		return nil
	}, WithOnce())

	for i := 0; i < 3; i++ {
		bus.Emit("t")
	}

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 3, regular)
	assert.Equal(t, 1, bus.ListenerCount("t"))
}

func TestBus_OnceSurvivesReentrantEmit(t *testing.T) {
	bus, _ := newTestBus(t)

	calls := 0
	bus.Once("t", func(args ...any) error {
		calls++
		bus.Emit("t")
		return nil
	})

	bus.Emit("t")
	bus.Emit("t")

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.ListenerCount("t"))
}

func TestBus_OnceAcrossTopics(t *testing.T) {
	bus, _ := newTestBus(t)

	var got []Topic
	bus.OnEach([]Topic{"a", "b"}, func(args ...any) error {
		got = append(got, args[0].(Topic))
		return nil
	}, WithOnce())

	bus.Emit("a", Topic("a"))
	bus.Emit("a", Topic("a"))
	bus.Emit("b", Topic("b"))

	assert.Equal(t, []Topic{"a", "b"}, got)
	assert.Zero(t, bus.ListenerCount("a", "b"))
}

func TestBus_Off(t *testing.T) {
	bus, _ := newTestBus(t)

	var calls []string
	one := bus.On("t", func(args ...any) error {
		calls = append(calls, "one")
		return nil
	})
	bus.On("t", func(args ...any) error {
		calls = append(calls, "two")
		return nil
	})

	bus.Off("t", one)
	bus.Emit("t")
	assert.Equal(t, []string{"two"}, calls)

	bus.Off("t", nil)
	assert.False(t, bus.Emit("t"))
}

func TestBus_ListenerOffRemovesAllTopics(t *testing.T) {
	bus, _ := newTestBus(t)

	l := bus.OnEach([]Topic{"a", "b", "c"}, func(args ...any) error { return nil })
	require.Equal(t, 3, bus.ListenerCount("a", "b", "c"))

	l.Off()
	assert.Zero(t, bus.ListenerCount("a", "b", "c"))
}

func TestBus_RemovedDuringDispatchIsSkipped(t *testing.T) {
	bus, _ := newTestBus(t)

	var second *Listener
	secondCalls := 0
	bus.On("t", func(args ...any) error {
		second.Off()
		return nil
	})
	second = bus.On("t", func(args ...any) error {
		secondCalls++
		return nil
	})

	bus.Emit("t")
	assert.Zero(t, secondCalls)
}

func TestBus_AddedDuringDispatchWaitsForNextEmit(t *testing.T) {
	bus, _ := newTestBus(t)

	late := 0
	bus.Once("t", func(args ...any) error {
		bus.On("t", func(args ...any) error {
			late++
			return nil
		})
		return nil
	})

	bus.Emit("t")
	assert.Zero(t, late)
	bus.Emit("t")
	assert.Equal(t, 1, late)
}

func TestBus_RemoveAllListeners(t *testing.T) {
	bus, _ := newTestBus(t)
	noop := func(args ...any) error { return nil }

	bus.On("a", noop)
	bus.On("b", noop)
	bus.On("b", noop)

	bus.RemoveAllListeners("b")
	assert.Equal(t, 1, bus.ListenerCount("a", "b"))

	bus.RemoveAllListeners()
	assert.Zero(t, bus.ListenerCount("a", "b"))
	assert.Empty(t, bus.Topics())
}

func TestBus_NilHandlerIsIgnored(t *testing.T) {
	bus, logs := newTestBus(t)

	l := bus.On("t", nil)
	require.NotNil(t, l)
	assert.Zero(t, bus.ListenerCount("t"))
	assert.Contains(t, logs.String(), "listener registered without handler")
}

func TestBus_Destroy(t *testing.T) {
	bus, _ := newTestBus(t)
	noop := func(args ...any) error { return nil }

	bus.On("t", noop)
	bus.Destroy()

	assert.False(t, bus.Emit("t"))
	bus.On("t", noop)
	assert.Zero(t, bus.ListenerCount("t"))
}

func TestBus_ConcurrentEmit(t *testing.T) {
	bus, _ := newTestBus(t)

	var mu sync.Mutex
	count := 0
	bus.On("t", func(args ...any) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit("t")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}
