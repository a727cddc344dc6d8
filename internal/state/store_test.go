package state

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, overrides map[string]any) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return New(overrides, WithLogger(logger)), &buf
}

func TestNew_MergesDefaults(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{
		"gridSize":       40,
		"panZoomOptions": map[string]any{"zoomMax": 10},
		"selectOptions":  map[string]any{"isDragAdoption": true},
		"drawOptions":    map[string]any{"isDrawAdoption": true},
	})

	assert.Equal(t, 40, s.Value("gridSize"))
	assert.Equal(t, "#ffffff", s.Value("svgBgColor"))
	assert.Equal(t, 10, s.Value("panZoomOptions.zoomMax"))
	assert.Equal(t, 0.01, s.Value("panZoomOptions.zoomMin"))
	assert.Equal(t, true, s.Value("selectOptions.isDragAdoption"))
	assert.Equal(t, true, s.Value("selectOptions.isBoxSelection"))

	// drawOptions is replaced wholesale, not merged.
	_, ok := s.Get("drawOptions.rect")
	assert.False(t, ok)
}

func TestNew_NonMapGroupFallsBackToDefaults(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{"panZoomOptions": "bogus"})

	assert.Equal(t, true, s.Value("panZoomOptions.panning"))
}

func TestStore_GetReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t, nil)

	v, ok := s.Get("selectOptions")
	require.True(t, ok)
	v.(map[string]any)["isBoxSelection"] = false

	assert.Equal(t, true, s.Value("selectOptions.isBoxSelection"))

	snap := s.Snapshot()
	snap["gridSize"] = 99
	assert.Equal(t, 20, s.Value("gridSize"))
}

func TestStore_TypedValuesAreCopied(t *testing.T) {
	s, _ := newTestStore(t, nil)

	notified := 0
	s.Subscribe("labels", func(Change) { notified++ })

	labels := map[string]string{"a": "1"}
	require.NoError(t, s.Set("labels", labels))
	labels["a"] = "2"
	assert.Equal(t, map[string]string{"a": "1"}, s.Value("labels"))

	require.NoError(t, s.Set("labels", labels))
	assert.Equal(t, 2, notified)

	got := s.Value("labels").(map[string]string)
	got["a"] = "3"
	assert.Equal(t, map[string]string{"a": "2"}, s.Value("labels"))

	require.NoError(t, s.Set("points", [][]float64{{0, 0}, {1, 1}}))
	pts := s.Value("points").([][]float64)
	pts[1][0] = 5
	assert.Equal(t, [][]float64{{0, 0}, {1, 1}}, s.Value("points"))
}

func TestStore_Set(t *testing.T) {
	s, _ := newTestStore(t, nil)

	require.NoError(t, s.Set("custom.deep.value", 3))
	assert.Equal(t, 3, s.Value("custom.deep.value"))

	assert.ErrorIs(t, s.Set("", 1), ErrEmptyPath)

	_, ok := s.Get("missing.path")
	assert.False(t, ok)
	assert.Nil(t, s.Value("missing.path"))
}

func TestStore_PathFanOut(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}})

	var got []string
	for _, path := range []string{"a", "a.b", "a.b.c", "a.b.c.d", "x"} {
		path := path
		s.Subscribe(path, func(c Change) {
			got = append(got, c.Path)
		})
	}

	require.NoError(t, s.Set("a.b.c", 2))
	assert.Equal(t, []string{"a", "a.b", "a.b.c"}, got)
}

func TestStore_ChangeValues(t *testing.T) {
	s, _ := newTestStore(t, nil)

	var changes []Change
	s.Subscribe("panZoomOptions", func(c Change) { changes = append(changes, c) })
	s.Subscribe("panZoomOptions.zoomMax", func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.Set("panZoomOptions.zoomMax", 40))
	require.Len(t, changes, 2)

	parent := changes[0]
	assert.Equal(t, "panZoomOptions", parent.Path)
	assert.Equal(t, "panZoomOptions.zoomMax", parent.ChangedPath)
	assert.Equal(t, 40, parent.Value.(map[string]any)["zoomMax"])
	assert.Equal(t, 20, parent.OldValue.(map[string]any)["zoomMax"])

	leaf := changes[1]
	assert.Equal(t, 40, leaf.Value)
	assert.Equal(t, 20, leaf.OldValue)
}

func TestStore_NoOpWriteIsSilent(t *testing.T) {
	s, _ := newTestStore(t, nil)

	calls := 0
	s.Subscribe("gridSize", func(Change) { calls++ })
	s.SubscribeAll(func(GlobalChange) { calls++ })

	require.NoError(t, s.Set("gridSize", 20))
	require.NoError(t, s.Set("selectOptions", map[string]any{"isBoxSelection": true, "isDragAdoption": false}))
	assert.Zero(t, calls)
}

func TestStore_BatchDedup(t *testing.T) {
	s, _ := newTestStore(t, nil)

	var calls [][]any
	s.SubscribeBatch([]string{"x", "x.y"}, func(values []any) {
		calls = append(calls, values)
	})

	require.NoError(t, s.Set("x.y", 1))
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"y": 1}, calls[0][0])
	assert.Equal(t, 1, calls[0][1])
}

func TestStore_DescendantNotifiedOnAncestorWrite(t *testing.T) {
	s, _ := newTestStore(t, nil)

	var zoom, panning []Change
	s.Subscribe("panZoomOptions.zoomMax", func(c Change) { zoom = append(zoom, c) })
	s.Subscribe("panZoomOptions.panning", func(c Change) { panning = append(panning, c) })

	next, _ := s.Get("panZoomOptions")
	next.(map[string]any)["zoomMax"] = 5
	require.NoError(t, s.Set("panZoomOptions", next))

	require.Len(t, zoom, 1)
	assert.Equal(t, 5, zoom[0].Value)
	assert.Equal(t, 20, zoom[0].OldValue)
	assert.Equal(t, "panZoomOptions", zoom[0].ChangedPath)
	assert.Empty(t, panning)
}

func TestStore_SubscribeAll(t *testing.T) {
	s, _ := newTestStore(t, nil)

	var order []string
	var global GlobalChange
	s.SubscribeAll(func(c GlobalChange) {
		order = append(order, "global")
		global = c
	})
	s.Subscribe("showGrid", func(Change) { order = append(order, "path") })

	require.NoError(t, s.Set("showGrid", false))

	assert.Equal(t, []string{"path", "global"}, order)
	assert.Equal(t, []string{"showGrid"}, global.Paths)
	assert.Equal(t, false, global.State["showGrid"])
	assert.Equal(t, true, global.OldValues["showGrid"])
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newTestStore(t, nil)

	calls := 0
	unsub := s.Subscribe("gridSize", func(Change) { calls++ })
	require.Equal(t, 1, s.SubscriberCount())

	unsub()
	unsub()
	require.NoError(t, s.Set("gridSize", 10))

	assert.Zero(t, calls)
	assert.Zero(t, s.SubscriberCount())
}

func TestStore_MalformedSubscription(t *testing.T) {
	s, logs := newTestStore(t, nil)

	unsub := s.Subscribe("gridSize", nil)
	require.NotNil(t, unsub)
	unsub()

	s.SubscribeBatch(nil, func([]any) {})
	s.SubscribeAll(nil)

	assert.Zero(t, s.SubscriberCount())
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestStore_ListenerPanicIsContained(t *testing.T) {
	s, logs := newTestStore(t, nil)

	reached := false
	s.Subscribe("gridSize", func(Change) { panic("boom") })
	s.SubscribeAll(func(GlobalChange) { reached = true })

	require.NoError(t, s.Set("gridSize", 5))
	assert.True(t, reached)
	assert.Contains(t, logs.String(), "state listener panicked")
	assert.Equal(t, 5, s.Value("gridSize"))
}

func TestStore_ReentrantSet(t *testing.T) {
	s, _ := newTestStore(t, nil)

	s.Subscribe("currentTool", func(c Change) {
		if c.Value == "rect" {
			require.NoError(t, s.Set("activeDrawTool", "rect"))
		}
	})

	require.NoError(t, s.Set("currentTool", "rect"))
	assert.Equal(t, "rect", s.Value("activeDrawTool"))
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t, nil)

	var got *Change
	s.Subscribe("selectOptions.isDragAdoption", func(c Change) { got = &c })

	assert.True(t, s.Delete("selectOptions.isDragAdoption"))
	assert.False(t, s.Delete("selectOptions.isDragAdoption"))

	require.NotNil(t, got)
	assert.Nil(t, got.Value)
	assert.Equal(t, false, got.OldValue)
}

func TestStore_ResetNotifiesChangedPaths(t *testing.T) {
	s, _ := newTestStore(t, map[string]any{"gridSize": 40})

	var paths []string
	s.Subscribe("gridSize", func(c Change) { paths = append(paths, c.Path) })
	s.Subscribe("svgBgColor", func(c Change) { paths = append(paths, c.Path) })
	s.Subscribe("panZoomOptions", func(c Change) { paths = append(paths, c.Path) })

	var global GlobalChange
	s.SubscribeAll(func(c GlobalChange) { global = c })

	s.Reset(map[string]any{"panZoomOptions": map[string]any{"zoomMax": 8}})

	assert.ElementsMatch(t, []string{"gridSize", "panZoomOptions"}, paths)
	assert.Equal(t, []string{"gridSize", "panZoomOptions.zoomMax"}, global.Paths)
	assert.Equal(t, 40, global.OldValues["gridSize"])
	assert.Equal(t, 20, s.Value("gridSize"))
}

func TestStore_ResetWithoutChangesIsSilent(t *testing.T) {
	s, _ := newTestStore(t, nil)

	calls := 0
	s.SubscribeAll(func(GlobalChange) { calls++ })
	s.Reset(nil)

	assert.Zero(t, calls)
}

func TestStore_Destroy(t *testing.T) {
	s, _ := newTestStore(t, nil)

	calls := 0
	s.Subscribe("gridSize", func(Change) { calls++ })
	s.Destroy()

	assert.ErrorIs(t, s.Set("gridSize", 1), ErrDestroyed)
	assert.Empty(t, s.Snapshot())
	assert.Zero(t, s.SubscriberCount())
	assert.Zero(t, calls)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	overrides := map[string]any{"selectOptions": map[string]any{"isDragAdoption": true}}
	defaults := Defaults()

	merged := Merge(defaults, overrides)
	merged["selectOptions"].(map[string]any)["isBoxSelection"] = false

	assert.Equal(t, true, defaults["selectOptions"].(map[string]any)["isBoxSelection"])
	assert.Len(t, overrides["selectOptions"], 1)
}
