package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resetRecorder struct {
	mu    sync.Mutex
	calls []map[string]any
}

func (r *resetRecorder) Reset(newState map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, newState)
}

func (r *resetRecorder) last() (map[string]any, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil, 0
	}
	return r.calls[len(r.calls)-1], len(r.calls)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "options.yaml", "gridSize: 10\n")
	target := &resetRecorder{}

	w, err := Watch(path, target, WithReloadDelay(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("gridSize: 30\n"), 0o644))

	assert.Eventually(t, func() bool {
		got, _ := target.last()
		return got != nil && got["gridSize"] == 30
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeFile(t, "options.yaml", "gridSize: 10\n")
	target := &resetRecorder{}

	w, err := Watch(path, target, WithReloadDelay(5*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	require.NoError(t, os.WriteFile(sibling, []byte("gridSize: 99\n"), 0o644))

	assert.Never(t, func() bool {
		_, n := target.last()
		return n > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_ReportsReloadErrors(t *testing.T) {
	path := writeFile(t, "options.json", `{"gridSize": 10}`)
	target := &resetRecorder{}

	errs := make(chan error, 4)
	w, err := Watch(path, target,
		WithReloadDelay(5*time.Millisecond),
		WithOnReload(func(_ map[string]any, err error) {
			if err != nil {
				errs <- err
			}
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte(`{"gridSize":`), 0o644))

	select {
	case err := <-errs:
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	case <-time.After(2 * time.Second):
		t.Fatal("reload error not reported")
	}
	_, n := target.last()
	assert.Zero(t, n)
}

func TestWatcher_Close(t *testing.T) {
	path := writeFile(t, "options.toml", "gridSize = 1\n")

	w, err := Watch(path, &resetRecorder{})
	require.NoError(t, err)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, w.Path())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrWatcherClosed)
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "nope", "options.toml"), &resetRecorder{})
	assert.Error(t, err)
}
