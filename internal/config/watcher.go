package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/vectorcore/internal/debounce"
)

// Resetter receives reloaded options.
type Resetter interface {
	Reset(newState map[string]any)
}

// ReloadFunc observes each reload attempt.
type ReloadFunc func(overrides map[string]any, err error)

// Watcher reloads an options file when it changes on disk and resets the
// target with the result. Editors often replace files rather than write
// them in place, so the file's directory is watched.
type Watcher struct {
	mu     sync.Mutex
	closed bool

	path    string
	target  Resetter
	watcher *fsnotify.Watcher
	reload  *debounce.Debouncer

	logger   *slog.Logger
	delay    time.Duration
	onReload ReloadFunc

	done chan struct{}
	wg   sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger. Defaults to slog.Default().
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReloadDelay sets the debounce duration for rapid changes.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithOnReload registers a hook called after every reload attempt.
func WithOnReload(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watch starts watching path and resets target whenever it changes.
func Watch(path string, target Resetter, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    absPath,
		target:  target,
		watcher: fsw,
		logger:  slog.Default(),
		delay:   100 * time.Millisecond,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "config"), slog.String("path", absPath))
	w.reload = debounce.New(w.delay, w.reloadNow)

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.reload.Cancel()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.reload.Call()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reloadNow() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	overrides, err := Load(w.path)
	if err != nil {
		w.logger.Error("reload failed", slog.String("error", err.Error()))
	} else {
		w.target.Reset(overrides)
		w.logger.Info("options reloaded", slog.Int("keys", len(overrides)))
	}

	if w.onReload != nil {
		w.onReload(overrides, err)
	}
}
