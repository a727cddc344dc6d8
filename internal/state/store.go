package state

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/vectorcore/internal/tree"
)

// Change describes a change delivered to a single-path subscriber.
type Change struct {
	// Path is the subscribed path.
	Path string

	// ChangedPath is the path that was written. It equals Path, is a
	// descendant of Path, or is an ancestor of Path.
	ChangedPath string

	// Value is the current value at Path (a copy).
	Value any

	// OldValue is the value at Path before the change (a copy).
	OldValue any
}

// GlobalChange describes a change delivered to SubscribeAll subscribers.
type GlobalChange struct {
	// Paths lists the written paths.
	Paths []string

	// State is a copy of the whole tree after the change.
	State map[string]any

	// OldValues maps each written path to its previous value.
	OldValues map[string]any
}

// Unsubscribe removes a subscription. It is safe to call more than once.
type Unsubscribe func()

type subscription struct {
	id      uint64
	paths   []string
	single  func(Change)
	batch   func(values []any)
	global  func(GlobalChange)
	removed atomic.Bool
}

// Store is an observable tree of editor options addressed by dot paths.
//
// Writes go through Set, Delete and Reset. Each write that changes a value
// notifies subscribers of the written path, of every ancestor path, and
// of descendant paths whose value changed. A subscriber is called at most
// once per write. Callbacks run after the store lock is released and may
// write to the store again.
type Store struct {
	mu        sync.RWMutex
	data      map[string]any
	defaults  map[string]any
	paths     map[string][]*subscription
	global    []*subscription
	nextID    uint64
	destroyed bool

	logger *slog.Logger
}

// New creates a store holding the defaults merged with overrides.
func New(overrides map[string]any, opts ...Option) *Store {
	s := &Store{
		defaults: Defaults(),
		paths:    make(map[string][]*subscription),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "state"))
	s.data = Merge(s.defaults, overrides)
	return s
}

// Snapshot returns a deep copy of the whole tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.CloneMap(s.data)
}

// Get returns a copy of the value at path. The empty path returns the
// whole tree.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := tree.Get(s.data, path)
	if !ok {
		return nil, false
	}
	return tree.Clone(v), true
}

// Value returns the value at path, or nil when it does not exist.
func (s *Store) Value(path string) any {
	v, _ := s.Get(path)
	return v
}

// Set writes value at path, creating intermediate maps as needed.
// Subscribers are notified only when the stored value changes.
func (s *Store) Set(path string, value any) error {
	if path == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}

	old, existed := tree.Get(s.data, path)
	if existed && tree.Equal(old, value) {
		s.mu.Unlock()
		return nil
	}

	prior := s.priorLocked(path)
	tree.Set(s.data, path, tree.Clone(value))
	batch := s.planLocked([]string{path}, prior)
	s.mu.Unlock()

	s.dispatch(batch)
	return nil
}

// Delete removes the node at path and notifies like Set. It reports
// whether the node existed.
func (s *Store) Delete(path string) bool {
	if path == "" {
		return false
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return false
	}
	if _, ok := tree.Get(s.data, path); !ok {
		s.mu.Unlock()
		return false
	}

	prior := s.priorLocked(path)
	tree.Delete(s.data, path)
	batch := s.planLocked([]string{path}, prior)
	s.mu.Unlock()

	s.dispatch(batch)
	return true
}

// Reset replaces the tree with the defaults merged with newState and
// notifies every path that differs from the previous tree. Unlike a
// blanket reset that announces every top-level key, a Reset that leaves
// the tree unchanged notifies no one.
func (s *Store) Reset(newState map[string]any) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}

	prior := s.data
	s.data = Merge(s.defaults, newState)
	changed := tree.Diff(prior, s.data)
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.planLocked(changed, prior)
	s.mu.Unlock()

	s.logger.Debug("state reset", slog.Int("changed", len(changed)))
	s.dispatch(batch)
}

// Subscribe calls fn whenever the value at path may have changed.
func (s *Store) Subscribe(path string, fn func(Change)) Unsubscribe {
	if fn == nil || path == "" {
		s.logger.Warn("subscription requires a path and a callback", slog.String("path", path))
		return func() {}
	}
	return s.add(&subscription{paths: []string{path}, single: fn})
}

// SubscribeBatch watches several paths with one callback. fn receives the
// current value of every watched path, in order, and runs at most once per
// write however many of the paths it implicates.
func (s *Store) SubscribeBatch(paths []string, fn func(values []any)) Unsubscribe {
	if fn == nil || len(paths) == 0 {
		s.logger.Warn("batch subscription requires paths and a callback", slog.Any("paths", paths))
		return func() {}
	}
	return s.add(&subscription{paths: append([]string(nil), paths...), batch: fn})
}

// SubscribeAll calls fn after every change, following the path subscribers.
func (s *Store) SubscribeAll(fn func(GlobalChange)) Unsubscribe {
	if fn == nil {
		s.logger.Warn("global subscription requires a callback")
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &subscription{id: s.nextID, global: fn}
	s.global = append(s.global, sub)
	return func() { s.remove(sub) }
}

// SubscriberCount returns the number of live subscriptions.
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uint64]struct{})
	for _, subs := range s.paths {
		for _, sub := range subs {
			seen[sub.id] = struct{}{}
		}
	}
	return len(seen) + len(s.global)
}

// Destroy clears the tree and every subscription. Writes made afterwards
// return ErrDestroyed.
func (s *Store) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, subs := range s.paths {
		for _, sub := range subs {
			sub.removed.Store(true)
		}
	}
	for _, sub := range s.global {
		sub.removed.Store(true)
	}
	s.paths = make(map[string][]*subscription)
	s.global = nil
	s.data = map[string]any{}
	s.destroyed = true
}

func (s *Store) add(sub *subscription) Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return func() {}
	}

	s.nextID++
	sub.id = s.nextID
	for _, p := range sub.paths {
		s.paths[p] = append(s.paths[p], sub)
	}
	return func() { s.remove(sub) }
}

func (s *Store) remove(sub *subscription) {
	if sub.removed.Swap(true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range sub.paths {
		s.paths[p] = without(s.paths[p], sub)
		if len(s.paths[p]) == 0 {
			delete(s.paths, p)
		}
	}
	if sub.global != nil {
		s.global = without(s.global, sub)
	}
}

func without(subs []*subscription, sub *subscription) []*subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s != sub {
			out = append(out, s)
		}
	}
	return out
}

// priorLocked captures the top-level subtree that a write to path can
// affect, so old values can be read after the write.
func (s *Store) priorLocked(path string) map[string]any {
	head := tree.Split(path)[0]
	v, ok := s.data[head]
	if !ok {
		return map[string]any{}
	}
	return map[string]any{head: tree.Clone(v)}
}

// notification is one pending callback invocation, with values captured
// under the lock.
type notification struct {
	sub    *subscription
	change Change
	values []any
	global GlobalChange
}

// planLocked computes the notifications for writes to changed, given the
// tree as it was before the writes.
func (s *Store) planLocked(changed []string, prior map[string]any) []notification {
	var out []notification
	notified := make(map[uint64]struct{})

	for _, path := range changed {
		for _, key := range s.candidatesLocked(path, prior) {
			for _, sub := range s.paths[key] {
				if _, done := notified[sub.id]; done {
					continue
				}
				notified[sub.id] = struct{}{}

				n := notification{sub: sub}
				if sub.single != nil {
					cur, _ := tree.Get(s.data, key)
					old, _ := tree.Get(prior, key)
					n.change = Change{
						Path:        key,
						ChangedPath: path,
						Value:       tree.Clone(cur),
						OldValue:    tree.Clone(old),
					}
				} else {
					n.values = make([]any, len(sub.paths))
					for i, p := range sub.paths {
						v, _ := tree.Get(s.data, p)
						n.values[i] = tree.Clone(v)
					}
				}
				out = append(out, n)
			}
		}
	}

	if len(s.global) > 0 {
		oldValues := make(map[string]any, len(changed))
		for _, path := range changed {
			old, _ := tree.Get(prior, path)
			oldValues[path] = tree.Clone(old)
		}
		for _, sub := range s.global {
			out = append(out, notification{
				sub: sub,
				global: GlobalChange{
					Paths:     append([]string(nil), changed...),
					State:     tree.CloneMap(s.data),
					OldValues: tree.CloneMap(oldValues),
				},
			})
		}
	}
	return out
}

// candidatesLocked returns the subscribed keys affected by a write to
// path: its ancestors and itself, then subscribed descendants whose value
// changed, in lexical order.
func (s *Store) candidatesLocked(path string, prior map[string]any) []string {
	keys := tree.Ancestors(path)

	var descendants []string
	for key := range s.paths {
		if key == path || !tree.IsParentPath(path, key) {
			continue
		}
		cur, _ := tree.Get(s.data, key)
		old, _ := tree.Get(prior, key)
		if !tree.Equal(cur, old) {
			descendants = append(descendants, key)
		}
	}
	sort.Strings(descendants)
	return append(keys, descendants...)
}

func (s *Store) dispatch(batch []notification) {
	for _, n := range batch {
		if n.sub.removed.Load() {
			continue
		}
		s.invoke(n)
	}
}

func (s *Store) invoke(n notification) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state listener panicked",
				slog.Any("paths", n.sub.paths),
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	switch {
	case n.sub.single != nil:
		n.sub.single(n.change)
	case n.sub.batch != nil:
		n.sub.batch(n.values)
	case n.sub.global != nil:
		n.sub.global(n.global)
	}
}
