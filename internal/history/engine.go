package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/vectorcore/internal/debounce"
	"github.com/dshills/vectorcore/internal/entity"
	"github.com/dshills/vectorcore/internal/event"
	"github.com/dshills/vectorcore/internal/state"
)

// EntityStore is the entity registry the engine snapshots and replays
// through.
type EntityStore interface {
	Register(e entity.Element) (string, error)
	Remove(id string, purge bool) (entity.Element, bool)
	Update(id string, p entity.Patch) error
	Get(id string) (entity.Element, bool)
	Has(id string) bool
}

// Bus is the event source the engine listens on.
type Bus interface {
	On(topic event.Topic, handler event.Handler, opts ...event.ListenerOption) *event.Listener
}

// StateSource exposes canvas-level state changes.
type StateSource interface {
	SubscribeBatch(paths []string, fn func(values []any)) state.Unsubscribe
}

// Engine records entity changes announced on the bus as undoable actions.
//
// Registrations and removals are recorded immediately. Data changes are
// collected per entity and flushed as one BatchUpdate once the debounce
// delay passes without further changes. While an undo or redo is being
// applied, events caused by the replay are ignored.
//
// Thread-safety: All methods are safe for concurrent use. Flush, Undo and
// Redo are serialized with each other.
type Engine struct {
	mu         sync.Mutex
	undoStack  []Action
	redoStack  []Action
	snapshots  map[string]entity.Element
	pending    []string
	pendingSet map[string]struct{}
	maxEntries int

	// applyMu serializes flush, undo and redo.
	applyMu    sync.Mutex
	suppressed atomic.Bool
	destroyed  atomic.Bool

	store          EntityStore
	listeners      []*event.Listener
	state          StateSource
	unsubState     state.Unsubscribe
	debouncer      *debounce.Debouncer
	clock          debounce.Clock
	delay          time.Duration
	flushOnDestroy bool

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an engine recording changes to store announced on bus.
func New(bus Bus, store EntityStore, opts ...Option) *Engine {
	e := &Engine{
		snapshots:  make(map[string]entity.Element),
		pendingSet: make(map[string]struct{}),
		maxEntries: DefaultMaxEntries,
		store:      store,
		clock:      debounce.RealClock(),
		delay:      DefaultDebounceDelay,
		logger:     slog.Default(),
		tracer:     otel.Tracer("vectorcore/history"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "history"))
	e.debouncer = debounce.New(e.delay, e.flushFromTimer, debounce.WithClock(e.clock))

	e.listeners = []*event.Listener{
		bus.On(event.TopicEntityRegistered, e.onRegistered),
		bus.On(event.TopicEntityRemoved, e.onRemoved),
		bus.On(event.TopicEntityFormatted, e.onChanged),
		bus.On(event.TopicEntityUpdated, e.onChanged),
	}

	if e.state != nil {
		e.unsubState = e.state.SubscribeBatch(state.CanvasPaths, e.onCanvasChanged)
	}
	return e
}

func (e *Engine) inactive() bool {
	return e.suppressed.Load() || e.destroyed.Load()
}

func (e *Engine) onRegistered(args ...any) error {
	if e.inactive() {
		return nil
	}
	id, ok := idFrom(args)
	if !ok {
		return fmt.Errorf("%s: %w", event.TopicEntityRegistered, ErrInvalidPayload)
	}

	e.debouncer.Cancel()
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	e.flushLocked(nil)

	snap, ok := e.store.Get(id)
	if !ok {
		e.logger.Warn("registered entity not found", slog.String("id", id))
		return nil
	}

	e.mu.Lock()
	e.snapshots[id] = snap.Clone()
	e.pushLocked(Add{Snapshot: snap, At: e.clock.Now()})
	depth := len(e.undoStack)
	e.mu.Unlock()

	e.logger.Debug("recorded add", slog.String("id", id), slog.Int("undo_depth", depth))
	return nil
}

func (e *Engine) onRemoved(args ...any) error {
	if e.inactive() {
		return nil
	}
	id, ok := idFrom(args)
	if !ok {
		return fmt.Errorf("%s: %w", event.TopicEntityRemoved, ErrInvalidPayload)
	}
	carried, hasCarried := elementFrom(args)

	e.debouncer.Cancel()
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	var current map[string]entity.Element
	if hasCarried {
		current = map[string]entity.Element{id: carried}
	}
	e.flushLocked(current)

	e.mu.Lock()
	snap, tracked := e.snapshots[id]
	if hasCarried {
		snap, tracked = carried.Clone(), true
	}
	delete(e.snapshots, id)
	e.dropPendingLocked(id)
	if !tracked {
		e.mu.Unlock()
		e.logger.Warn("removed entity was never tracked", slog.String("id", id))
		return nil
	}
	e.pushLocked(Remove{Snapshot: snap, At: e.clock.Now()})
	depth := len(e.undoStack)
	e.mu.Unlock()

	e.logger.Debug("recorded remove", slog.String("id", id), slog.Int("undo_depth", depth))
	return nil
}

func (e *Engine) onChanged(args ...any) error {
	if e.inactive() {
		return nil
	}
	ids, ok := idsFrom(args)
	if !ok {
		return fmt.Errorf("entity change: %w", ErrInvalidPayload)
	}

	for _, id := range ids {
		if !e.store.Has(id) {
			e.logger.Debug("change for unknown entity", slog.String("id", id))
			continue
		}

		e.mu.Lock()
		_, tracked := e.snapshots[id]
		e.mu.Unlock()

		if !tracked {
			// Taken after the change, so this first edit has no usable
			// prev. Register entities before mutating them.
			if snap, ok := e.store.Get(id); ok {
				e.mu.Lock()
				if _, ok := e.snapshots[id]; !ok {
					e.snapshots[id] = snap
				}
				e.mu.Unlock()
				e.logger.Debug("late baseline snapshot", slog.String("id", id))
			}
		}

		e.mu.Lock()
		if _, queued := e.pendingSet[id]; !queued {
			e.pendingSet[id] = struct{}{}
			e.pending = append(e.pending, id)
		}
		e.mu.Unlock()
	}

	e.debouncer.Call()
	return nil
}

func (e *Engine) onCanvasChanged(values []any) {
	attrs := make([]any, 0, len(values))
	for i, v := range values {
		attrs = append(attrs, slog.Any(state.CanvasPaths[i], v))
	}
	e.logger.Debug("canvas state changed; not recorded", attrs...)
}

func (e *Engine) flushFromTimer() {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	e.flushLocked(nil)
}

// Flush records the pending batch now instead of waiting for the
// debounce delay. It reports whether an action was pushed.
func (e *Engine) Flush() bool {
	e.debouncer.Cancel()
	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	return e.flushLocked(nil)
}

// flushLocked turns the pending ids into one BatchUpdate. current
// supplies snapshots for ids no longer in the store. Must hold applyMu.
func (e *Engine) flushLocked(current map[string]entity.Element) bool {
	e.mu.Lock()
	ids := e.pending
	e.pending = nil
	e.pendingSet = make(map[string]struct{})
	e.mu.Unlock()

	if len(ids) == 0 {
		return false
	}

	_, span := e.tracer.Start(context.Background(), "history.Flush",
		trace.WithAttributes(attribute.Int("pending", len(ids))),
	)
	defer span.End()

	var changes []Change
	for _, id := range ids {
		next, ok := current[id]
		if !ok {
			next, ok = e.store.Get(id)
		}
		if !ok {
			continue
		}

		e.mu.Lock()
		prev, tracked := e.snapshots[id]
		e.snapshots[id] = next.Clone()
		e.mu.Unlock()

		if !tracked {
			continue
		}
		changes = append(changes, Change{ID: id, Prev: prev, Next: next})
	}

	span.SetAttributes(attribute.Int("changes", len(changes)))
	if len(changes) == 0 {
		return false
	}

	e.mu.Lock()
	e.pushLocked(BatchUpdate{Changes: changes, At: e.clock.Now()})
	depth := len(e.undoStack)
	e.mu.Unlock()

	e.logger.Debug("recorded batch update",
		slog.Int("changes", len(changes)),
		slog.Int("undo_depth", depth),
	)
	return true
}

// Undo reverts the most recent action. A pending batch is flushed first.
func (e *Engine) Undo() error {
	return e.step(true)
}

// Redo reapplies the most recently undone action.
func (e *Engine) Redo() error {
	return e.step(false)
}

func (e *Engine) step(undo bool) error {
	if e.destroyed.Load() {
		return ErrDestroyed
	}
	op := "redo"
	if undo {
		op = "undo"
	}

	e.debouncer.Cancel()
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	e.flushLocked(nil)

	e.mu.Lock()
	src := &e.redoStack
	if undo {
		src = &e.undoStack
	}
	if len(*src) == 0 {
		e.mu.Unlock()
		if undo {
			return ErrNothingToUndo
		}
		return ErrNothingToRedo
	}
	action := (*src)[len(*src)-1]
	*src = (*src)[:len(*src)-1]
	e.mu.Unlock()

	_, span := e.tracer.Start(context.Background(), "history."+op,
		trace.WithAttributes(
			attribute.String("action.kind", action.Kind().String()),
			attribute.Int("action.entities", len(action.IDs())),
		),
	)
	defer span.End()

	if err := e.apply(action, undo); err != nil {
		applyErr := &ApplyError{Op: op, Kind: action.Kind(), Err: err}
		e.logger.Error("history apply failed",
			slog.String("op", op),
			slog.String("kind", action.Kind().String()),
			slog.String("error", err.Error()),
		)
		span.RecordError(applyErr)
		span.SetStatus(codes.Error, applyErr.Error())
		return applyErr
	}

	e.mu.Lock()
	if undo {
		e.redoStack = e.appendBounded(e.redoStack, action)
	} else {
		e.undoStack = e.appendBounded(e.undoStack, action)
	}
	e.mu.Unlock()

	e.logger.Debug(op, slog.String("action", action.Description()))
	return nil
}

// apply replays action backwards (undo) or forwards with recording
// suppressed. Must hold applyMu.
func (e *Engine) apply(action Action, undo bool) error {
	e.suppressed.Store(true)
	defer e.suppressed.Store(false)

	switch a := action.(type) {
	case BatchUpdate:
		var errs []error
		for _, c := range a.Changes {
			target := c.Next
			if undo {
				target = c.Prev
			}
			if err := e.store.Update(c.ID, entity.PatchFrom(target)); err != nil {
				errs = append(errs, err)
				continue
			}
			baseline, ok := e.store.Get(c.ID)
			if !ok {
				baseline = target.Clone()
			}
			e.mu.Lock()
			e.snapshots[c.ID] = baseline
			e.mu.Unlock()
		}
		return errors.Join(errs...)

	case Add:
		if undo {
			return e.removeEntity(a.Snapshot.ID)
		}
		return e.restoreEntity(a.Snapshot)

	case Remove:
		if undo {
			return e.restoreEntity(a.Snapshot)
		}
		return e.removeEntity(a.Snapshot.ID)

	default:
		return fmt.Errorf("unknown action %T", action)
	}
}

func (e *Engine) removeEntity(id string) error {
	if _, ok := e.store.Remove(id, true); !ok {
		return fmt.Errorf("remove %s: %w", id, entity.ErrNotFound)
	}
	e.mu.Lock()
	delete(e.snapshots, id)
	e.dropPendingLocked(id)
	e.mu.Unlock()
	return nil
}

func (e *Engine) restoreEntity(snap entity.Element) error {
	if _, err := e.store.Register(snap.Clone()); err != nil {
		return err
	}
	baseline, ok := e.store.Get(snap.ID)
	if !ok {
		baseline = snap.Clone()
	}
	e.mu.Lock()
	e.snapshots[snap.ID] = baseline
	e.mu.Unlock()
	return nil
}

// pushLocked records a new forward action: it appends to the undo stack,
// clears the redo stack and trims the oldest entries. Must hold mu.
func (e *Engine) pushLocked(a Action) {
	e.undoStack = e.appendBounded(e.undoStack, a)
	e.redoStack = nil
}

func (e *Engine) appendBounded(stack []Action, a Action) []Action {
	stack = append(stack, a)
	if len(stack) > e.maxEntries {
		excess := len(stack) - e.maxEntries
		stack = append([]Action(nil), stack[excess:]...)
	}
	return stack
}

func (e *Engine) dropPendingLocked(id string) {
	if _, ok := e.pendingSet[id]; !ok {
		return
	}
	delete(e.pendingSet, id)
	for i, p := range e.pending {
		if p == id {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			break
		}
	}
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (e *Engine) UndoCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undoStack)
}

// RedoCount returns the number of redo entries.
func (e *Engine) RedoCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redoStack)
}

// UndoInfo describes the undo stack, oldest first.
func (e *Engine) UndoInfo() []OperationInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return infos(e.undoStack)
}

// RedoInfo describes the redo stack, oldest first.
func (e *Engine) RedoInfo() []OperationInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return infos(e.redoStack)
}

func infos(stack []Action) []OperationInfo {
	result := make([]OperationInfo, len(stack))
	for i, a := range stack {
		result[i] = infoOf(a)
	}
	return result
}

// PeekUndo returns the action the next Undo would revert.
func (e *Engine) PeekUndo() (Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undoStack) == 0 {
		return nil, false
	}
	return e.undoStack[len(e.undoStack)-1], true
}

// PeekRedo returns the action the next Redo would reapply.
func (e *Engine) PeekRedo() (Action, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.redoStack) == 0 {
		return nil, false
	}
	return e.redoStack[len(e.redoStack)-1], true
}

// Clear drops both stacks and any pending batch. Baseline snapshots are
// kept so later edits still diff correctly.
func (e *Engine) Clear() {
	e.debouncer.Cancel()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.undoStack = nil
	e.redoStack = nil
	e.pending = nil
	e.pendingSet = make(map[string]struct{})
}

// Reset clears like Clear and also drops every baseline snapshot. Use it
// once the tracked entities are gone.
func (e *Engine) Reset() {
	e.Clear()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshots = make(map[string]entity.Element)
}

// SnapshotCount returns the number of entities with a baseline snapshot.
func (e *Engine) SnapshotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.snapshots)
}

// SetMaxEntries changes the stack bound, evicting the oldest entries
// of both stacks if needed. Values <= 0 select the default.
func (e *Engine) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxEntries = max
	e.undoStack = trimOldest(e.undoStack, max)
	e.redoStack = trimOldest(e.redoStack, max)
}

// trimOldest drops entries from the front of stack until it holds at
// most max.
func trimOldest(stack []Action, max int) []Action {
	if len(stack) <= max {
		return stack
	}
	return append([]Action(nil), stack[len(stack)-max:]...)
}

// MaxEntries returns the stack bound.
func (e *Engine) MaxEntries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxEntries
}

// PendingCount returns the number of entities waiting to be flushed.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Snapshot returns the baseline snapshot held for id.
func (e *Engine) Snapshot(id string) (entity.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.snapshots[id]
	if !ok {
		return entity.Element{}, false
	}
	return snap.Clone(), true
}

// Destroy detaches the engine from the bus and state. A pending batch is
// discarded unless WithFlushOnDestroy was given. Undo and Redo return
// ErrDestroyed afterwards.
func (e *Engine) Destroy() {
	if e.flushOnDestroy && !e.destroyed.Load() {
		e.Flush()
	}
	if e.destroyed.Swap(true) {
		return
	}

	e.debouncer.Cancel()
	for _, l := range e.listeners {
		l.Off()
	}
	if e.unsubState != nil {
		e.unsubState()
	}

	e.mu.Lock()
	e.listeners = nil
	e.pending = nil
	e.pendingSet = make(map[string]struct{})
	e.mu.Unlock()
}

func idFrom(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	id, ok := args[0].(string)
	return id, ok && id != ""
}

func idsFrom(args []any) ([]string, bool) {
	if len(args) == 0 {
		return nil, false
	}
	switch v := args[0].(type) {
	case string:
		return []string{v}, v != ""
	case []string:
		return v, true
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	default:
		return nil, false
	}
}

func elementFrom(args []any) (entity.Element, bool) {
	if len(args) < 2 {
		return entity.Element{}, false
	}
	switch v := args[1].(type) {
	case entity.Element:
		return v, true
	case *entity.Element:
		if v != nil {
			return *v, true
		}
	}
	return entity.Element{}, false
}
