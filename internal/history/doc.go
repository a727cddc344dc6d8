// Package history provides undo/redo for entity edits.
//
// The Engine listens to the entity lifecycle topics on an event bus and
// turns them into undoable actions:
//
//   - entity-registered: an Add action, recorded immediately
//   - entity-removed: a Remove action, recorded immediately
//   - entity-data-formatted, entity-data-updated: the ids are collected and,
//     once the debounce delay passes quietly, flushed as one BatchUpdate
//
// Each action holds snapshots taken through the EntityStore, so undo and
// redo replay by writing snapshots back rather than by inverting edits.
//
// # Usage
//
//	engine := history.New(bus, store, history.WithMaxEntries(50))
//	defer engine.Destroy()
//
//	store.Translate([]string{id}, 10, 10)
//	engine.Flush()
//	engine.Undo() // back to the previous position
//	engine.Redo()
//
// # Baselines
//
// The engine keeps the last known snapshot of every tracked entity. An
// entity first seen through a data-change event gets its baseline at that
// moment, after the change, so that first change cannot be undone.
// Register entities before editing them.
//
// Canvas-level state (size, background, grid) can be observed with
// WithState but is never recorded.
package history
