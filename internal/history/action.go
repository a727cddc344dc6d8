package history

import (
	"fmt"
	"time"

	"github.com/dshills/vectorcore/internal/entity"
)

// ActionKind identifies the variant of an Action.
type ActionKind int

const (
	// KindBatchUpdate is a debounced group of entity data changes.
	KindBatchUpdate ActionKind = iota

	// KindAdd is an entity registration.
	KindAdd

	// KindRemove is an entity removal.
	KindRemove
)

// String returns the action kind name.
func (k ActionKind) String() string {
	switch k {
	case KindBatchUpdate:
		return "batch_update"
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Action is one undoable entry. The set of implementations is closed:
// BatchUpdate, Add and Remove.
type Action interface {
	Kind() ActionKind
	Timestamp() time.Time
	Description() string
	IDs() []string

	action()
}

// Change is the before and after state of one entity within a batch.
type Change struct {
	ID   string
	Prev entity.Element
	Next entity.Element
}

// BatchUpdate groups every entity change flushed from one debounce window.
type BatchUpdate struct {
	Changes []Change
	At      time.Time
}

// Add records an entity registration.
type Add struct {
	Snapshot entity.Element
	At       time.Time
}

// Remove records an entity removal.
type Remove struct {
	Snapshot entity.Element
	At       time.Time
}

func (BatchUpdate) action() {}
func (Add) action()         {}
func (Remove) action()      {}

func (BatchUpdate) Kind() ActionKind { return KindBatchUpdate }
func (Add) Kind() ActionKind         { return KindAdd }
func (Remove) Kind() ActionKind      { return KindRemove }

func (a BatchUpdate) Timestamp() time.Time { return a.At }
func (a Add) Timestamp() time.Time         { return a.At }
func (a Remove) Timestamp() time.Time      { return a.At }

func (a BatchUpdate) Description() string {
	if len(a.Changes) == 1 {
		return "update " + a.Changes[0].ID
	}
	return fmt.Sprintf("update %d entities", len(a.Changes))
}

func (a Add) Description() string    { return "add " + a.Snapshot.ID }
func (a Remove) Description() string { return "remove " + a.Snapshot.ID }

func (a BatchUpdate) IDs() []string {
	ids := make([]string, len(a.Changes))
	for i, c := range a.Changes {
		ids[i] = c.ID
	}
	return ids
}

func (a Add) IDs() []string    { return []string{a.Snapshot.ID} }
func (a Remove) IDs() []string { return []string{a.Snapshot.ID} }

// OperationInfo provides read-only info about a stack entry.
// Used for displaying undo/redo history to users.
type OperationInfo struct {
	Kind        ActionKind
	Description string
	Timestamp   time.Time
	IDs         []string
}

func infoOf(a Action) OperationInfo {
	return OperationInfo{
		Kind:        a.Kind(),
		Description: a.Description(),
		Timestamp:   a.Timestamp(),
		IDs:         a.IDs(),
	}
}
