package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrDestroyed      = errors.New("history: engine destroyed")
	ErrInvalidPayload = errors.New("history: invalid event payload")
)

// ApplyError reports a failure while replaying an action. The action has
// been popped and is not restored to either stack.
type ApplyError struct {
	// Op is "undo" or "redo".
	Op string

	// Kind is the kind of the dropped action.
	Kind ActionKind

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}
