package state

import "errors"

// Sentinel errors for the state store.
var (
	// ErrEmptyPath is returned when a write targets the root.
	ErrEmptyPath = errors.New("state: empty path")

	// ErrDestroyed is returned by writes after Destroy.
	ErrDestroyed = errors.New("state: store destroyed")
)
