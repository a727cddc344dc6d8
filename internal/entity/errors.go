package entity

import "errors"

// Sentinel errors for the entity store.
var (
	// ErrNotFound is returned when no element has the given id.
	ErrNotFound = errors.New("entity: not found")

	// ErrDuplicateID is returned when registering an id already in use.
	ErrDuplicateID = errors.New("entity: duplicate id")

	// ErrInvalidDocument is returned by Import for malformed input.
	ErrInvalidDocument = errors.New("entity: invalid document")
)
