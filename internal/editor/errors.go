package editor

import "errors"

// ErrDestroyed is returned by operations on a destroyed context.
var ErrDestroyed = errors.New("editor context destroyed")

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
