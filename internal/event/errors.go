package event

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic is matched by PanicError via errors.Is.
var ErrHandlerPanic = errors.New("handler panicked")

// HandlerError wraps an error returned by a handler with its topic.
type HandlerError struct {
	// Topic is the topic being dispatched.
	Topic Topic

	// ListenerID identifies the listener whose handler failed.
	ListenerID uint64

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error for listener %d on topic %s: %v", e.ListenerID, e.Topic, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	// Topic is the topic being dispatched.
	Topic Topic

	// ListenerID identifies the listener whose handler panicked.
	ListenerID uint64

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for listener %d on topic %s: %v", e.ListenerID, e.Topic, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
