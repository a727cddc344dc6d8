// Package event provides the in-process event bus that connects the entity
// store, the history engine and the editing session.
//
// The bus is a plain synchronous emitter: Emit calls every listener for a
// topic, in the order the listeners were registered, before it returns.
// There is no queue and no backpressure.
//
// # Topics
//
// Topics are exact names. The entity lifecycle topics form the contract
// between an entity store and the history engine:
//
//	entity-registered      - payload: id
//	entity-removed         - payload: id, removed element (optional)
//	entity-data-formatted  - payload: id or []string (geometry, position)
//	entity-data-updated    - payload: id or []string (style, content)
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//	defer bus.Destroy()
//
//	l := bus.On(event.TopicEntityRegistered, func(args ...any) error {
//	    fmt.Println("registered", args[0])
//	    return nil
//	})
//	bus.Emit(event.TopicEntityRegistered, "rect_1")
//	l.Off()
//
// # Faults
//
// A handler that returns an error or panics is logged through the bus
// logger and reported to the optional FaultHandler. The remaining
// listeners still run.
//
// # Re-entrancy
//
// Handlers may call Emit, On or Off. A listener added during dispatch is
// not called by the Emit already in progress; a listener removed during
// dispatch is skipped if it has not run yet. Unbounded recursion is not
// guarded against.
package event
