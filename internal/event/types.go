package event

// Topic names an event. Topics are matched exactly; there are no wildcards.
type Topic string

// Entity lifecycle and mutation topics. These names are the wire contract
// between an entity store and the history engine. Each payload is a single
// entity id (string) or a batch of ids ([]string).
const (
	// TopicEntityRegistered is emitted after an entity is added to the store.
	TopicEntityRegistered Topic = "entity-registered"

	// TopicEntityRemoved is emitted after an entity is removed from the store.
	// A second argument may carry the removed element.
	TopicEntityRemoved Topic = "entity-removed"

	// TopicEntityFormatted is emitted after geometry or position changes.
	TopicEntityFormatted Topic = "entity-data-formatted"

	// TopicEntityUpdated is emitted after style or content changes.
	TopicEntityUpdated Topic = "entity-data-updated"

	// TopicToolChange is emitted when the active drawing tool changes.
	TopicToolChange Topic = "tool-change"
)

// String returns the topic name.
func (t Topic) String() string {
	return string(t)
}

// Handler receives the arguments passed to Emit.
// A returned error is logged; it does not stop dispatch.
type Handler func(args ...any) error

// Stats contains event bus statistics.
type Stats struct {
	// EventsEmitted counts Emit calls that reached at least one listener.
	EventsEmitted uint64

	// HandlersExecuted counts handler invocations.
	HandlersExecuted uint64

	// HandlerErrors counts handlers that returned an error.
	HandlerErrors uint64

	// HandlerPanics counts handlers that panicked.
	HandlerPanics uint64

	// Listeners is the current number of registrations across all topics.
	Listeners int
}
