package eventsourcing

// Event is a typed domain event. An implementation describes its own logical
// kind and schema version; together these determine the serialized payload
// shape it round-trips through.
type Event interface {
	// EventType returns the unique name of the event
	EventType() string

	// EventVersion returns the schema version tag of the event
	EventVersion() string
}

// EventEnvelope pairs a domain event with its position in the aggregate's
// stream and its metadata (e.g. causation/correlation ids).
type EventEnvelope struct {
	// AggregateID of the aggregate instance the event applies to
	AggregateID string

	// Sequence of the event within its aggregate's stream, 1-based
	Sequence int

	// Payload is the typed domain event
	Payload Event

	// Metadata is a flat mapping carried alongside the payload
	Metadata map[string]string
}
