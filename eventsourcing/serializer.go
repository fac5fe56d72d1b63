package eventsourcing

import (
	"github.com/eventfold/eventpersist/eventstore"
)

// Serializer converts between typed event envelopes and serialized records,
// and between aggregate state and serialized snapshots.
type Serializer interface {
	// MarshalEvent converts an EventEnvelope to a SerializedEvent
	MarshalEvent(envelope EventEnvelope) (eventstore.SerializedEvent, error)

	// UnmarshalEvent converts a SerializedEvent back into an EventEnvelope.
	// The record is decoded as-is; schema upcasting happens in
	// UnmarshalEvents before decoding.
	UnmarshalEvent(event eventstore.SerializedEvent) (EventEnvelope, error)

	// MarshalEvents converts envelopes in order; it fails on the first
	// envelope that cannot be encoded and returns no partial result
	MarshalEvents(envelopes []EventEnvelope) ([]eventstore.SerializedEvent, error)

	// UnmarshalEvents runs every record through the upcaster chain, then
	// decodes them in order; it fails on the first record that cannot be
	// decoded and returns no partial result
	UnmarshalEvents(events []eventstore.SerializedEvent) ([]EventEnvelope, error)

	// MarshalSnapshot converts aggregate state to a SerializedSnapshot
	MarshalSnapshot(aggregateID string, aggregate Aggregate, currentSequence, currentSnapshot int) (eventstore.SerializedSnapshot, error)

	// UnmarshalSnapshot reconstructs an AggregateContext from a
	// SerializedSnapshot; snapshots are never upcast
	UnmarshalSnapshot(snapshot eventstore.SerializedSnapshot) (AggregateContext, error)
}
