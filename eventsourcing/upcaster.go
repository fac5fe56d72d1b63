package eventsourcing

import (
	"encoding/json"

	"github.com/eventfold/eventpersist/eventstore"
)

// Upcaster rewrites a serialized event written under an older schema into a
// newer one, before it reaches the decoder. Upcast must be total for any
// record CanUpcast accepted; the chain has no failure path.
type Upcaster interface {
	// CanUpcast reports whether this rule applies to the given event type
	// and version
	CanUpcast(eventType, eventVersion string) bool

	// Upcast returns the rewritten record, which may carry a different
	// event type and version
	Upcast(event eventstore.SerializedEvent) eventstore.SerializedEvent
}

// UpcasterChain is an ordered set of upcasters. Apply is a single forward
// pass: each rule is matched against the record as left by the rules before
// it, and earlier rules are never revisited. Order rules by ascending source
// version so one pass walks a record from its original schema to the latest.
type UpcasterChain []Upcaster

// Apply folds the record through the chain. Records the chain does not match
// pass through unchanged, so running a current-version record through the
// chain is a no-op.
func (c UpcasterChain) Apply(event eventstore.SerializedEvent) eventstore.SerializedEvent {
	for _, upcaster := range c {
		if upcaster.CanUpcast(event.EventType, event.EventVersion) {
			event = upcaster.Upcast(event)
		}
	}
	return event
}

// PayloadFunc rewrites a serialized payload into its next-version shape
type PayloadFunc func(payload json.RawMessage) json.RawMessage

// SemanticVersionUpcaster is a ready-made rule matching one exact
// (event type, version) pair. It applies Transform to the payload and stamps
// the record with NewEventVersion, and with NewEventType when set.
type SemanticVersionUpcaster struct {
	EventType       string
	EventVersion    string
	NewEventType    string
	NewEventVersion string
	Transform       PayloadFunc
}

// CanUpcast implements the Upcaster interface
func (u SemanticVersionUpcaster) CanUpcast(eventType, eventVersion string) bool {
	return eventType == u.EventType && eventVersion == u.EventVersion
}

// Upcast implements the Upcaster interface
func (u SemanticVersionUpcaster) Upcast(event eventstore.SerializedEvent) eventstore.SerializedEvent {
	event.EventVersion = u.NewEventVersion
	if u.NewEventType != "" {
		event.EventType = u.NewEventType
	}
	if u.Transform != nil {
		event.Payload = u.Transform(event.Payload)
	}
	return event
}
