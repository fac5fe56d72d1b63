package eventsourcing

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/eventfold/eventpersist/eventstore"
)

type eventKey struct {
	eventType    string
	eventVersion string
}

// JSONSerializer implements Serializer over encoding/json. It is configured
// for a single aggregate type; the bound (event type, event version) pairs
// form the closed set of payloads it will decode. All methods are pure and
// safe for concurrent use once binding is done.
type JSONSerializer struct {
	aggregateType string
	prototype     reflect.Type
	eventTypes    map[eventKey]reflect.Type
	upcasters     UpcasterChain
}

// NewJSONSerializer constructs a serializer for the prototype's aggregate
// type and populates it with the specified events. Bind may be subsequently
// called to add more events.
func NewJSONSerializer(prototype Aggregate, upcasters UpcasterChain, events ...Event) *JSONSerializer {
	serializer := &JSONSerializer{
		aggregateType: prototype.AggregateType(),
		prototype:     reflect.Indirect(reflect.ValueOf(prototype)).Type(),
		eventTypes:    map[eventKey]reflect.Type{},
		upcasters:     upcasters,
	}
	serializer.Bind(events...)

	return serializer
}

// Bind registers the specified events with the serializer, keyed by their
// event type and version; may be called more than once
func (j *JSONSerializer) Bind(events ...Event) {
	for _, event := range events {
		key := eventKey{event.EventType(), event.EventVersion()}
		j.eventTypes[key] = reflect.Indirect(reflect.ValueOf(event)).Type()
	}
}

// MarshalEvent converts an envelope into its persistent form. Event type and
// version are taken from the payload itself.
func (j *JSONSerializer) MarshalEvent(envelope EventEnvelope) (eventstore.SerializedEvent, error) {
	payload, err := json.Marshal(envelope.Payload)
	if err != nil {
		return eventstore.SerializedEvent{}, &eventstore.EncodeError{
			AggregateID: envelope.AggregateID,
			Kind:        envelope.Payload.EventType(),
			Err:         err,
		}
	}

	metadata, err := json.Marshal(envelope.Metadata)
	if err != nil {
		return eventstore.SerializedEvent{}, &eventstore.EncodeError{
			AggregateID: envelope.AggregateID,
			Kind:        envelope.Payload.EventType(),
			Err:         err,
		}
	}

	return eventstore.SerializedEvent{
		AggregateID:   envelope.AggregateID,
		Sequence:      envelope.Sequence,
		AggregateType: j.aggregateType,
		EventType:     envelope.Payload.EventType(),
		EventVersion:  envelope.Payload.EventVersion(),
		Payload:       payload,
		Metadata:      metadata,
	}, nil
}

// UnmarshalEvent converts a serialized event back into an envelope. The
// decoded payload is a pointer to the type bound for the record's event type
// and version.
func (j *JSONSerializer) UnmarshalEvent(event eventstore.SerializedEvent) (EventEnvelope, error) {
	t, ok := j.eventTypes[eventKey{event.EventType, event.EventVersion}]
	if !ok {
		return EventEnvelope{}, j.decodeError(event, fmt.Errorf("unbound event type"))
	}

	v := reflect.New(t).Interface()
	if err := json.Unmarshal(event.Payload, v); err != nil {
		return EventEnvelope{}, j.decodeError(event, err)
	}

	var metadata map[string]string
	if len(event.Metadata) > 0 {
		if err := json.Unmarshal(event.Metadata, &metadata); err != nil {
			return EventEnvelope{}, j.decodeError(event, err)
		}
	}

	return EventEnvelope{
		AggregateID: event.AggregateID,
		Sequence:    event.Sequence,
		Payload:     v.(Event),
		Metadata:    metadata,
	}, nil
}

// MarshalEvents converts envelopes in order, stopping at the first failure
// with no partial result.
func (j *JSONSerializer) MarshalEvents(envelopes []EventEnvelope) ([]eventstore.SerializedEvent, error) {
	events := make([]eventstore.SerializedEvent, 0, len(envelopes))
	for _, envelope := range envelopes {
		event, err := j.MarshalEvent(envelope)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// UnmarshalEvents runs every record through the upcaster chain, then decodes
// in order, stopping at the first failure with no partial result.
func (j *JSONSerializer) UnmarshalEvents(events []eventstore.SerializedEvent) ([]EventEnvelope, error) {
	envelopes := make([]EventEnvelope, 0, len(events))
	for _, event := range events {
		envelope, err := j.UnmarshalEvent(j.upcasters.Apply(event))
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

// MarshalSnapshot converts the aggregate's state into its persistent form
func (j *JSONSerializer) MarshalSnapshot(aggregateID string, aggregate Aggregate, currentSequence, currentSnapshot int) (eventstore.SerializedSnapshot, error) {
	state, err := json.Marshal(aggregate)
	if err != nil {
		return eventstore.SerializedSnapshot{}, &eventstore.EncodeError{
			AggregateID: aggregateID,
			Kind:        j.aggregateType,
			Err:         err,
		}
	}

	return eventstore.SerializedSnapshot{
		AggregateID:     aggregateID,
		Aggregate:       state,
		CurrentSequence: currentSequence,
		CurrentSnapshot: currentSnapshot,
	}, nil
}

// UnmarshalSnapshot reconstructs an AggregateContext from a snapshot. The
// snapshot revision is always present on the returned context. Snapshots are
// never upcast; they are assumed to be re-materialized from current-schema
// events before being persisted again.
func (j *JSONSerializer) UnmarshalSnapshot(snapshot eventstore.SerializedSnapshot) (AggregateContext, error) {
	v := reflect.New(j.prototype).Interface()
	if err := json.Unmarshal(snapshot.Aggregate, v); err != nil {
		return AggregateContext{}, &eventstore.DecodeError{
			AggregateID: snapshot.AggregateID,
			Sequence:    snapshot.CurrentSequence,
			EventType:   j.aggregateType,
			Err:         err,
		}
	}

	currentSnapshot := snapshot.CurrentSnapshot
	return AggregateContext{
		AggregateID:     snapshot.AggregateID,
		Aggregate:       v.(Aggregate),
		CurrentSequence: snapshot.CurrentSequence,
		CurrentSnapshot: &currentSnapshot,
	}, nil
}

func (j *JSONSerializer) decodeError(event eventstore.SerializedEvent, err error) error {
	return &eventstore.DecodeError{
		AggregateID:  event.AggregateID,
		Sequence:     event.Sequence,
		EventType:    event.EventType,
		EventVersion: event.EventVersion,
		Err:          err,
	}
}
