package eventstore

import "encoding/json"

// SerializedEvent is a domain event in serialized form, ready for a
// storage-backend-specific encoding. EventType and EventVersion together
// determine the shape of Payload; AggregateType is fixed for the whole
// stream identified by AggregateID.
type SerializedEvent struct {
	AggregateID   string          `json:"aggregate_id" dynamodbav:"aggregate_id"`
	Sequence      int             `json:"sequence" dynamodbav:"sequence"`
	AggregateType string          `json:"aggregate_type" dynamodbav:"aggregate_type"`
	EventType     string          `json:"event_type" dynamodbav:"event_type"`
	EventVersion  string          `json:"event_version" dynamodbav:"event_version"`
	Payload       json.RawMessage `json:"payload" dynamodbav:"payload"`
	Metadata      json.RawMessage `json:"metadata" dynamodbav:"metadata"`
}

// SerializedSnapshot is a materialized aggregate state in serialized form.
// CurrentSequence is the last event folded into the state; CurrentSnapshot is
// the snapshot revision, which increases independently of event sequences.
type SerializedSnapshot struct {
	AggregateID     string          `json:"aggregate_id" dynamodbav:"aggregate_id"`
	Aggregate       json.RawMessage `json:"aggregate" dynamodbav:"aggregate"`
	CurrentSequence int             `json:"current_sequence" dynamodbav:"current_sequence"`
	CurrentSnapshot int             `json:"current_snapshot" dynamodbav:"current_snapshot"`
}

// History represents an aggregate's events ordered by sequence
type History []SerializedEvent

// Len implements sort.Interface
func (h History) Len() int {
	return len(h)
}

// Swap implements sort.Interface
func (h History) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Less implements sort.Interface
func (h History) Less(i, j int) bool {
	return h[i].Sequence < h[j].Sequence
}
