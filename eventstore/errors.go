package eventstore

import "fmt"

// EncodeError indicates a typed event, metadata mapping or aggregate state
// could not be turned into its serialized form. Kind names what was being
// encoded, an event type or an aggregate type.
type EncodeError struct {
	AggregateID string
	Kind        string
	Err         error
}

// Error implements the error interface
func (e *EncodeError) Error() string {
	return fmt.Sprintf("unable to encode %s for aggregate %s: %v", e.Kind, e.AggregateID, e.Err)
}

// Unwrap returns the underlying serialization failure
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a serialized payload did not match the shape expected
// for its event type and version. AggregateID and Sequence identify the
// offending record.
type DecodeError struct {
	AggregateID  string
	Sequence     int
	EventType    string
	EventVersion string
	Err          error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode event %s@%d (%s %s): %v",
		e.AggregateID, e.Sequence, e.EventType, e.EventVersion, e.Err)
}

// Unwrap returns the underlying deserialization failure
func (e *DecodeError) Unwrap() error {
	return e.Err
}
