package eventstore

import "context"

// EventStore provides an abstraction for the Repository to save and load
// serialized events. Implementations are expected to enforce uniqueness of
// (aggregate id, sequence) and to return events ordered by sequence.
type EventStore interface {
	// Save the provided serialized events to the store
	Save(ctx context.Context, events ...SerializedEvent) error

	// Load the history of events within the sequence bounds.
	// When toSequence is 0, all events from fromSequence onwards are loaded.
	// To start at the beginning, fromSequence should be set to 0.
	Load(ctx context.Context, aggregateID string, fromSequence, toSequence int) (History, error)
}

// SnapshotStore persists at most one snapshot per aggregate, the one with the
// highest snapshot revision.
type SnapshotStore interface {
	// SaveSnapshot stores the snapshot, replacing any earlier revision
	SaveSnapshot(ctx context.Context, snapshot SerializedSnapshot) error

	// LoadSnapshot returns the latest snapshot for the aggregate, or nil
	// when none has been persisted
	LoadSnapshot(ctx context.Context, aggregateID string) (*SerializedSnapshot, error)
}
