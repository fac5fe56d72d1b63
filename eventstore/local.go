package eventstore

import (
	"context"
	"sort"
	"sync"
)

type memoryEventStore struct {
	mux           *sync.Mutex
	eventsByID    map[string]History
	snapshotsByID map[string]SerializedSnapshot
}

func (m *memoryEventStore) Save(_ context.Context, events ...SerializedEvent) error {
	if len(events) == 0 {
		return nil
	}
	m.mux.Lock()
	defer m.mux.Unlock()

	aggregateID := events[0].AggregateID
	m.eventsByID[aggregateID] = append(m.eventsByID[aggregateID], events...)
	sort.Sort(m.eventsByID[aggregateID])

	return nil
}

func (m *memoryEventStore) Load(_ context.Context, aggregateID string, fromSequence, toSequence int) (History, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	all := m.eventsByID[aggregateID]
	history := make(History, 0, len(all))
	for _, event := range all {
		if s := event.Sequence; s >= fromSequence && (toSequence == 0 || s <= toSequence) {
			history = append(history, event)
		}
	}

	return history, nil
}

func (m *memoryEventStore) SaveSnapshot(_ context.Context, snapshot SerializedSnapshot) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.snapshotsByID[snapshot.AggregateID] = snapshot
	return nil
}

func (m *memoryEventStore) LoadSnapshot(_ context.Context, aggregateID string) (*SerializedSnapshot, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	snapshot, ok := m.snapshotsByID[aggregateID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

// LocalStore is an EventStore and SnapshotStore in memory - good for tests!
type LocalStore interface {
	EventStore
	SnapshotStore
}

// GetLocalStore returns a LocalStore backed by plain maps
func GetLocalStore() LocalStore {
	return &memoryEventStore{
		mux:           &sync.Mutex{},
		eventsByID:    map[string]History{},
		snapshotsByID: map[string]SerializedSnapshot{},
	}
}
