package eventsourcing

import (
	"context"
	"fmt"
	"reflect"

	"github.com/eventfold/eventpersist/eventstore"
)

// Repository loads and saves a specific type of aggregate. It wires a store,
// an optional snapshot store and a serializer together; concurrency control
// over the event stream stays with the store.
type Repository struct {
	prototype  reflect.Type
	store      eventstore.EventStore
	snapshots  eventstore.SnapshotStore
	serializer Serializer
}

// NewRepository is a factory function that creates a new Repository object.
// snapshots may be nil, in which case aggregates are always loaded from
// their full event history.
func NewRepository(
	prototype Aggregate,
	store eventstore.EventStore,
	snapshots eventstore.SnapshotStore,
	serializer Serializer,
) *Repository {
	return &Repository{
		prototype:  reflect.Indirect(reflect.ValueOf(prototype)).Type(),
		store:      store,
		snapshots:  snapshots,
		serializer: serializer,
	}
}

// Load retrieves the specified aggregate from the underlying stores: the
// latest snapshot when one exists, then the events past it, upcast and
// decoded, folded into the state.
func (r *Repository) Load(ctx context.Context, aggregateID string) (AggregateContext, error) {
	aggCtx := AggregateContext{
		AggregateID: aggregateID,
		Aggregate:   r.newPrototype(),
	}

	if r.snapshots != nil {
		snapshot, err := r.snapshots.LoadSnapshot(ctx, aggregateID)
		if err != nil {
			return AggregateContext{}, err
		}
		if snapshot != nil {
			aggCtx, err = r.serializer.UnmarshalSnapshot(*snapshot)
			if err != nil {
				return AggregateContext{}, err
			}
		}
	}

	history, err := r.store.Load(ctx, aggregateID, aggCtx.CurrentSequence+1, 0)
	if err != nil {
		return AggregateContext{}, err
	}
	if len(history) == 0 && aggCtx.CurrentSnapshot == nil {
		return AggregateContext{}, fmt.Errorf("unable to find aggregate for id %s", aggregateID)
	}

	envelopes, err := r.serializer.UnmarshalEvents(history)
	if err != nil {
		return AggregateContext{}, err
	}

	for _, envelope := range envelopes {
		if err := aggCtx.Aggregate.On(envelope.Payload); err != nil {
			return AggregateContext{}, fmt.Errorf("aggregate was unable to handle event %s: %s",
				envelope.Payload.EventType(), err.Error())
		}
		aggCtx.CurrentSequence = envelope.Sequence
	}

	return aggCtx, nil
}

// Save persists the envelopes into the underlying store
func (r *Repository) Save(ctx context.Context, envelopes ...EventEnvelope) error {
	if len(envelopes) == 0 {
		return nil
	}

	events, err := r.serializer.MarshalEvents(envelopes)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, events...)
}

// SaveSnapshot persists the context's state under the next snapshot revision
// and returns the context carrying it.
func (r *Repository) SaveSnapshot(ctx context.Context, aggCtx AggregateContext) (AggregateContext, error) {
	if r.snapshots == nil {
		return AggregateContext{}, fmt.Errorf("repository has no snapshot store")
	}

	revision := 1
	if aggCtx.CurrentSnapshot != nil {
		revision = *aggCtx.CurrentSnapshot + 1
	}

	snapshot, err := r.serializer.MarshalSnapshot(aggCtx.AggregateID, aggCtx.Aggregate, aggCtx.CurrentSequence, revision)
	if err != nil {
		return AggregateContext{}, err
	}
	if err := r.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return AggregateContext{}, err
	}

	aggCtx.CurrentSnapshot = &revision
	return aggCtx, nil
}

func (r *Repository) newPrototype() Aggregate {
	return reflect.New(r.prototype).Interface().(Aggregate)
}
