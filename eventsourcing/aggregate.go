package eventsourcing

// Aggregate stands for event-sourced model.
type Aggregate interface {
	// AggregateType returns the unique name of the aggregate kind
	AggregateType() string

	// On folds a single event into the aggregate state
	On(event Event) error
}

// AggregateContext is an aggregate as loaded from persistence: its state,
// the last event sequence folded into it, and the snapshot revision it was
// materialized from. CurrentSnapshot is nil when the aggregate was loaded
// purely from events.
type AggregateContext struct {
	AggregateID     string
	Aggregate       Aggregate
	CurrentSequence int
	CurrentSnapshot *int
}
