package eventstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConditionalCheckFailed is const for DB error
const ConditionalCheckFailed = "ConditionalCheckFailed"

const (
	hashKeyName  = "aggregate_id"
	rangeKeyName = "sequence"
)

// Event sequences are 1-based, so the range key 0 slot of each partition is
// free to hold the aggregate's snapshot.
const snapshotSequence = 0

// DynamoDBStore persists serialized events and snapshots in a single
// DynamoDB table keyed by (aggregate_id, sequence).
type DynamoDBStore struct {
	tableName string
	api       *dynamodb.Client
}

// GetDynamoDBStore returns a new DB store instance
func GetDynamoDBStore(tableName string, db *dynamodb.Client) *DynamoDBStore {
	return &DynamoDBStore{
		tableName: tableName,
		api:       db,
	}
}

// Load implements the EventStore interface and reads events for a specific
// aggregateID within the sequence bounds.
func (s *DynamoDBStore) Load(ctx context.Context, aggregateID string, fromSequence, toSequence int) (History, error) {
	// Sequence 0 is the snapshot slot, never part of the history.
	if fromSequence < 1 {
		fromSequence = 1
	}

	input := &dynamodb.QueryInput{
		TableName:      aws.String(s.tableName),
		Select:         types.SelectAllAttributes,
		ConsistentRead: aws.Bool(true),
		ExpressionAttributeNames: map[string]string{
			"#key": hashKeyName,
			"#seq": rangeKeyName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key":  &types.AttributeValueMemberS{Value: aggregateID},
			":from": &types.AttributeValueMemberN{Value: strconv.Itoa(fromSequence)},
		},
	}

	if toSequence > 0 {
		input.KeyConditionExpression = aws.String("#key = :key AND #seq BETWEEN :from AND :to")
		input.ExpressionAttributeValues[":to"] = &types.AttributeValueMemberN{Value: strconv.Itoa(toSequence)}
	} else {
		input.KeyConditionExpression = aws.String("#key = :key AND #seq >= :from")
	}

	out, err := s.api.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	var events []SerializedEvent
	if err = attributevalue.UnmarshalListOfMaps(out.Items, &events); err != nil {
		return nil, err
	}
	return append(make(History, 0, len(events)), events...), nil
}

// Save implements the EventStore interface and stores events in DynamoDB.
// Each write is conditional on the (aggregate_id, sequence) slot being empty.
func (s *DynamoDBStore) Save(ctx context.Context, events ...SerializedEvent) error {
	if len(events) == 0 {
		return nil
	}

	if len(events) > 25 {
		return errors.New("not implemented: can't save over 25 events at a time")
	}

	aggregateID := events[0].AggregateID
	for _, e := range events {
		if e.AggregateID != aggregateID {
			return errors.New("all events in one save must share an aggregate id")
		}
		if e.Sequence < 1 {
			return fmt.Errorf("invalid sequence %d: sequences are 1-based", e.Sequence)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Sequence < events[j].Sequence
	})

	for i := len(events) - 2; i >= 0; i-- {
		if events[i].Sequence == events[i+1].Sequence {
			return errors.New("duplicate sequence detected")
		}
	}

	input := &dynamodb.TransactWriteItemsInput{}

	for _, e := range events {
		item, err := attributevalue.MarshalMap(e)
		if err != nil {
			return err
		}

		twi := types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      item,
				ConditionExpression: aws.String(
					fmt.Sprintf("attribute_not_exists(%s)", rangeKeyName),
				),
			},
		}
		input.TransactItems = append(input.TransactItems, twi)
	}

	_, err := s.api.TransactWriteItems(ctx, input)
	if err != nil {
		if txnCanceled, ok := err.(*types.TransactionCanceledException); ok {
			for _, reason := range txnCanceled.CancellationReasons {
				if reason.Code != nil && *reason.Code == ConditionalCheckFailed {
					return s.ensureIdempotent(ctx, aggregateID, events...)
				}
			}
		}
		return err
	}
	return nil
}

// ensureIdempotent treats a replay of an identical batch as a success, so a
// retried save does not surface a conflict the caller already won.
func (s *DynamoDBStore) ensureIdempotent(ctx context.Context, aggregateID string, events ...SerializedEvent) error {
	if len(events) == 0 {
		return nil
	}

	lastSequence := events[len(events)-1].Sequence
	history, err := s.Load(ctx, aggregateID, 0, lastSequence)
	if err != nil {
		return err
	}
	if len(history) < len(events) {
		return errors.New(ConditionalCheckFailed)
	}

	recent := history[len(history)-len(events):]
	if !reflect.DeepEqual(recent, History(events)) {
		return errors.New(ConditionalCheckFailed)
	}
	return nil
}

type dynamoSnapshotItem struct {
	SerializedSnapshot
	Sequence int `dynamodbav:"sequence"`
}

// SaveSnapshot implements the SnapshotStore interface. The write is
// conditional on the snapshot revision growing, so a stale writer loses.
func (s *DynamoDBStore) SaveSnapshot(ctx context.Context, snapshot SerializedSnapshot) error {
	item, err := attributevalue.MarshalMap(dynamoSnapshotItem{
		SerializedSnapshot: snapshot,
		Sequence:           snapshotSequence,
	})
	if err != nil {
		return err
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(current_snapshot) OR current_snapshot < :rev",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rev": &types.AttributeValueMemberN{Value: strconv.Itoa(snapshot.CurrentSnapshot)},
		},
	})
	return err
}

// LoadSnapshot implements the SnapshotStore interface
func (s *DynamoDBStore) LoadSnapshot(ctx context.Context, aggregateID string) (*SerializedSnapshot, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			hashKeyName:  &types.AttributeValueMemberS{Value: aggregateID},
			rangeKeyName: &types.AttributeValueMemberN{Value: strconv.Itoa(snapshotSequence)},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var snapshot SerializedSnapshot
	if err = attributevalue.UnmarshalMap(out.Item, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
