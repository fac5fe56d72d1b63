package eventstore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventfold/eventpersist/utils/testutils"
)

func TestGetDynamoDBStore(t *testing.T) {
	db := dynamodb.NewFromConfig(testutils.GetAWSCfg())
	tableName := "account_es_table_test_" + uuid.NewV4().String()

	testutils.CreateTestTable(tableName, db)
	defer testutils.DestroyTestTable(tableName, db)

	s := GetDynamoDBStore(tableName, db)
	ctx := context.Background()

	t.Run("test Load function", func(ct *testing.T) {
		result, err := s.Load(ctx, "agg-id", 0, 0)
		assert.Nil(ct, err)
		assert.Equal(ct, History{}, result)
	})

	t.Run("test Save function", func(ct *testing.T) {
		aggID := uuid.NewV4().String()

		err := s.Save(ctx, testEvent(aggID, 1))
		assert.Nil(ct, err)
	})

	t.Run("test Save existing event (error)", func(ct *testing.T) {
		aggID := uuid.NewV4().String()

		event := testEvent(aggID, 1)
		competing := testEvent(aggID, 1)
		competing.Payload = []byte(`{"amount":999}`)

		err := s.Save(ctx, event)
		assert.Nil(ct, err)

		// Saving the same thing should not return an error.
		// It's as if this succeeded.
		err2 := s.Save(ctx, event)
		assert.Nil(ct, err2)

		err3 := s.Save(ctx, competing)
		assert.NotNil(ct, err3)

		err4 := s.Save(ctx, competing, testEvent(aggID, 2))
		assert.Equal(ct, err4.Error(), ConditionalCheckFailed)
	})

	t.Run("test Save -> Load", func(ct *testing.T) {
		aggID := uuid.NewV4().String()
		events := History{testEvent(aggID, 1), testEvent(aggID, 2), testEvent(aggID, 3)}

		_ = s.Save(ctx, events...)

		history, err := s.Load(ctx, aggID, 0, 0)
		assert.Nil(ct, err)
		assert.Equal(ct, events, history)
	})

	t.Run("test Save nothing", func(ct *testing.T) {
		err := s.Save(ctx)
		assert.Nil(ct, err)
	})

	t.Run("test Save - over 25 items not permitted (error)", func(ct *testing.T) {
		aggID := uuid.NewV4().String()
		var events []SerializedEvent
		for i := 0; i < 30; i++ {
			events = append(events, testEvent(aggID, i+1))
		}

		err := s.Save(ctx, events...)
		assert.NotNil(ct, err)
	})

	t.Run("test Save - items with duplicate sequence (error)", func(ct *testing.T) {
		aggID := uuid.NewV4().String()

		err := s.Save(ctx, testEvent(aggID, 1), testEvent(aggID, 1))
		assert.NotNil(ct, err)
	})

	t.Run("test Save - zero sequence reserved for snapshots (error)", func(ct *testing.T) {
		aggID := uuid.NewV4().String()

		err := s.Save(ctx, testEvent(aggID, 0))
		assert.NotNil(ct, err)
	})

	t.Run("test Save -> Load partial items", func(ct *testing.T) {
		aggID := uuid.NewV4().String()
		events := History{
			testEvent(aggID, 1), testEvent(aggID, 2), testEvent(aggID, 3),
			testEvent(aggID, 4), testEvent(aggID, 5),
		}

		_ = s.Save(ctx, events...)

		secondToFourth, err := s.Load(ctx, aggID, 2, 4)
		assert.Nil(ct, err)
		assert.Equal(ct, events[1:4], secondToFourth)

		thirdOnwards, err := s.Load(ctx, aggID, 3, 0)
		assert.Nil(ct, err)
		assert.Equal(ct, events[2:], thirdOnwards)
	})

	t.Run("test snapshot Save -> Load", func(ct *testing.T) {
		aggID := uuid.NewV4().String()

		snapshot, err := s.LoadSnapshot(ctx, aggID)
		assert.Nil(ct, err)
		assert.Nil(ct, snapshot)

		first := SerializedSnapshot{
			AggregateID:     aggID,
			Aggregate:       []byte(`{"balance":10,"currency":"USD"}`),
			CurrentSequence: 2,
			CurrentSnapshot: 1,
		}
		assert.Nil(ct, s.SaveSnapshot(ctx, first))

		loaded, err := s.LoadSnapshot(ctx, aggID)
		assert.Nil(ct, err)
		if assert.NotNil(ct, loaded) {
			assert.Equal(ct, first, *loaded)
		}

		// The snapshot slot never leaks into the event history.
		history, err := s.Load(ctx, aggID, 0, 0)
		assert.Nil(ct, err)
		assert.Equal(ct, History{}, history)

		second := first
		second.CurrentSequence = 7
		second.CurrentSnapshot = 2
		assert.Nil(ct, s.SaveSnapshot(ctx, second))

		// A stale revision loses the conditional write.
		stale := first
		assert.NotNil(ct, s.SaveSnapshot(ctx, stale))

		loaded, err = s.LoadSnapshot(ctx, aggID)
		assert.Nil(ct, err)
		if assert.NotNil(ct, loaded) {
			assert.Equal(ct, second, *loaded)
		}
	})
}
