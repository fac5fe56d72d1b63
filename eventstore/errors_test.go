package eventstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeErrorCarriesRecordIdentity(t *testing.T) {
	cause := errors.New("json: cannot unmarshal string into Go value")
	err := &DecodeError{
		AggregateID:  "acct-1",
		Sequence:     4,
		EventType:    "AccountOpened",
		EventVersion: "2.0",
		Err:          cause,
	}

	assert.Contains(t, err.Error(), "acct-1")
	assert.Contains(t, err.Error(), "AccountOpened")
	assert.True(t, errors.Is(err, cause))
}

func TestEncodeErrorWraps(t *testing.T) {
	cause := errors.New("json: unsupported type: chan int")
	err := fmt.Errorf("saving failed: %w", &EncodeError{AggregateID: "acct-1", Kind: "Broken", Err: cause})

	var encodeErr *EncodeError
	assert.True(t, errors.As(err, &encodeErr))
	assert.Equal(t, "Broken", encodeErr.Kind)
	assert.True(t, errors.Is(err, cause))
}
