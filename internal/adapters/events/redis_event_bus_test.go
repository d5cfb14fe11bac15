package events

import (
	"testing"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCodec_RoundTrip(t *testing.T) {
	event := entities.NewDomainEvent(entities.DomainEventBookingCompleted, "b1", "lab1", map[string]interface{}{
		"commission": 100.0,
	})

	data, err := encodeEvent(event)
	require.NoError(t, err)

	decoded, err := decodeEvent(string(data))
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, entities.DomainEventBookingCompleted, decoded.Type)
	assert.Equal(t, "lab1", decoded.ProviderID)
	assert.Equal(t, 100.0, decoded.Payload["commission"])
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := decodeEvent("not json")
	assert.Error(t, err)

	_, err = decodeEvent(`{"id":"x"}`)
	assert.Error(t, err)
}
