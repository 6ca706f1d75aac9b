package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContractRequest(t *testing.T) {
	msg := NewContractRequest("consumer-1", "offer-1", "dataset-1", "http://localhost:9999")

	assert.Equal(t, TypeContractRequest, msg[KeyType])
	assert.Equal(t, "consumer-1", msg[KeyConsumerPID])
	assert.Equal(t, "http://localhost:9999", msg[KeyCallbackAddress])

	offer, err := MapProperty(KeyOffer, msg)
	require.NoError(t, err)
	assert.Equal(t, "offer-1", offer[KeyID])
	assert.Equal(t, "dataset-1", offer[KeyTarget])
}

func TestNewTermination(t *testing.T) {
	msg := NewTermination("provider-1", "consumer-1", "1", "policy mismatch")

	assert.Equal(t, TypeTermination, msg[KeyType])
	assert.Equal(t, "1", msg[KeyCode])
	assert.Equal(t, []any{Message{"message": "policy mismatch"}}, msg[KeyReason])

	bare := NewTermination("provider-1", "consumer-1", "1")
	assert.False(t, HasProperty(KeyReason, bare))
}

func TestEventConstructors(t *testing.T) {
	accepted := NewAcceptedEvent("provider-1", "consumer-1")
	assert.Equal(t, TypeEvent, accepted[KeyType])
	assert.Equal(t, EventAccepted, accepted[KeyEventType])

	finalized := NewFinalizedEvent("provider-1", "consumer-1")
	assert.Equal(t, EventFinalized, finalized[KeyEventType])
}

func TestStringProperty(t *testing.T) {
	msg := Message{KeyConsumerPID: "consumer-1", KeyCode: 7}

	v, err := StringProperty(KeyConsumerPID, msg)
	require.NoError(t, err)
	assert.Equal(t, "consumer-1", v)

	_, err = StringProperty(KeyProviderPID, msg)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = StringProperty(KeyCode, msg)
	assert.ErrorIs(t, err, ErrMalformed)

	v, ok := OptionalStringProperty(KeyProviderPID, msg)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestParse(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		msg, err := Parse([]byte(`{"@type":"ContractRequestMessage","consumerPid":"c1"}`))
		require.NoError(t, err)
		assert.Equal(t, TypeContractRequest, msg[KeyType])
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := Parse([]byte(`{"@type":`))
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("non-object body", func(t *testing.T) {
		_, err := Parse([]byte(`["a","b"]`))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestMessageType(t *testing.T) {
	raw := []byte(`{"@type":"ContractNegotiationEventMessage","eventType":"ACCEPTED"}`)
	assert.Equal(t, TypeEvent, MessageType(raw))
	assert.Empty(t, MessageType([]byte(`{}`)))
}

func TestRoundTripThroughAck(t *testing.T) {
	ack := NewNegotiationAck("provider-1", "consumer-1", "REQUESTED")
	data, err := Serialize(ack)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, TypeNegotiation, parsed[KeyType])
	assert.Equal(t, "REQUESTED", parsed[KeyState])
}

func TestOfferIDDerivation(t *testing.T) {
	id := OfferIDFromDatasetID("dataset-1")
	datasetID, err := DatasetIDFromOfferID(id)
	require.NoError(t, err)
	assert.Equal(t, "dataset-1", datasetID)

	_, err = DatasetIDFromOfferID("bogus-1")
	assert.ErrorIs(t, err, ErrMalformed)
}
