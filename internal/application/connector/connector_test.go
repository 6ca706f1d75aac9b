package connector

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

type recordingListener struct {
	negotiation.NoopListener
	events []string
}

func (l *recordingListener) Created(*negotiation.Negotiation)           { l.events = append(l.events, "created") }
func (l *recordingListener) ContractRequested(*negotiation.Negotiation) { l.events = append(l.events, "requested") }
func (l *recordingListener) Offered(*negotiation.Negotiation)           { l.events = append(l.events, "offered") }
func (l *recordingListener) Agreed(*negotiation.Negotiation)            { l.events = append(l.events, "agreed") }

func newRequest(consumerPID, datasetID, callback string) message.Message {
	return message.NewContractRequest(consumerPID, message.OfferIDFromDatasetID(datasetID), datasetID, callback)
}

func TestProviderHandleContractRequest(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())

	n, err := m.HandleContractRequest(newRequest("consumer-1", "dataset-1", "http://localhost:9999"), "urn:counterparty")
	require.NoError(t, err)

	state, err := n.State()
	require.NoError(t, err)
	assert.Equal(t, negotiation.StateRequested, state)
	assert.Equal(t, "consumer-1", n.CorrelationID())
	assert.Equal(t, "dataset-1", n.DatasetID())
	assert.Equal(t, "http://localhost:9999", n.CallbackAddress())
	assert.Equal(t, "urn:counterparty", n.CounterpartyID())
}

func TestProviderHandleContractRequestIdempotentRetry(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())
	request := newRequest("consumer-1", "dataset-1", "http://localhost:9999")

	first, err := m.HandleContractRequest(request, "urn:counterparty")
	require.NoError(t, err)
	second, err := m.HandleContractRequest(request, "urn:counterparty")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestProviderHandleCounterOffer(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())
	n, err := m.HandleContractRequest(newRequest("consumer-1", "dataset-1", "http://localhost:9999"), "urn:counterparty")
	require.NoError(t, err)

	counter := message.NewCounterOffer(n.ID(), "consumer-1", "offer-2", "dataset-1", "http://localhost:9999")
	same, err := m.HandleContractRequest(counter, "urn:counterparty")
	require.NoError(t, err)
	assert.Same(t, n, same)

	offers, err := n.Offers()
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	_, err = m.HandleContractRequest(message.Message{
		message.KeyProviderPID: "unknown",
		message.KeyConsumerPID: "consumer-1",
	}, "urn:counterparty")
	assert.ErrorIs(t, err, negotiation.ErrNotFound)
}

func TestProviderHandleContractRequestRejectsMalformed(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())

	_, err := m.HandleContractRequest(message.Message{message.KeyConsumerPID: "c1"}, "urn:counterparty")
	assert.ErrorIs(t, err, message.ErrMissingField)

	_, err = m.HandleContractRequest(message.Message{
		message.KeyConsumerPID: "c1",
		message.KeyOffer:       map[string]any{message.KeyID: "bogus-1"},
	}, "urn:counterparty")
	assert.ErrorIs(t, err, message.ErrMalformed)
}

func TestProviderHandleAccepted(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())
	listener := &recordingListener{}
	m.RegisterListener(listener)

	n, err := m.HandleContractRequest(newRequest("consumer-1", "dataset-1", "http://localhost:9999"), "urn:counterparty")
	require.NoError(t, err)
	require.NoError(t, m.Offered(n.ID()))

	// the event type is mandatory
	err = m.HandleAccepted(message.Message{message.KeyProviderPID: n.ID()})
	assert.ErrorIs(t, err, message.ErrMissingField)

	require.NoError(t, m.HandleAccepted(message.NewAcceptedEvent(n.ID(), "consumer-1")))
	state, err := n.State()
	require.NoError(t, err)
	assert.Equal(t, negotiation.StateAccepted, state)
	assert.Equal(t, []string{"requested", "offered", "agreed"}, listener.events)
}

func TestConsumerLifecycle(t *testing.T) {
	m := NewConsumerManager(zerolog.Nop())
	listener := &recordingListener{}
	m.RegisterListener(listener)

	n, err := m.CreateNegotiation("dataset-1", "offer-dataset-1")
	require.NoError(t, err)
	require.NoError(t, m.ContractRequested(n.ID(), "provider-1"))

	found, ok := m.FindByCorrelationID("provider-1")
	require.True(t, ok)
	assert.Same(t, n, found)

	offer := message.NewOffer("provider-1", n.ID(), "offer-dataset-1", "dataset-1")
	ack, err := m.HandleOffer(offer)
	require.NoError(t, err)
	assert.Equal(t, "provider-1", ack[message.KeyProviderPID])
	assert.Equal(t, n.ID(), ack[message.KeyConsumerPID])
	assert.Equal(t, negotiation.StateOffered.String(), ack[message.KeyState])

	require.NoError(t, m.Accepted(n.ID()))
	require.NoError(t, m.HandleAgreement(message.NewAgreement("provider-1", n.ID(), "agreement-1", "dataset-1")))

	agreement, err := n.Agreement()
	require.NoError(t, err)
	assert.NotNil(t, agreement)

	require.NoError(t, m.Verified(n.ID()))
	require.NoError(t, m.HandleFinalized(message.NewFinalizedEvent("provider-1", n.ID())))

	state, err := n.State()
	require.NoError(t, err)
	assert.Equal(t, negotiation.StateFinalized, state)
	assert.Equal(t, []string{"created", "requested", "offered", "agreed", "agreed"}, listener.events)
}

func TestConsumerHandleOfferOvertakesRequestAck(t *testing.T) {
	m := NewConsumerManager(zerolog.Nop())
	listener := &recordingListener{}
	m.RegisterListener(listener)

	n, err := m.CreateNegotiation("dataset-1", "offer-dataset-1")
	require.NoError(t, err)

	// the provider's offer lands before the initial request acknowledgement
	// has been processed
	ack, err := m.HandleOffer(message.NewOffer("provider-1", n.ID(), "offer-dataset-1", "dataset-1"))
	require.NoError(t, err)
	assert.Equal(t, "provider-1", n.CorrelationID())
	assert.Equal(t, negotiation.StateOffered.String(), ack[message.KeyState])

	offers, err := n.Offers()
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	// the late acknowledgement must not regress the state
	require.NoError(t, m.ContractRequested(n.ID(), "provider-1"))
	state, err := n.State()
	require.NoError(t, err)
	assert.Equal(t, negotiation.StateOffered, state)
	assert.Equal(t, []string{"created", "requested", "offered"}, listener.events)
}

func TestConsumerHandleOfferUnknownNegotiation(t *testing.T) {
	m := NewConsumerManager(zerolog.Nop())
	_, err := m.HandleOffer(message.NewOffer("provider-1", "unknown", "offer-1", "dataset-1"))
	assert.ErrorIs(t, err, negotiation.ErrNotFound)
}

func TestListenerRegistration(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())
	listener := &recordingListener{}

	// registration is idempotent
	m.RegisterListener(listener)
	m.RegisterListener(listener)

	_, err := m.HandleContractRequest(newRequest("consumer-1", "dataset-1", "http://localhost:9999"), "urn:counterparty")
	require.NoError(t, err)
	assert.Equal(t, []string{"requested"}, listener.events)

	m.DeregisterListener(listener)
	_, err = m.HandleContractRequest(newRequest("consumer-2", "dataset-2", "http://localhost:9999"), "urn:counterparty")
	require.NoError(t, err)
	assert.Equal(t, []string{"requested"}, listener.events)
}

func TestFindByIDNotFound(t *testing.T) {
	m := NewProviderManager(zerolog.Nop())
	_, err := m.FindByID("missing")
	assert.ErrorIs(t, err, negotiation.ErrNotFound)
}

func TestConnectorAggregate(t *testing.T) {
	c := New(zerolog.Nop())
	require.NotNil(t, c.Consumer())
	require.NotNil(t, c.Provider())
}
