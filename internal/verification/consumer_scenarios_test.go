package verification

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

func TestConsumerHappyPath(t *testing.T) {
	h := newHarness(t)
	m := h.ConsumerMock()
	m.RecordOfferedAction(func(baseAddress string, n *negotiation.Negotiation) {
		require.NoError(t, PostAccepted(baseAddress, n))
	})
	m.RecordAgreedAction(func(baseAddress string, n *negotiation.Negotiation) {
		require.NoError(t, PostVerification(baseAddress, n))
	})

	provider := h.Connector().Provider()
	pipe := h.ConsumerPipeline().
		InitiateRequest("dataset-10", "offer-dataset-10").
		ThenWaitForState(negotiation.StateRequested).
		ExpectAccepted(func(event message.Message) error {
			return provider.HandleAccepted(event)
		}).
		SendOffer(false).
		ThenWaitForState(negotiation.StateAccepted).
		ExpectVerified(func(verification message.Message) error {
			return provider.HandleVerified(verification)
		}).
		SendAgreement().
		ThenWaitForState(negotiation.StateVerified).
		SendFinalized(false).
		ThenVerifyState(negotiation.StateFinalized).
		ThenVerifyConsumerState(negotiation.StateFinalized)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestConsumerProviderTerminatesEarly(t *testing.T) {
	h := newHarness(t)
	m := h.ConsumerMock()

	pipe := h.ConsumerPipeline().
		InitiateRequest("dataset-11", "offer-dataset-11").
		ThenWaitForState(negotiation.StateRequested).
		SendTermination(false).
		ThenVerifyState(negotiation.StateTerminated).
		ThenVerifyConsumerState(negotiation.StateTerminated)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestConsumerRejectsOfferAfterTermination(t *testing.T) {
	h := newHarness(t)

	pipe := h.ConsumerPipeline().
		InitiateRequest("dataset-12", "offer-dataset-12").
		ThenWaitForState(negotiation.StateRequested).
		SendTermination(false).
		SendOffer(true).
		ThenVerifyConsumerState(negotiation.StateTerminated)

	require.NoError(t, pipe.Execute())
}
