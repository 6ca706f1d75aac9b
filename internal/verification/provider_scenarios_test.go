package verification

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/negotiation-tck/negotiation-tck/internal/config"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/harness"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

func newHarness(t *testing.T) *harness.Harness {
	t.Helper()
	cfg := &config.Config{
		ListenAddr:     "127.0.0.1:0",
		ParticipantID:  "urn:tck:test",
		LocalConnector: true,
		WaitTimeout:    5 * time.Second,
		PoolSize:       2,
	}
	h := harness.New(cfg, zerolog.Nop())
	require.NoError(t, h.Open())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestProviderHappyPath(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostOffer(n))
	})
	m.RecordAgreedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostAgreed(n))
	})
	m.RecordVerifiedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostFinalized(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectOffer(func(offer message.Message) (message.Message, error) {
			return consumer.HandleOffer(offer)
		}).
		SendRequest("dataset-1", "offer-dataset-1").
		ThenWaitForState(negotiation.StateOffered).
		ExpectAgreement(func(agreement message.Message) error {
			return consumer.HandleAgreement(agreement)
		}).
		AcceptLastOffer().
		ThenWaitForState(negotiation.StateAgreed).
		ExpectFinalized(func(event message.Message) error {
			return consumer.HandleFinalized(event)
		}).
		SendVerified(false).
		ThenWaitForState(negotiation.StateFinalized).
		ThenVerifyProviderState(negotiation.StateFinalized)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestProviderShortPath(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostAgreed(n))
	})
	m.RecordVerifiedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostFinalized(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectAgreement(func(agreement message.Message) error {
			return consumer.HandleAgreement(agreement)
		}).
		SendRequest("dataset-2", "offer-dataset-2").
		ThenWaitForState(negotiation.StateAgreed).
		ExpectFinalized(func(event message.Message) error {
			return consumer.HandleFinalized(event)
		}).
		SendVerified(false).
		ThenWaitForState(negotiation.StateFinalized)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

// The mock's offer reaction fires on a worker goroutine the moment the
// provider enters REQUESTED, so the offer callback can overtake the request
// acknowledgement. Repeated cold-start rounds shake out orderings a single
// pass never hits.
func TestProviderOfferRacesRequestAck(t *testing.T) {
	for round := 0; round < 25; round++ {
		t.Run(fmt.Sprintf("round-%02d", round), func(t *testing.T) {
			h := newHarness(t)
			m := h.ProviderMock()
			m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
				require.NoError(t, PostOffer(n))
			})

			consumer := h.Connector().Consumer()
			pipe := h.ProviderPipeline().
				ExpectOffer(func(offer message.Message) (message.Message, error) {
					return consumer.HandleOffer(offer)
				}).
				SendRequest("dataset-1", "offer-dataset-1").
				ThenWaitForState(negotiation.StateOffered).
				ThenVerifyProviderState(negotiation.StateOffered)

			require.NoError(t, pipe.Execute())
			require.NoError(t, m.Verify())
		})
	}
}

func TestProviderConsumerTerminates(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostOffer(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectOffer(func(offer message.Message) (message.Message, error) {
			return consumer.HandleOffer(offer)
		}).
		SendRequest("dataset-3", "offer-dataset-3").
		ThenWaitForState(negotiation.StateOffered).
		SendTermination(false).
		ThenVerifyState(negotiation.StateTerminated).
		ThenVerifyProviderState(negotiation.StateTerminated)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestProviderCounterOfferThenTermination(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostOffer(n))
	})
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostTerminate(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectOffer(func(offer message.Message) (message.Message, error) {
			return consumer.HandleOffer(offer)
		}).
		SendRequest("dataset-4", "offer-dataset-4").
		ThenWaitForState(negotiation.StateOffered).
		ExpectTermination().
		SendCounterOffer("offer-dataset-4b", "dataset-4", false).
		ThenWaitForState(negotiation.StateTerminated)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestProviderRejectsPrematureVerification(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostOffer(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectOffer(func(offer message.Message) (message.Message, error) {
			return consumer.HandleOffer(offer)
		}).
		SendRequest("dataset-5", "offer-dataset-5").
		ThenWaitForState(negotiation.StateOffered).
		SendVerified(true).
		ThenVerifyProviderState(negotiation.StateOffered)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}

func TestProviderWaitForCondition(t *testing.T) {
	h := newHarness(t)
	m := h.ProviderMock()
	m.RecordContractRequestedAction(func(n *negotiation.Negotiation) {
		require.NoError(t, PostOffer(n))
	})

	consumer := h.Connector().Consumer()
	pipe := h.ProviderPipeline().
		ExpectOffer(func(offer message.Message) (message.Message, error) {
			return consumer.HandleOffer(offer)
		}).
		SendRequest("dataset-6", "offer-dataset-6").
		ThenWaitForCondition(`state == "OFFERED" && offerCount > 0`)

	require.NoError(t, pipe.Execute())
	require.NoError(t, m.Verify())
}
