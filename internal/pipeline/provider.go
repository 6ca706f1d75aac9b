package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/negotiation-tck/negotiation-tck/internal/api/http"
	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/client"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

const (
	offerCallbackPath       = "/negotiations/[^/]+/offers"
	agreementCallbackPath   = "/negotiations/[^/]+/agreement"
	eventCallbackPath       = "/negotiations/[^/]+/events"
	terminationCallbackPath = "/negotiations/[^/]+/termination"
)

// ProviderPipeline scripts a scenario against a provider. The pipeline's
// connector plays the consumer role and the client dispatches to the provider
// under test.
type ProviderPipeline struct {
	base
	client        client.ProviderClient
	connector     *connector.Connector
	participantID string
}

// NewProviderPipeline creates a pipeline. participantID identifies the
// pipeline's consumer side in outgoing messages.
func NewProviderPipeline(
	c client.ProviderClient,
	endpoint *httpapi.Endpoint,
	conn *connector.Connector,
	participantID string,
	logger zerolog.Logger,
	waitTime time.Duration,
) *ProviderPipeline {
	return &ProviderPipeline{
		base:          newBase(endpoint, logger.With().Str("service", "provider-pipeline").Logger(), waitTime),
		client:        c,
		connector:     conn,
		participantID: participantID,
	}
}

// SendRequest opens a negotiation and dispatches the initial contract
// request, recording the provider's correlation id from the acknowledgement.
func (p *ProviderPipeline) SendRequest(datasetID, offerID string) *ProviderPipeline {
	p.then(func() error {
		n, err := p.connector.Consumer().CreateNegotiation(datasetID, offerID)
		if err != nil {
			return err
		}
		p.setNegotiation(n)
		request := message.NewContractRequest(n.ID(), offerID, datasetID, p.endpoint.Address())
		p.logger.Debug().Str("id", n.ID()).Msg("sending contract request")
		response, err := p.client.ContractRequest(request, false)
		if err != nil {
			return err
		}
		correlationID, err := message.StringProperty(message.KeyProviderPID, response)
		if err != nil {
			return fmt.Errorf("reading request acknowledgement: %w", err)
		}
		return p.connector.Consumer().ContractRequested(n.ID(), correlationID)
	})
	return p
}

// SendCounterOffer dispatches a counter-offer referencing the open
// negotiation.
func (p *ProviderPipeline) SendCounterOffer(offerID, targetID string, expectError bool) *ProviderPipeline {
	p.then(func() error {
		providerID := p.Negotiation().CorrelationID()
		consumerID := p.Negotiation().ID()
		request := message.NewCounterOffer(providerID, consumerID, offerID, targetID, p.endpoint.Address())
		p.logger.Debug().Str("providerPid", providerID).Msg("sending counter offer")
		if !expectError {
			if err := p.connector.Consumer().CounterOffered(consumerID); err != nil {
				return err
			}
		}
		_, err := p.client.ContractRequest(request, expectError)
		return err
	})
	return p
}

// AcceptLastOffer transitions the consumer side to ACCEPTED and dispatches
// the acceptance event.
func (p *ProviderPipeline) AcceptLastOffer() *ProviderPipeline {
	p.then(func() error {
		providerID := p.Negotiation().CorrelationID()
		consumerID := p.Negotiation().ID()
		p.logger.Debug().Str("providerPid", providerID).Msg("accepting offer")
		if err := p.connector.Consumer().Accepted(consumerID); err != nil {
			return err
		}
		return p.client.Accept(message.NewAcceptedEvent(providerID, consumerID))
	})
	return p
}

// SendVerified dispatches the agreement verification.
func (p *ProviderPipeline) SendVerified(expectError bool) *ProviderPipeline {
	p.then(func() error {
		p.pause()
		providerID := p.Negotiation().CorrelationID()
		consumerID := p.Negotiation().ID()
		p.logger.Debug().Str("providerPid", providerID).Msg("sending verification")
		if !expectError {
			if err := p.connector.Consumer().Verified(consumerID); err != nil {
				return err
			}
		}
		return p.client.Verify(message.NewVerification(providerID, consumerID), expectError)
	})
	return p
}

// SendTermination terminates the negotiation from the consumer side.
func (p *ProviderPipeline) SendTermination(expectError bool) *ProviderPipeline {
	p.then(func() error {
		p.pause()
		providerID := p.Negotiation().CorrelationID()
		consumerID := p.Negotiation().ID()
		p.logger.Debug().Str("providerPid", providerID).Msg("sending termination")
		if err := p.client.Terminate(message.NewTermination(providerID, consumerID, "1"), expectError); err != nil {
			return err
		}
		if expectError {
			return nil
		}
		return p.connector.Consumer().Terminated(consumerID)
	})
	return p
}

// ExpectOffer expects a provider offer on the callback endpoint and answers
// with the acknowledgement the action returns.
func (p *ProviderPipeline) ExpectOffer(action func(offer message.Message) (message.Message, error)) *ProviderPipeline {
	p.addResponderAction(offerCallbackPath, action)
	return p
}

// ExpectAgreement expects a provider agreement on the callback endpoint.
func (p *ProviderPipeline) ExpectAgreement(action func(agreement message.Message) error) *ProviderPipeline {
	p.addHandlerAction(agreementCallbackPath, action)
	return p
}

// ExpectFinalized expects the provider's finalization event.
func (p *ProviderPipeline) ExpectFinalized(action func(event message.Message) error) *ProviderPipeline {
	p.addHandlerAction(eventCallbackPath, action)
	return p
}

// ExpectTermination expects a provider termination and marks the consumer
// side terminated.
func (p *ProviderPipeline) ExpectTermination() *ProviderPipeline {
	p.addHandlerAction(terminationCallbackPath, func(message.Message) error {
		return p.Negotiation().Transition(negotiation.StateTerminated)
	})
	return p
}

// ThenWait blocks on the oldest pending expectation and polls condition.
func (p *ProviderPipeline) ThenWait(description string, condition func() (bool, error)) *ProviderPipeline {
	p.thenWait(description, condition)
	return p
}

// ThenWaitForState waits until the consumer-side negotiation reaches state.
func (p *ProviderPipeline) ThenWaitForState(state negotiation.State) *ProviderPipeline {
	p.thenWait(p.waitForState(state))
	return p
}

// ThenWaitForCondition waits until the expression holds for the negotiation.
func (p *ProviderPipeline) ThenWaitForCondition(expr string) *ProviderPipeline {
	p.thenWait(p.waitForCondition(expr))
	return p
}

// ThenVerify appends an arbitrary verification stage.
func (p *ProviderPipeline) ThenVerify(check func(n *negotiation.Negotiation) error) *ProviderPipeline {
	p.then(func() error { return check(p.Negotiation()) })
	return p
}

// ThenVerifyState asserts the consumer-side negotiation state.
func (p *ProviderPipeline) ThenVerifyState(state negotiation.State) *ProviderPipeline {
	p.then(func() error {
		current, err := p.Negotiation().State()
		if err != nil {
			return err
		}
		if current != state {
			return fmt.Errorf("expected state %s, was %s", state, current)
		}
		return nil
	})
	return p
}

// ThenVerifyProviderState probes the provider for its negotiation state.
func (p *ProviderPipeline) ThenVerifyProviderState(state negotiation.State) *ProviderPipeline {
	p.then(func() error {
		p.pause()
		response, err := p.client.GetNegotiation(p.Negotiation().CorrelationID())
		if err != nil {
			return err
		}
		actual, err := message.StringProperty(message.KeyState, response)
		if err != nil {
			return fmt.Errorf("reading negotiation state: %w", err)
		}
		if actual != state.String() {
			return fmt.Errorf("expected provider state %s, was %s", state, actual)
		}
		return nil
	})
	return p
}
