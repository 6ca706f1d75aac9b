package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httpapi "github.com/negotiation-tck/negotiation-tck/internal/api/http"
	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/client"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

const (
	requestCallbackPath      = "/negotiations/request"
	verificationCallbackPath = "/negotiations/[^/]+/agreement/verification"
)

// ConsumerPipeline scripts a scenario against a consumer. The pipeline's
// connector plays the provider role and the client dispatches to the consumer
// under test.
type ConsumerPipeline struct {
	base
	client        client.ConsumerClient
	connector     *connector.Connector
	participantID string
}

// NewConsumerPipeline creates a pipeline. participantID identifies the
// pipeline's provider side in outgoing messages.
func NewConsumerPipeline(
	c client.ConsumerClient,
	endpoint *httpapi.Endpoint,
	conn *connector.Connector,
	participantID string,
	logger zerolog.Logger,
	waitTime time.Duration,
) *ConsumerPipeline {
	return &ConsumerPipeline{
		base:          newBase(endpoint, logger.With().Str("service", "consumer-pipeline").Logger(), waitTime),
		client:        c,
		connector:     conn,
		participantID: participantID,
	}
}

// requestCapture grabs the provider-side negotiation opened by the consumer's
// initial request and detaches itself.
type requestCapture struct {
	negotiation.NoopListener
	pipeline *ConsumerPipeline
}

func (c *requestCapture) ContractRequested(n *negotiation.Negotiation) {
	c.pipeline.setNegotiation(n)
	c.pipeline.connector.Provider().DeregisterListener(c)
}

// InitiateRequest asks the consumer to open a negotiation and captures the
// provider-side negotiation it produces.
func (p *ConsumerPipeline) InitiateRequest(datasetID, offerID string) *ConsumerPipeline {
	p.then(func() error {
		p.connector.Provider().RegisterListener(&requestCapture{pipeline: p})
		p.logger.Debug().Str("dataset", datasetID).Msg("initiating request")
		return p.client.InitiateRequest(datasetID, offerID)
	})
	return p
}

// SendOffer dispatches an offer to the consumer's callback address.
func (p *ConsumerPipeline) SendOffer(expectError bool) *ConsumerPipeline {
	p.then(func() error {
		providerID := p.Negotiation().ID()
		consumerID := p.Negotiation().CorrelationID()
		offer := message.NewOffer(providerID, consumerID, p.Negotiation().OfferID(), p.Negotiation().DatasetID())
		p.logger.Debug().Str("providerPid", providerID).Msg("sending offer")
		if err := p.client.ContractOffer(offer, p.Negotiation().CallbackAddress(), expectError); err != nil {
			return err
		}
		if expectError {
			return nil
		}
		return p.connector.Provider().Offered(providerID)
	})
	return p
}

// SendAgreement dispatches an agreement to the consumer's callback address.
func (p *ConsumerPipeline) SendAgreement() *ConsumerPipeline {
	p.then(func() error {
		providerID := p.Negotiation().ID()
		consumerID := p.Negotiation().CorrelationID()
		agreement := message.NewAgreement(providerID, consumerID, uuid.NewString(), p.Negotiation().DatasetID())
		p.logger.Debug().Str("providerPid", providerID).Msg("sending agreement")
		if err := p.client.ContractAgreement(agreement, p.Negotiation().CallbackAddress()); err != nil {
			return err
		}
		return p.connector.Provider().Agreed(providerID)
	})
	return p
}

// SendFinalized dispatches the finalization event to the consumer.
func (p *ConsumerPipeline) SendFinalized(expectError bool) *ConsumerPipeline {
	p.then(func() error {
		providerID := p.Negotiation().ID()
		consumerID := p.Negotiation().CorrelationID()
		event := message.NewFinalizedEvent(providerID, consumerID)
		p.logger.Debug().Str("providerPid", providerID).Msg("sending finalized event")
		if err := p.client.Finalize(event, p.Negotiation().CallbackAddress(), expectError); err != nil {
			return err
		}
		if expectError {
			return nil
		}
		return p.connector.Provider().Finalized(providerID)
	})
	return p
}

// SendTermination terminates the negotiation from the provider side.
func (p *ConsumerPipeline) SendTermination(expectError bool) *ConsumerPipeline {
	p.then(func() error {
		p.pause()
		providerID := p.Negotiation().ID()
		consumerID := p.Negotiation().CorrelationID()
		termination := message.NewTermination(providerID, consumerID, "1")
		p.logger.Debug().Str("providerPid", providerID).Msg("sending termination")
		if err := p.client.Terminate(termination, p.Negotiation().CallbackAddress(), expectError); err != nil {
			return err
		}
		if expectError {
			return nil
		}
		return p.connector.Provider().Terminated(providerID)
	})
	return p
}

// ExpectRequest expects the consumer's contract request on the callback
// endpoint and answers with the acknowledgement the action returns.
func (p *ConsumerPipeline) ExpectRequest(action func(request message.Message) (message.Message, error)) *ConsumerPipeline {
	p.addResponderAction(requestCallbackPath, action)
	return p
}

// ExpectAccepted expects the consumer's acceptance event.
func (p *ConsumerPipeline) ExpectAccepted(action func(event message.Message) error) *ConsumerPipeline {
	p.addHandlerAction(eventCallbackPath, action)
	return p
}

// ExpectVerified expects the consumer's agreement verification.
func (p *ConsumerPipeline) ExpectVerified(action func(verification message.Message) error) *ConsumerPipeline {
	p.addHandlerAction(verificationCallbackPath, action)
	return p
}

// ExpectTermination expects a consumer termination and marks the provider
// side terminated.
func (p *ConsumerPipeline) ExpectTermination() *ConsumerPipeline {
	p.addHandlerAction(terminationCallbackPath, func(message.Message) error {
		return p.Negotiation().Transition(negotiation.StateTerminated)
	})
	return p
}

// ThenWait blocks on the oldest pending expectation and polls condition.
func (p *ConsumerPipeline) ThenWait(description string, condition func() (bool, error)) *ConsumerPipeline {
	p.thenWait(description, condition)
	return p
}

// ThenWaitForState waits until the provider-side negotiation reaches state.
func (p *ConsumerPipeline) ThenWaitForState(state negotiation.State) *ConsumerPipeline {
	p.thenWait(p.waitForState(state))
	return p
}

// ThenWaitForCondition waits until the expression holds for the negotiation.
func (p *ConsumerPipeline) ThenWaitForCondition(expr string) *ConsumerPipeline {
	p.thenWait(p.waitForCondition(expr))
	return p
}

// ThenVerify appends an arbitrary verification stage.
func (p *ConsumerPipeline) ThenVerify(check func(n *negotiation.Negotiation) error) *ConsumerPipeline {
	p.then(func() error { return check(p.Negotiation()) })
	return p
}

// ThenVerifyState asserts the provider-side negotiation state.
func (p *ConsumerPipeline) ThenVerifyState(state negotiation.State) *ConsumerPipeline {
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

// ThenVerifyConsumerState probes the consumer for its negotiation state.
func (p *ConsumerPipeline) ThenVerifyConsumerState(state negotiation.State) *ConsumerPipeline {
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
			return fmt.Errorf("expected consumer state %s, was %s", state, actual)
		}
		return nil
	})
	return p
}
