package connector

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// ConsumerManager manages contract negotiations for the consumer role.
type ConsumerManager struct {
	registry *registry
	logger   zerolog.Logger
}

// NewConsumerManager creates a consumer-role negotiation manager.
func NewConsumerManager(logger zerolog.Logger) *ConsumerManager {
	return &ConsumerManager{
		registry: newRegistry(),
		logger:   logger.With().Str("service", "consumer-manager").Logger(),
	}
}

// CreateNegotiation allocates a new INITIALIZED negotiation and indexes it.
func (m *ConsumerManager) CreateNegotiation(datasetID, offerID string) (*negotiation.Negotiation, error) {
	n, err := negotiation.New(negotiation.Config{
		DatasetID: datasetID,
		OfferID:   offerID,
	})
	if err != nil {
		return nil, err
	}
	m.registry.add(n)
	m.registry.notify(func(l negotiation.Listener) { l.Created(n) })
	m.logger.Debug().Str("id", n.ID()).Msg("created negotiation")
	return n, nil
}

// ContractRequested assigns the provider's correlation id and transitions to
// REQUESTED when the initial request is acknowledged. A no-op if an offer
// overtook the acknowledgement and already completed the handshake.
func (m *ConsumerManager) ContractRequested(id, correlationID string) error {
	n, err := m.registry.findByID(id)
	if err != nil {
		return err
	}
	return n.SetCorrelationID(correlationID, negotiation.StateRequested, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.ContractRequested(n) })
	})
}

// CounterOffered transitions back to REQUESTED after sending a counter-offer.
func (m *ConsumerManager) CounterOffered(id string) error {
	return m.transition(id, negotiation.StateRequested, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Offered(n)
	})
}

// Accepted transitions to ACCEPTED after accepting the provider's last offer.
func (m *ConsumerManager) Accepted(id string) error {
	return m.transition(id, negotiation.StateAccepted, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Agreed(n)
	})
}

// Verified transitions to VERIFIED after sending the agreement verification.
func (m *ConsumerManager) Verified(id string) error {
	return m.transition(id, negotiation.StateVerified, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Verified(n)
	})
}

// Terminated transitions to TERMINATED.
func (m *ConsumerManager) Terminated(id string) error {
	return m.transition(id, negotiation.StateTerminated, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Terminated(n)
	})
}

// HandleOffer processes an offer received from the provider, stores it, and
// returns the negotiation acknowledgement. An offer can overtake the initial
// request's acknowledgement, so a still-unset correlation id is adopted from
// the offer's provider pid before the offer is stored.
func (m *ConsumerManager) HandleOffer(offer message.Message) (message.Message, error) {
	consumerID, err := message.StringProperty(message.KeyConsumerPID, offer)
	if err != nil {
		return nil, fmt.Errorf("handling offer: %w", err)
	}
	n, err := m.registry.findByID(consumerID)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().Str("id", consumerID).Msg("received provider offer")
	if n.CorrelationID() == "" {
		providerID, err := message.StringProperty(message.KeyProviderPID, offer)
		if err != nil {
			return nil, fmt.Errorf("handling offer: %w", err)
		}
		err = n.SetCorrelationID(providerID, negotiation.StateRequested, func(n *negotiation.Negotiation) {
			m.registry.notify(func(l negotiation.Listener) { l.ContractRequested(n) })
		})
		if err != nil {
			return nil, err
		}
	}
	err = n.StoreOffer(offer, negotiation.StateOffered, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Offered(n) })
	})
	if err != nil {
		return nil, err
	}
	return message.NewNegotiationAck(n.CorrelationID(), n.ID(), negotiation.StateOffered.String()), nil
}

// HandleAgreement processes an agreement received from the provider.
func (m *ConsumerManager) HandleAgreement(agreement message.Message) error {
	consumerID, err := message.StringProperty(message.KeyConsumerPID, agreement)
	if err != nil {
		return fmt.Errorf("handling agreement: %w", err)
	}
	n, err := m.registry.findByID(consumerID)
	if err != nil {
		return err
	}
	m.logger.Debug().Str("id", consumerID).Msg("received provider agreement")
	return n.StoreAgreement(agreement, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Agreed(n) })
	})
}

// HandleFinalized processes a finalization event received from the provider.
func (m *ConsumerManager) HandleFinalized(event message.Message) error {
	consumerID, err := message.StringProperty(message.KeyConsumerPID, event)
	if err != nil {
		return fmt.Errorf("handling finalized event: %w", err)
	}
	n, err := m.registry.findByID(consumerID)
	if err != nil {
		return err
	}
	m.logger.Debug().Str("id", consumerID).Msg("received provider finalize")
	return n.Transition(negotiation.StateFinalized, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Finalized(n) })
	})
}

// HandleTermination processes a termination received from the provider.
func (m *ConsumerManager) HandleTermination(termination message.Message) error {
	consumerID, err := message.StringProperty(message.KeyConsumerPID, termination)
	if err != nil {
		return fmt.Errorf("handling termination: %w", err)
	}
	n, err := m.registry.findByID(consumerID)
	if err != nil {
		return err
	}
	return n.Transition(negotiation.StateTerminated, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Terminated(n) })
	})
}

// FindByID resolves a negotiation by its local id.
func (m *ConsumerManager) FindByID(id string) (*negotiation.Negotiation, error) {
	return m.registry.findByID(id)
}

// FindByCorrelationID resolves a negotiation by the provider-assigned id.
func (m *ConsumerManager) FindByCorrelationID(id string) (*negotiation.Negotiation, bool) {
	return m.registry.findByCorrelationID(id)
}

// Negotiations returns all tracked negotiations.
func (m *ConsumerManager) Negotiations() []*negotiation.Negotiation {
	return m.registry.all()
}

// RegisterListener adds a lifecycle listener; idempotent.
func (m *ConsumerManager) RegisterListener(l negotiation.Listener) {
	m.registry.registerListener(l)
}

// DeregisterListener removes a lifecycle listener; idempotent.
func (m *ConsumerManager) DeregisterListener(l negotiation.Listener) {
	m.registry.deregisterListener(l)
}

func (m *ConsumerManager) transition(id string, next negotiation.State, notify func(negotiation.Listener, *negotiation.Negotiation)) error {
	n, err := m.registry.findByID(id)
	if err != nil {
		return err
	}
	return n.Transition(next, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { notify(l, n) })
	})
}
