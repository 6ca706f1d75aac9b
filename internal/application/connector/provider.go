package connector

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// ProviderManager manages contract negotiations for the provider role.
type ProviderManager struct {
	registry *registry
	logger   zerolog.Logger
}

// NewProviderManager creates a provider-role negotiation manager.
func NewProviderManager(logger zerolog.Logger) *ProviderManager {
	return &ProviderManager{
		registry: newRegistry(),
		logger:   logger.With().Str("service", "provider-manager").Logger(),
	}
}

// Offered transitions to OFFERED after sending an offer.
func (m *ProviderManager) Offered(id string) error {
	return m.transition(id, negotiation.StateOffered, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Offered(n)
	})
}

// Agreed transitions to AGREED after sending an agreement.
func (m *ProviderManager) Agreed(id string) error {
	return m.transition(id, negotiation.StateAgreed, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Agreed(n)
	})
}

// Finalized transitions to FINALIZED after sending the finalization event.
func (m *ProviderManager) Finalized(id string) error {
	return m.transition(id, negotiation.StateFinalized, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Finalized(n)
	})
}

// Terminated transitions to TERMINATED.
func (m *ProviderManager) Terminated(id string) error {
	return m.transition(id, negotiation.StateTerminated, func(l negotiation.Listener, n *negotiation.Negotiation) {
		l.Terminated(n)
	})
}

// HandleContractRequest processes a contract request from a consumer. A
// request carrying a provider pid is a counter-offer against an existing
// negotiation; a request whose consumer pid is already indexed is an
// idempotent retry and returns the existing negotiation unchanged; otherwise
// a new negotiation is created directly in REQUESTED, since the request
// already carries the counterparty's id.
func (m *ProviderManager) HandleContractRequest(request message.Message, counterpartyID string) (*negotiation.Negotiation, error) {
	if message.HasProperty(message.KeyProviderPID, request) {
		providerID, err := message.StringProperty(message.KeyProviderPID, request)
		if err != nil {
			return nil, fmt.Errorf("handling contract request: %w", err)
		}
		return m.handleCounterOffer(request, providerID)
	}
	return m.handleInitialRequest(request, counterpartyID)
}

// HandleAccepted processes an offer acceptance event from the consumer.
func (m *ProviderManager) HandleAccepted(event message.Message) error {
	providerID, err := message.StringProperty(message.KeyProviderPID, event)
	if err != nil {
		return fmt.Errorf("handling accepted event: %w", err)
	}
	if _, err := message.StringProperty(message.KeyEventType, event); err != nil {
		return fmt.Errorf("handling accepted event: %w", err)
	}
	n, err := m.registry.findByID(providerID)
	if err != nil {
		return err
	}
	m.logger.Debug().Str("id", providerID).Msg("received consumer accept")
	return n.Transition(negotiation.StateAccepted, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Agreed(n) })
	})
}

// HandleVerified processes an agreement verification from the consumer.
func (m *ProviderManager) HandleVerified(verification message.Message) error {
	providerID, err := message.StringProperty(message.KeyProviderPID, verification)
	if err != nil {
		return fmt.Errorf("handling verification: %w", err)
	}
	n, err := m.registry.findByID(providerID)
	if err != nil {
		return err
	}
	m.logger.Debug().Str("id", providerID).Msg("received consumer verification")
	return n.Transition(negotiation.StateVerified, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Verified(n) })
	})
}

// HandleTermination processes a termination from the consumer.
func (m *ProviderManager) HandleTermination(termination message.Message) error {
	providerID, err := message.StringProperty(message.KeyProviderPID, termination)
	if err != nil {
		return fmt.Errorf("handling termination: %w", err)
	}
	n, err := m.registry.findByID(providerID)
	if err != nil {
		return err
	}
	return n.Transition(negotiation.StateTerminated, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.Terminated(n) })
	})
}

// FindByID resolves a negotiation by its local id.
func (m *ProviderManager) FindByID(id string) (*negotiation.Negotiation, error) {
	return m.registry.findByID(id)
}

// FindByCorrelationID resolves a negotiation by the consumer-assigned id.
func (m *ProviderManager) FindByCorrelationID(id string) (*negotiation.Negotiation, bool) {
	return m.registry.findByCorrelationID(id)
}

// Negotiations returns all tracked negotiations.
func (m *ProviderManager) Negotiations() []*negotiation.Negotiation {
	return m.registry.all()
}

// RegisterListener adds a lifecycle listener; idempotent.
func (m *ProviderManager) RegisterListener(l negotiation.Listener) {
	m.registry.registerListener(l)
}

// DeregisterListener removes a lifecycle listener; idempotent.
func (m *ProviderManager) DeregisterListener(l negotiation.Listener) {
	m.registry.deregisterListener(l)
}

func (m *ProviderManager) handleCounterOffer(request message.Message, providerID string) (*negotiation.Negotiation, error) {
	n, err := m.registry.findByID(providerID)
	if err != nil {
		return nil, err
	}
	offer, err := message.MapProperty(message.KeyOffer, request)
	if err != nil {
		return nil, fmt.Errorf("handling counter-offer: %w", err)
	}
	m.logger.Debug().Str("id", providerID).Msg("received counter-offer")
	err = n.StoreOffer(offer, negotiation.StateRequested, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { l.ContractRequested(n) })
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (m *ProviderManager) handleInitialRequest(request message.Message, counterpartyID string) (*negotiation.Negotiation, error) {
	consumerID, err := message.StringProperty(message.KeyConsumerPID, request)
	if err != nil {
		return nil, fmt.Errorf("handling contract request: %w", err)
	}
	if existing, ok := m.registry.findByCorrelationID(consumerID); ok {
		return existing, nil
	}

	offer, err := message.MapProperty(message.KeyOffer, request)
	if err != nil {
		return nil, fmt.Errorf("handling contract request: %w", err)
	}
	offerID, err := message.StringProperty(message.KeyID, offer)
	if err != nil {
		return nil, fmt.Errorf("handling contract request: %w", err)
	}
	datasetID, err := message.DatasetIDFromOfferID(offerID)
	if err != nil {
		return nil, fmt.Errorf("handling contract request: %w", err)
	}
	callbackAddress, err := message.StringProperty(message.KeyCallbackAddress, request)
	if err != nil {
		return nil, fmt.Errorf("handling contract request: %w", err)
	}

	n, err := negotiation.New(negotiation.Config{
		DatasetID:       datasetID,
		OfferID:         offerID,
		CorrelationID:   consumerID,
		CounterpartyID:  counterpartyID,
		CallbackAddress: callbackAddress,
		State:           negotiation.StateRequested,
	})
	if err != nil {
		return nil, err
	}
	m.registry.add(n)
	m.logger.Debug().Str("id", n.ID()).Str("correlationId", consumerID).Msg("received contract request")
	m.registry.notify(func(l negotiation.Listener) { l.ContractRequested(n) })
	return n, nil
}

func (m *ProviderManager) transition(id string, next negotiation.State, notify func(negotiation.Listener, *negotiation.Negotiation)) error {
	n, err := m.registry.findByID(id)
	if err != nil {
		return err
	}
	return n.Transition(next, func(n *negotiation.Negotiation) {
		m.registry.notify(func(l negotiation.Listener) { notify(l, n) })
	})
}
