package mock

import (
	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
)

// ProviderMock scripts the provider side of a negotiation. It listens on the
// provider manager and reacts when negotiations reach REQUESTED, ACCEPTED, or
// VERIFIED.
type ProviderMock struct {
	negotiation.NoopListener
	base
	manager *connector.ProviderManager
}

// NewProviderMock creates a provider mock and registers it with the manager.
func NewProviderMock(manager *connector.ProviderManager, pool *Pool) *ProviderMock {
	m := &ProviderMock{base: newBase(pool), manager: manager}
	manager.RegisterListener(m)
	return m
}

// RecordContractRequestedAction reacts to an incoming contract request.
func (m *ProviderMock) RecordContractRequestedAction(action Action) {
	m.record(negotiation.StateRequested, action)
}

// RecordAgreedAction reacts to the consumer accepting the current offer. The
// accept event lands the negotiation in ACCEPTED, which is where the action
// queues.
func (m *ProviderMock) RecordAgreedAction(action Action) {
	m.record(negotiation.StateAccepted, action)
}

// RecordVerifiedAction reacts to the consumer's agreement verification.
func (m *ProviderMock) RecordVerifiedAction(action Action) {
	m.record(negotiation.StateVerified, action)
}

// Verify fails if recorded actions were left unconsumed, then detaches the
// mock from the manager.
func (m *ProviderMock) Verify() error {
	err := m.verify()
	m.manager.DeregisterListener(m)
	return err
}

func (m *ProviderMock) ContractRequested(n *negotiation.Negotiation) {
	m.fire(negotiation.StateRequested, n)
}

func (m *ProviderMock) Agreed(n *negotiation.Negotiation) {
	m.fire(negotiation.StateAccepted, n)
}

func (m *ProviderMock) Verified(n *negotiation.Negotiation) {
	m.fire(negotiation.StateVerified, n)
}
