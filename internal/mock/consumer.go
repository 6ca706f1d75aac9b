package mock

import (
	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
)

// ConsumerAction reacts to a consumer-side negotiation event. Actions receive
// the address of the counterpart the consumer dispatches to.
type ConsumerAction func(baseAddress string, n *negotiation.Negotiation)

// ConsumerMock scripts the consumer side of a negotiation. It listens on the
// consumer manager and reacts when negotiations reach INITIALIZED, REQUESTED,
// OFFERED, or AGREED.
type ConsumerMock struct {
	negotiation.NoopListener
	base
	manager     *connector.ConsumerManager
	baseAddress string
}

// NewConsumerMock creates a consumer mock dispatching against baseAddress and
// registers it with the manager.
func NewConsumerMock(manager *connector.ConsumerManager, pool *Pool, baseAddress string) *ConsumerMock {
	m := &ConsumerMock{base: newBase(pool), manager: manager, baseAddress: baseAddress}
	manager.RegisterListener(m)
	return m
}

// RecordInitializedAction reacts to a negotiation being created.
func (m *ConsumerMock) RecordInitializedAction(action ConsumerAction) {
	m.record(negotiation.StateInitialized, m.wrap(action))
}

// RecordRequestAction reacts to the initial request being acknowledged.
func (m *ConsumerMock) RecordRequestAction(action ConsumerAction) {
	m.record(negotiation.StateRequested, m.wrap(action))
}

// RecordOfferedAction reacts to a provider offer.
func (m *ConsumerMock) RecordOfferedAction(action ConsumerAction) {
	m.record(negotiation.StateOffered, func(n *negotiation.Negotiation) {
		if err := n.Transition(negotiation.StateOffered); err != nil {
			return
		}
		action(m.baseAddress, n)
	})
}

// RecordAgreedAction reacts to a provider agreement.
func (m *ConsumerMock) RecordAgreedAction(action ConsumerAction) {
	m.record(negotiation.StateAgreed, m.wrap(action))
}

// RecordFinalizedAction reacts to the provider's finalization event.
func (m *ConsumerMock) RecordFinalizedAction(action ConsumerAction) {
	m.record(negotiation.StateFinalized, m.wrap(action))
}

// Verify fails if recorded actions were left unconsumed, then detaches the
// mock from the manager.
func (m *ConsumerMock) Verify() error {
	err := m.verify()
	m.manager.DeregisterListener(m)
	return err
}

func (m *ConsumerMock) Created(n *negotiation.Negotiation) {
	m.fire(negotiation.StateInitialized, n)
}

func (m *ConsumerMock) ContractRequested(n *negotiation.Negotiation) {
	m.fire(negotiation.StateRequested, n)
}

func (m *ConsumerMock) Offered(n *negotiation.Negotiation) {
	m.fire(negotiation.StateOffered, n)
}

func (m *ConsumerMock) Agreed(n *negotiation.Negotiation) {
	m.fire(negotiation.StateAgreed, n)
}

func (m *ConsumerMock) Finalized(n *negotiation.Negotiation) {
	m.fire(negotiation.StateFinalized, n)
}

func (m *ConsumerMock) wrap(action ConsumerAction) Action {
	return func(n *negotiation.Negotiation) { action(m.baseAddress, n) }
}
