package negotiation

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// State represents a negotiation's protocol state.
type State string

const (
	StateInitialized State = "INITIALIZED"
	StateRequested   State = "REQUESTED"
	StateOffered     State = "OFFERED"
	StateAccepted    State = "ACCEPTED"
	StateAgreed      State = "AGREED"
	StateVerified    State = "VERIFIED"
	StateFinalized   State = "FINALIZED"
	StateTerminated  State = "TERMINATED"
)

// transitions is the legal next-state table. FINALIZED and TERMINATED are
// absorbing: they admit no further transitions, including to themselves.
var transitions = map[State][]State{
	StateInitialized: {StateRequested, StateOffered, StateTerminated},
	StateRequested:   {StateRequested, StateOffered, StateAgreed, StateTerminated},
	StateOffered:     {StateRequested, StateOffered, StateAccepted, StateTerminated},
	StateAccepted:    {StateAgreed, StateTerminated},
	StateAgreed:      {StateVerified, StateTerminated},
	StateVerified:    {StateFinalized, StateTerminated},
	StateFinalized:   {},
	StateTerminated:  {},
}

func (s State) String() string { return string(s) }

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateTerminated
}

// ParseState resolves a state name, case-insensitively.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(s))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown negotiation state: %q", s)
	}
	return st, nil
}

var (
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrNotFound          = errors.New("negotiation not found")
	ErrTimeout           = errors.New("timeout")
)

// DefaultLockTimeout bounds entity lock acquisition.
const DefaultLockTimeout = 5 * time.Second

// StateListener observes committed transitions. Listeners run synchronously
// under the entity's write lock and must not call locked accessors.
type StateListener func(previous State, n *Negotiation)

// Work is a post-commit side effect executed with the same exclusivity as the
// state mutation it follows.
type Work func(n *Negotiation)

// Listener receives role-level lifecycle events from a negotiation manager.
type Listener interface {
	Created(n *Negotiation)
	ContractRequested(n *Negotiation)
	Offered(n *Negotiation)
	Agreed(n *Negotiation)
	Verified(n *Negotiation)
	Finalized(n *Negotiation)
	Terminated(n *Negotiation)
}

// NoopListener implements Listener with empty reactions; embed it to override
// a subset of events.
type NoopListener struct{}

func (NoopListener) Created(*Negotiation)           {}
func (NoopListener) ContractRequested(*Negotiation) {}
func (NoopListener) Offered(*Negotiation)           {}
func (NoopListener) Agreed(*Negotiation)            {}
func (NoopListener) Verified(*Negotiation)          {}
func (NoopListener) Finalized(*Negotiation)         {}
func (NoopListener) Terminated(*Negotiation)        {}

// Config carries the immutable attributes fixed at creation. Zero-value
// fields other than DatasetID and OfferID are optional.
type Config struct {
	DatasetID       string
	OfferID         string
	CorrelationID   string
	CounterpartyID  string
	CallbackAddress string
	// State overrides the INITIALIZED initial state. A provider indexes
	// incoming requests directly in REQUESTED because the request already
	// carries the counterparty's id.
	State       State
	Listeners   []StateListener
	LockTimeout time.Duration
}

// Negotiation is the contract negotiation entity. All mutable fields are
// guarded by a timed reader/writer lock; immutable attributes are lock-free.
type Negotiation struct {
	id              string
	offerID         string
	datasetID       string
	callbackAddress string
	counterpartyID  string

	// correlationID is set at most once, under the write lock, and read
	// lock-free thereafter.
	correlationID atomic.Pointer[string]

	state     State
	offers    []message.Message
	agreement message.Message
	listeners []StateListener

	lock *timedLock
}

// Snapshot is a point-in-time view of the mutable fields.
type Snapshot struct {
	State         State
	CorrelationID string
	Offers        []message.Message
	Agreement     message.Message
}

// New creates a negotiation entity with a fresh process-unique id.
func New(cfg Config) (*Negotiation, error) {
	state := cfg.State
	if state == "" {
		state = StateInitialized
	}
	if _, ok := transitions[state]; !ok {
		return nil, fmt.Errorf("unknown negotiation state: %q", state)
	}
	if (state == StateRequested || state == StateOffered) && cfg.CorrelationID == "" {
		return nil, fmt.Errorf("%w: correlation id not set for initial state %s", ErrIllegalTransition, state)
	}
	timeout := cfg.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	n := &Negotiation{
		id:              uuid.NewString(),
		offerID:         cfg.OfferID,
		datasetID:       cfg.DatasetID,
		callbackAddress: cfg.CallbackAddress,
		counterpartyID:  cfg.CounterpartyID,
		state:           state,
		listeners:       append([]StateListener(nil), cfg.Listeners...),
		lock:            newTimedLock(timeout),
	}
	if cfg.CorrelationID != "" {
		id := cfg.CorrelationID
		n.correlationID.Store(&id)
	}
	return n, nil
}

func (n *Negotiation) ID() string              { return n.id }
func (n *Negotiation) OfferID() string         { return n.offerID }
func (n *Negotiation) DatasetID() string       { return n.datasetID }
func (n *Negotiation) CallbackAddress() string { return n.callbackAddress }
func (n *Negotiation) CounterpartyID() string  { return n.counterpartyID }

// CorrelationID returns the counterparty-assigned id, or empty if unset.
func (n *Negotiation) CorrelationID() string {
	if p := n.correlationID.Load(); p != nil {
		return *p
	}
	return ""
}

// State returns the current protocol state.
func (n *Negotiation) State() (State, error) {
	var s State
	err := n.lock.withRead(func() { s = n.state })
	return s, err
}

// Offers returns a copy of the received offer sequence.
func (n *Negotiation) Offers() ([]message.Message, error) {
	var offers []message.Message
	err := n.lock.withRead(func() {
		offers = append([]message.Message(nil), n.offers...)
	})
	return offers, err
}

// LastOffer returns the most recently received offer, or nil.
func (n *Negotiation) LastOffer() (message.Message, error) {
	var offer message.Message
	err := n.lock.withRead(func() {
		if len(n.offers) > 0 {
			offer = n.offers[len(n.offers)-1]
		}
	})
	return offer, err
}

// Agreement returns the stored agreement, or nil.
func (n *Negotiation) Agreement() (message.Message, error) {
	var agreement message.Message
	err := n.lock.withRead(func() { agreement = n.agreement })
	return agreement, err
}

// SnapshotView returns a consistent view of all mutable fields.
func (n *Negotiation) SnapshotView() (Snapshot, error) {
	var snap Snapshot
	err := n.lock.withRead(func() {
		snap = Snapshot{
			State:         n.state,
			CorrelationID: n.CorrelationID(),
			Offers:        append([]message.Message(nil), n.offers...),
			Agreement:     n.agreement,
		}
	})
	return snap, err
}

// AddListener registers a transition observer. A listener registered after a
// transition never observes it.
func (n *Negotiation) AddListener(l StateListener) error {
	return n.lock.withWrite(func() error {
		n.listeners = append(n.listeners, l)
		return nil
	})
}

// Transition moves the negotiation to the next state. The transition is
// validated against the legal next-state table, committed, and announced to
// listeners in registration order; any supplied work closures then run under
// the same write lock so the side effect cannot race a concurrent transition.
func (n *Negotiation) Transition(next State, work ...Work) error {
	return n.lock.withWrite(func() error {
		if err := n.commit(next); err != nil {
			return err
		}
		for _, w := range work {
			w(n)
		}
		return nil
	})
}

// SetCorrelationID assigns the counterparty id and transitions atomically.
// Completing the handshake a second time with the same id is a no-op, so the
// acknowledgement path and an early counterparty message cannot race each
// other into an illegal transition.
func (n *Negotiation) SetCorrelationID(id string, next State, work ...Work) error {
	return n.lock.withWrite(func() error {
		if n.CorrelationID() == id && n.state != StateInitialized {
			return nil
		}
		n.correlationID.Store(&id)
		if err := n.commit(next); err != nil {
			return err
		}
		for _, w := range work {
			w(n)
		}
		return nil
	})
}

// StoreOffer appends a received offer and transitions atomically.
func (n *Negotiation) StoreOffer(offer message.Message, next State, work ...Work) error {
	return n.lock.withWrite(func() error {
		if err := n.commit(next); err != nil {
			return err
		}
		n.offers = append(n.offers, offer)
		for _, w := range work {
			w(n)
		}
		return nil
	})
}

// StoreAgreement sets the agreement and transitions to AGREED atomically.
func (n *Negotiation) StoreAgreement(agreement message.Message, work ...Work) error {
	return n.lock.withWrite(func() error {
		if err := n.commit(StateAgreed); err != nil {
			return err
		}
		n.agreement = agreement
		for _, w := range work {
			w(n)
		}
		return nil
	})
}

// commit validates and applies a transition, then notifies listeners. Caller
// must hold the write lock.
func (n *Negotiation) commit(next State) error {
	legal := transitions[n.state]
	if n.state.Terminal() {
		return fmt.Errorf("%w: %s is a final state", ErrIllegalTransition, n.state)
	}
	if !containsState(legal, next) {
		return fmt.Errorf("%w: from %s to %s, legal targets are %s",
			ErrIllegalTransition, n.state, next, joinStates(legal))
	}
	if (next == StateRequested || next == StateOffered) && n.CorrelationID() == "" {
		return fmt.Errorf("%w: correlation id not set for transition to %s", ErrIllegalTransition, next)
	}
	previous := n.state
	n.state = next
	for _, l := range n.listeners {
		l(previous, n)
	}
	return nil
}

func containsState(states []State, s State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

func joinStates(states []State) string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
