// Package pipeline builds negotiation scenarios as deferred stage sequences.
// Builder methods record stages; nothing runs until Execute. Expectation
// methods allocate their completion signal at build time so that waits later
// in the sequence pair with expectations in declaration order, which keeps
// asynchronous counterpart messages from interleaving past a wait.
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/rs/zerolog"

	httpapi "github.com/negotiation-tck/negotiation-tck/internal/api/http"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// pollInterval is both the condition poll cadence and the settle pause taken
// before sends that race an asynchronous counterpart reaction.
const pollInterval = 100 * time.Millisecond

type base struct {
	endpoint *httpapi.Endpoint
	logger   zerolog.Logger
	waitTime time.Duration

	stages  []func() error
	latches []chan struct{}

	// tracked may be set from an endpoint goroutine while stages read it.
	tracked atomic.Pointer[negotiation.Negotiation]
}

func newBase(endpoint *httpapi.Endpoint, logger zerolog.Logger, waitTime time.Duration) base {
	return base{endpoint: endpoint, logger: logger, waitTime: waitTime}
}

// Execute runs the recorded stages in order, aborting on the first failure.
func (b *base) Execute() error {
	for _, stage := range b.stages {
		if err := stage(); err != nil {
			return err
		}
	}
	return nil
}

// Negotiation exposes the pipeline's tracked negotiation, nil before the
// stage that opens it has run.
func (b *base) Negotiation() *negotiation.Negotiation {
	return b.tracked.Load()
}

func (b *base) setNegotiation(n *negotiation.Negotiation) {
	b.tracked.Store(n)
}

func (b *base) then(stage func() error) {
	b.stages = append(b.stages, stage)
}

func (b *base) pause() {
	time.Sleep(pollInterval)
}

// pushLatch allocates a completion signal at build time. The matching wait
// consumes signals oldest-first.
func (b *base) pushLatch() chan struct{} {
	latch := make(chan struct{})
	b.latches = append(b.latches, latch)
	return latch
}

func (b *base) popLatch() chan struct{} {
	if len(b.latches) == 0 {
		return nil
	}
	latch := b.latches[0]
	b.latches = b.latches[1:]
	return latch
}

// thenWait appends a stage that blocks until the oldest pending expectation
// has fired, then polls condition until it holds. Both phases are bounded by
// the configured wait time.
func (b *base) thenWait(description string, condition func() (bool, error)) {
	b.then(func() error {
		if latch := b.popLatch(); latch != nil {
			select {
			case <-latch:
			case <-time.After(b.waitTime):
				return fmt.Errorf("%w: waiting for %s", negotiation.ErrTimeout, description)
			}
		}
		deadline := time.Now().Add(b.waitTime)
		for {
			ok, err := condition()
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: condition not satisfied within %s: %s", negotiation.ErrTimeout, b.waitTime, description)
			}
			time.Sleep(pollInterval)
		}
	})
}

// addHandlerAction expects a single counterpart message on path: the latch is
// allocated now, the one-shot handler is installed when the stage runs, and
// the handler deregisters itself before signaling.
func (b *base) addHandlerAction(path string, action func(message.Message) error) {
	b.addResponderAction(path, func(msg message.Message) (message.Message, error) {
		if err := action(msg); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// addResponderAction is addHandlerAction for expectations that answer with a
// message body. A failed action leaves the handler registered for a retry; a
// duplicate delivery racing the deregistration is acknowledged empty instead
// of re-running the action.
func (b *base) addResponderAction(path string, action func(message.Message) (message.Message, error)) {
	latch := b.pushLatch()
	var mu sync.Mutex
	done := false
	b.then(func() error {
		return b.endpoint.RegisterHandler(path, func(msg message.Message) (message.Message, error) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return nil, nil
			}
			response, err := action(msg)
			if err != nil {
				return nil, err
			}
			done = true
			b.endpoint.DeregisterHandler(path)
			close(latch)
			return response, nil
		})
	})
}

func (b *base) waitForState(state negotiation.State) (string, func() (bool, error)) {
	return "state to transition to " + state.String(), func() (bool, error) {
		current, err := b.Negotiation().State()
		if err != nil {
			return false, err
		}
		return current == state, nil
	}
}

// waitForCondition evaluates an expression against the tracked negotiation.
// The expression sees state, correlationId, offerCount, and hasAgreement.
func (b *base) waitForCondition(expr string) (string, func() (bool, error)) {
	expression, err := govaluate.NewEvaluableExpression(expr)
	return expr, func() (bool, error) {
		if err != nil {
			return false, fmt.Errorf("parsing condition %q: %w", expr, err)
		}
		snapshot, snapErr := b.Negotiation().SnapshotView()
		if snapErr != nil {
			return false, snapErr
		}
		params := map[string]any{
			"state":         snapshot.State.String(),
			"correlationId": snapshot.CorrelationID,
			"offerCount":    len(snapshot.Offers),
			"hasAgreement":  snapshot.Agreement != nil,
		}
		result, evalErr := expression.Evaluate(params)
		if evalErr != nil {
			return false, fmt.Errorf("evaluating condition %q: %w", expr, evalErr)
		}
		ok, isBool := result.(bool)
		if !isBool {
			return false, fmt.Errorf("condition %q is not boolean", expr)
		}
		return ok, nil
	}
}
