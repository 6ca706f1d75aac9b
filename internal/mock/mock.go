// Package mock provides scripted counterpart behavior for negotiation
// scenarios. A mock registers as a lifecycle listener on a connector manager
// and reacts to state events by draining per-state FIFO queues of recorded
// actions, each executed on a worker pool.
package mock

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
)

// Action reacts to a negotiation reaching a recorded state.
type Action func(n *negotiation.Negotiation)

// base holds the per-state action queues shared by both role mocks.
type base struct {
	mu      sync.Mutex
	actions map[negotiation.State][]Action
	pool    *Pool
}

func newBase(pool *Pool) base {
	return base{actions: make(map[negotiation.State][]Action), pool: pool}
}

func (b *base) record(state negotiation.State, action Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions[state] = append(b.actions[state], action)
}

// fire pops the oldest action recorded for state and runs it off-thread.
// Events with no recorded action are ignored.
func (b *base) fire(state negotiation.State, n *negotiation.Negotiation) {
	b.mu.Lock()
	queue := b.actions[state]
	if len(queue) == 0 {
		b.mu.Unlock()
		return
	}
	action := queue[0]
	if len(queue) == 1 {
		delete(b.actions, state)
	} else {
		b.actions[state] = queue[1:]
	}
	b.mu.Unlock()
	b.pool.Submit(func() { action(n) })
}

// Completed reports whether every recorded action has been consumed.
func (b *base) Completed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, queue := range b.actions {
		if len(queue) > 0 {
			return false
		}
	}
	return true
}

// Reset discards all recorded actions.
func (b *base) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions = make(map[negotiation.State][]Action)
}

func (b *base) verify() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var leftover []string
	for state, queue := range b.actions {
		if len(queue) > 0 {
			leftover = append(leftover, state.String())
		}
	}
	if len(leftover) == 0 {
		return nil
	}
	sort.Strings(leftover)
	return fmt.Errorf("recorded actions not executed for states: %s", strings.Join(leftover, ", "))
}
