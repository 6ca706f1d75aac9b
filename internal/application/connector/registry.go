package connector

import (
	"fmt"
	"sync"

	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
)

// registry indexes negotiations by id and fans lifecycle events out to
// registered listeners. Safe for use by the pipeline goroutine, inbound HTTP
// handlers, and mock worker goroutines concurrently.
type registry struct {
	mu           sync.RWMutex
	negotiations map[string]*negotiation.Negotiation
	listeners    []negotiation.Listener
}

func newRegistry() *registry {
	return &registry{negotiations: make(map[string]*negotiation.Negotiation)}
}

func (r *registry) add(n *negotiation.Negotiation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.negotiations[n.ID()] = n
}

func (r *registry) findByID(id string) (*negotiation.Negotiation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.negotiations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", negotiation.ErrNotFound, id)
	}
	return n, nil
}

// findByCorrelationID scans for a negotiation by its counterparty-assigned
// id. No match is not an error.
func (r *registry) findByCorrelationID(id string) (*negotiation.Negotiation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.negotiations {
		if n.CorrelationID() == id {
			return n, true
		}
	}
	return nil, false
}

func (r *registry) all() []*negotiation.Negotiation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*negotiation.Negotiation, 0, len(r.negotiations))
	for _, n := range r.negotiations {
		out = append(out, n)
	}
	return out
}

// registerListener appends a listener, preserving registration order.
// Registering the same listener twice is a no-op.
func (r *registry) registerListener(l negotiation.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.listeners {
		if existing == l {
			return
		}
	}
	r.listeners = append(r.listeners, l)
}

func (r *registry) deregisterListener(l negotiation.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// notify invokes fn for each listener in registration order.
func (r *registry) notify(fn func(negotiation.Listener)) {
	r.mu.RLock()
	listeners := append([]negotiation.Listener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, l := range listeners {
		fn(l)
	}
}
