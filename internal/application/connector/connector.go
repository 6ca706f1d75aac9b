// Package connector implements an in-memory connector supporting
// control-plane negotiation operations for conformance testing: one
// negotiation manager per protocol role plus their shared indexing and
// listener plumbing.
package connector

import "github.com/rs/zerolog"

// Connector bundles a consumer-role and a provider-role negotiation manager.
// One instance is long-lived per harness.
type Connector struct {
	consumer *ConsumerManager
	provider *ProviderManager
}

// New creates a connector with fresh managers for both roles.
func New(logger zerolog.Logger) *Connector {
	return &Connector{
		consumer: NewConsumerManager(logger),
		provider: NewProviderManager(logger),
	}
}

// Consumer returns the consumer-role negotiation manager.
func (c *Connector) Consumer() *ConsumerManager { return c.consumer }

// Provider returns the provider-role negotiation manager.
func (c *Connector) Provider() *ProviderManager { return c.provider }
