// Package client provides outbound negotiation clients. Each client
// dispatches either to a local, in-memory connector or to a remote system
// under test via HTTP, so the same scenarios run in both modes.
package client

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_client.go -package=mocks . ProviderClient,ConsumerClient

import (
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// ProviderClient drives a provider under test from consumer-side scenarios.
type ProviderClient interface {
	// ContractRequest sends an initial request or counter-offer and returns
	// the provider's negotiation acknowledgement.
	ContractRequest(request message.Message, expectError bool) (message.Message, error)
	// Accept sends an offer acceptance event.
	Accept(event message.Message) error
	// Verify sends an agreement verification.
	Verify(verification message.Message, expectError bool) error
	// Terminate sends a termination.
	Terminate(termination message.Message, expectError bool) error
	// GetNegotiation reads the provider's view of a negotiation.
	GetNegotiation(providerPID string) (message.Message, error)
}

// ConsumerClient drives a consumer under test from provider-side scenarios.
type ConsumerClient interface {
	// InitiateRequest instructs the consumer to start a negotiation.
	InitiateRequest(datasetID, offerID string) error
	// ContractOffer delivers a provider offer to the consumer's callback
	// address.
	ContractOffer(offer message.Message, callbackAddress string, expectError bool) error
	// ContractAgreement delivers an agreement.
	ContractAgreement(agreement message.Message, callbackAddress string) error
	// Finalize delivers a finalization event.
	Finalize(event message.Message, callbackAddress string, expectError bool) error
	// Terminate delivers a termination.
	Terminate(termination message.Message, callbackAddress string, expectError bool) error
	// GetNegotiation reads the consumer's view of a negotiation.
	GetNegotiation(consumerPID string) (message.Message, error)
}
