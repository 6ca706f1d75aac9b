package client

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

const (
	initialOfferPath = "negotiations/offers"
	offerPath        = "negotiations/%s/offers"
	agreementPath    = "negotiations/%s/agreement"
	consumerEvtPath  = "negotiations/%s/events"
	consumerTermPath = "negotiations/%s/termination"
)

// LocalConsumerClient drives an in-memory consumer connector, pairing it with
// the local provider connector for the initial request hop.
type LocalConsumerClient struct {
	consumer      *connector.Connector
	provider      *connector.Connector
	callback      string
	participantID string
	logger        zerolog.Logger
}

// NewLocalConsumerClient creates a client bound to local connectors.
func NewLocalConsumerClient(consumer, provider *connector.Connector, callbackAddress, participantID string, logger zerolog.Logger) *LocalConsumerClient {
	return &LocalConsumerClient{
		consumer:      consumer,
		provider:      provider,
		callback:      callbackAddress,
		participantID: participantID,
		logger:        logger.With().Str("service", "consumer-client").Logger(),
	}
}

// InitiateRequest creates a consumer negotiation and plays the initial
// contract request against the provider connector, wiring the returned
// correlation id back into the consumer side.
func (c *LocalConsumerClient) InitiateRequest(datasetID, offerID string) error {
	n, err := c.consumer.Consumer().CreateNegotiation(datasetID, offerID)
	if err != nil {
		return err
	}
	request := message.NewContractRequest(n.ID(), offerID, datasetID, c.callback)
	pn, err := c.provider.Provider().HandleContractRequest(request, c.participantID)
	if err != nil {
		return err
	}
	return c.consumer.Consumer().ContractRequested(n.ID(), pn.ID())
}

func (c *LocalConsumerClient) ContractOffer(offer message.Message, _ string, expectError bool) error {
	_, err := c.consumer.Consumer().HandleOffer(offer)
	return expectedError(err, expectError)
}

func (c *LocalConsumerClient) ContractAgreement(agreement message.Message, _ string) error {
	return c.consumer.Consumer().HandleAgreement(agreement)
}

func (c *LocalConsumerClient) Finalize(event message.Message, _ string, expectError bool) error {
	err := c.consumer.Consumer().HandleFinalized(event)
	return expectedError(err, expectError)
}

func (c *LocalConsumerClient) Terminate(termination message.Message, _ string, expectError bool) error {
	err := c.consumer.Consumer().HandleTermination(termination)
	return expectedError(err, expectError)
}

func (c *LocalConsumerClient) GetNegotiation(consumerPID string) (message.Message, error) {
	n, err := c.consumer.Consumer().FindByID(consumerPID)
	if err != nil {
		return nil, err
	}
	state, err := n.State()
	if err != nil {
		return nil, err
	}
	return message.NewNegotiationAck(n.CorrelationID(), n.ID(), state.String()), nil
}

// RemoteConsumerClient dispatches to a consumer under test via HTTP. Messages
// are posted to the callback address the consumer supplied with its request.
type RemoteConsumerClient struct {
	baseURL string
	logger  zerolog.Logger
}

// NewRemoteConsumerClient creates a client for the consumer at baseURL.
func NewRemoteConsumerClient(baseURL string, logger zerolog.Logger) *RemoteConsumerClient {
	return &RemoteConsumerClient{
		baseURL: baseURL,
		logger:  logger.With().Str("service", "consumer-client").Logger(),
	}
}

// InitiateRequest is a no-op against a remote consumer: the system under test
// opens negotiations on its own schedule.
func (c *RemoteConsumerClient) InitiateRequest(datasetID, offerID string) error {
	c.logger.Debug().Str("dataset", datasetID).Str("offer", offerID).Msg("remote consumer initiates independently")
	return nil
}

func (c *RemoteConsumerClient) ContractOffer(offer message.Message, callbackAddress string, expectError bool) error {
	url := joinCallback(callbackAddress, initialOfferPath)
	if consumerPID, ok := message.OptionalStringProperty(message.KeyConsumerPID, offer); ok && consumerPID != "" {
		url = joinCallback(callbackAddress, fmt.Sprintf(offerPath, consumerPID))
	}
	_, err := PostJSON(url, offer, expectError)
	return err
}

func (c *RemoteConsumerClient) ContractAgreement(agreement message.Message, callbackAddress string) error {
	consumerPID, err := message.StringProperty(message.KeyConsumerPID, agreement)
	if err != nil {
		return err
	}
	_, err = PostJSON(joinCallback(callbackAddress, fmt.Sprintf(agreementPath, consumerPID)), agreement, false)
	return err
}

func (c *RemoteConsumerClient) Finalize(event message.Message, callbackAddress string, expectError bool) error {
	consumerPID, err := message.StringProperty(message.KeyConsumerPID, event)
	if err != nil {
		return err
	}
	_, err = PostJSON(joinCallback(callbackAddress, fmt.Sprintf(consumerEvtPath, consumerPID)), event, expectError)
	return err
}

func (c *RemoteConsumerClient) Terminate(termination message.Message, callbackAddress string, expectError bool) error {
	consumerPID, err := message.StringProperty(message.KeyConsumerPID, termination)
	if err != nil {
		return err
	}
	_, err = PostJSON(joinCallback(callbackAddress, fmt.Sprintf(consumerTermPath, consumerPID)), termination, expectError)
	return err
}

func (c *RemoteConsumerClient) GetNegotiation(consumerPID string) (message.Message, error) {
	base := c.baseURL
	if base != "" && base[len(base)-1] != '/' {
		base += "/"
	}
	return GetJSON(base + fmt.Sprintf(getPath, consumerPID))
}

func joinCallback(callbackAddress, path string) string {
	if callbackAddress == "" || callbackAddress[len(callbackAddress)-1] == '/' {
		return callbackAddress + path
	}
	return callbackAddress + "/" + path
}
