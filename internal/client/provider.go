package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

const (
	requestPath      = "negotiations/request"
	getPath          = "negotiations/%s"
	terminatePath    = "negotiations/%s/termination"
	eventPath        = "negotiations/%s/events"
	verificationPath = "negotiations/%s/agreement/verification"
)

// LocalProviderClient dispatches directly to an in-memory connector's
// provider manager.
type LocalProviderClient struct {
	connector     *connector.Connector
	participantID string
	logger        zerolog.Logger
}

// NewLocalProviderClient creates a client bound to a local connector.
func NewLocalProviderClient(c *connector.Connector, participantID string, logger zerolog.Logger) *LocalProviderClient {
	return &LocalProviderClient{
		connector:     c,
		participantID: participantID,
		logger:        logger.With().Str("service", "provider-client").Logger(),
	}
}

func (c *LocalProviderClient) ContractRequest(request message.Message, expectError bool) (message.Message, error) {
	n, err := c.connector.Provider().HandleContractRequest(request, c.participantID)
	if err := expectedError(err, expectError); err != nil {
		return nil, err
	}
	if expectError {
		return message.Message{}, nil
	}
	state, err := n.State()
	if err != nil {
		return nil, err
	}
	return message.NewNegotiationAck(n.ID(), n.CorrelationID(), state.String()), nil
}

func (c *LocalProviderClient) Accept(event message.Message) error {
	return c.connector.Provider().HandleAccepted(event)
}

func (c *LocalProviderClient) Verify(verification message.Message, expectError bool) error {
	err := c.connector.Provider().HandleVerified(verification)
	return expectedError(err, expectError)
}

func (c *LocalProviderClient) Terminate(termination message.Message, expectError bool) error {
	err := c.connector.Provider().HandleTermination(termination)
	return expectedError(err, expectError)
}

func (c *LocalProviderClient) GetNegotiation(providerPID string) (message.Message, error) {
	n, err := c.connector.Provider().FindByID(providerPID)
	if err != nil {
		return nil, err
	}
	state, err := n.State()
	if err != nil {
		return nil, err
	}
	return message.NewNegotiationAck(n.ID(), n.CorrelationID(), state.String()), nil
}

// RemoteProviderClient dispatches to a provider under test via HTTP.
type RemoteProviderClient struct {
	baseURL string
	logger  zerolog.Logger
}

// NewRemoteProviderClient creates a client for the provider at baseURL.
func NewRemoteProviderClient(baseURL string, logger zerolog.Logger) *RemoteProviderClient {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &RemoteProviderClient{
		baseURL: baseURL,
		logger:  logger.With().Str("service", "provider-client").Logger(),
	}
}

func (c *RemoteProviderClient) ContractRequest(request message.Message, expectError bool) (message.Message, error) {
	response, err := PostJSON(c.baseURL+requestPath, request, expectError)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Msg("received contract request response")
	if response == nil {
		response = message.Message{}
	}
	return response, nil
}

func (c *RemoteProviderClient) Accept(event message.Message) error {
	providerPID, err := message.StringProperty(message.KeyProviderPID, event)
	if err != nil {
		return err
	}
	_, err = PostJSON(c.baseURL+fmt.Sprintf(eventPath, providerPID), event, false)
	return err
}

func (c *RemoteProviderClient) Verify(verification message.Message, expectError bool) error {
	providerPID, err := message.StringProperty(message.KeyProviderPID, verification)
	if err != nil {
		return err
	}
	_, err = PostJSON(c.baseURL+fmt.Sprintf(verificationPath, providerPID), verification, expectError)
	return err
}

func (c *RemoteProviderClient) Terminate(termination message.Message, expectError bool) error {
	providerPID, err := message.StringProperty(message.KeyProviderPID, termination)
	if err != nil {
		return err
	}
	_, err = PostJSON(c.baseURL+fmt.Sprintf(terminatePath, providerPID), termination, expectError)
	return err
}

func (c *RemoteProviderClient) GetNegotiation(providerPID string) (message.Message, error) {
	return GetJSON(c.baseURL + fmt.Sprintf(getPath, providerPID))
}

// expectedError applies the negative-test contract to a local dispatch: an
// illegal transition is swallowed when expected, and a clean dispatch fails
// when a rejection was expected.
func expectedError(err error, expectError bool) error {
	if expectError {
		if err == nil {
			return fmt.Errorf("%w: expected the dispatch to be rejected", ErrUnexpectedResponse)
		}
		if errors.Is(err, negotiation.ErrIllegalTransition) {
			return nil
		}
		return err
	}
	return err
}
