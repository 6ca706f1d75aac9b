// Package harness wires the pieces of a conformance run: the callback
// dispatch endpoint, the connector playing the counterpart role, the
// outbound clients, and the worker pool mocks react on. Scenario code holds
// a Harness by reference; Open and Close bracket its lifecycle.
package harness

import (
	"github.com/rs/zerolog"

	httpapi "github.com/negotiation-tck/negotiation-tck/internal/api/http"
	"github.com/negotiation-tck/negotiation-tck/internal/application/connector"
	"github.com/negotiation-tck/negotiation-tck/internal/client"
	"github.com/negotiation-tck/negotiation-tck/internal/config"
	"github.com/negotiation-tck/negotiation-tck/internal/mock"
	"github.com/negotiation-tck/negotiation-tck/internal/pipeline"
)

// Harness owns the shared infrastructure of a conformance run.
type Harness struct {
	cfg    *config.Config
	logger zerolog.Logger

	endpoint    *httpapi.Endpoint
	connector   *connector.Connector
	counterpart *connector.Connector
	pool        *mock.Pool

	providerClient client.ProviderClient
	consumerClient client.ConsumerClient
}

// New creates an unopened harness.
func New(cfg *config.Config, logger zerolog.Logger) *Harness {
	return &Harness{cfg: cfg, logger: logger.With().Str("service", "harness").Logger()}
}

// Open starts the dispatch endpoint and builds connectors and clients. With
// a local counterpart configured, clients dispatch in-memory; otherwise they
// target the configured counterpart URL.
func (h *Harness) Open() error {
	h.endpoint = httpapi.NewEndpoint(h.cfg.CallbackAddress, h.cfg.ListenAddr, h.logger)
	if err := h.endpoint.Open(); err != nil {
		return err
	}
	h.connector = connector.New(h.logger)
	h.counterpart = connector.New(h.logger)
	h.pool = mock.NewPool(h.cfg.PoolSize)

	if h.cfg.LocalConnector {
		h.providerClient = client.NewLocalProviderClient(h.counterpart, h.cfg.ParticipantID, h.logger)
		h.consumerClient = client.NewLocalConsumerClient(h.counterpart, h.connector, h.endpoint.Address(), h.cfg.ParticipantID, h.logger)
	} else {
		h.providerClient = client.NewRemoteProviderClient(h.cfg.CounterpartURL, h.logger)
		h.consumerClient = client.NewRemoteConsumerClient(h.cfg.CounterpartURL, h.logger)
	}
	h.logger.Info().
		Str("listen", h.cfg.ListenAddr).
		Bool("local", h.cfg.LocalConnector).
		Msg("harness opened")
	return nil
}

// Close drains the worker pool and stops the endpoint.
func (h *Harness) Close() error {
	if h.pool != nil {
		h.pool.Close()
	}
	if h.endpoint != nil {
		return h.endpoint.Close()
	}
	return nil
}

// ProviderPipeline builds a pipeline exercising the provider counterpart.
func (h *Harness) ProviderPipeline() *pipeline.ProviderPipeline {
	return pipeline.NewProviderPipeline(h.providerClient, h.endpoint, h.connector, h.cfg.ParticipantID, h.logger, h.cfg.WaitTimeout)
}

// ConsumerPipeline builds a pipeline exercising the consumer counterpart.
func (h *Harness) ConsumerPipeline() *pipeline.ConsumerPipeline {
	return pipeline.NewConsumerPipeline(h.consumerClient, h.endpoint, h.connector, h.cfg.ParticipantID, h.logger, h.cfg.WaitTimeout)
}

// ProviderMock scripts the counterpart's provider side.
func (h *Harness) ProviderMock() *mock.ProviderMock {
	return mock.NewProviderMock(h.counterpart.Provider(), h.pool)
}

// ConsumerMock scripts the counterpart's consumer side.
func (h *Harness) ConsumerMock() *mock.ConsumerMock {
	return mock.NewConsumerMock(h.counterpart.Consumer(), h.pool, h.endpoint.Address())
}

// Endpoint exposes the dispatch endpoint.
func (h *Harness) Endpoint() *httpapi.Endpoint { return h.endpoint }

// Connector exposes the connector the pipelines drive.
func (h *Harness) Connector() *connector.Connector { return h.connector }

// Counterpart exposes the in-memory counterpart connector.
func (h *Harness) Counterpart() *connector.Connector { return h.counterpart }

// ProviderClient exposes the provider-facing client.
func (h *Harness) ProviderClient() client.ProviderClient { return h.providerClient }

// ConsumerClient exposes the consumer-facing client.
func (h *Harness) ConsumerClient() client.ConsumerClient { return h.consumerClient }
