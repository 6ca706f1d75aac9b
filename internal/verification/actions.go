// Package verification holds executable conformance scenarios for the
// contract negotiation protocol, together with the canned counterpart
// reactions they schedule on mocks.
package verification

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/negotiation-tck/negotiation-tck/internal/client"
	"github.com/negotiation-tck/negotiation-tck/internal/domain/negotiation"
	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

const (
	offerTemplate        = "%s/negotiations/%s/offers"
	agreementTemplate    = "%s/negotiations/%s/agreement"
	eventTemplate        = "%s/negotiations/%s/events"
	terminationTemplate  = "%s/negotiations/%s/termination"
	requestTemplate      = "%s/negotiations/request"
	verificationTemplate = "%s/negotiations/%s/agreement/verification"
)

// PostOffer transitions the provider-side negotiation to OFFERED and posts an
// offer to the consumer's callback address.
func PostOffer(n *negotiation.Negotiation) error {
	offer := message.NewOffer(n.ID(), n.CorrelationID(), uuid.NewString(), uuid.NewString())
	if err := n.StoreOffer(offer, negotiation.StateOffered); err != nil {
		return err
	}
	url := fmt.Sprintf(offerTemplate, n.CallbackAddress(), n.CorrelationID())
	_, err := client.PostJSON(url, offer, false)
	return err
}

// PostAgreed transitions the provider-side negotiation to AGREED and posts
// the agreement to the consumer's callback address.
func PostAgreed(n *negotiation.Negotiation) error {
	agreement := message.NewAgreement(n.ID(), n.CorrelationID(), uuid.NewString(), n.DatasetID())
	if err := n.StoreAgreement(agreement); err != nil {
		return err
	}
	url := fmt.Sprintf(agreementTemplate, n.CallbackAddress(), n.CorrelationID())
	_, err := client.PostJSON(url, agreement, false)
	return err
}

// PostFinalized transitions the provider-side negotiation to FINALIZED and
// posts the finalization event to the consumer's callback address.
func PostFinalized(n *negotiation.Negotiation) error {
	if err := n.Transition(negotiation.StateFinalized); err != nil {
		return err
	}
	event := message.NewFinalizedEvent(n.ID(), n.CorrelationID())
	url := fmt.Sprintf(eventTemplate, n.CallbackAddress(), n.CorrelationID())
	_, err := client.PostJSON(url, event, false)
	return err
}

// PostTerminate posts a termination to the consumer's callback address.
func PostTerminate(n *negotiation.Negotiation) error {
	termination := message.NewTermination(n.ID(), n.CorrelationID(), "1")
	url := fmt.Sprintf(terminationTemplate, n.CallbackAddress(), n.CorrelationID())
	_, err := client.PostJSON(url, termination, false)
	return err
}

// PostRequest posts the consumer's contract request to the counterpart at
// baseURL and records the provider pid from the acknowledgement.
func PostRequest(baseURL string, n *negotiation.Negotiation) error {
	request := message.NewContractRequest(n.ID(), n.OfferID(), n.DatasetID(), baseURL)
	response, err := client.PostJSON(fmt.Sprintf(requestTemplate, baseURL), request, false)
	if err != nil {
		return err
	}
	providerID, err := message.StringProperty(message.KeyProviderPID, response)
	if err != nil {
		return fmt.Errorf("reading request acknowledgement: %w", err)
	}
	return n.SetCorrelationID(providerID, negotiation.StateRequested)
}

// PostAccepted transitions the consumer-side negotiation to ACCEPTED and
// posts the acceptance event.
func PostAccepted(baseURL string, n *negotiation.Negotiation) error {
	if err := n.Transition(negotiation.StateAccepted); err != nil {
		return err
	}
	event := message.NewAcceptedEvent(n.CorrelationID(), n.ID())
	_, err := client.PostJSON(fmt.Sprintf(eventTemplate, baseURL, n.CorrelationID()), event, false)
	return err
}

// PostVerification transitions the consumer-side negotiation to VERIFIED and
// posts the agreement verification.
func PostVerification(baseURL string, n *negotiation.Negotiation) error {
	if err := n.Transition(negotiation.StateVerified); err != nil {
		return err
	}
	verification := message.NewVerification(n.CorrelationID(), n.ID())
	_, err := client.PostJSON(fmt.Sprintf(verificationTemplate, baseURL, n.CorrelationID()), verification, false)
	return err
}
