package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Message is a structured protocol message: a string-keyed field map produced
// and consumed by the negotiation managers and pipelines. Serialization to the
// wire format is confined to Parse and Serialize.
type Message = map[string]any

// Field keys shared by all negotiation messages.
const (
	KeyID              = "@id"
	KeyType            = "@type"
	KeyConsumerPID     = "consumerPid"
	KeyProviderPID     = "providerPid"
	KeyOffer           = "offer"
	KeyAgreement       = "agreement"
	KeyEventType       = "eventType"
	KeyCallbackAddress = "callbackAddress"
	KeyState           = "state"
	KeyCode            = "code"
	KeyReason          = "reason"
	KeyTarget          = "target"
	KeyPermission      = "permission"
	KeyAction          = "action"
	KeyConstraints     = "constraints"
)

// Message type discriminators.
const (
	TypeContractRequest = "ContractRequestMessage"
	TypeContractOffer   = "ContractOfferMessage"
	TypeAgreement       = "ContractAgreementMessage"
	TypeVerification    = "ContractAgreementVerificationMessage"
	TypeEvent           = "ContractNegotiationEventMessage"
	TypeTermination     = "ContractNegotiationTerminationMessage"
	TypeNegotiation     = "ContractNegotiation"
)

// Event type values carried in KeyEventType.
const (
	EventAccepted  = "ACCEPTED"
	EventFinalized = "FINALIZED"
)

const offerIDPrefix = "offer"

var (
	ErrMissingField = errors.New("missing message field")
	ErrMalformed    = errors.New("malformed message")
)

// NewContractRequest builds the initial request sent by a consumer. The
// consumer pid becomes the counterparty's correlation id.
func NewContractRequest(consumerPID, offerID, targetID, callbackAddress string) Message {
	return Message{
		KeyType:            TypeContractRequest,
		KeyConsumerPID:     consumerPID,
		KeyOffer:           offerStub(offerID, targetID),
		KeyCallbackAddress: callbackAddress,
	}
}

// NewCounterOffer builds a contract request referencing an existing
// negotiation by its provider pid.
func NewCounterOffer(providerPID, consumerPID, offerID, targetID, callbackAddress string) Message {
	return Message{
		KeyType:            TypeContractRequest,
		KeyProviderPID:     providerPID,
		KeyConsumerPID:     consumerPID,
		KeyOffer:           offerPolicy(offerID, targetID),
		KeyCallbackAddress: callbackAddress,
	}
}

// NewOffer builds a provider offer message.
func NewOffer(providerPID, consumerPID, offerID, targetID string) Message {
	return Message{
		KeyType:        TypeContractOffer,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
		KeyOffer:       offerPolicy(offerID, targetID),
	}
}

// NewAgreement builds a provider agreement message.
func NewAgreement(providerPID, consumerPID, agreementID, targetID string) Message {
	return Message{
		KeyType:        TypeAgreement,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
		KeyAgreement: Message{
			KeyID:         agreementID,
			KeyTarget:     targetID,
			KeyPermission: []any{Message{KeyAction: "use", KeyConstraints: []any{}}},
		},
	}
}

// NewVerification builds a consumer agreement verification message.
func NewVerification(providerPID, consumerPID string) Message {
	return Message{
		KeyType:        TypeVerification,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
	}
}

// NewEvent builds a negotiation event message with the given event type.
func NewEvent(providerPID, consumerPID, eventType string) Message {
	return Message{
		KeyType:        TypeEvent,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
		KeyEventType:   eventType,
	}
}

// NewAcceptedEvent builds an offer acceptance event.
func NewAcceptedEvent(providerPID, consumerPID string) Message {
	return NewEvent(providerPID, consumerPID, EventAccepted)
}

// NewFinalizedEvent builds a negotiation finalization event.
func NewFinalizedEvent(providerPID, consumerPID string) Message {
	return NewEvent(providerPID, consumerPID, EventFinalized)
}

// NewTermination builds a termination message with an optional reason list.
func NewTermination(providerPID, consumerPID, code string, reasons ...string) Message {
	msg := Message{
		KeyType:        TypeTermination,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
		KeyCode:        code,
	}
	if len(reasons) > 0 {
		list := make([]any, 0, len(reasons))
		for _, r := range reasons {
			list = append(list, Message{"message": r})
		}
		msg[KeyReason] = list
	}
	return msg
}

// NewNegotiationAck builds the negotiation acknowledgement returned for
// request and offer messages.
func NewNegotiationAck(providerPID, consumerPID, state string) Message {
	return Message{
		KeyType:        TypeNegotiation,
		KeyProviderPID: providerPID,
		KeyConsumerPID: consumerPID,
		KeyState:       state,
	}
}

func offerStub(offerID, targetID string) Message {
	return Message{
		KeyID:     offerID,
		KeyTarget: targetID,
	}
}

func offerPolicy(offerID, targetID string) Message {
	return Message{
		KeyID:         offerID,
		KeyTarget:     targetID,
		KeyPermission: []any{Message{KeyAction: "use", KeyConstraints: []any{}}},
	}
}

// StringProperty reads a required string field.
func StringProperty(key string, msg Message) (string, error) {
	v, ok := msg[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformed, key)
	}
	return s, nil
}

// OptionalStringProperty reads a string field, returning false when absent.
func OptionalStringProperty(key string, msg Message) (string, bool) {
	s, ok := msg[key].(string)
	return s, ok
}

// MapProperty reads a required sub-object field.
func MapProperty(key string, msg Message) (Message, error) {
	v, ok := msg[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformed, key)
	}
	return m, nil
}

// HasProperty reports whether a field is present.
func HasProperty(key string, msg Message) bool {
	_, ok := msg[key]
	return ok
}

// Parse decodes a raw message body into a field map.
func Parse(raw []byte) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid body", ErrMalformed)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: body is not an object", ErrMalformed)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// MessageType extracts the type discriminator from a raw body without a full
// decode.
func MessageType(raw []byte) string {
	return gjson.GetBytes(raw, `\@type`).String()
}

// Serialize encodes a message for the wire.
func Serialize(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("serializing message: %w", err)
	}
	return data, nil
}

// OfferIDFromDatasetID derives the deterministic offer id for a dataset.
func OfferIDFromDatasetID(datasetID string) string {
	return offerIDPrefix + datasetID
}

// DatasetIDFromOfferID recovers the dataset id from a derived offer id.
func DatasetIDFromOfferID(offerID string) (string, error) {
	if !strings.HasPrefix(offerID, offerIDPrefix) {
		return "", fmt.Errorf("%w: offer id %q lacks %q prefix", ErrMalformed, offerID, offerIDPrefix)
	}
	return strings.TrimPrefix(offerID, offerIDPrefix), nil
}
