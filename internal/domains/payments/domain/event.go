package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Event kinds this core acts on. Anything else is acknowledged untouched.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ErrMalformedPayload rejects a signed but unparseable webhook body.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is a parsed provider webhook event.
type Event struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Intent Intent
}

// Intent is the payment-intent object carried in the event envelope.
type Intent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"` // minor units
	Currency     string            `json:"currency"`
	ReceiptEmail string            `json:"receipt_email"`
	Metadata     map[string]string `json:"metadata"`
	LastError    *IntentError      `json:"last_payment_error"`
}

// IntentError describes why a payment attempt failed.
type IntentError struct {
	Message string `json:"message"`
}

// OrderID extracts the correlated order identity from intent metadata.
// Zero means the event carried no usable order reference.
func (i Intent) OrderID() int64 {
	raw, ok := i.Metadata["order_id"]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// FailureReason returns the provider's failure message, if any.
func (i Intent) FailureReason() string {
	if i.LastError == nil || i.LastError.Message == "" {
		return "unknown error"
	}
	return i.LastError.Message
}

// ParseEvent decodes a provider event envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object Intent `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	return &Event{ID: envelope.ID, Type: envelope.Type, Intent: envelope.Data.Object}, nil
}
