package mmodel

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TerminalEvent is the queue message emitted exactly once per terminal generation
// transition. Consumers re-read the generation record; the message only carries the
// routing coordinates.
type TerminalEvent struct {
	GenerationID uuid.UUID  `json:"generationId"`
	CastID       *uuid.UUID `json:"castId,omitempty"`
	StepIndex    *int       `json:"stepIndex,omitempty"`
	Strategy     string     `json:"strategy"`
	Status       string     `json:"status"`
	Attempt      int        `json:"attempt"`
}

// WebhookEvent is the payload POSTed to user-supplied webhook URLs. The signature
// field carries a hex HMAC-SHA256 over the canonical payload without itself.
type WebhookEvent struct {
	Event        string           `json:"event"`
	GenerationID string           `json:"generation_id,omitempty"`
	CastID       string           `json:"cast_id,omitempty"`
	Status       string           `json:"status"`
	Outputs      []Output         `json:"outputs,omitempty"`
	FinalOutputs []Output         `json:"final_outputs,omitempty"`
	Error        *GenerationError `json:"error,omitempty"`
	CostUSD      decimal.Decimal  `json:"cost_usd"`
	Timestamp    string           `json:"timestamp"`
	Signature    string           `json:"signature,omitempty"`
}

// NewWebhookEvent builds the payload skeleton with the current timestamp.
func NewWebhookEvent(event, status string) WebhookEvent {
	return WebhookEvent{
		Event:     event,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// CanonicalBytes serializes the payload with ordered keys and compact separators,
// omitting the signature field. Consumers MUST compute the HMAC over exactly
// these bytes.
func (w WebhookEvent) CanonicalBytes() ([]byte, error) {
	unsigned := w
	unsigned.Signature = ""

	return pkg.CanonicalJSON(unsigned)
}

// Sign computes the signature over the canonical payload and returns a signed copy.
func (w WebhookEvent) Sign(secret string) (WebhookEvent, error) {
	canonical, err := w.CanonicalBytes()
	if err != nil {
		return w, err
	}

	w.Signature = pkg.HMACSHA256Hex([]byte(secret), canonical)

	return w, nil
}

// SignedBody returns the final wire bytes: the canonical payload with the signature
// field included, still ordered-keys and compact.
func (w WebhookEvent) SignedBody(secret string) ([]byte, string, error) {
	signed, err := w.Sign(secret)
	if err != nil {
		return nil, "", err
	}

	body, err := pkg.CanonicalJSON(signed)
	if err != nil {
		return nil, "", err
	}

	return body, signed.Signature, nil
}

// VerifyWebhookSignature recomputes the HMAC of raw (a received webhook body) under
// secret and compares it to the embedded signature in constant time.
func VerifyWebhookSignature(raw []byte, secret string) error {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	got, _ := payload["signature"].(string)
	if got == "" {
		return errors.New("payload carries no signature")
	}

	delete(payload, "signature")

	canonical, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	want := pkg.HMACSHA256Hex([]byte(secret), canonical)

	if !pkg.SecureCompare(got, want) {
		return errors.New("signature mismatch")
	}

	return nil
}
