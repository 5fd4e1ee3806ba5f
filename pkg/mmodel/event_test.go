package mmodel

import (
	"encoding/json"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() WebhookEvent {
	event := NewWebhookEvent("generation.completed", "completed")
	event.GenerationID = "0191a0d0-0000-7000-8000-000000000001"
	event.Outputs = []Output{{Name: "image", Type: "image", URL: "https://cdn.example.com/a.png"}}
	event.CostUSD = decimal.NewFromFloat(0.02)

	return event
}

func TestWebhookEventSignatureExcludesItself(t *testing.T) {
	event := sampleEvent()

	signed, err := event.Sign("topsecret")
	require.NoError(t, err)
	require.NotEmpty(t, signed.Signature)

	canonical, err := event.CanonicalBytes()
	require.NoError(t, err)

	// The signature is the HMAC over the canonical payload without the field.
	assert.Equal(t, pkg.HMACSHA256Hex([]byte("topsecret"), canonical), signed.Signature)

	// Signing twice is stable.
	again, err := event.Sign("topsecret")
	require.NoError(t, err)
	assert.Equal(t, signed.Signature, again.Signature)
}

func TestWebhookEventSignedBodyVerifies(t *testing.T) {
	body, signature, err := sampleEvent().SignedBody("topsecret")
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	require.NoError(t, VerifyWebhookSignature(body, "topsecret"))

	// The inline signature matches the header mirror.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, signature, payload["signature"])
}

func TestWebhookEventVerifyRejectsTampering(t *testing.T) {
	body, _, err := sampleEvent().SignedBody("topsecret")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))

	payload["status"] = "failed"

	tampered, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.Error(t, VerifyWebhookSignature(tampered, "topsecret"))
}

func TestWebhookEventVerifyRejectsWrongSecret(t *testing.T) {
	body, _, err := sampleEvent().SignedBody("topsecret")
	require.NoError(t, err)

	assert.Error(t, VerifyWebhookSignature(body, "othersecret"))
}

func TestWebhookEventVerifyRejectsMissingSignature(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"event": "generation.completed"})
	require.NoError(t, err)

	assert.Error(t, VerifyWebhookSignature(raw, "topsecret"))
}

func TestSignedBodyHasOrderedKeys(t *testing.T) {
	body, _, err := sampleEvent().SignedBody("topsecret")
	require.NoError(t, err)

	// Ordered keys, compact separators: cost_usd < event < generation_id < signature.
	text := string(body)
	assert.Less(t, indexOf(text, `"cost_usd"`), indexOf(text, `"event"`))
	assert.Less(t, indexOf(text, `"event"`), indexOf(text, `"generation_id"`))
	assert.Less(t, indexOf(text, `"generation_id"`), indexOf(text, `"signature"`))
	assert.NotContains(t, text, ": ")
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}

	return -1
}
