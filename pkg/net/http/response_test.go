package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp() *fiber.App {
	return fiber.New()
}

func decodeEnvelope(t *testing.T, resp *http.Response) ErrorEnvelope {
	t.Helper()

	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	return env
}

func TestUnauthorized(t *testing.T) {
	app := setupTestApp()
	app.Get("/test", func(c *fiber.Ctx) error {
		c.Locals("request_id", "req-123")

		return Unauthorized(c, "UNAUTHORIZED", "Invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, "Invalid token", env.Error.Message)
	assert.Equal(t, "req-123", env.Error.RequestID)
}

func TestNotFound(t *testing.T) {
	app := setupTestApp()
	app.Get("/test", func(c *fiber.Ctx) error {
		return NotFound(c, "NOT_FOUND", "No entity was found for the given ID.")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestBadRequestCarriesFields(t *testing.T) {
	app := setupTestApp()
	app.Get("/test", func(c *fiber.Ctx) error {
		return BadRequest(c, "BAD_REQUEST", "Malformed request", map[string]string{"prompt": "required"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	fields, _ := body["error"]["fields"].(map[string]any)
	assert.Equal(t, "required", fields["prompt"])
}

func TestPaymentRequiredMirrorsHeader(t *testing.T) {
	requirements := map[string]string{
		"receiver":      "0xabc",
		"amount_atomic": "12000",
		"currency":      "USDC",
		"chain":         "base",
	}

	app := setupTestApp()
	app.Get("/test", func(c *fiber.Ctx) error {
		return PaymentRequired(c, "PAYMENT_REQUIRED", "Attach a payment.", requirements)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	header := resp.Header.Get("X-Payment-Required")
	require.NotEmpty(t, header)

	decoded, err := base64.StdEncoding.DecodeString(header)
	require.NoError(t, err)

	var fromHeader map[string]string
	require.NoError(t, json.Unmarshal(decoded, &fromHeader))
	assert.Equal(t, requirements, fromHeader)

	var body struct {
		Error               ErrorBody         `json:"error"`
		PaymentRequirements map[string]string `json:"payment_requirements"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, requirements, body.PaymentRequirements)
	assert.Equal(t, "PAYMENT_REQUIRED", body.Error.Code)
}

func TestTooManyRequestsSetsRetryAfter(t *testing.T) {
	app := setupTestApp()
	app.Get("/test", func(c *fiber.Ctx) error {
		return TooManyRequests(c, "RATE_LIMITED", "Slow down.", 30)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
}

func TestGatewayStatuses(t *testing.T) {
	app := setupTestApp()
	app.Get("/timeout", func(c *fiber.Ctx) error {
		return GatewayTimeout(c, "BACKEND_TIMEOUT", "Upstream exceeded deadline.")
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return BadGateway(c, "BACKEND_ERROR", "Upstream error surfaced.")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/timeout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/upstream", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
