package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Name  string `json:"name" validate:"required,max=20"`
	Count int    `json:"count" validate:"omitempty,min=1"`
}

func postJSON(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestWithBodyDecodesAndCallsHandler(t *testing.T) {
	app := fiber.New()

	app.Post("/test", WithBody(new(sampleInput), func(p any, c *fiber.Ctx) error {
		payload := Payload[*sampleInput](p)

		return OK(c, payload)
	}))

	resp := postJSON(t, app, `{"name":"render","count":2}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out sampleInput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "render", out.Name)
	assert.Equal(t, 2, out.Count)
}

func TestWithBodyRejectsUnknownFields(t *testing.T) {
	app := fiber.New()

	app.Post("/test", WithBody(new(sampleInput), func(p any, c *fiber.Ctx) error {
		return OK(c, "should not reach")
	}))

	resp := postJSON(t, app, `{"name":"render","surprise":true}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	fields, _ := body["error"]["fields"].(map[string]any)
	assert.Contains(t, fields, "surprise")
}

func TestWithBodyRejectsMissingRequiredField(t *testing.T) {
	app := fiber.New()

	app.Post("/test", WithBody(new(sampleInput), func(p any, c *fiber.Ctx) error {
		return OK(c, "should not reach")
	}))

	resp := postJSON(t, app, `{"count":3}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	fields, _ := body["error"]["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
}

func TestWithBodyRejectsMalformedJSON(t *testing.T) {
	app := fiber.New()

	app.Post("/test", WithBody(new(sampleInput), func(p any, c *fiber.Ctx) error {
		return OK(c, "should not reach")
	}))

	resp := postJSON(t, app, `{"name":`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
