package in

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkghttp "github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authApp(cfg AuthConfig) *fiber.App {
	app := fiber.New()

	app.Get("/protected", WithAuth(cfg), func(c *fiber.Ctx) error {
		return pkghttp.OK(c, fiber.Map{"user_id": AuthenticatedUser(c).String()})
	})

	return app
}

func TestWithAuth_APIKey(t *testing.T) {
	userID := uuid.New()

	app := authApp(AuthConfig{
		APIKeys: map[string]uuid.UUID{"valid-key": userID},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "valid-key")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "wrong-key")

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWithAuth_SessionToken(t *testing.T) {
	userID := uuid.New()
	secret := "sessionsecret"

	app := authApp(AuthConfig{SessionSecret: secret})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWithAuth_SessionTokenWrongSecret(t *testing.T) {
	app := authApp(AuthConfig{SessionSecret: "right"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte("wrong"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWithAuth_MissingCredentials(t *testing.T) {
	app := authApp(AuthConfig{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestValidateWebhookURL(t *testing.T) {
	handler := &GenerationHandler{Production: true}

	assert.NoError(t, handler.validateWebhookURL("https://consumer.example.com/hook"))
	assert.Error(t, handler.validateWebhookURL("ftp://consumer.example.com/hook"))
	assert.Error(t, handler.validateWebhookURL("not a url"))
	assert.Error(t, handler.validateWebhookURL("/relative/path"))
	assert.Error(t, handler.validateWebhookURL("http://localhost:9999/hook"))
	assert.Error(t, handler.validateWebhookURL("http://127.0.0.1/hook"))

	dev := &GenerationHandler{Production: false}
	assert.NoError(t, dev.validateWebhookURL("http://localhost:9999/hook"))
}
