package in

import (
	"encoding/json"
	"strings"

	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// BackendHookHandler receives inbound webhooks from the AI backends.
type BackendHookHandler struct {
	Command *command.UseCase

	// SigningSecret authenticates callbacks: HMAC-SHA256 over the raw body.
	SigningSecret string
}

// HandleCallback authenticates and settles one backend callback. Duplicate
// callbacks for a terminal generation are acknowledged as no-ops so the backend
// stops retrying.
func (handler *BackendHookHandler) HandleCallback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.backend_callback")
	defer span.End()

	body := c.Body()

	signature := strings.TrimPrefix(c.Get(http.HeaderWebhookSignature), "sha256=")
	expected := pkg.HMACSHA256Hex([]byte(handler.SigningSecret), body)

	if !pkg.SecureCompare(signature, expected) {
		logger.Warnf("Backend callback refused: signature mismatch")

		return http.Unauthorized(c, cn.ErrInvalidSignature.Error(), "The request signature does not match the expected value.")
	}

	var callback command.BackendCallback

	if err := json.Unmarshal(body, &callback); err != nil {
		return http.BadRequest(c, cn.ErrBadRequest.Error(), "The callback body is not valid JSON.", nil)
	}

	callback.GenerationID = c.Params("generation_id")

	if err := handler.Command.HandleBackendCallback(ctx, callback); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to process backend callback", err)

		logger.Errorf("Failed to process backend callback for job %s: %v", callback.JobID, err)

		return http.WithError(c, err)
	}

	return http.NoContent(c)
}
