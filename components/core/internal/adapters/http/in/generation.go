package in

import (
	"net/url"
	"strings"

	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/query"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GenerationHandler handles HTTP requests for generation operations.
type GenerationHandler struct {
	Command *command.UseCase
	Query   *query.UseCase

	// Production tightens webhook URL validation (no loopback receivers).
	Production bool
}

// DeliverySpec is the optional webhook delivery block of an execute request.
type DeliverySpec struct {
	Mode   string  `json:"mode" validate:"omitempty,oneof=webhook"`
	URL    string  `json:"url" validate:"omitempty,max=2048"`
	Secret *string `json:"secret,omitempty" validate:"omitempty,max=256"`
}

// ExecuteGenerationInput is the execute request body.
type ExecuteGenerationInput struct {
	ToolID         string         `json:"tool_id" validate:"required,max=120"`
	Inputs         map[string]any `json:"inputs"`
	IdempotencyKey *string        `json:"idempotency_key,omitempty" validate:"omitempty,max=120"`
	Platform       string         `json:"platform,omitempty" validate:"omitempty,max=40"`
	Target         string         `json:"target,omitempty" validate:"omitempty,max=256"`
	ReplyTo        string         `json:"reply_to,omitempty" validate:"omitempty,max=256"`
	Delivery       *DeliverySpec  `json:"delivery,omitempty"`
}

// ExecuteGeneration submits one tool invocation. Synchronous immediate tools
// answer 200 with outputs; everything else answers 202 with a polling handle.
func (handler *GenerationHandler) ExecuteGeneration(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.execute_generation")
	defer span.End()

	payload := http.Payload[*ExecuteGenerationInput](p)
	userID := AuthenticatedUser(c)

	delivery := mmodel.DeliveryIntent{
		Strategy: cn.DeliveryDirect,
		Platform: payload.Platform,
		Target:   payload.Target,
		ReplyTo:  payload.ReplyTo,
	}

	if payload.Delivery != nil && payload.Delivery.Mode == "webhook" {
		if err := handler.validateWebhookURL(payload.Delivery.URL); err != nil {
			mopentelemetry.HandleSpanError(&span, "Webhook URL refused", err)

			return http.WithError(c, err)
		}

		delivery.Strategy = cn.DeliveryWebhook
		delivery.WebhookURL = &payload.Delivery.URL
		delivery.WebhookSecret = payload.Delivery.Secret
	}

	gen, err := handler.Command.ExecuteGeneration(ctx, command.ExecuteInput{
		UserID:         userID,
		ToolID:         payload.ToolID,
		Inputs:         payload.Inputs,
		IdempotencyKey: payload.IdempotencyKey,
		Delivery:       delivery,
	})
	if err != nil {
		logger.Errorf("Failed to execute generation: %v", err)

		return http.WithError(c, err)
	}

	projection := gen.ToProjection()

	if gen.Status == cn.StatusCompleted {
		return http.OK(c, projection)
	}

	projection.CheckAfterMs = 2000

	return http.Accepted(c, projection)
}

// GetGenerationByID returns the current projection of a generation.
func (handler *GenerationHandler) GetGenerationByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_generation_by_id")
	defer span.End()

	id := http.LocalUUID(c, "id")

	projection, err := handler.Query.GetGenerationByID(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get generation", err)

		return http.WithError(c, err)
	}

	return http.OK(c, projection)
}

// BatchStatusInput is the batch status request body.
type BatchStatusInput struct {
	GenerationIDs []uuid.UUID `json:"generation_ids" validate:"required,min=1,max=100"`
}

// GetBatchStatus returns the projections of many generations at once.
func (handler *GenerationHandler) GetBatchStatus(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_batch_status")
	defer span.End()

	payload := http.Payload[*BatchStatusInput](p)

	projections, err := handler.Query.GetBatchGenerations(ctx, payload.GenerationIDs)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get batch status", err)

		return http.WithError(c, err)
	}

	return http.OK(c, fiber.Map{"generations": projections})
}

// GetAllGenerations pages the authenticated user's generation history.
func (handler *GenerationHandler) GetAllGenerations(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_all_generations")
	defer span.End()

	filter := http.ValidateParameters(c.Queries())
	userID := AuthenticatedUser(c)

	projections, pagination, err := handler.Query.GetAllGenerations(ctx, userID, filter)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list generations", err)

		return http.WithError(c, err)
	}

	return http.OK(c, fiber.Map{
		"items":  projections,
		"cursor": pagination,
	})
}

// CancelGeneration cancels a queued or running generation.
func (handler *GenerationHandler) CancelGeneration(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.cancel_generation")
	defer span.End()

	id := http.LocalUUID(c, "id")

	gen, err := handler.Command.CancelGeneration(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to cancel generation", err)

		return http.WithError(c, err)
	}

	return http.OK(c, gen.ToProjection())
}

// RedeliverGeneration reissues the notification of a delivery_failed generation.
func (handler *GenerationHandler) RedeliverGeneration(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.redeliver_generation")
	defer span.End()

	id := http.LocalUUID(c, "id")

	gen, err := handler.Command.GenerationRepo.Find(ctx, id)
	if err != nil {
		return http.WithError(c, err)
	}

	if err := handler.Command.RedeliverGeneration(ctx, gen); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to redeliver generation", err)

		return http.WithError(c, err)
	}

	return http.NoContent(c)
}

// validateWebhookURL enforces the delivery URL policy: absolute http(s), and no
// loopback receivers in production.
func (handler *GenerationHandler) validateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() {
		return pkg.ValidateBusinessError(cn.ErrInvalidWebhookURL, "Delivery", raw)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return pkg.ValidateBusinessError(cn.ErrInvalidWebhookURL, "Delivery", raw)
	}

	if handler.Production {
		host := strings.ToLower(parsed.Hostname())
		if host == "localhost" || host == "127.0.0.1" || host == "::1" || host == "0.0.0.0" {
			return pkg.ValidateBusinessError(cn.ErrInvalidWebhookURL, "Delivery", raw)
		}
	}

	return nil
}
