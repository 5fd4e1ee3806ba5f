package in

import (
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

// SpellHandler handles HTTP requests for spell authoring and casting.
type SpellHandler struct {
	Command *command.UseCase
	Query   *query.UseCase
}

// CastSpellInput is the cast request body. SpellID and Slug are alternatives.
type CastSpellInput struct {
	SpellID    *uuid.UUID     `json:"spell_id,omitempty"`
	Slug       string         `json:"slug,omitempty" validate:"omitempty,max=120"`
	Parameters map[string]any `json:"parameters"`
	Platform   string         `json:"platform,omitempty" validate:"omitempty,max=40"`
	Target     string         `json:"target,omitempty" validate:"omitempty,max=256"`
	ReplyTo    string         `json:"reply_to,omitempty" validate:"omitempty,max=256"`
	Delivery   *DeliverySpec  `json:"delivery,omitempty"`
}

// CastSpell starts one execution of a published spell.
func (handler *SpellHandler) CastSpell(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.cast_spell")
	defer span.End()

	payload := http.Payload[*CastSpellInput](p)

	if payload.SpellID == nil && payload.Slug == "" {
		return http.BadRequest(c, cn.ErrBadRequest.Error(), "Either spell_id or slug must be provided.", nil)
	}

	delivery := mmodel.DeliveryIntent{
		Strategy: cn.DeliveryDirect,
		Platform: payload.Platform,
		Target:   payload.Target,
		ReplyTo:  payload.ReplyTo,
	}

	if payload.Delivery != nil && payload.Delivery.Mode == "webhook" {
		delivery.Strategy = cn.DeliveryWebhook
		delivery.WebhookURL = &payload.Delivery.URL
		delivery.WebhookSecret = payload.Delivery.Secret
	}

	cast, err := handler.Command.CastSpell(ctx, command.CastInput{
		SpellID:    payload.SpellID,
		Slug:       payload.Slug,
		UserID:     AuthenticatedUser(c),
		Parameters: payload.Parameters,
		Delivery:   delivery,
	})
	if err != nil {
		logger.Errorf("Failed to cast spell: %v", err)

		return http.WithError(c, err)
	}

	return http.Accepted(c, cast.ToProjection())
}

// GetCastByID returns the current projection of a spell cast.
func (handler *SpellHandler) GetCastByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_cast_by_id")
	defer span.End()

	id := http.LocalUUID(c, "id")

	projection, err := handler.Query.GetCastByID(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get spell cast", err)

		return http.WithError(c, err)
	}

	return http.OK(c, projection)
}

// CreateSpell stores a new spell draft owned by the authenticated user.
func (handler *SpellHandler) CreateSpell(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.create_spell")
	defer span.End()

	payload := http.Payload[*command.CreateSpellInput](p)

	sp, err := handler.Command.CreateSpell(ctx, AuthenticatedUser(c), payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create spell", err)

		return http.WithError(c, err)
	}

	return http.Created(c, sp)
}

// PublishSpell freezes a spell draft.
func (handler *SpellHandler) PublishSpell(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.publish_spell")
	defer span.End()

	id := http.LocalUUID(c, "id")

	sp, err := handler.Command.PublishSpell(ctx, AuthenticatedUser(c), id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to publish spell", err)

		return http.WithError(c, err)
	}

	return http.OK(c, sp)
}

// GetAllSpells lists published spells.
func (handler *SpellHandler) GetAllSpells(c *fiber.Ctx) error {
	ctx := c.UserContext()

	filter := http.ValidateParameters(c.Queries())

	spells, err := handler.Query.GetAllSpells(ctx, filter.Limit)
	if err != nil {
		return http.WithError(c, err)
	}

	return http.OK(c, fiber.Map{"items": spells})
}
