package in

import (
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/query"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles HTTP requests for wallet linking and balances.
type WalletHandler struct {
	Command *command.UseCase
	Query   *query.UseCase
}

// InitiateLinkInput is the link initiation request body.
type InitiateLinkInput struct {
	Chain string `json:"chain" validate:"required,max=40"`
	Asset string `json:"asset" validate:"required,max=20"`
}

// InitiateLink opens a magic-amount wallet linking flow.
func (handler *WalletHandler) InitiateLink(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.initiate_wallet_link")
	defer span.End()

	payload := http.Payload[*InitiateLinkInput](p)

	request, err := handler.Command.InitiateWalletLink(ctx, AuthenticatedUser(c), payload.Chain, payload.Asset)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to initiate wallet link", err)

		return http.WithError(c, err)
	}

	return http.Created(c, request)
}

// GetLinkStatus reports the state of an outstanding link request.
func (handler *WalletHandler) GetLinkStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_link_status")
	defer span.End()

	id := http.LocalUUID(c, "request_id")

	request, err := handler.Command.WalletLinkStatus(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get link status", err)

		return http.WithError(c, err)
	}

	return http.OK(c, request)
}

// GetBalance returns the authenticated user's credit position.
func (handler *WalletHandler) GetBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()

	balance, err := handler.Query.GetBalance(ctx, AuthenticatedUser(c))
	if err != nil {
		return http.WithError(c, err)
	}

	return http.OK(c, balance)
}

// GetLedgerEntries lists the authenticated user's credit journal.
func (handler *WalletHandler) GetLedgerEntries(c *fiber.Ctx) error {
	ctx := c.UserContext()

	filter := http.ValidateParameters(c.Queries())

	entries, err := handler.Query.GetLedgerEntries(ctx, AuthenticatedUser(c), filter.Limit)
	if err != nil {
		return http.WithError(c, err)
	}

	return http.OK(c, fiber.Map{"items": entries})
}
