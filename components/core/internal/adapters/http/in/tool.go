package in

import (
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/query"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// ToolHandler handles HTTP requests for tool discovery and quoting.
type ToolHandler struct {
	Query    *query.UseCase
	Registry *registry.Registry
}

// GetAllTools lists public tools, optionally narrowed by category.
func (handler *ToolHandler) GetAllTools(c *fiber.Ctx) error {
	return http.OK(c, fiber.Map{
		"items": handler.Query.GetAllTools(c.UserContext(), c.Query("category")),
	})
}

// GetToolByID returns the public projection of one tool.
func (handler *ToolHandler) GetToolByID(c *fiber.Ctx) error {
	projection, err := handler.Query.GetToolByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return http.WithError(c, err)
	}

	return http.OK(c, projection)
}

// QuoteToolInput is the quote request body.
type QuoteToolInput struct {
	ToolID string         `json:"tool_id" validate:"required,max=120"`
	Inputs map[string]any `json:"inputs"`
}

// QuoteTool prices one invocation without executing it.
func (handler *ToolHandler) QuoteTool(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.quote_tool")
	defer span.End()

	payload := http.Payload[*QuoteToolInput](p)

	quote, err := handler.Query.QuoteTool(ctx, payload.ToolID, payload.Inputs)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to quote tool", err)

		return http.WithError(c, err)
	}

	return http.OK(c, quote)
}

// ReloadTools rebuilds the registry catalog; the swap is atomic.
func (handler *ToolHandler) ReloadTools(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if err := handler.Registry.Reload(ctx); err != nil {
		return http.WithError(c, err)
	}

	return http.NoContent(c)
}
