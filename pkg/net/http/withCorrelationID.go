package http

import (
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WithCorrelationID creates a correlation id for each request when the client did not
// send one, stores it in locals and in the request context, and echoes it back.
func WithCorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := c.Get(headerCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Locals("request_id", correlationID)
		c.Set(headerCorrelationID, correlationID)

		ctx := pkg.ContextWithRequestID(c.UserContext(), correlationID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}
