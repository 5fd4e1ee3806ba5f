package http

import (
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/gofiber/fiber/v2"
)

// WithLogging injects the component logger into the request context and logs one
// line per request with method, path, status and latency.
func WithLogging(logger mlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestLogger := logger.WithFields(
			"request_id", RequestIDFromLocals(c),
			"method", c.Method(),
			"path", c.Path(),
		)

		ctx := pkg.ContextWithLogger(c.UserContext(), requestLogger)
		c.SetUserContext(ctx)

		err := c.Next()

		requestLogger.Infof("%s %s -> %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))

		return err
	}
}

// WithRecover converts panics into a 500 envelope instead of tearing the process down.
func WithRecover(logger mlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("panic recovered on %s %s: %v", c.Method(), c.Path(), r)

					err = InternalServerError(c, "INTERNAL", "The server encountered an unexpected error. Please try again later or contact support.")
				}
			}()

			err = c.Next()
		}()

		return err
	}
}
