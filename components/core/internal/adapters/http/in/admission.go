package in

import (
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/rabbitmq"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// WithAdmissionControl refuses new generations while the dispatcher backlog sits
// above the high-water mark. Refusals carry a retry-after signal; reads and status
// endpoints are never gated.
func WithAdmissionControl(consumer rabbitmq.ConsumerRepository, queueName string, highWater int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if consumer == nil || highWater <= 0 {
			return c.Next()
		}

		depth, err := consumer.QueueDepth(c.UserContext(), queueName)
		if err != nil {
			// The broker being unreachable is the consumer's problem, not the
			// client's; admission stays open and the engine surfaces real failures.
			logger := pkg.NewLoggerFromContext(c.UserContext())
			logger.Warnf("Admission control could not inspect queue %s: %v", queueName, err)

			return c.Next()
		}

		if depth >= highWater {
			return http.TooManyRequests(c, cn.ErrAdmissionRefused.Error(),
				"The service is shedding load and cannot accept new generations right now. Please retry after the indicated delay.", 5)
		}

		return c.Next()
	}
}
