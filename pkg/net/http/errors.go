package http

import (
	"errors"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// WithError translates a typed business error into the uniform HTTP envelope.
func WithError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case pkg.EntityNotFoundError:
		return NotFound(c, e.Code, e.Message)
	case pkg.EntityConflictError:
		return Conflict(c, e.Code, e.Message)
	case pkg.ValidationError:
		return BadRequest(c, e.Code, e.Message, nil)
	case pkg.ValidationKnownFieldsError:
		return BadRequest(c, e.Code, e.Message, e.Fields)
	case *pkg.ValidationKnownFieldsError:
		return BadRequest(c, e.Code, e.Message, e.Fields)
	case pkg.ValidationUnknownFieldsError:
		return BadRequest(c, e.Code, e.Message, e.Fields)
	case pkg.UnprocessableOperationError:
		// INSUFFICIENT_CREDITS maps to 402 on the API surface.
		if e.Code == cn.ErrInsufficientCredits.Error() {
			return PaymentRequired(c, e.Code, e.Message, nil)
		}

		return UnprocessableEntity(c, e.Code, e.Message)
	case pkg.PaymentRequiredError:
		return PaymentRequired(c, e.Code, e.Message, e.Requirements)
	case pkg.UnauthorizedError:
		return Unauthorized(c, e.Code, e.Message)
	case pkg.ForbiddenError:
		return Forbidden(c, e.Code, e.Message)
	case pkg.RateLimitedError:
		retryAfter := e.RetryAfter
		if retryAfter <= 0 {
			retryAfter = 1
		}

		return TooManyRequests(c, e.Code, e.Message, retryAfter)
	case pkg.UpstreamError:
		if e.Timeout {
			return GatewayTimeout(c, e.Code, e.Message)
		}

		return BadGateway(c, e.Code, e.Message)
	case pkg.FailedPreconditionError:
		return UnprocessableEntity(c, e.Code, e.Message)
	default:
		var iErr pkg.InternalServerError
		_ = errors.As(pkg.ValidateInternalError(err, ""), &iErr)

		return InternalServerError(c, iErr.Code, iErr.Message)
	}
}
