package http

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the inner object of the uniform error envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Fields    any    `json:"fields,omitempty"`
}

// ErrorEnvelope is the wire shape of every error response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func envelope(c *fiber.Ctx, code, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			RequestID: RequestIDFromLocals(c),
		},
	}
}

// OK sends a 200 response with the given payload.
func OK(c *fiber.Ctx, s any) error {
	return c.Status(fiber.StatusOK).JSON(s)
}

// Created sends a 201 response with the given payload.
func Created(c *fiber.Ctx, s any) error {
	return c.Status(fiber.StatusCreated).JSON(s)
}

// Accepted sends a 202 response with the given payload.
func Accepted(c *fiber.Ctx, s any) error {
	return c.Status(fiber.StatusAccepted).JSON(s)
}

// NoContent sends a 204 response.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// BadRequest sends a 400 with the envelope; fields validation details ride along when present.
func BadRequest(c *fiber.Ctx, code, message string, fields any) error {
	env := envelope(c, code, message)
	env.Error.Fields = fields

	return c.Status(fiber.StatusBadRequest).JSON(env)
}

// Unauthorized sends a 401 with the envelope.
func Unauthorized(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(envelope(c, code, message))
}

// Forbidden sends a 403 with the envelope.
func Forbidden(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(envelope(c, code, message))
}

// NotFound sends a 404 with the envelope.
func NotFound(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(envelope(c, code, message))
}

// Conflict sends a 409 with the envelope.
func Conflict(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusConflict).JSON(envelope(c, code, message))
}

// UnprocessableEntity sends a 422 with the envelope.
func UnprocessableEntity(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(envelope(c, code, message))
}

// PaymentRequired sends a 402 with the envelope. When requirements is non-nil it is
// attached to the body and mirrored base64-encoded in the X-Payment-Required header
// for clients that inspect headers first.
func PaymentRequired(c *fiber.Ctx, code, message string, requirements any) error {
	type paymentRequiredBody struct {
		Error               ErrorBody `json:"error"`
		PaymentRequirements any       `json:"payment_requirements,omitempty"`
	}

	env := envelope(c, code, message)

	if requirements != nil {
		raw, err := json.Marshal(requirements)
		if err == nil {
			c.Set(headerPaymentRequired, base64.StdEncoding.EncodeToString(raw))
		}
	}

	return c.Status(fiber.StatusPaymentRequired).JSON(paymentRequiredBody{
		Error:               env.Error,
		PaymentRequirements: requirements,
	})
}

// TooManyRequests sends a 429 with the envelope and a Retry-After header in seconds.
func TooManyRequests(c *fiber.Ctx, code, message string, retryAfterSeconds int) error {
	if retryAfterSeconds > 0 {
		c.Set(headerRetryAfter, itoa(retryAfterSeconds))
	}

	return c.Status(fiber.StatusTooManyRequests).JSON(envelope(c, code, message))
}

// BadGateway sends a 502 with the envelope.
func BadGateway(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadGateway).JSON(envelope(c, code, message))
}

// GatewayTimeout sends a 504 with the envelope.
func GatewayTimeout(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusGatewayTimeout).JSON(envelope(c, code, message))
}

// InternalServerError sends a 500 with the envelope.
func InternalServerError(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(envelope(c, code, message))
}

// ServiceUnavailable sends a 503 with the envelope.
func ServiceUnavailable(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(envelope(c, code, message))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[i:])
}
