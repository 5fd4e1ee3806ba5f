package in

import (
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"

	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles the payment-gated one-shot execution endpoint.
type PaymentHandler struct {
	Command *command.UseCase
}

// X402ExecuteInput is the payment-gated execute request body. The signed payment
// authorization rides in the X-Payment header or in the payment field.
type X402ExecuteInput struct {
	ToolID  string         `json:"tool_id" validate:"required,max=120"`
	Inputs  map[string]any `json:"inputs"`
	Payment string         `json:"payment,omitempty" validate:"omitempty,max=8192"`
}

// Execute runs one payment-gated generation. Requests without a payment get a 402
// carrying the payment requirements; replayed signatures get PAYMENT_ALREADY_USED.
func (handler *PaymentHandler) Execute(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.x402_execute")
	defer span.End()

	payload := http.Payload[*X402ExecuteInput](p)

	paymentHeader := c.Get(http.HeaderPayment)
	if paymentHeader == "" {
		paymentHeader = payload.Payment
	}

	if paymentHeader == "" {
		requirements, err := handler.Command.PaymentRequirementsFor(ctx, payload.ToolID, payload.Inputs)
		if err != nil {
			return http.WithError(c, err)
		}

		return http.PaymentRequired(c, cn.ErrPaymentRequired.Error(),
			"This request requires a verified payment authorization. Please attach one following the payment requirements in the response.", requirements)
	}

	gen, err := handler.Command.ExecuteWithPayment(ctx, paymentHeader, payload.ToolID, payload.Inputs)
	if err != nil {
		logger.Errorf("Payment-gated execution failed: %v", err)

		mopentelemetry.HandleSpanError(&span, "Payment-gated execution failed", err)

		return http.WithError(c, err)
	}

	projection := gen.ToProjection()

	if gen.Status == cn.StatusCompleted {
		return http.OK(c, projection)
	}

	// The payment is spent even when the generation fails; the outcome is
	// reported, never refunded.
	return http.OK(c, projection)
}
