package command

import (
	"context"
	"encoding/json"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
)

// outboundMessage is what the chat platform adapters consume from the outbound exchange.
type outboundMessage struct {
	Platform     string                  `json:"platform"`
	Target       string                  `json:"target"`
	ReplyTo      string                  `json:"reply_to,omitempty"`
	GenerationID string                  `json:"generation_id,omitempty"`
	CastID       string                  `json:"cast_id,omitempty"`
	Status       string                  `json:"status"`
	Outputs      []mmodel.Output         `json:"outputs,omitempty"`
	Error        *mmodel.GenerationError `json:"error,omitempty"`
}

// DispatchTerminalEvent consumes one terminal generation event and routes it by
// delivery strategy. Receivers are idempotent by generation id; the event queue is
// at-least-once.
func (uc *UseCase) DispatchTerminalEvent(ctx context.Context, event mmodel.TerminalEvent) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.dispatch_terminal_event")
	defer span.End()

	gen, err := uc.GenerationRepo.Find(ctx, event.GenerationID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to load generation for dispatch", err)

		return err
	}

	switch gen.Delivery.Strategy {
	case cn.DeliverySpellStep, cn.DeliverySpellFinal:
		if gen.ParentCastID == nil {
			logger.Errorf("Generation %s has spell delivery strategy but no parent cast", gen.ID)

			return nil
		}

		// Webhook/poll steps reach the runner only through this hand-off. For
		// immediate steps the engine already notified the runner directly; the
		// runner consumes each continuation at most once, so this replay is a
		// no-op there.
		return uc.ContinueSpellCast(ctx, *gen.ParentCastID, gen)
	case cn.DeliveryWebhook:
		return uc.deliverGenerationWebhook(ctx, gen)
	case cn.DeliveryX402:
		if uc.Slots != nil {
			uc.Slots.Resolve(gen.ID, gen)
		}

		return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryDelivered, gen.DeliveryAttempts+1)
	default:
		return uc.deliverDirect(ctx, gen)
	}
}

// deliverDirect publishes the outcome to the originating platform's outbound queue.
// Cancelled generations are filtered: no user-visible completion message.
func (uc *UseCase) deliverDirect(ctx context.Context, gen *mmodel.Generation) error {
	if gen.Status == cn.StatusCancelled {
		return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryDelivered, gen.DeliveryAttempts)
	}

	platform := gen.Delivery.Platform
	if platform == "" {
		platform = "web"
	}

	message, err := json.Marshal(outboundMessage{
		Platform:     platform,
		Target:       gen.Delivery.Target,
		ReplyTo:      gen.Delivery.ReplyTo,
		GenerationID: gen.ID.String(),
		Status:       gen.Status,
		Outputs:      gen.Outputs,
		Error:        gen.Error,
	})
	if err != nil {
		return err
	}

	if err := uc.Producer.ProducerDefault(ctx, uc.OutboundExchange, platform, message); err != nil {
		return err
	}

	return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryDelivered, gen.DeliveryAttempts+1)
}

// deliverGenerationWebhook POSTs the signed payload with the bounded retry
// schedule. Exhaustion marks the generation delivery_failed, not failed: the work
// itself succeeded, only the notification did not.
func (uc *UseCase) deliverGenerationWebhook(ctx context.Context, gen *mmodel.Generation) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.deliver_generation_webhook")
	defer span.End()

	if gen.Status == cn.StatusCancelled {
		return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryDelivered, gen.DeliveryAttempts)
	}

	if gen.Delivery.WebhookURL == nil {
		return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryFailed, gen.DeliveryAttempts)
	}

	eventName := cn.EventGenerationCompleted
	if gen.Status == cn.StatusFailed {
		eventName = cn.EventGenerationFailed
	}

	event := mmodel.NewWebhookEvent(eventName, gen.Status)
	event.GenerationID = gen.ID.String()
	event.Outputs = gen.Outputs
	event.Error = gen.Error
	event.CostUSD = gen.Cost.QuotedUSD

	secret := ""
	if gen.Delivery.WebhookSecret != nil {
		secret = *gen.Delivery.WebhookSecret
	}

	body, signature, err := event.SignedBody(secret)
	if err != nil {
		return err
	}

	attempts := 0

	err = uc.DeliveryRetry.Do(ctx, func(ctx context.Context) error {
		attempts++

		return uc.WebhookSender.Deliver(ctx, *gen.Delivery.WebhookURL, body, signature)
	}, isRetriableBackendError)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Webhook delivery exhausted", err)

		logger.Errorf("Webhook delivery for generation %s exhausted after %d attempt(s): %v", gen.ID, attempts, err)

		return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryFailed, gen.DeliveryAttempts+attempts)
	}

	return uc.GenerationRepo.MarkDelivery(ctx, gen.ID, cn.DeliveryDelivered, gen.DeliveryAttempts+attempts)
}

// DeliverCastTerminal finalizes delivery of a finished cast according to its
// delivery intent.
func (uc *UseCase) DeliverCastTerminal(ctx context.Context, cast *mmodel.SpellCast) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.deliver_cast_terminal")
	defer span.End()

	if cast.Status == cn.CastCancelled {
		return nil
	}

	var finalOutputs []mmodel.Output

	if cast.FinalGenerationID != nil {
		final, err := uc.GenerationRepo.Find(ctx, *cast.FinalGenerationID)
		if err == nil {
			finalOutputs = final.Outputs
		}
	}

	if cast.Delivery.Strategy == cn.DeliveryWebhook && cast.Delivery.WebhookURL != nil {
		eventName := cn.EventSpellCompleted
		if cast.Status == cn.CastFailed {
			eventName = cn.EventSpellFailed
		}

		event := mmodel.NewWebhookEvent(eventName, cast.Status)
		event.CastID = cast.ID.String()
		event.FinalOutputs = finalOutputs
		event.Error = cast.Error

		secret := ""
		if cast.Delivery.WebhookSecret != nil {
			secret = *cast.Delivery.WebhookSecret
		}

		body, signature, err := event.SignedBody(secret)
		if err != nil {
			return err
		}

		return uc.DeliveryRetry.Do(ctx, func(ctx context.Context) error {
			return uc.WebhookSender.Deliver(ctx, *cast.Delivery.WebhookURL, body, signature)
		}, isRetriableBackendError)
	}

	platform := cast.Delivery.Platform
	if platform == "" {
		platform = "web"
	}

	message, err := json.Marshal(outboundMessage{
		Platform: platform,
		Target:   cast.Delivery.Target,
		ReplyTo:  cast.Delivery.ReplyTo,
		CastID:   cast.ID.String(),
		Status:   cast.Status,
		Outputs:  finalOutputs,
		Error:    cast.Error,
	})
	if err != nil {
		return err
	}

	return uc.Producer.ProducerDefault(ctx, uc.OutboundExchange, platform, message)
}

// RedeliverGeneration manually reissues the notification of a delivery_failed
// generation.
func (uc *UseCase) RedeliverGeneration(ctx context.Context, gen *mmodel.Generation) error {
	if !cn.IsTerminalStatus(gen.Status) {
		return pkg.ValidateBusinessError(cn.ErrBadRequest, "Generation")
	}

	if gen.DeliveryOutcome != cn.DeliveryFailed {
		return pkg.ValidateBusinessError(cn.ErrBadRequest, "Generation")
	}

	switch gen.Delivery.Strategy {
	case cn.DeliveryWebhook:
		return uc.deliverGenerationWebhook(ctx, gen)
	default:
		return uc.deliverDirect(ctx, gen)
	}
}
