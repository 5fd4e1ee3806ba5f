package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// SettleGeneration is the single terminal path of the execution engine. Every
// terminal transition, wherever it originates (immediate call, inbound webhook,
// poller, cancel, janitor), funnels through here: it applies the guarded status
// flip, settles the ledger exactly once, records usage, drops the projection cache
// and emits exactly one terminal event.
//
// It reports false when the record was already terminal, in which case nothing
// else happens: duplicate webhooks and racing pollers cannot double-settle or
// double-deliver.
func (uc *UseCase) SettleGeneration(ctx context.Context, generationID uuid.UUID, outcome mmodel.TerminalOutcome) (bool, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.settle_generation")
	defer span.End()

	cn.AssertValidStatusCode(outcome.Status)

	var charged *int64

	if outcome.Status == cn.StatusCompleted {
		amount := outcome.ChargedCredits
		charged = &amount
	}

	applied, err := uc.GenerationRepo.FinishTerminal(ctx, generationID, outcome.Status,
		outcome.Outputs, outcome.Error, charged, time.Now())
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to apply terminal transition", err)

		return false, err
	}

	if !applied {
		logger.Infof("Generation %s already terminal; settle is a no-op", generationID)

		return false, nil
	}

	gen, err := uc.GenerationRepo.Find(ctx, generationID)
	if err != nil {
		return true, err
	}

	if err := uc.settleLedger(ctx, gen, outcome); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to settle ledger", err)

		return true, err
	}

	if outcome.Status == cn.StatusCompleted && outcome.RuntimeSeconds > 0 && uc.UsageRepo != nil {
		if err := uc.UsageRepo.RecordInvocation(ctx, gen.ToolID, outcome.RuntimeSeconds); err != nil {
			logger.Warnf("Failed to record tool usage for %s: %v", gen.ToolID, err)
		}
	}

	if uc.RedisRepo != nil {
		if err := uc.RedisRepo.InvalidateProjection(ctx, gen.ID); err != nil {
			logger.Warnf("Failed to invalidate projection cache for %s: %v", gen.ID, err)
		}
	}

	return true, uc.emitTerminalEvent(ctx, gen)
}

// settleLedger commits completed generations and releases everything else. The
// charged amount is bounded by the declared tolerance; an overrun is clamped so the
// user never pays beyond quote × (1 + tolerance), and never beyond the reserve.
func (uc *UseCase) settleLedger(ctx context.Context, gen *mmodel.Generation, outcome mmodel.TerminalOutcome) error {
	if gen.Delivery.Strategy == cn.DeliveryX402 {
		// Payment-gated executions carry no reserve; the external protocol treats
		// verification-and-execute as indivisible.
		return nil
	}

	if outcome.Status != cn.StatusCompleted {
		return uc.LedgerRepo.Release(ctx, gen.ID, failureReason(outcome))
	}

	charged := outcome.ChargedCredits

	tool, err := uc.Registry.Get(gen.ToolID)
	if err == nil && !pricing.WithinTolerance(gen.Cost.QuotedCredits, charged, tool.Cost.Tolerance) {
		charged = gen.Cost.QuotedCredits
	}

	return uc.LedgerRepo.Commit(ctx, gen.ID, charged)
}

// emitTerminalEvent publishes the single terminal event of a settled generation.
func (uc *UseCase) emitTerminalEvent(ctx context.Context, gen *mmodel.Generation) error {
	event := mmodel.TerminalEvent{
		GenerationID: gen.ID,
		CastID:       gen.ParentCastID,
		StepIndex:    gen.StepIndex,
		Strategy:     gen.Delivery.Strategy,
		Status:       gen.Status,
	}

	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return uc.Producer.ProducerDefault(ctx, uc.EventsExchange, uc.EventsKey, message)
}

func failureReason(outcome mmodel.TerminalOutcome) string {
	if outcome.Status == cn.StatusCancelled {
		return cn.ReasonCancelled
	}

	if outcome.Error != nil {
		return outcome.Error.Message
	}

	return cn.ReasonBackendError
}
