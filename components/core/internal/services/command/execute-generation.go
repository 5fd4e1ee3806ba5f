package command

import (
	"context"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// ExecuteInput carries one generation request into the execution engine.
type ExecuteInput struct {
	// GenerationID pins the record id; zero mints a fresh one. The payment gate
	// pre-generates the id so the payment record can reference it.
	GenerationID uuid.UUID

	UserID         uuid.UUID
	ToolID         string
	Inputs         map[string]any
	IdempotencyKey *string

	Delivery mmodel.DeliveryIntent

	// SkipLedger bypasses reserve/commit for payment-gated executions.
	SkipLedger bool

	ParentCastID *uuid.UUID
	StepIndex    *int
}

// ExecuteGeneration executes exactly one generation record end-to-end: create,
// reserve, dispatch by delivery mode, and (for immediate tools) settle before
// returning. Two calls with the same idempotency key yield one record.
func (uc *UseCase) ExecuteGeneration(ctx context.Context, input ExecuteInput) (*mmodel.Generation, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.execute_generation")
	defer span.End()

	if input.IdempotencyKey != nil && *input.IdempotencyKey != "" {
		existing, err := uc.GenerationRepo.FindByIdempotencyKey(ctx, input.UserID, *input.IdempotencyKey)
		if err == nil {
			logger.Infof("Idempotent replay of generation %s under key %s", existing.ID, *input.IdempotencyKey)

			return existing, nil
		}

		var notFound pkg.EntityNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	tool, err := uc.Registry.Get(input.ToolID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to resolve tool", err)

		return nil, err
	}

	normalized, err := uc.Registry.Validate(tool.ID, input.Inputs)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to validate inputs", err)

		return nil, err
	}

	quote, err := uc.quoteFor(ctx, tool, normalized)
	if err != nil {
		return nil, err
	}

	gen := &mmodel.Generation{
		ID:              input.GenerationID,
		IdempotencyKey:  input.IdempotencyKey,
		UserID:          input.UserID,
		ToolID:          tool.ID,
		Inputs:          normalized,
		Status:          cn.StatusQueued,
		Delivery:        input.Delivery,
		BackendMode:     tool.DeliveryMode,
		DeliveryOutcome: cn.DeliveryPending,
		ParentCastID:    input.ParentCastID,
		StepIndex:       input.StepIndex,
		CreatedAt:       time.Now(),
	}

	if gen.ID == uuid.Nil {
		gen.ID = pkg.GenerateUUIDv7()
	}

	gen.Cost.QuotedUSD = quote.USD
	gen.Cost.QuotedCredits = quote.Credits

	if gen.Delivery.Strategy == "" {
		gen.Delivery.Strategy = cn.DeliveryDirect
	}

	if _, err := uc.GenerationRepo.Create(ctx, gen); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create generation record", err)

		return nil, err
	}

	if !input.SkipLedger {
		if err := uc.LedgerRepo.Reserve(ctx, gen.UserID, quote.Credits, gen.ID); err != nil {
			var insufficient pkg.UnprocessableOperationError
			if errors.As(err, &insufficient) {
				// No reserve was admitted, so the settlement path releases nothing.
				_, settleErr := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
					Status: cn.StatusFailed,
					Error: &mmodel.GenerationError{
						Code:    cn.ErrInsufficientCredits.Error(),
						Message: cn.ReasonInsufficientCredits,
					},
				})
				if settleErr != nil {
					logger.Errorf("Failed to settle insufficient-credits generation %s: %v", gen.ID, settleErr)
				}

				return nil, err
			}

			mopentelemetry.HandleSpanError(&span, "Failed to reserve credits", err)

			return nil, err
		}
	}

	switch tool.DeliveryMode {
	case cn.ModeImmediate:
		return uc.executeImmediate(ctx, gen, tool)
	case cn.ModeWebhook:
		return uc.submitAsync(ctx, gen, tool, uc.CallbackBaseURL+"/"+gen.ID.String())
	case cn.ModePoll:
		return uc.submitAsync(ctx, gen, tool, "")
	default:
		return nil, pkg.ValidateBusinessError(cn.ErrInternalServer, "Tool")
	}
}

// executeImmediate calls the backend synchronously within the tool's hard deadline
// and settles the record before returning.
func (uc *UseCase) executeImmediate(ctx context.Context, gen *mmodel.Generation, tool *mmodel.Tool) (*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.execute_immediate")
	defer span.End()

	client, err := uc.backend(tool)
	if err != nil {
		return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error:  classifyBackendError(err),
		})
	}

	if err := uc.GenerationRepo.StartRunning(ctx, gen.ID, nil); err != nil {
		return nil, err
	}

	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(tool.HardTimeoutSeconds)*time.Second)
	defer cancel()

	var outputs []mmodel.Output

	err = uc.BackendRetry.Do(callCtx, func(ctx context.Context) error {
		var invokeErr error
		outputs, invokeErr = client.Invoke(ctx, tool, gen.Inputs)

		return invokeErr
	}, isRetriableBackendError)

	runtime := time.Since(started).Seconds()

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Backend invocation failed", err)

		return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
			Status:         cn.StatusFailed,
			Error:          classifyBackendError(err),
			RuntimeSeconds: runtime,
		})
	}

	if len(outputs) == 0 && !tool.EmptyOutputOK {
		return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: "backend reported success without outputs",
			},
			RuntimeSeconds: runtime,
		})
	}

	return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
		Status:         cn.StatusCompleted,
		Outputs:        outputs,
		ChargedCredits: uc.actualCost(tool, gen, runtime),
		RuntimeSeconds: runtime,
	})
}

// submitAsync enqueues a webhook/poll job on the backend and leaves the record running.
func (uc *UseCase) submitAsync(ctx context.Context, gen *mmodel.Generation, tool *mmodel.Tool, callbackURL string) (*mmodel.Generation, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.submit_async")
	defer span.End()

	client, err := uc.backend(tool)
	if err != nil {
		return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error:  classifyBackendError(err),
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(tool.SoftTimeoutSeconds)*time.Second)
	defer cancel()

	var jobID string

	err = uc.BackendRetry.Do(callCtx, func(ctx context.Context) error {
		var submitErr error
		jobID, submitErr = client.Submit(ctx, tool, gen.Inputs, callbackURL)

		return submitErr
	}, isRetriableBackendError)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Backend submit failed", err)

		return uc.settleAndReturn(ctx, gen, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error:  classifyBackendError(err),
		})
	}

	if err := uc.GenerationRepo.StartRunning(ctx, gen.ID, &jobID); err != nil {
		return nil, err
	}

	gen.Status = cn.StatusRunning
	gen.BackendJobID = &jobID

	return gen, nil
}

// settleAndReturn funnels an inline terminal outcome through the single settlement
// path and hands the refreshed record back.
//
// Immediate tools settle right here in the engine, so a spell step settled on this
// path additionally notifies the Spell Runner with a direct, synchronous call. The
// terminal event is still emitted — webhook/poll steps reach the runner only through
// the dispatcher — and the runner consumes each step's continuation at most once,
// so the event replaying behind the direct call cannot advance the cast twice.
func (uc *UseCase) settleAndReturn(ctx context.Context, gen *mmodel.Generation, outcome mmodel.TerminalOutcome) (*mmodel.Generation, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	if _, err := uc.SettleGeneration(ctx, gen.ID, outcome); err != nil {
		return nil, err
	}

	refreshed, err := uc.GenerationRepo.Find(ctx, gen.ID)
	if err != nil {
		return nil, err
	}

	if isSpellStep(refreshed) && refreshed.BackendMode == cn.ModeImmediate {
		if err := uc.ContinueSpellCast(ctx, *refreshed.ParentCastID, refreshed); err != nil {
			// The queued terminal event is the fallback continuation signal.
			logger.Errorf("Direct spell continuation for generation %s failed: %v", refreshed.ID, err)
		}
	}

	return refreshed, nil
}

func isSpellStep(gen *mmodel.Generation) bool {
	if gen.ParentCastID == nil {
		return false
	}

	return gen.Delivery.Strategy == cn.DeliverySpellStep || gen.Delivery.Strategy == cn.DeliverySpellFinal
}

// quoteFor prices the invocation with the tool's rolling runtime average.
func (uc *UseCase) quoteFor(ctx context.Context, tool *mmodel.Tool, inputs map[string]any) (*pricing.Quote, error) {
	avg := 0.0

	if tool.Cost.Kind == cn.CostPerBackendSecond && uc.UsageRepo != nil {
		usage, err := uc.UsageRepo.All(ctx)
		if err == nil {
			if u, ok := usage[tool.ID]; ok {
				avg = u.AvgRuntimeSeconds
			}
		}
	}

	return uc.Quoter.QuoteTool(tool, inputs, avg)
}

// actualCost derives the charged amount of a completed generation. The ledger
// clamps it to the reserved amount; the settlement path enforces the declared
// tolerance on top.
func (uc *UseCase) actualCost(tool *mmodel.Tool, gen *mmodel.Generation, runtimeSeconds float64) int64 {
	if tool.Cost.Kind != cn.CostPerBackendSecond {
		return gen.Cost.QuotedCredits
	}

	quote, err := uc.Quoter.QuoteTool(tool, gen.Inputs, runtimeSeconds)
	if err != nil {
		return gen.Cost.QuotedCredits
	}

	return quote.Credits
}
