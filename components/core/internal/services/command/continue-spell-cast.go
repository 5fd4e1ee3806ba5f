package command

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// ContinueSpellCast is the runner's reentry point. It has two callers: the
// notification dispatcher, for every terminal spell_step/spell_final event, and the
// execution engine directly, for immediate-mode steps it settled inline. Completed
// non-final steps advance the cast; the final step completes it; failures and
// cancellations cascade. Signals therefore arrive at least once per step; the
// MarkContinued guard (completed steps) and the terminal-transition guard (failures,
// cancellations) collapse them to exactly one processed continuation.
func (uc *UseCase) ContinueSpellCast(ctx context.Context, castID uuid.UUID, gen *mmodel.Generation) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.continue_spell_cast")
	defer span.End()

	cast, err := uc.CastRepo.Find(ctx, castID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to find spell cast", err)

		return err
	}

	if cast.Status != cn.CastRunning {
		logger.Infof("Continuation for cast %s ignored: already %s", cast.ID, cast.Status)

		return nil
	}

	if err := uc.CastRepo.AppendGeneration(ctx, cast.ID, gen.ID); err != nil {
		return err
	}

	stepIndex := 0
	if gen.StepIndex != nil {
		stepIndex = *gen.StepIndex
	}

	switch gen.Status {
	case cn.StatusCompleted:
		applied, err := uc.CastRepo.MarkContinued(ctx, cast.ID, stepIndex)
		if err != nil {
			return err
		}

		if !applied {
			logger.Infof("Continuation of step %d already consumed for cast %s", stepIndex, cast.ID)

			return nil
		}

		return uc.advanceCast(ctx, cast, gen, stepIndex)
	case cn.StatusCancelled:
		applied, err := uc.CastRepo.Finish(ctx, cast.ID, cn.CastCancelled, &stepIndex, nil, nil)
		if err != nil || !applied {
			return err
		}

		// Cancellations produce no user-visible completion message.
		return nil
	default:
		return uc.failCast(ctx, cast, stepIndex, gen.Error)
	}
}

func (uc *UseCase) advanceCast(ctx context.Context, cast *mmodel.SpellCast, gen *mmodel.Generation, stepIndex int) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.advance_spell_cast")
	defer span.End()

	if gen.Cost.ChargedCredits != nil {
		if err := uc.CastRepo.Accumulate(ctx, cast.ID, *gen.Cost.ChargedCredits); err != nil {
			return err
		}
	}

	sp, err := uc.SpellRepo.Find(ctx, cast.SpellID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to load spell definition", err)

		return err
	}

	if stepIndex >= len(sp.Steps)-1 {
		genID := gen.ID

		applied, err := uc.CastRepo.Finish(ctx, cast.ID, cn.CastCompleted, nil, nil, &genID)
		if err != nil || !applied {
			return err
		}

		refreshed, err := uc.CastRepo.Find(ctx, cast.ID)
		if err != nil {
			return err
		}

		return uc.DeliverCastTerminal(ctx, refreshed)
	}

	stepOutputs, err := uc.castStepOutputs(ctx, cast.ID)
	if err != nil {
		return err
	}

	return uc.dispatchStep(ctx, cast, sp, stepIndex+1, stepOutputs)
}

// castStepOutputs collects the outputs of a cast's completed steps keyed by step index.
func (uc *UseCase) castStepOutputs(ctx context.Context, castID uuid.UUID) (map[int][]mmodel.Output, error) {
	children, err := uc.GenerationRepo.ListByCast(ctx, castID)
	if err != nil {
		return nil, err
	}

	outputs := make(map[int][]mmodel.Output, len(children))

	for _, child := range children {
		if child.StepIndex == nil || child.Status != cn.StatusCompleted {
			continue
		}

		outputs[*child.StepIndex] = child.Outputs
	}

	return outputs, nil
}
