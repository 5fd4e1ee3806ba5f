package command

import (
	"context"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// CastInput carries one spell cast request into the runner.
type CastInput struct {
	// SpellID or Slug names the spell; Slug resolves the latest published version.
	SpellID *uuid.UUID
	Slug    string

	UserID     uuid.UUID
	Parameters map[string]any
	Delivery   mmodel.DeliveryIntent
}

// CastSpell creates a spell cast record and starts step 0. Later steps start from
// ContinueSpellCast: the engine calls it directly for immediate-mode steps, and the
// notification dispatcher feeds it each step's terminal event.
func (uc *UseCase) CastSpell(ctx context.Context, input CastInput) (*mmodel.SpellCast, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.cast_spell")
	defer span.End()

	var (
		sp  *mmodel.Spell
		err error
	)

	if input.SpellID != nil {
		sp, err = uc.SpellRepo.Find(ctx, *input.SpellID)
	} else {
		sp, err = uc.SpellRepo.FindBySlug(ctx, input.Slug)
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to resolve spell", err)

		return nil, err
	}

	if !sp.Published {
		return nil, pkg.ValidateBusinessError(cn.ErrSpellNotPublished, "Spell")
	}

	if len(sp.Steps) == 0 {
		return nil, pkg.ValidateBusinessError(cn.ErrBadRequest, "Spell")
	}

	cast := &mmodel.SpellCast{
		ID:            pkg.GenerateUUIDv7(),
		SpellID:       sp.ID,
		SpellVersion:  sp.Version,
		UserID:        input.UserID,
		Parameters:    input.Parameters,
		Status:        cn.CastRunning,
		ContinuedStep: -1,
		Delivery:      input.Delivery,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if _, err := uc.CastRepo.Create(ctx, cast); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create spell cast", err)

		return nil, err
	}

	if err := uc.dispatchStep(ctx, cast, sp, 0, map[int][]mmodel.Output{}); err != nil {
		return nil, err
	}

	return uc.CastRepo.Find(ctx, cast.ID)
}

// dispatchStep resolves one step's inputs and hands the child generation to the
// execution engine. Unresolvable bindings fail the whole cast.
func (uc *UseCase) dispatchStep(ctx context.Context, cast *mmodel.SpellCast, sp *mmodel.Spell, stepIndex int, stepOutputs map[int][]mmodel.Output) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.dispatch_spell_step")
	defer span.End()

	inputs, err := ResolveStepInputs(sp, stepIndex, cast.Parameters, stepOutputs)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to resolve step bindings", err)

		return uc.failCast(ctx, cast, stepIndex, &mmodel.GenerationError{
			Code:    cn.ErrSpellBindingUnresolved.Error(),
			Message: err.Error(),
		})
	}

	strategy := cn.DeliverySpellStep
	if stepIndex == len(sp.Steps)-1 {
		strategy = cn.DeliverySpellFinal
	}

	castID := cast.ID
	step := stepIndex

	gen, err := uc.ExecuteGeneration(ctx, ExecuteInput{
		UserID: cast.UserID,
		ToolID: sp.Steps[stepIndex].ToolID,
		Inputs: inputs,
		Delivery: mmodel.DeliveryIntent{
			Strategy: strategy,
		},
		ParentCastID: &castID,
		StepIndex:    &step,
	})
	if err != nil {
		logger.Errorf("Step %d of cast %s failed to dispatch: %v", stepIndex, cast.ID, err)

		// The engine already settled the child (insufficient credits, validation);
		// its terminal event cascades back through the dispatcher. A child that was
		// never created fails the cast here.
		if gen == nil {
			return uc.failCast(ctx, cast, stepIndex, &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: err.Error(),
			})
		}

		return err
	}

	return uc.CastRepo.AppendGeneration(ctx, cast.ID, gen.ID)
}

// failCast cascades a failure: the cast goes terminal once, remaining steps are
// short-circuited, and the cast-level outcome is delivered.
func (uc *UseCase) failCast(ctx context.Context, cast *mmodel.SpellCast, stepIndex int, castErr *mmodel.GenerationError) error {
	applied, err := uc.CastRepo.Finish(ctx, cast.ID, cn.CastFailed, &stepIndex, castErr, nil)
	if err != nil {
		return err
	}

	if !applied {
		return nil
	}

	refreshed, err := uc.CastRepo.Find(ctx, cast.ID)
	if err != nil {
		return err
	}

	return uc.DeliverCastTerminal(ctx, refreshed)
}
