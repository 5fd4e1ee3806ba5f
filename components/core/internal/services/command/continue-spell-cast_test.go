package command

import (
	"context"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func threeStepSpell() *mmodel.Spell {
	return &mmodel.Spell{
		ID:        pkg.GenerateUUIDv7(),
		Slug:      "triptych",
		Version:   1,
		Name:      "Triptych",
		Published: true,
		Steps: []mmodel.SpellStep{
			{
				ToolID: "caption",
				Bindings: map[string]mmodel.Binding{
					"image_url": {Kind: mmodel.BindingParameter, Parameter: "source"},
				},
			},
			{
				ToolID: "make-image",
				Bindings: map[string]mmodel.Binding{
					"prompt": {Kind: mmodel.BindingStepOutput, Step: 0, Output: "text"},
				},
			},
			{
				ToolID: "caption",
				Bindings: map[string]mmodel.Binding{
					"image_url": {Kind: mmodel.BindingLiteral, Value: "https://cdn.example.com/fixed.png"},
				},
			},
		},
	}
}

func runningCast(sp *mmodel.Spell) *mmodel.SpellCast {
	return &mmodel.SpellCast{
		ID:           pkg.GenerateUUIDv7(),
		SpellID:      sp.ID,
		SpellVersion: sp.Version,
		UserID:       pkg.GenerateUUIDv7(),
		Parameters:   map[string]any{"source": "https://cdn.example.com/src.png"},
		Status:       cn.CastRunning,
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliveryDirect,
			Platform: "telegram",
			Target:   "chat-1",
		},
	}
}

func stepGeneration(cast *mmodel.SpellCast, step int, status string) *mmodel.Generation {
	castID := cast.ID
	charged := int64(10)

	gen := &mmodel.Generation{
		ID:           pkg.GenerateUUIDv7(),
		UserID:       cast.UserID,
		ToolID:       "caption",
		Status:       status,
		ParentCastID: &castID,
		StepIndex:    &step,
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliverySpellStep,
		},
		Cost: mmodel.Cost{QuotedCredits: 10},
	}

	if status == cn.StatusCompleted {
		gen.Cost.ChargedCredits = &charged
		gen.Outputs = []mmodel.Output{{Name: "text", Data: map[string]any{"text": "a fox"}}}
	}

	if status == cn.StatusFailed {
		gen.Error = &mmodel.GenerationError{Code: "BACKEND_ERROR", Message: "boom"}
	}

	return gen
}

func TestContinueSpellCast_MiddleStepFailureCascades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	cast := runningCast(sp)
	failed := stepGeneration(cast, 1, cn.StatusFailed)

	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(cast, nil)
	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), cast.ID, failed.ID).Return(nil)

	f.CastRepo.EXPECT().
		Finish(gomock.Any(), cast.ID, cn.CastFailed, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID any, status string, failedStep *int, castErr *mmodel.GenerationError, finalID *uuid.UUID) (bool, error) {
			require.NotNil(t, failedStep)
			assert.Equal(t, 1, *failedStep)
			require.NotNil(t, castErr)
			assert.Equal(t, "BACKEND_ERROR", castErr.Code)
			return true, nil
		})

	terminal := *cast
	terminal.Status = cn.CastFailed
	step := 1
	terminal.FailedStep = &step
	terminal.Error = failed.Error
	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(&terminal, nil)

	// The cast failure is delivered once to the originating platform.
	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.outbound", "telegram", gomock.Any()).
		Return(nil)

	err := uc.ContinueSpellCast(context.Background(), cast.ID, failed)
	require.NoError(t, err)
}

func TestContinueSpellCast_TerminalCastIgnoresLateSignals(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	cast := runningCast(sp)
	cast.Status = cn.CastFailed

	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(cast, nil)

	err := uc.ContinueSpellCast(context.Background(), cast.ID, stepGeneration(cast, 2, cn.StatusCompleted))
	require.NoError(t, err)
}

func TestContinueSpellCast_CompletedStepAdvances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	cast := runningCast(sp)
	completed := stepGeneration(cast, 0, cn.StatusCompleted)

	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(cast, nil)
	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), cast.ID, completed.ID).Return(nil)
	f.CastRepo.EXPECT().MarkContinued(gomock.Any(), cast.ID, 0).Return(true, nil)
	f.CastRepo.EXPECT().Accumulate(gomock.Any(), cast.ID, int64(10)).Return(nil)

	f.SpellRepo.EXPECT().Find(gomock.Any(), sp.ID).Return(sp, nil)

	f.GenerationRepo.EXPECT().ListByCast(gomock.Any(), cast.ID).
		Return([]*mmodel.Generation{completed}, nil)

	// Step 1 is a webhook tool: it dispatches through the engine and stays running.
	f.GenerationRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, gen *mmodel.Generation) (*mmodel.Generation, error) {
			require.NotNil(t, gen.StepIndex)
			assert.Equal(t, 1, *gen.StepIndex)
			assert.Equal(t, cn.DeliverySpellStep, gen.Delivery.Strategy)
			assert.Equal(t, "a fox", gen.Inputs["prompt"])
			return gen, nil
		})

	f.LedgerRepo.EXPECT().Reserve(gomock.Any(), cast.UserID, int64(50), gomock.Any()).Return(nil)
	f.Backend.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("job-21", nil)
	f.GenerationRepo.EXPECT().StartRunning(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), cast.ID, gomock.Any()).Return(nil)

	err := uc.ContinueSpellCast(context.Background(), cast.ID, completed)
	require.NoError(t, err)
}

func TestContinueSpellCast_DuplicateCompletedSignalIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	cast := runningCast(sp)
	cast.ContinuedStep = 0
	completed := stepGeneration(cast, 0, cn.StatusCompleted)

	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(cast, nil)
	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), cast.ID, completed.ID).Return(nil)

	// The engine already consumed this continuation with its direct call; the
	// dispatcher's replay of the terminal event must not advance the cast again.
	f.CastRepo.EXPECT().MarkContinued(gomock.Any(), cast.ID, 0).Return(false, nil)

	err := uc.ContinueSpellCast(context.Background(), cast.ID, completed)
	require.NoError(t, err)
}

func TestContinueSpellCast_FinalStepCompletesCast(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	cast := runningCast(sp)
	final := stepGeneration(cast, 2, cn.StatusCompleted)
	final.Delivery.Strategy = cn.DeliverySpellFinal

	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(cast, nil)
	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), cast.ID, final.ID).Return(nil)
	f.CastRepo.EXPECT().MarkContinued(gomock.Any(), cast.ID, 2).Return(true, nil)
	f.CastRepo.EXPECT().Accumulate(gomock.Any(), cast.ID, int64(10)).Return(nil)

	f.SpellRepo.EXPECT().Find(gomock.Any(), sp.ID).Return(sp, nil)

	f.CastRepo.EXPECT().
		Finish(gomock.Any(), cast.ID, cn.CastCompleted, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)

	terminal := *cast
	terminal.Status = cn.CastCompleted
	finalID := final.ID
	terminal.FinalGenerationID = &finalID
	f.CastRepo.EXPECT().Find(gomock.Any(), cast.ID).Return(&terminal, nil)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), final.ID).Return(final, nil)

	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.outbound", "telegram", gomock.Any()).
		Return(nil)

	err := uc.ContinueSpellCast(context.Background(), cast.ID, final)
	require.NoError(t, err)
}

func TestResolveStepInputs_FirstBrokenBindingIsNamed(t *testing.T) {
	sp := threeStepSpell()

	// Step 1 wants the named output of step 0, which is missing.
	_, err := ResolveStepInputs(sp, 1, map[string]any{}, map[int][]mmodel.Output{
		0: {{Name: "unrelated", URL: "https://x"}},
	})
	require.Error(t, err)

	var validation pkg.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "prompt")
	assert.Contains(t, validation.Message, "1")
}

func TestResolveStepInputs_RenameMigratesFields(t *testing.T) {
	sp := threeStepSpell()
	sp.Steps[0].Rename = map[string]string{"image_url": "source_url"}

	inputs, err := ResolveStepInputs(sp, 0, map[string]any{"source": "https://cdn.example.com/src.png"}, nil)
	require.NoError(t, err)

	assert.NotContains(t, inputs, "image_url")
	assert.Equal(t, "https://cdn.example.com/src.png", inputs["source_url"])
}
