package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCastSpell_RefusesUnpublishedSpell(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	sp.Published = false

	f.SpellRepo.EXPECT().Find(gomock.Any(), sp.ID).Return(sp, nil)

	spellID := sp.ID

	_, err := uc.CastSpell(context.Background(), CastInput{
		SpellID: &spellID,
		UserID:  pkg.GenerateUUIDv7(),
	})
	require.Error(t, err)

	var validation pkg.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestCastSpell_StartsStepZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	sp := threeStepSpell()
	userID := pkg.GenerateUUIDv7()

	f.SpellRepo.EXPECT().FindBySlug(gomock.Any(), "triptych").Return(sp, nil)

	var createdCast *mmodel.SpellCast

	f.CastRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, cast *mmodel.SpellCast) (*mmodel.SpellCast, error) {
			createdCast = cast
			assert.Equal(t, cn.CastRunning, cast.Status)
			return cast, nil
		})

	// Step 0 rides through the engine: the caption tool is immediate and settles inline.
	f.GenerationRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, gen *mmodel.Generation) (*mmodel.Generation, error) {
			require.NotNil(t, gen.StepIndex)
			assert.Equal(t, 0, *gen.StepIndex)
			assert.Equal(t, cn.DeliverySpellStep, gen.Delivery.Strategy)
			assert.Equal(t, "https://cdn.example.com/src.png", gen.Inputs["image_url"])
			return gen, nil
		})
	f.LedgerRepo.EXPECT().Reserve(gomock.Any(), userID, int64(10), gomock.Any()).Return(nil)
	f.GenerationRepo.EXPECT().StartRunning(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.Backend.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]mmodel.Output{{Name: "text", Data: map[string]any{"text": "a fox"}}}, nil)
	f.GenerationRepo.EXPECT().
		FinishTerminal(gomock.Any(), gomock.Any(), cn.StatusCompleted, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.GenerationRepo.EXPECT().Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID) (*mmodel.Generation, error) {
			step := 0
			return &mmodel.Generation{
				ID:        id,
				UserID:    userID,
				ToolID:    "caption",
				Status:    cn.StatusCompleted,
				StepIndex: &step,
				Delivery:  mmodel.DeliveryIntent{Strategy: cn.DeliverySpellStep},
				Cost:      mmodel.Cost{QuotedCredits: 10},
			}, nil
		}).AnyTimes()
	f.LedgerRepo.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.Producer.EXPECT().ProducerDefault(gomock.Any(), "core.events", gomock.Any(), gomock.Any()).Return(nil)

	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	f.CastRepo.EXPECT().Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID) (*mmodel.SpellCast, error) {
			return createdCast, nil
		})

	cast, err := uc.CastSpell(context.Background(), CastInput{
		Slug:       "triptych",
		UserID:     userID,
		Parameters: map[string]any{"source": "https://cdn.example.com/src.png"},
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliveryDirect,
			Platform: "telegram",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, cn.CastRunning, cast.Status)
}

// TestCastSpell_ImmediateStepsContinueWithoutDispatcher drives a multi-step spell
// of immediate tools end-to-end. Immediate steps settle inline in the engine, which
// must actively notify the runner itself: the cast reaches completed and every step
// is dispatched without a single queue consumer running. Relying on event emission
// alone here is the continuation bug the settlement path was designed around.
func TestCastSpell_ImmediateStepsContinueWithoutDispatcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	userID := pkg.GenerateUUIDv7()

	sp := &mmodel.Spell{
		ID:        pkg.GenerateUUIDv7(),
		Slug:      "echo-twice",
		Version:   1,
		Name:      "Echo Twice",
		Published: true,
		Steps: []mmodel.SpellStep{
			{
				ToolID: "caption",
				Bindings: map[string]mmodel.Binding{
					"image_url": {Kind: mmodel.BindingParameter, Parameter: "source"},
				},
			},
			{
				ToolID: "caption",
				Bindings: map[string]mmodel.Binding{
					"image_url": {Kind: mmodel.BindingStepOutput, Step: 0, Output: "text"},
				},
			},
		},
	}

	f.SpellRepo.EXPECT().FindBySlug(gomock.Any(), "echo-twice").Return(sp, nil)
	f.SpellRepo.EXPECT().Find(gomock.Any(), sp.ID).Return(sp, nil).AnyTimes()

	// In-memory generation store so the guarded terminal transition and the
	// refreshed reads behave like the real repository across both steps.
	genStore := make(map[uuid.UUID]*mmodel.Generation)

	var dispatchedSteps []int

	f.GenerationRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, gen *mmodel.Generation) (*mmodel.Generation, error) {
			stored := *gen
			genStore[gen.ID] = &stored

			require.NotNil(t, gen.StepIndex)
			dispatchedSteps = append(dispatchedSteps, *gen.StepIndex)

			if *gen.StepIndex == 1 {
				assert.Equal(t, cn.DeliverySpellFinal, gen.Delivery.Strategy)
				assert.Equal(t, "a fox", gen.Inputs["image_url"])
			}

			return gen, nil
		}).Times(2)

	f.GenerationRepo.EXPECT().StartRunning(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID, jobID *string) error {
			now := time.Now()
			genStore[id].Status = cn.StatusRunning
			genStore[id].StartedAt = &now
			return nil
		}).Times(2)

	f.GenerationRepo.EXPECT().
		FinishTerminal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID, status string, outputs []mmodel.Output, genErr *mmodel.GenerationError, charged *int64, at time.Time) (bool, error) {
			gen := genStore[id]
			if cn.IsTerminalStatus(gen.Status) {
				return false, nil
			}

			gen.Status = status
			gen.Outputs = outputs
			gen.Error = genErr
			gen.Cost.ChargedCredits = charged
			gen.CompletedAt = &at

			return true, nil
		}).Times(2)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID) (*mmodel.Generation, error) {
			snapshot := *genStore[id]
			return &snapshot, nil
		}).AnyTimes()

	f.GenerationRepo.EXPECT().ListByCast(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID uuid.UUID) ([]*mmodel.Generation, error) {
			var children []*mmodel.Generation
			for _, gen := range genStore {
				snapshot := *gen
				children = append(children, &snapshot)
			}
			return children, nil
		}).AnyTimes()

	// In-memory cast state backing the guarded continuation and finish.
	var castState *mmodel.SpellCast

	f.CastRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, cast *mmodel.SpellCast) (*mmodel.SpellCast, error) {
			stored := *cast
			castState = &stored
			return cast, nil
		})

	f.CastRepo.EXPECT().Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id uuid.UUID) (*mmodel.SpellCast, error) {
			snapshot := *castState
			return &snapshot, nil
		}).AnyTimes()

	f.CastRepo.EXPECT().AppendGeneration(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID, generationID uuid.UUID) error {
			for _, id := range castState.GenerationIDs {
				if id == generationID {
					return nil
				}
			}
			castState.GenerationIDs = append(castState.GenerationIDs, generationID)
			return nil
		}).AnyTimes()

	f.CastRepo.EXPECT().MarkContinued(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID uuid.UUID, stepIndex int) (bool, error) {
			if castState.Status != cn.CastRunning || castState.ContinuedStep >= stepIndex {
				return false, nil
			}
			castState.ContinuedStep = stepIndex
			return true, nil
		}).AnyTimes()

	f.CastRepo.EXPECT().Accumulate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID uuid.UUID, credits int64) error {
			castState.AccumulatedCredits += credits
			return nil
		}).AnyTimes()

	f.CastRepo.EXPECT().
		Finish(gomock.Any(), gomock.Any(), cn.CastCompleted, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, castID uuid.UUID, status string, failedStep *int, castErr *mmodel.GenerationError, finalID *uuid.UUID) (bool, error) {
			if castState.Status != cn.CastRunning {
				return false, nil
			}
			castState.Status = status
			castState.FinalGenerationID = finalID
			return true, nil
		})

	f.LedgerRepo.EXPECT().Reserve(gomock.Any(), userID, int64(10), gomock.Any()).Return(nil).Times(2)
	f.LedgerRepo.EXPECT().Commit(gomock.Any(), gomock.Any(), int64(10)).Return(nil).Times(2)

	f.Backend.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]mmodel.Output{{Name: "text", Data: map[string]any{"text": "a fox"}}}, nil).
		Times(2)

	// The terminal events still flow to the queue for the dispatcher's replay...
	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.events", "generation.terminal", gomock.Any()).
		Return(nil).
		Times(2)

	// ...and the cast outcome is delivered, all without a queue consumer running.
	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.outbound", "telegram", gomock.Any()).
		Return(nil)

	cast, err := uc.CastSpell(context.Background(), CastInput{
		Slug:       "echo-twice",
		UserID:     userID,
		Parameters: map[string]any{"source": "https://cdn.example.com/src.png"},
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliveryDirect,
			Platform: "telegram",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, cn.CastCompleted, cast.Status)
	assert.Equal(t, []int{0, 1}, dispatchedSteps)
	assert.Equal(t, int64(20), castState.AccumulatedCredits)
	assert.Equal(t, 1, castState.ContinuedStep)
	assert.Len(t, castState.GenerationIDs, 2)
	require.NotNil(t, castState.FinalGenerationID)
}
