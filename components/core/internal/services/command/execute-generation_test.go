package command

import (
	"context"
	"errors"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestExecuteGeneration_ImmediateToolCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	stored := recordingStore(f)

	userID := pkg.GenerateUUIDv7()

	// The static caption tool quotes 0.01 USD = 10 credits.
	f.LedgerRepo.EXPECT().
		Reserve(gomock.Any(), userID, int64(10), gomock.Any()).
		Return(nil)

	f.Backend.EXPECT().
		Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]mmodel.Output{{Name: "text", Type: "text", Data: map[string]any{"text": "a fox"}}}, nil)

	f.LedgerRepo.EXPECT().
		Commit(gomock.Any(), gomock.Any(), int64(10)).
		Return(nil)

	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.events", "generation.terminal", gomock.Any()).
		Return(nil)

	gen, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID: userID,
		ToolID: "caption",
		Inputs: map[string]any{"image_url": "https://cdn.example.com/a.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, cn.StatusCompleted, gen.Status)
	require.Len(t, gen.Outputs, 1)
	require.NotNil(t, gen.Cost.ChargedCredits)
	assert.Equal(t, int64(10), *gen.Cost.ChargedCredits)
	assert.Equal(t, cn.StatusCompleted, stored.Status)
}

func TestExecuteGeneration_InsufficientCredits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	recordingStore(f)

	userID := pkg.GenerateUUIDv7()

	f.LedgerRepo.EXPECT().
		Reserve(gomock.Any(), userID, int64(10), gomock.Any()).
		Return(pkg.ValidateBusinessError(cn.ErrInsufficientCredits, "Ledger"))

	// No reserve was admitted; the settlement releases the (empty) hold and
	// commits nothing.
	f.LedgerRepo.EXPECT().
		Release(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.events", "generation.terminal", gomock.Any()).
		Return(nil)

	_, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID: userID,
		ToolID: "caption",
		Inputs: map[string]any{"image_url": "https://cdn.example.com/a.png"},
	})
	require.Error(t, err)

	var insufficient pkg.UnprocessableOperationError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "INSUFFICIENT_CREDITS", insufficient.Code)
}

func TestExecuteGeneration_IdempotencyKeyReplaysRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	userID := pkg.GenerateUUIDv7()
	key := "req-42"

	existing := &mmodel.Generation{
		ID:     pkg.GenerateUUIDv7(),
		UserID: userID,
		ToolID: "caption",
		Status: cn.StatusCompleted,
	}

	f.GenerationRepo.EXPECT().
		FindByIdempotencyKey(gomock.Any(), userID, key).
		Return(existing, nil)

	gen, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID:         userID,
		ToolID:         "caption",
		Inputs:         map[string]any{"image_url": "https://cdn.example.com/a.png"},
		IdempotencyKey: &key,
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, gen.ID)
}

func TestExecuteGeneration_UnknownToolCreatesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, _ := newFixtures(t, ctrl)

	_, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID: pkg.GenerateUUIDv7(),
		ToolID: "missing",
	})
	require.Error(t, err)

	var notFound pkg.EntityNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestExecuteGeneration_WebhookToolSubmitsAndRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	stored := recordingStore(f)

	userID := pkg.GenerateUUIDv7()

	f.LedgerRepo.EXPECT().
		Reserve(gomock.Any(), userID, int64(50), gomock.Any()).
		Return(nil)

	f.Backend.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, tool *mmodel.Tool, inputs map[string]any, callbackURL string) (string, error) {
			assert.Contains(t, callbackURL, "https://core.test/v1/callbacks/")
			return "job-7", nil
		})

	gen, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID: userID,
		ToolID: "make-image",
		Inputs: map[string]any{"prompt": "a fox"},
	})
	require.NoError(t, err)

	assert.Equal(t, cn.StatusRunning, gen.Status)
	require.NotNil(t, gen.BackendJobID)
	assert.Equal(t, "job-7", *gen.BackendJobID)
	assert.Equal(t, cn.StatusRunning, stored.Status)
}

func TestExecuteGeneration_ImmediateBackendFailureReleasesReserve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	recordingStore(f)

	userID := pkg.GenerateUUIDv7()

	f.LedgerRepo.EXPECT().
		Reserve(gomock.Any(), userID, int64(10), gomock.Any()).
		Return(nil)

	f.Backend.EXPECT().
		Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, pkg.UpstreamError{Code: "BACKEND_ERROR", Message: "boom"})

	f.LedgerRepo.EXPECT().
		Release(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.events", "generation.terminal", gomock.Any()).
		Return(nil)

	gen, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		UserID: userID,
		ToolID: "caption",
		Inputs: map[string]any{"image_url": "https://cdn.example.com/a.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, cn.StatusFailed, gen.Status)
	require.NotNil(t, gen.Error)
	assert.Equal(t, "BACKEND_ERROR", gen.Error.Code)
}

func TestExecuteGeneration_PinsProvidedGenerationID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	stored := recordingStore(f)

	pinned := uuid.MustParse("0191a0d0-0000-7000-8000-00000000cafe")

	f.LedgerRepo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any(), pinned).Return(nil)
	f.Backend.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]mmodel.Output{{Name: "text"}}, nil)
	f.LedgerRepo.EXPECT().Commit(gomock.Any(), pinned, gomock.Any()).Return(nil)
	f.Producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := uc.ExecuteGeneration(context.Background(), ExecuteInput{
		GenerationID: pinned,
		UserID:       pkg.GenerateUUIDv7(),
		ToolID:       "caption",
		Inputs:       map[string]any{"image_url": "https://cdn.example.com/a.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, pinned, stored.ID)
}
