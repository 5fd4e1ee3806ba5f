package command

import (
	"context"
	"testing"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func runningWebhookGeneration() *mmodel.Generation {
	started := time.Now().Add(-10 * time.Second)
	jobID := "job-7"

	return &mmodel.Generation{
		ID:           pkg.GenerateUUIDv7(),
		UserID:       pkg.GenerateUUIDv7(),
		ToolID:       "make-image",
		Status:       cn.StatusRunning,
		BackendMode:  cn.ModeWebhook,
		BackendJobID: &jobID,
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliveryDirect,
		},
		Cost:      mmodel.Cost{QuotedCredits: 50},
		StartedAt: &started,
	}
}

func TestHandleBackendCallback_SuccessSettlesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := runningWebhookGeneration()

	f.GenerationRepo.EXPECT().FindByBackendJobID(gomock.Any(), "job-7").Return(gen, nil)

	// The callback only announces completion; the result is fetched from the backend.
	f.Backend.EXPECT().Result(gomock.Any(), "job-7").
		Return([]mmodel.Output{{Name: "image", URL: "https://cdn.example.com/out.png"}}, nil)

	f.GenerationRepo.EXPECT().
		FinishTerminal(gomock.Any(), gen.ID, cn.StatusCompleted, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)

	terminal := *gen
	terminal.Status = cn.StatusCompleted
	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(&terminal, nil)

	f.LedgerRepo.EXPECT().Commit(gomock.Any(), gen.ID, int64(50)).Return(nil)
	f.Producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	err := uc.HandleBackendCallback(context.Background(), BackendCallback{
		JobID: "job-7",
		State: "completed",
	})
	require.NoError(t, err)
}

func TestHandleBackendCallback_DuplicateAfterTerminalIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := runningWebhookGeneration()
	gen.Status = cn.StatusCompleted

	f.GenerationRepo.EXPECT().FindByBackendJobID(gomock.Any(), "job-7").Return(gen, nil)

	// Nothing else: no result fetch, no settlement, no event.
	err := uc.HandleBackendCallback(context.Background(), BackendCallback{
		JobID: "job-7",
		State: "completed",
	})
	require.NoError(t, err)
}

func TestHandleBackendCallback_FailureStateSettlesFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := runningWebhookGeneration()

	f.GenerationRepo.EXPECT().FindByBackendJobID(gomock.Any(), "job-7").Return(gen, nil)

	f.GenerationRepo.EXPECT().
		FinishTerminal(gomock.Any(), gen.ID, cn.StatusFailed, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(true, nil)

	terminal := *gen
	terminal.Status = cn.StatusFailed
	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(&terminal, nil)

	f.LedgerRepo.EXPECT().Release(gomock.Any(), gen.ID, gomock.Any()).Return(nil)
	f.Producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	err := uc.HandleBackendCallback(context.Background(), BackendCallback{
		JobID: "job-7",
		State: "failed",
		Error: "cuda out of memory",
	})
	require.NoError(t, err)
}

func TestHandleBackendCallback_EmptyOutputsFailByDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := runningWebhookGeneration()

	f.GenerationRepo.EXPECT().FindByBackendJobID(gomock.Any(), "job-7").Return(gen, nil)
	f.Backend.EXPECT().Result(gomock.Any(), "job-7").Return(nil, nil)

	f.GenerationRepo.EXPECT().
		FinishTerminal(gomock.Any(), gen.ID, cn.StatusFailed, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id any, status string, outputs []mmodel.Output, genErr *mmodel.GenerationError, charged *int64, at time.Time) (bool, error) {
			require.NotNil(t, genErr)
			assert.Equal(t, "BACKEND_ERROR", genErr.Code)
			return true, nil
		})

	terminal := *gen
	terminal.Status = cn.StatusFailed
	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(&terminal, nil)

	f.LedgerRepo.EXPECT().Release(gomock.Any(), gen.ID, gomock.Any()).Return(nil)
	f.Producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	err := uc.HandleBackendCallback(context.Background(), BackendCallback{
		JobID: "job-7",
		State: "completed",
	})
	require.NoError(t, err)
}
