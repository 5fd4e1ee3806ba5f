package command

import (
	"context"
	"testing"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSweepStaleReserves_ResolvesByGenerationState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	completedID := pkg.GenerateUUIDv7()
	failedID := pkg.GenerateUUIDv7()
	orphanID := pkg.GenerateUUIDv7()
	runningID := pkg.GenerateUUIDv7()

	reserves := []*mmodel.Reserve{
		{GenerationID: completedID, Amount: 10, State: cn.ReserveHeld},
		{GenerationID: failedID, Amount: 20, State: cn.ReserveHeld},
		{GenerationID: orphanID, Amount: 30, State: cn.ReserveHeld},
		{GenerationID: runningID, Amount: 40, State: cn.ReserveHeld},
	}

	f.LedgerRepo.EXPECT().StaleReserves(gomock.Any(), gomock.Any()).Return(reserves, nil)

	charged := int64(8)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), completedID).
		Return(&mmodel.Generation{
			ID:     completedID,
			Status: cn.StatusCompleted,
			Cost:   mmodel.Cost{QuotedCredits: 10, ChargedCredits: &charged},
		}, nil)
	f.LedgerRepo.EXPECT().Commit(gomock.Any(), completedID, int64(8)).Return(nil)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), failedID).
		Return(&mmodel.Generation{ID: failedID, Status: cn.StatusFailed}, nil)
	f.LedgerRepo.EXPECT().Release(gomock.Any(), failedID, cn.ReasonAdjust).Return(nil)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), orphanID).
		Return(nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Generation"))
	f.LedgerRepo.EXPECT().Release(gomock.Any(), orphanID, cn.ReasonAdjust).Return(nil)

	// In-flight generations keep their reserve.
	f.GenerationRepo.EXPECT().Find(gomock.Any(), runningID).
		Return(&mmodel.Generation{ID: runningID, Status: cn.StatusRunning}, nil)

	require.NoError(t, uc.SweepStaleReserves(context.Background(), 10*time.Minute))
}
