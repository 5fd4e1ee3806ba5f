package command

import (
	"context"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// SweepStaleReserves is the janitor: it resolves reserves left dangling by a crash
// between reserve and commit/release. Reserves whose generation reached terminal
// state are settled accordingly; reserves older than the cutoff with no generation
// at all are released.
func (uc *UseCase) SweepStaleReserves(ctx context.Context, cutoff time.Duration) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.sweep_stale_reserves")
	defer span.End()

	stale, err := uc.LedgerRepo.StaleReserves(ctx, time.Now().Add(-cutoff))
	if err != nil {
		return err
	}

	for _, reserve := range stale {
		if err := uc.sweepReserve(ctx, reserve); err != nil {
			logger.Errorf("Janitor failed to resolve reserve %s: %v", reserve.GenerationID, err)
		}
	}

	return nil
}

func (uc *UseCase) sweepReserve(ctx context.Context, reserve *mmodel.Reserve) error {
	logger := pkg.NewLoggerFromContext(ctx)

	gen, err := uc.GenerationRepo.Find(ctx, reserve.GenerationID)
	if err != nil {
		var notFound pkg.EntityNotFoundError
		if errors.As(err, &notFound) {
			logger.Infof("Janitor releasing orphan reserve %s", reserve.GenerationID)

			return uc.LedgerRepo.Release(ctx, reserve.GenerationID, cn.ReasonAdjust)
		}

		return err
	}

	switch gen.Status {
	case cn.StatusCompleted:
		charged := gen.Cost.QuotedCredits
		if gen.Cost.ChargedCredits != nil {
			charged = *gen.Cost.ChargedCredits
		}

		logger.Infof("Janitor committing reserve %s for completed generation", gen.ID)

		return uc.LedgerRepo.Commit(ctx, gen.ID, charged)
	case cn.StatusFailed, cn.StatusCancelled:
		logger.Infof("Janitor releasing reserve %s for %s generation", gen.ID, gen.Status)

		return uc.LedgerRepo.Release(ctx, gen.ID, cn.ReasonAdjust)
	default:
		// Still in flight; the engine or poller owns it.
		return nil
	}
}
