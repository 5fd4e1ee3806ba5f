package command

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// CancelGeneration cancels a queued or running generation: the backend is asked to
// stop (best-effort), the record transitions to cancelled, and the reserve is
// released. A cancel after terminal status is a no-op.
func (uc *UseCase) CancelGeneration(ctx context.Context, generationID uuid.UUID) (*mmodel.Generation, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.cancel_generation")
	defer span.End()

	gen, err := uc.GenerationRepo.Find(ctx, generationID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to find generation", err)

		return nil, err
	}

	if cn.IsTerminalStatus(gen.Status) {
		logger.Infof("Cancel of %s ignored: already %s", gen.ID, gen.Status)

		return gen, nil
	}

	if gen.BackendJobID != nil {
		if tool, err := uc.Registry.Get(gen.ToolID); err == nil {
			if client, err := uc.backend(tool); err == nil {
				if err := client.Cancel(ctx, *gen.BackendJobID); err != nil {
					logger.Warnf("Best-effort backend cancel of job %s failed: %v", *gen.BackendJobID, err)
				}
			}
		}
	}

	if _, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
		Status: cn.StatusCancelled,
		Error: &mmodel.GenerationError{
			Code:    cn.ErrCancelled.Error(),
			Message: cn.ReasonCancelled,
		},
	}); err != nil {
		return nil, err
	}

	return uc.GenerationRepo.Find(ctx, gen.ID)
}
