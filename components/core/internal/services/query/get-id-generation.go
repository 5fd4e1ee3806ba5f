package query

import (
	"context"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

const projectionTTL = 30 * time.Second

// GetGenerationByID returns the API projection of a generation. Non-terminal
// records are served through the write-behind projection cache and carry a polling
// hint; terminal records always come from the store.
func (uc *UseCase) GetGenerationByID(ctx context.Context, id uuid.UUID) (*mmodel.GenerationProjection, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_generation_by_id")
	defer span.End()

	if uc.RedisRepo != nil {
		cached, err := uc.RedisRepo.GetProjection(ctx, id)
		if err != nil {
			logger.Warnf("Projection cache read failed for %s: %v", id, err)
		}

		if cached != nil {
			return cached, nil
		}
	}

	gen, err := uc.GenerationRepo.Find(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to find generation", err)

		return nil, err
	}

	projection := gen.ToProjection()

	if !cn.IsTerminalStatus(gen.Status) {
		projection.CheckAfterMs = 2000

		if uc.RedisRepo != nil {
			if err := uc.RedisRepo.CacheProjection(ctx, &projection, projectionTTL); err != nil {
				logger.Warnf("Projection cache write failed for %s: %v", id, err)
			}
		}
	}

	return &projection, nil
}
