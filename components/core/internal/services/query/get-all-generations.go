package query

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/google/uuid"
)

// GetAllGenerations pages a user's generation history, newest first, by cursor.
func (uc *UseCase) GetAllGenerations(ctx context.Context, userID uuid.UUID, filter *http.QueryHeader) ([]mmodel.GenerationProjection, http.CursorPagination, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_all_generations")
	defer span.End()

	generations, pagination, err := uc.GenerationRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list generations", err)

		return nil, pagination, err
	}

	projections := make([]mmodel.GenerationProjection, 0, len(generations))

	for _, gen := range generations {
		projections = append(projections, gen.ToProjection())
	}

	return projections, pagination, nil
}

// GetBatchGenerations returns the projections of the named generations, skipping
// unknown ids.
func (uc *UseCase) GetBatchGenerations(ctx context.Context, ids []uuid.UUID) ([]mmodel.GenerationProjection, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_batch_generations")
	defer span.End()

	generations, err := uc.GenerationRepo.ListByIDs(ctx, ids)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list generations by ids", err)

		return nil, err
	}

	projections := make([]mmodel.GenerationProjection, 0, len(generations))

	for _, gen := range generations {
		projections = append(projections, gen.ToProjection())
	}

	return projections, nil
}
