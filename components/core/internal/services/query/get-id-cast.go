package query

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// GetCastByID returns the API projection of a spell cast.
func (uc *UseCase) GetCastByID(ctx context.Context, id uuid.UUID) (*mmodel.CastProjection, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_cast_by_id")
	defer span.End()

	cast, err := uc.CastRepo.Find(ctx, id)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to find spell cast", err)

		return nil, err
	}

	projection := cast.ToProjection()

	return &projection, nil
}
