package query

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// GetAllSpells lists published spells for discovery.
func (uc *UseCase) GetAllSpells(ctx context.Context, limit int) ([]*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_all_spells")
	defer span.End()

	spells, err := uc.SpellRepo.ListPublic(ctx, limit)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list spells", err)

		return nil, err
	}

	return spells, nil
}

// GetSpellByID loads one spell definition.
func (uc *UseCase) GetSpellByID(ctx context.Context, id uuid.UUID) (*mmodel.Spell, error) {
	return uc.SpellRepo.Find(ctx, id)
}
