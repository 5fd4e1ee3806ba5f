package spell

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
)

// Repository provides an interface for operations on authored spell documents.
// Published spells are immutable by id+version; edits mint a new version.
//
//go:generate mockgen --destination=spell.mock.go --package=spell . Repository
type Repository interface {
	Create(ctx context.Context, sp *mmodel.Spell) (*mmodel.Spell, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Spell, error)

	// FindBySlug resolves the latest published version under slug.
	FindBySlug(ctx context.Context, slug string) (*mmodel.Spell, error)

	// Publish freezes the spell. Republishing is a no-op.
	Publish(ctx context.Context, id uuid.UUID) (*mmodel.Spell, error)

	// ListPublic lists published spells for discovery.
	ListPublic(ctx context.Context, limit int) ([]*mmodel.Spell, error)
}
