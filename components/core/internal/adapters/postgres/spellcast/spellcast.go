package spellcast

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
)

// Repository provides an interface for operations on spell cast records.
//
//go:generate mockgen --destination=spellcast.mock.go --package=spellcast . Repository
type Repository interface {
	Create(ctx context.Context, cast *mmodel.SpellCast) (*mmodel.SpellCast, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.SpellCast, error)

	// AppendGeneration grows the cast's generation id array. The array is
	// append-only; ids are never rewritten or removed.
	AppendGeneration(ctx context.Context, castID, generationID uuid.UUID) error

	// Accumulate adds the charged credits of a completed step to the cast total.
	Accumulate(ctx context.Context, castID uuid.UUID, credits int64) error

	// MarkContinued consumes the completed continuation of stepIndex. It reports
	// false when that step's continuation was already consumed, which makes the
	// runner idempotent under at-least-once continuation signals (the engine's
	// direct notify for immediate steps plus the dispatcher's event replay).
	MarkContinued(ctx context.Context, castID uuid.UUID, stepIndex int) (bool, error)

	// Finish atomically applies a terminal cast transition. It reports false when
	// the cast was already terminal.
	Finish(ctx context.Context, castID uuid.UUID, status string, failedStep *int, castErr *mmodel.GenerationError, finalGenerationID *uuid.UUID) (bool, error)

	// ListRunningByUser lists a user's casts still in flight.
	ListRunningByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*mmodel.SpellCast, error)
}
