package generation

import (
	"context"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/google/uuid"
)

// Repository provides an interface for operations on generation records.
//
//go:generate mockgen --destination=generation.mock.go --package=generation . Repository
type Repository interface {
	Create(ctx context.Context, gen *mmodel.Generation) (*mmodel.Generation, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Generation, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*mmodel.Generation, error)
	FindByBackendJobID(ctx context.Context, jobID string) (*mmodel.Generation, error)

	// Update persists mutable fields under optimistic concurrency on the version column.
	Update(ctx context.Context, gen *mmodel.Generation) error

	// StartRunning transitions queued -> running, stamping the backend job id.
	StartRunning(ctx context.Context, id uuid.UUID, backendJobID *string) error

	// FinishTerminal atomically applies a terminal transition. It reports false when
	// the record already reached a terminal state, which makes every settlement
	// idempotent: only the caller that flipped the row settles and notifies.
	FinishTerminal(ctx context.Context, id uuid.UUID, status string, outputs []mmodel.Output, genErr *mmodel.GenerationError, chargedCredits *int64, completedAt time.Time) (bool, error)

	// MarkDelivery records the delivery outcome without touching the status.
	MarkDelivery(ctx context.Context, id uuid.UUID, outcome string, attempts int) error

	// TouchPoll stamps poll bookkeeping on a running poll-mode record.
	TouchPoll(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error

	// ListByUser pages a user's generations by creation time, newest first,
	// using a server-side cursor.
	ListByUser(ctx context.Context, userID uuid.UUID, filter *http.QueryHeader) ([]*mmodel.Generation, http.CursorPagination, error)

	// ListByCast returns the generations of a cast ordered by step index.
	ListByCast(ctx context.Context, castID uuid.UUID) ([]*mmodel.Generation, error)

	// ListByIDs returns the named records, skipping unknown ids.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*mmodel.Generation, error)

	// ListRunningByMode returns running records of the given backend mode, oldest
	// first, bounded by limit. Used by the poll sweeper.
	ListRunningByMode(ctx context.Context, mode string, limit int) ([]*mmodel.Generation, error)

	// ListByStatusAndDelivery serves the dispatcher and the stale sweeper.
	ListByStatusAndDelivery(ctx context.Context, status, deliveryOutcome string, limit int) ([]*mmodel.Generation, error)
}
