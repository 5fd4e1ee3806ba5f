package ledger

import (
	"context"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
)

// Repository provides an interface for operations related to the credit ledger.
// Every mutation is idempotent by its correlating key and linearized per user.
//
//go:generate mockgen --destination=ledger.mock.go --package=ledger . Repository
type Repository interface {
	// Balance returns the user's materialized position, zero-valued when absent.
	Balance(ctx context.Context, userID uuid.UUID) (*mmodel.Balance, error)

	// Reserve appends a tentative debit keyed by generationID. A repeated call with
	// the same generationID is a no-op. A reserve that would leave the available
	// balance negative fails with INSUFFICIENT_CREDITS.
	Reserve(ctx context.Context, userID uuid.UUID, amount int64, generationID uuid.UUID) error

	// Commit settles a prior reserve, charging at most the reserved amount and
	// refunding the overage. Idempotent by generationID.
	Commit(ctx context.Context, generationID uuid.UUID, charged int64) error

	// Release reverses a prior reserve before commit. Idempotent by generationID.
	Release(ctx context.Context, generationID uuid.UUID, reason string) error

	// Credit appends a deposit-sourced credit keyed by chainEventID, at most once.
	Credit(ctx context.Context, chainEventID string, userID uuid.UUID, amount int64) error

	// Entries lists the journal of a user, newest first.
	Entries(ctx context.Context, userID uuid.UUID, limit int) ([]*mmodel.LedgerEntry, error)

	// StaleReserves returns held reserves created before cutoff, for the janitor.
	StaleReserves(ctx context.Context, cutoff time.Time) ([]*mmodel.Reserve, error)

	// FindReserve returns the reserve keyed by generationID, if any.
	FindReserve(ctx context.Context, generationID uuid.UUID) (*mmodel.Reserve, error)
}
