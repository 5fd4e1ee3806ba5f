package deposit

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// Repository provides an interface for operations on deposit records and the
// per-chain high-water mark.
//
//go:generate mockgen --destination=deposit.mock.go --package=deposit . Repository
type Repository interface {
	// InsertSeen records a newly observed event in the seen state. It reports false
	// when the event id was already recorded, making observation idempotent.
	InsertSeen(ctx context.Context, dep *mmodel.Deposit) (bool, error)

	Find(ctx context.Context, eventID string) (*mmodel.Deposit, error)

	// Transition advances the record from one state to another, guarded so states
	// only move monotonically. It reports false when the guard did not match.
	Transition(ctx context.Context, eventID, from, to string, mutate func(*mmodel.Deposit)) (bool, error)

	// ListUnsettled returns records of a chain still in seen or confirmed state.
	ListUnsettled(ctx context.Context, chain string, limit int) ([]*mmodel.Deposit, error)

	// Cursor returns the last processed block of a chain, zero when unset.
	Cursor(ctx context.Context, chain string) (uint64, error)

	// SetCursor advances the chain's high-water mark.
	SetCursor(ctx context.Context, chain string, block uint64) error
}
