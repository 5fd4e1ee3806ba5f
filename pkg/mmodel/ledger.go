package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry is one append-only row of a user's credit journal.
type LedgerEntry struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`

	// Amount is signed: credits mint positive entries, debits negative ones.
	Amount int64 `json:"amount"`

	// Reason is one of constant.ReasonDeposit, ReasonDebit, ReasonRefund, ReasonAdjust.
	Reason string `json:"reason"`

	// GenerationID correlates debit/refund entries; ChainEventID correlates deposits.
	GenerationID *uuid.UUID `json:"generationId,omitempty"`
	ChainEventID *string    `json:"chainEventId,omitempty"`

	// Sequence is monotonic per user.
	Sequence int64 `json:"sequence"`

	CreatedAt time.Time `json:"createdAt"`
}

// Balance is the materialized credit position of a user. Available excludes
// outstanding reserves; OnHold carries them until commit or release.
type Balance struct {
	UserID    uuid.UUID `json:"userId"`
	Available int64     `json:"available"`
	OnHold    int64     `json:"onHold"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"-"`
}

// Reserve is a tentative debit keyed by generation id. It settles exactly once:
// committed for completed generations, released otherwise.
type Reserve struct {
	GenerationID uuid.UUID  `json:"generationId"`
	UserID       uuid.UUID  `json:"userId"`
	Amount       int64      `json:"amount"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"createdAt"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
}
