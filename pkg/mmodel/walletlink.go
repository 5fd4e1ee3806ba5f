package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// Wallet link request statuses.
const (
	LinkPending   = "pending"
	LinkCompleted = "completed"
	LinkExpired   = "expired"
)

// User is the stable account identity. Created on first verified identity,
// never destroyed.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// WalletLink binds a wallet address to a user. A wallet binds to at most one user.
type WalletLink struct {
	Wallet    string    `json:"wallet"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LinkRequest is an outstanding magic-amount wallet-linking flow: the user deposits
// exactly MagicAmount atomic units and the observer resolves the link from it.
type LinkRequest struct {
	ID          uuid.UUID `json:"request_id"`
	UserID      uuid.UUID `json:"user_id"`
	Chain       string    `json:"chain"`
	Asset       string    `json:"asset"`
	MagicAmount string    `json:"magic_amount"`
	Status      string    `json:"status"`
	Wallet      string    `json:"wallet,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
