package walletlink

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/google/uuid"
)

// Repository provides an interface for durable wallet-to-user bindings and user
// creation on first verified identity.
//
//go:generate mockgen --destination=walletlink.mock.go --package=walletlink . Repository
type Repository interface {
	// CreateUser mints a new user id.
	CreateUser(ctx context.Context) (*mmodel.User, error)

	// Link binds a wallet to a user. A wallet binds to at most one user; linking an
	// already-bound wallet fails with a conflict.
	Link(ctx context.Context, wallet string, userID uuid.UUID) error

	// FindUserByWallet resolves the owner of a wallet, nil when unbound.
	FindUserByWallet(ctx context.Context, wallet string) (*uuid.UUID, error)

	// ListWallets returns the wallets bound to a user.
	ListWallets(ctx context.Context, userID uuid.UUID) ([]*mmodel.WalletLink, error)
}
