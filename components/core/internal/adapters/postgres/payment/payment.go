package payment

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// Repository provides an interface for operations on one-shot payment authorizations.
//
//go:generate mockgen --destination=payment.mock.go --package=payment . Repository
type Repository interface {
	// Insert records a verified payment against its generation. The signature hash
	// is unique; inserting a replayed signature fails with PAYMENT_ALREADY_USED.
	Insert(ctx context.Context, auth *mmodel.PaymentAuthorization) error

	Find(ctx context.Context, signatureHash string) (*mmodel.PaymentAuthorization, error)
}
