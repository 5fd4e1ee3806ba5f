package query

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

// GetBalance returns the user's credit position.
func (uc *UseCase) GetBalance(ctx context.Context, userID uuid.UUID) (*mmodel.Balance, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_balance")
	defer span.End()

	balance, err := uc.LedgerRepo.Balance(ctx, userID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to read balance", err)

		return nil, err
	}

	return balance, nil
}

// GetLedgerEntries lists a user's credit journal, newest first.
func (uc *UseCase) GetLedgerEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*mmodel.LedgerEntry, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_ledger_entries")
	defer span.End()

	entries, err := uc.LedgerRepo.Entries(ctx, userID, limit)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list ledger entries", err)

		return nil, err
	}

	return entries, nil
}
