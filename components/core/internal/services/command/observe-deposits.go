package command

import (
	"context"
	"strings"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/ethereum"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mretry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObserveChain fetches new deposit logs since the chain's high-water mark and
// records them in the seen state. Crediting never happens here; confirmation and
// settlement belong to SettleDeposits, so reorgs shallower than the confirmation
// depth cannot corrupt the ledger.
func (uc *UseCase) ObserveChain(ctx context.Context, chain string, reader ethereum.LogReader) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.observe_chain")
	defer span.End()

	latest, err := reader.LatestBlock(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to read chain head", err)

		return err
	}

	cursor, err := uc.DepositRepo.Cursor(ctx, chain)
	if err != nil {
		return err
	}

	if cursor >= latest {
		return nil
	}

	from := cursor + 1

	// Block-range fetches retry with exponential backoff before the worker gives
	// the range back to the next tick.
	fetchRetry := mretry.Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		JitterFactor:   mretry.DefaultJitterFactor,
	}

	var events []*mmodel.Deposit

	err = fetchRetry.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		events, fetchErr = reader.DepositEvents(ctx, from, latest)

		return fetchErr
	}, nil)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to fetch deposit events", err)

		return err
	}

	for _, event := range events {
		inserted, err := uc.DepositRepo.InsertSeen(ctx, event)
		if err != nil {
			return err
		}

		if inserted {
			logger.Infof("Deposit %s seen at block %d on %s", event.EventID, event.BlockNumber, chain)
		}
	}

	return uc.DepositRepo.SetCursor(ctx, chain, latest)
}

// SettleDeposits walks a chain's unsettled deposit records: confirmed events are
// owned, priced and credited exactly once; superseded or unacceptable ones are
// rejected terminally.
func (uc *UseCase) SettleDeposits(ctx context.Context, chain string, reader ethereum.LogReader, confirmations uint64) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.settle_deposits")
	defer span.End()

	latest, err := reader.LatestBlock(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to read chain head", err)

		return err
	}

	unsettled, err := uc.DepositRepo.ListUnsettled(ctx, chain, 0)
	if err != nil {
		return err
	}

	for _, dep := range unsettled {
		if dep.BlockNumber+confirmations > latest {
			// Not deep enough yet.
			continue
		}

		if err := uc.settleDeposit(ctx, dep, reader); err != nil {
			logger.Errorf("Failed to settle deposit %s: %v", dep.EventID, err)
		}
	}

	return nil
}

func (uc *UseCase) settleDeposit(ctx context.Context, dep *mmodel.Deposit, reader ethereum.LogReader) error {
	logger := pkg.NewLoggerFromContext(ctx)

	if dep.State == cn.DepositSeen {
		confirmed, err := uc.confirmDeposit(ctx, dep, reader)
		if err != nil || !confirmed {
			return err
		}

		refreshed, err := uc.DepositRepo.Find(ctx, dep.EventID)
		if err != nil {
			return err
		}

		dep = refreshed
	}

	if dep.State != cn.DepositConfirmed {
		return nil
	}

	if dep.UserID == nil {
		// Owner resolution failed at confirmation and again here; reject after the
		// policy window so the record does not linger forever.
		if time.Since(dep.CreatedAt) > uc.OwnerResolveTimeout {
			_, err := uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositConfirmed, cn.DepositRejected, func(d *mmodel.Deposit) {
				d.RejectReason = "unresolved_owner"
			})

			return err
		}

		userID, err := uc.resolveDepositOwner(ctx, dep)
		if err != nil || userID == nil {
			return err
		}

		dep.UserID = userID
	}

	if err := uc.LedgerRepo.Credit(ctx, dep.EventID, *dep.UserID, dep.Credits); err != nil {
		return err
	}

	owner := *dep.UserID

	applied, err := uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositConfirmed, cn.DepositCredited, func(d *mmodel.Deposit) {
		d.UserID = &owner
	})
	if err != nil {
		return err
	}

	if applied {
		logger.Infof("Deposit %s credited %d credit(s) to user %s", dep.EventID, dep.Credits, dep.UserID)
	}

	return nil
}

// confirmDeposit advances seen -> confirmed. The event is re-fetched at its block:
// a log replaced by a reorg before reaching depth is superseded and rejected,
// never credited. Pricing happens here, at confirmation time.
func (uc *UseCase) confirmDeposit(ctx context.Context, dep *mmodel.Deposit, reader ethereum.LogReader) (bool, error) {
	events, err := reader.DepositEvents(ctx, dep.BlockNumber, dep.BlockNumber)
	if err != nil {
		return false, err
	}

	present := false

	for _, event := range events {
		if event.EventID == dep.EventID {
			present = true
			break
		}
	}

	if !present {
		_, err := uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositSeen, cn.DepositRejected, func(d *mmodel.Deposit) {
			d.RejectReason = "superseded_by_reorg"
		})

		return false, err
	}

	if strings.HasPrefix(dep.Asset, "0x") {
		// The asset address never mapped to a configured symbol.
		_, err := uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositSeen, cn.DepositRejected, func(d *mmodel.Deposit) {
			d.RejectReason = "unsupported_asset"
		})

		return false, err
	}

	price, err := uc.Oracle.USDPrice(ctx, dep.Asset)
	if err != nil {
		return false, err
	}

	if price.IsZero() {
		_, err := uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositSeen, cn.DepositRejected, func(d *mmodel.Deposit) {
			d.RejectReason = "unsupported_asset"
		})

		return false, err
	}

	raw, err := decimal.NewFromString(dep.RawAmount)
	if err != nil {
		return false, err
	}

	decimals := int32(18)
	if d, ok := uc.AssetDecimals[dep.Asset]; ok {
		decimals = d
	}

	usd := raw.Shift(-decimals).Mul(price)
	credits := uc.Quoter.CreditsFor(usd)
	owner, err := uc.resolveDepositOwner(ctx, dep)
	if err != nil {
		return false, err
	}

	return uc.DepositRepo.Transition(ctx, dep.EventID, cn.DepositSeen, cn.DepositConfirmed, func(d *mmodel.Deposit) {
		d.AmountUSD = usd
		d.Credits = credits
		d.UserID = owner
	})
}

// resolveDepositOwner resolves the owning user by direct wallet linkage first, then
// by matching the raw amount against an outstanding magic-amount link request. A
// magic match links the wallet and completes the request.
func (uc *UseCase) resolveDepositOwner(ctx context.Context, dep *mmodel.Deposit) (*uuid.UUID, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	owner, err := uc.WalletRepo.FindUserByWallet(ctx, dep.Wallet)
	if err != nil {
		return nil, err
	}

	if owner != nil {
		return owner, nil
	}

	requestID, err := uc.RedisRepo.LookupMagicAmount(ctx, dep.Chain, dep.Asset, dep.RawAmount)
	if err != nil || requestID == uuid.Nil {
		return nil, err
	}

	request, err := uc.RedisRepo.GetLinkRequest(ctx, requestID)
	if err != nil || request == nil {
		return nil, err
	}

	if err := uc.WalletRepo.Link(ctx, dep.Wallet, request.UserID); err != nil {
		return nil, err
	}

	request.Status = mmodel.LinkCompleted
	request.Wallet = dep.Wallet

	if err := uc.RedisRepo.SaveLinkRequest(ctx, request, 24*time.Hour); err != nil {
		logger.Warnf("Failed to persist completed link request %s: %v", request.ID, err)
	}

	logger.Infof("Magic amount matched: wallet %s linked to user %s", dep.Wallet, request.UserID)

	userID := request.UserID

	return &userID, nil
}
