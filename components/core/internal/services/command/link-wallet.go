package command

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
)

const (
	linkRequestTTL = 2 * time.Hour

	// magicAmountBase is the smallest magic deposit in atomic units; the random
	// tail below it keeps concurrent requests distinguishable.
	magicAmountBase = int64(1_000_000_000_000)
	magicAmountSpan = int64(999_983)
)

// InitiateWalletLink opens a magic-amount linking flow: the user deposits exactly
// the returned amount and the chain observer resolves the link from it.
func (uc *UseCase) InitiateWalletLink(ctx context.Context, userID uuid.UUID, chain, asset string) (*mmodel.LinkRequest, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.initiate_wallet_link")
	defer span.End()

	request := &mmodel.LinkRequest{
		ID:        pkg.GenerateUUIDv7(),
		UserID:    userID,
		Chain:     chain,
		Asset:     asset,
		Status:    mmodel.LinkPending,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(linkRequestTTL),
	}

	// Magic amounts are unique among outstanding requests; collide and retry.
	for attempt := 0; attempt < 5; attempt++ {
		amount, err := magicAmount()
		if err != nil {
			return nil, err
		}

		held, err := uc.RedisRepo.HoldMagicAmount(ctx, chain, asset, amount, request.ID, linkRequestTTL)
		if err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to hold magic amount", err)

			return nil, err
		}

		if held {
			request.MagicAmount = amount
			break
		}
	}

	if request.MagicAmount == "" {
		return nil, pkg.ValidateBusinessError(cn.ErrInternalServer, "WalletLink")
	}

	if err := uc.RedisRepo.SaveLinkRequest(ctx, request, linkRequestTTL); err != nil {
		return nil, err
	}

	logger.Infof("Wallet link request %s opened for user %s on %s", request.ID, userID, chain)

	return request, nil
}

// WalletLinkStatus returns the state of an outstanding link request. A pending
// request read past its expiry reports expired. The stored request is kept only for
// the link TTL, which ends at that same expiry, so once the store has dropped it the
// lookup returns not found.
func (uc *UseCase) WalletLinkStatus(ctx context.Context, requestID uuid.UUID) (*mmodel.LinkRequest, error) {
	request, err := uc.RedisRepo.GetLinkRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request == nil {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "LinkRequest")
	}

	if request.Status == mmodel.LinkPending && time.Now().After(request.ExpiresAt) {
		request.Status = mmodel.LinkExpired
	}

	return request, nil
}

func magicAmount() (string, error) {
	tail, err := rand.Int(rand.Reader, big.NewInt(magicAmountSpan))
	if err != nil {
		return "", err
	}

	return big.NewInt(0).Add(big.NewInt(magicAmountBase), tail).String(), nil
}
