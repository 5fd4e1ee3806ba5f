package command

import (
	"context"
	"testing"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/ethereum"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func seenDeposit() *mmodel.Deposit {
	return &mmodel.Deposit{
		EventID:     mmodel.ChainEventID("base", "0xabc", 3),
		Chain:       "base",
		TxHash:      "0xabc",
		LogIndex:    3,
		Wallet:      "0x00000000000000000000000000000000000000cc",
		Asset:       "USDC",
		RawAmount:   "25000000",
		BlockNumber: 80,
		State:       cn.DepositSeen,
	}
}

func TestObserveChain_RecordsSeenAndAdvancesCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	reader := ethereum.NewMockLogReader(ctrl)

	event := seenDeposit()

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().Cursor(gomock.Any(), "base").Return(uint64(90), nil)
	reader.EXPECT().DepositEvents(gomock.Any(), uint64(91), uint64(100)).
		Return([]*mmodel.Deposit{event}, nil)
	f.DepositRepo.EXPECT().InsertSeen(gomock.Any(), event).Return(true, nil)
	f.DepositRepo.EXPECT().SetCursor(gomock.Any(), "base", uint64(100)).Return(nil)

	require.NoError(t, uc.ObserveChain(context.Background(), "base", reader))
}

func TestObserveChain_NoNewBlocksIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	reader := ethereum.NewMockLogReader(ctrl)

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().Cursor(gomock.Any(), "base").Return(uint64(100), nil)

	require.NoError(t, uc.ObserveChain(context.Background(), "base", reader))
}

func TestSettleDeposits_ConfirmedDepositCreditsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	reader := ethereum.NewMockLogReader(ctrl)

	dep := seenDeposit()
	owner := pkg.GenerateUUIDv7()

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().ListUnsettled(gomock.Any(), "base", 0).
		Return([]*mmodel.Deposit{dep}, nil)

	// Confirmation re-fetches the event at its block; it is still present.
	reader.EXPECT().DepositEvents(gomock.Any(), uint64(80), uint64(80)).
		Return([]*mmodel.Deposit{seenDeposit()}, nil)

	f.Oracle.EXPECT().USDPrice(gomock.Any(), "USDC").Return(decimal.NewFromInt(1), nil)
	f.WalletRepo.EXPECT().FindUserByWallet(gomock.Any(), dep.Wallet).Return(&owner, nil)

	confirmed := *dep
	confirmed.State = cn.DepositConfirmed
	confirmed.AmountUSD = decimal.NewFromInt(25)
	confirmed.Credits = 25000
	confirmed.UserID = &owner

	f.DepositRepo.EXPECT().
		Transition(gomock.Any(), dep.EventID, cn.DepositSeen, cn.DepositConfirmed, gomock.Any()).
		DoAndReturn(func(ctx any, eventID, from, to string, mutate func(*mmodel.Deposit)) (bool, error) {
			probe := *dep
			mutate(&probe)

			// 25 USDC at 1 USD, 6 decimals, 0.001 USD per credit.
			assert.True(t, probe.AmountUSD.Equal(decimal.NewFromInt(25)))
			assert.Equal(t, int64(25000), probe.Credits)
			require.NotNil(t, probe.UserID)
			assert.Equal(t, owner, *probe.UserID)

			return true, nil
		})

	f.DepositRepo.EXPECT().Find(gomock.Any(), dep.EventID).Return(&confirmed, nil)

	f.LedgerRepo.EXPECT().Credit(gomock.Any(), dep.EventID, owner, int64(25000)).Return(nil)

	f.DepositRepo.EXPECT().
		Transition(gomock.Any(), dep.EventID, cn.DepositConfirmed, cn.DepositCredited, gomock.Any()).
		Return(true, nil)

	require.NoError(t, uc.SettleDeposits(context.Background(), "base", reader, 5))
}

func TestSettleDeposits_ReorgSupersedesSeenDeposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	reader := ethereum.NewMockLogReader(ctrl)

	dep := seenDeposit()

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().ListUnsettled(gomock.Any(), "base", 0).
		Return([]*mmodel.Deposit{dep}, nil)

	// The log vanished before reaching depth: superseded, never credited.
	reader.EXPECT().DepositEvents(gomock.Any(), uint64(80), uint64(80)).
		Return([]*mmodel.Deposit{}, nil)

	f.DepositRepo.EXPECT().
		Transition(gomock.Any(), dep.EventID, cn.DepositSeen, cn.DepositRejected, gomock.Any()).
		DoAndReturn(func(ctx any, eventID, from, to string, mutate func(*mmodel.Deposit)) (bool, error) {
			probe := *dep
			mutate(&probe)
			assert.Equal(t, "superseded_by_reorg", probe.RejectReason)
			return true, nil
		})

	require.NoError(t, uc.SettleDeposits(context.Background(), "base", reader, 5))
}

func TestSettleDeposits_ShallowDepositWaits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	reader := ethereum.NewMockLogReader(ctrl)

	dep := seenDeposit()
	dep.BlockNumber = 98

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().ListUnsettled(gomock.Any(), "base", 0).
		Return([]*mmodel.Deposit{dep}, nil)

	// Depth 2 of 5: nothing else happens this sweep.
	require.NoError(t, uc.SettleDeposits(context.Background(), "base", reader, 5))
}

func TestSettleDeposits_MagicAmountLinksWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	uc.RedisRepo = f.RedisRepo
	reader := ethereum.NewMockLogReader(ctrl)

	dep := seenDeposit()
	requestID := pkg.GenerateUUIDv7()
	userID := pkg.GenerateUUIDv7()

	reader.EXPECT().LatestBlock(gomock.Any()).Return(uint64(100), nil)
	f.DepositRepo.EXPECT().ListUnsettled(gomock.Any(), "base", 0).
		Return([]*mmodel.Deposit{dep}, nil)
	reader.EXPECT().DepositEvents(gomock.Any(), uint64(80), uint64(80)).
		Return([]*mmodel.Deposit{seenDeposit()}, nil)

	f.Oracle.EXPECT().USDPrice(gomock.Any(), "USDC").Return(decimal.NewFromInt(1), nil)

	// No direct linkage; the raw amount matches an outstanding link request.
	f.WalletRepo.EXPECT().FindUserByWallet(gomock.Any(), dep.Wallet).Return(nil, nil)
	f.RedisRepo.EXPECT().LookupMagicAmount(gomock.Any(), "base", "USDC", dep.RawAmount).
		Return(requestID, nil)
	f.RedisRepo.EXPECT().GetLinkRequest(gomock.Any(), requestID).
		Return(&mmodel.LinkRequest{
			ID:     requestID,
			UserID: userID,
			Status: mmodel.LinkPending,
		}, nil)
	f.WalletRepo.EXPECT().Link(gomock.Any(), dep.Wallet, userID).Return(nil)
	f.RedisRepo.EXPECT().SaveLinkRequest(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, req *mmodel.LinkRequest, ttl any) error {
			assert.Equal(t, mmodel.LinkCompleted, req.Status)
			assert.Equal(t, dep.Wallet, req.Wallet)
			return nil
		})

	f.DepositRepo.EXPECT().
		Transition(gomock.Any(), dep.EventID, cn.DepositSeen, cn.DepositConfirmed, gomock.Any()).
		Return(true, nil)

	confirmed := *dep
	confirmed.State = cn.DepositConfirmed
	confirmed.Credits = 25000
	confirmed.UserID = &userID
	f.DepositRepo.EXPECT().Find(gomock.Any(), dep.EventID).Return(&confirmed, nil)

	f.LedgerRepo.EXPECT().Credit(gomock.Any(), dep.EventID, userID, int64(25000)).Return(nil)
	f.DepositRepo.EXPECT().
		Transition(gomock.Any(), dep.EventID, cn.DepositConfirmed, cn.DepositCredited, gomock.Any()).
		Return(true, nil)

	require.NoError(t, uc.SettleDeposits(context.Background(), "base", reader, 5))
}
