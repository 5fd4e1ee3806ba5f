package command

import (
	"context"
	"errors"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPaymentRequirementsFor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, _ := newFixtures(t, ctrl)

	requirements, err := uc.PaymentRequirementsFor(context.Background(), "caption", map[string]any{
		"image_url": "https://cdn.example.com/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, uc.PaymentReceiver, requirements.Receiver)
	assert.Equal(t, "USDC", requirements.Currency)
	assert.Equal(t, "base", requirements.Chain)
	// 0.01 USD in 6-decimal atomic units.
	assert.Equal(t, "10000", requirements.AmountAtomic)
}

func TestExecuteWithPayment_ReplayedSignatureCreatesNoGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	f.Facilitator.EXPECT().
		Verify(gomock.Any(), "signed-payment", gomock.Any()).
		Return(&mmodel.VerifiedPayment{
			PayerAddress: "0x00000000000000000000000000000000000000bb",
			AmountAtomic: "10000",
			Asset:        "USDC",
			Chain:        "base",
		}, nil)

	f.PaymentRepo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(pkg.ValidateBusinessError(cn.ErrPaymentAlreadyUsed, "PaymentAuthorization"))

	// No generation repo interaction at all: the replay dies at the signature burn.
	_, err := uc.ExecuteWithPayment(context.Background(), "signed-payment", "caption", map[string]any{
		"image_url": "https://cdn.example.com/a.png",
	})
	require.Error(t, err)

	var validation pkg.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "PAYMENT_ALREADY_USED", validation.Code)
}

func TestExecuteWithPayment_ImmediateToolReturnsOutputs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)
	stored := recordingStore(f)

	payer := pkg.GenerateUUIDv7()

	f.Facilitator.EXPECT().
		Verify(gomock.Any(), "signed-payment", gomock.Any()).
		Return(&mmodel.VerifiedPayment{
			PayerAddress: "0x00000000000000000000000000000000000000bb",
			AmountAtomic: "10000",
			Asset:        "USDC",
			Chain:        "base",
		}, nil)

	f.PaymentRepo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, auth *mmodel.PaymentAuthorization) error {
			assert.NotEmpty(t, auth.SignatureHash)
			assert.NotEqual(t, "signed-payment", auth.SignatureHash)
			return nil
		})

	f.WalletRepo.EXPECT().
		FindUserByWallet(gomock.Any(), "0x00000000000000000000000000000000000000bb").
		Return(&payer, nil)

	// Ledger bypassed: no Reserve, no Commit.
	f.Backend.EXPECT().
		Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]mmodel.Output{{Name: "text", Data: map[string]any{"text": "a fox"}}}, nil)

	f.Producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	gen, err := uc.ExecuteWithPayment(context.Background(), "signed-payment", "caption", map[string]any{
		"image_url": "https://cdn.example.com/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, cn.StatusCompleted, gen.Status)
	assert.Equal(t, cn.DeliveryX402, stored.Delivery.Strategy)
	assert.Equal(t, payer, stored.UserID)
}

func TestExecuteWithPayment_InvalidPaymentIsRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	f.Facilitator.EXPECT().
		Verify(gomock.Any(), "bogus", gomock.Any()).
		Return(nil, pkg.ValidateBusinessError(cn.ErrInvalidSignature, "Payment"))

	_, err := uc.ExecuteWithPayment(context.Background(), "bogus", "caption", map[string]any{
		"image_url": "https://cdn.example.com/a.png",
	})
	require.Error(t, err)

	var unauthorized pkg.UnauthorizedError
	assert.True(t, errors.As(err, &unauthorized))
}
