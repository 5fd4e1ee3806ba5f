package command

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
)

// x402WaitTimeout bounds how long the payment gate holds the HTTP response slot
// open for an asynchronous generation.
const x402WaitTimeout = 120 * time.Second

// PaymentRequirementsFor quotes a tool and shapes the 402 payment requirements a
// client must satisfy to run it anonymously.
func (uc *UseCase) PaymentRequirementsFor(ctx context.Context, toolID string, inputs map[string]any) (*mmodel.PaymentRequirements, error) {
	tool, err := uc.Registry.Get(toolID)
	if err != nil {
		return nil, err
	}

	normalized, err := uc.Registry.Validate(tool.ID, inputs)
	if err != nil {
		return nil, err
	}

	quote, err := uc.quoteFor(ctx, tool, normalized)
	if err != nil {
		return nil, err
	}

	// USD price in 6-decimal atomic units of the settlement asset.
	atomic := quote.USD.Shift(6).Ceil()

	return &mmodel.PaymentRequirements{
		Receiver:     uc.PaymentReceiver,
		AmountAtomic: atomic.String(),
		Currency:     uc.PaymentAsset,
		Chain:        uc.PaymentChain,
	}, nil
}

// ExecuteWithPayment runs the payment-gated one-shot path: verify the signed
// payment with the facilitator, burn the signature (exactly one generation per
// signature), execute bypassing the ledger, and wait for the outcome on the open
// response slot. A failed generation is reported to the client but never refunded.
func (uc *UseCase) ExecuteWithPayment(ctx context.Context, paymentHeader, toolID string, inputs map[string]any) (*mmodel.Generation, error) {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.execute_with_payment")
	defer span.End()

	requirements, err := uc.PaymentRequirementsFor(ctx, toolID, inputs)
	if err != nil {
		return nil, err
	}

	verified, err := uc.Facilitator.Verify(ctx, paymentHeader, *requirements)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Payment verification failed", err)

		return nil, err
	}

	digest := sha256.Sum256([]byte(paymentHeader))
	signatureHash := hex.EncodeToString(digest[:])

	generationID := pkg.GenerateUUIDv7()

	// Burning the signature before execution guarantees a replay can never mint a
	// second generation, even one racing the first.
	if err := uc.PaymentRepo.Insert(ctx, &mmodel.PaymentAuthorization{
		SignatureHash: signatureHash,
		GenerationID:  generationID,
		PayerAddress:  verified.PayerAddress,
		AmountAtomic:  verified.AmountAtomic,
		Asset:         verified.Asset,
		Chain:         verified.Chain,
	}); err != nil {
		return nil, err
	}

	// Anonymous payer: the generation is owned by a user derived from the payer
	// wallet when linked, or a fresh anonymous one.
	userID, err := uc.WalletRepo.FindUserByWallet(ctx, verified.PayerAddress)
	if err != nil {
		return nil, err
	}

	if userID == nil {
		user, err := uc.WalletRepo.CreateUser(ctx)
		if err != nil {
			return nil, err
		}

		userID = &user.ID

		if err := uc.WalletRepo.Link(ctx, verified.PayerAddress, user.ID); err != nil {
			logger.Warnf("Failed to link payer wallet %s: %v", verified.PayerAddress, err)
		}
	}

	slot := uc.Slots.Open(generationID)
	defer uc.Slots.Close(generationID)

	gen, err := uc.ExecuteGeneration(ctx, ExecuteInput{
		GenerationID: generationID,
		UserID:       *userID,
		ToolID:       toolID,
		Inputs:       inputs,
		Delivery: mmodel.DeliveryIntent{
			Strategy: cn.DeliveryX402,
		},
		SkipLedger: true,
	})
	if err != nil {
		return nil, err
	}

	if cn.IsTerminalStatus(gen.Status) {
		return gen, nil
	}

	select {
	case terminal := <-slot:
		return terminal, nil
	case <-time.After(x402WaitTimeout):
		return uc.GenerationRepo.Find(ctx, generationID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
