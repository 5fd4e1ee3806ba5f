package command

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func terminalGeneration(strategy string) *mmodel.Generation {
	return &mmodel.Generation{
		ID:     pkg.GenerateUUIDv7(),
		UserID: pkg.GenerateUUIDv7(),
		ToolID: "caption",
		Status: cn.StatusCompleted,
		Delivery: mmodel.DeliveryIntent{
			Strategy: strategy,
			Platform: "telegram",
			Target:   "chat-9",
			ReplyTo:  "msg-3",
		},
		Outputs: []mmodel.Output{{Name: "text", Data: map[string]any{"text": "a fox"}}},
	}
}

func eventFor(gen *mmodel.Generation) mmodel.TerminalEvent {
	return mmodel.TerminalEvent{
		GenerationID: gen.ID,
		Strategy:     gen.Delivery.Strategy,
		Status:       gen.Status,
	}
}

func TestDispatchTerminalEvent_DirectPublishesToPlatform(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryDirect)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)

	f.Producer.EXPECT().
		ProducerDefault(gomock.Any(), "core.outbound", "telegram", gomock.Any()).
		DoAndReturn(func(ctx any, exchange, key string, message []byte) error {
			var out map[string]any
			require.NoError(t, json.Unmarshal(message, &out))
			assert.Equal(t, "chat-9", out["target"])
			assert.Equal(t, "msg-3", out["reply_to"])
			assert.Equal(t, gen.ID.String(), out["generation_id"])
			return nil
		})

	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryDelivered, 1).Return(nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))
}

func TestDispatchTerminalEvent_CancelledIsFiltered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryDirect)
	gen.Status = cn.StatusCancelled

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)

	// No outbound publish: cancellations produce no user-visible message.
	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryDelivered, 0).Return(nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))
}

func TestDispatchTerminalEvent_WebhookDeliversSignedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryWebhook)
	url := "https://consumer.example.com/hook"
	secret := "hooksecret"
	gen.Delivery.WebhookURL = &url
	gen.Delivery.WebhookSecret = &secret

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)

	f.WebhookSender.EXPECT().
		Deliver(gomock.Any(), url, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, url string, body []byte, signature string) error {
			// The payload verifies under the shared secret, signature excluded.
			require.NoError(t, mmodel.VerifyWebhookSignature(body, secret))
			assert.NotEmpty(t, signature)
			return nil
		})

	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryDelivered, 1).Return(nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))
}

func TestDispatchTerminalEvent_WebhookExhaustionMarksDeliveryFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryWebhook)
	url := "https://consumer.example.com/hook"
	gen.Delivery.WebhookURL = &url

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)

	transient := pkg.UpstreamError{Code: "BACKEND_ERROR", Message: "connection refused", Transient: true}

	// DeliveryRetry allows 1 retry: two attempts, then exhaustion.
	f.WebhookSender.EXPECT().
		Deliver(gomock.Any(), url, gomock.Any(), gomock.Any()).
		Return(transient).
		Times(2)

	// The generation stays completed; only the delivery outcome flips.
	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryFailed, 2).Return(nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))
}

func TestDispatchTerminalEvent_SpellStepHandsOffToRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliverySpellStep)
	castID := pkg.GenerateUUIDv7()
	step := 0
	gen.ParentCastID = &castID
	gen.StepIndex = &step

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)

	// The runner sees the continuation; a terminal cast makes it a no-op.
	f.CastRepo.EXPECT().Find(gomock.Any(), castID).
		Return(&mmodel.SpellCast{ID: castID, Status: cn.CastCompleted}, nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))
}

func TestDispatchTerminalEvent_X402ResolvesSlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryX402)

	slot := uc.Slots.Open(gen.ID)

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gen.ID).Return(gen, nil)
	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryDelivered, 1).Return(nil)

	require.NoError(t, uc.DispatchTerminalEvent(context.Background(), eventFor(gen)))

	delivered := <-slot
	assert.Equal(t, gen.ID, delivered.ID)
}

func TestRedeliverGeneration_OnlyDeliveryFailedIsEligible(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, f := newFixtures(t, ctrl)

	gen := terminalGeneration(cn.DeliveryWebhook)
	url := "https://consumer.example.com/hook"
	gen.Delivery.WebhookURL = &url

	// Still pending: refuse the manual reissue.
	gen.DeliveryOutcome = cn.DeliveryPending
	require.Error(t, uc.RedeliverGeneration(context.Background(), gen))

	// After exhaustion the reissue delivers again.
	gen.DeliveryOutcome = cn.DeliveryFailed

	f.WebhookSender.EXPECT().Deliver(gomock.Any(), url, gomock.Any(), gomock.Any()).Return(nil)
	f.GenerationRepo.EXPECT().MarkDelivery(gomock.Any(), gen.ID, cn.DeliveryDelivered, gomock.Any()).Return(nil)

	require.NoError(t, uc.RedeliverGeneration(context.Background(), gen))
}
