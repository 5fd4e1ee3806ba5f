package command

import (
	"testing"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/http/out"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/mongodb/spell"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/deposit"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/generation"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/ledger"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/payment"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/spellcast"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/walletlink"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/rabbitmq"
	redisadapter "github.com/GrimoireLabs/grimoire/components/core/internal/adapters/redis"
	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mretry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fixtures is the mocked dependency bundle of a command UseCase under test.
type fixtures struct {
	GenerationRepo *generation.MockRepository
	LedgerRepo     *ledger.MockRepository
	CastRepo       *spellcast.MockRepository
	SpellRepo      *spell.MockRepository
	DepositRepo    *deposit.MockRepository
	WalletRepo     *walletlink.MockRepository
	PaymentRepo    *payment.MockRepository
	RedisRepo      *redisadapter.MockRedisRepository
	Producer       *rabbitmq.MockProducerRepository
	Backend        *out.MockBackendClient
	WebhookSender  *out.MockWebhookSender
	Facilitator    *out.MockFacilitatorClient
	Oracle         *out.MockPriceOracle
}

func captionToolFixture() *mmodel.Tool {
	return &mmodel.Tool{
		ID:           "caption",
		Name:         "Caption",
		Description:  "Short caption for an image.",
		Category:     "text",
		Visibility:   "public",
		DeliveryMode: cn.ModeImmediate,
		Backend:      "llm",
		Endpoint:     "captioner-v2",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_url": map[string]any{"type": "string"},
			},
			"required": []any{"image_url"},
		},
		Cost: mmodel.CostModel{
			Kind:      cn.CostStatic,
			AmountUSD: decimal.NewFromFloat(0.01),
			Tolerance: 0.25,
		},
		SoftTimeoutSeconds: 5,
		HardTimeoutSeconds: 10,
	}
}

func renderToolFixture() *mmodel.Tool {
	return &mmodel.Tool{
		ID:           "make-image",
		Name:         "Make Image",
		Description:  "Text-to-image generation.",
		Category:     "image",
		Visibility:   "public",
		DeliveryMode: cn.ModeWebhook,
		Backend:      "comfy",
		Endpoint:     "text2img",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{"type": "string"},
			},
			"required": []any{"prompt"},
		},
		Cost: mmodel.CostModel{
			Kind:      cn.CostStatic,
			AmountUSD: decimal.NewFromFloat(0.05),
			Tolerance: 0.25,
		},
		SoftTimeoutSeconds: 5,
		HardTimeoutSeconds: 10,
	}
}

func pollToolFixture() *mmodel.Tool {
	tool := renderToolFixture()
	tool.ID = "upscale"
	tool.Name = "Upscale"
	tool.DeliveryMode = cn.ModePoll

	return tool
}

func newFixtures(t *testing.T, ctrl *gomock.Controller, tools ...*mmodel.Tool) (*UseCase, *fixtures) {
	t.Helper()

	if len(tools) == 0 {
		tools = []*mmodel.Tool{captionToolFixture(), renderToolFixture(), pollToolFixture()}
	}

	reg, err := registry.NewFromTools(tools)
	require.NoError(t, err)

	f := &fixtures{
		GenerationRepo: generation.NewMockRepository(ctrl),
		LedgerRepo:     ledger.NewMockRepository(ctrl),
		CastRepo:       spellcast.NewMockRepository(ctrl),
		SpellRepo:      spell.NewMockRepository(ctrl),
		DepositRepo:    deposit.NewMockRepository(ctrl),
		WalletRepo:     walletlink.NewMockRepository(ctrl),
		PaymentRepo:    payment.NewMockRepository(ctrl),
		RedisRepo:      redisadapter.NewMockRedisRepository(ctrl),
		Producer:       rabbitmq.NewMockProducerRepository(ctrl),
		Backend:        out.NewMockBackendClient(ctrl),
		WebhookSender:  out.NewMockWebhookSender(ctrl),
		Facilitator:    out.NewMockFacilitatorClient(ctrl),
		Oracle:         out.NewMockPriceOracle(ctrl),
	}

	quoter := pricing.NewQuoter(pricing.RateTable{
		CreditUSD: decimal.NewFromFloat(0.001),
		GPUSecondUSD: map[string]decimal.Decimal{
			"a10g": decimal.NewFromFloat(0.0005),
		},
	})

	uc := &UseCase{
		GenerationRepo: f.GenerationRepo,
		LedgerRepo:     f.LedgerRepo,
		CastRepo:       f.CastRepo,
		SpellRepo:      f.SpellRepo,
		DepositRepo:    f.DepositRepo,
		WalletRepo:     f.WalletRepo,
		PaymentRepo:    f.PaymentRepo,
		Producer:       f.Producer,
		Registry:       reg,
		Quoter:         quoter,
		Backends: map[string]out.BackendClient{
			"llm":   f.Backend,
			"comfy": f.Backend,
		},
		WebhookSender:       f.WebhookSender,
		Facilitator:         f.Facilitator,
		Oracle:              f.Oracle,
		Slots:               NewResponseSlots(),
		EventsExchange:      "core.events",
		EventsKey:           "generation.terminal",
		OutboundExchange:    "core.outbound",
		CallbackBaseURL:     "https://core.test/v1/callbacks",
		PaymentReceiver:     "0x00000000000000000000000000000000000000aa",
		PaymentChain:        "base",
		PaymentAsset:        "USDC",
		BackendRetry:        mretry.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		DeliveryRetry:       mretry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		AssetDecimals:       map[string]int32{"USDC": 6, "ETH": 18},
		OwnerResolveTimeout: time.Hour,
	}

	return uc, f
}

// recordingStore wires the generation repo mock to an in-memory record so the
// guarded terminal transition behaves like the real store.
func recordingStore(f *fixtures) *mmodel.Generation {
	var stored mmodel.Generation

	f.GenerationRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, gen *mmodel.Generation) (*mmodel.Generation, error) {
			stored = *gen
			return gen, nil
		}).AnyTimes()

	f.GenerationRepo.EXPECT().StartRunning(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id any, jobID *string) error {
			stored.Status = cn.StatusRunning
			stored.BackendJobID = jobID
			now := time.Now()
			stored.StartedAt = &now
			return nil
		}).AnyTimes()

	f.GenerationRepo.EXPECT().FinishTerminal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id any, status string, outputs []mmodel.Output, genErr *mmodel.GenerationError, charged *int64, at time.Time) (bool, error) {
			if cn.IsTerminalStatus(stored.Status) {
				return false, nil
			}

			stored.Status = status
			stored.Outputs = outputs
			stored.Error = genErr
			stored.Cost.ChargedCredits = charged
			stored.CompletedAt = &at

			return true, nil
		}).AnyTimes()

	f.GenerationRepo.EXPECT().Find(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx any, id any) (*mmodel.Generation, error) {
			snapshot := stored
			return &snapshot, nil
		}).AnyTimes()

	return &stored
}
