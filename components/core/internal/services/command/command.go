package command

import (
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/http/out"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/mongodb/spell"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/deposit"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/generation"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/ledger"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/payment"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/spellcast"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/toolusage"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/walletlink"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/rabbitmq"
	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/redis"
	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mretry"
)

// UseCase is a struct that aggregates the write-side operations of the core:
// execution engine, spell runner, notification dispatcher, ledger settlement,
// chain reconciliation and the payment gate.
type UseCase struct {
	GenerationRepo generation.Repository
	LedgerRepo     ledger.Repository
	CastRepo       spellcast.Repository
	SpellRepo      spell.Repository
	DepositRepo    deposit.Repository
	WalletRepo     walletlink.Repository
	PaymentRepo    payment.Repository
	UsageRepo      toolusage.Repository
	RedisRepo      redis.RedisRepository

	Producer rabbitmq.ProducerRepository

	Registry *registry.Registry
	Quoter   *pricing.Quoter

	// Backends maps backend binding names to their clients.
	Backends map[string]out.BackendClient

	WebhookSender out.WebhookSender
	Facilitator   out.FacilitatorClient
	Oracle        out.PriceOracle

	// Slots holds the open HTTP response slots of x402 executions.
	Slots *ResponseSlots

	// EventsExchange and EventsKey address the terminal-event queue binding.
	EventsExchange string
	EventsKey      string

	// OutboundExchange fans notifications out to the chat platform adapters,
	// routed by platform name.
	OutboundExchange string

	// CallbackBaseURL prefixes the inbound backend webhook endpoint handed to
	// Submit, e.g. https://core.example.com/v1/callbacks.
	CallbackBaseURL string

	// PaymentReceiver/Chain/Asset describe the x402 payment requirements.
	PaymentReceiver string
	PaymentChain    string
	PaymentAsset    string

	BackendRetry  mretry.Config
	DeliveryRetry mretry.Config

	// AssetDecimals maps configured asset symbols to their on-chain decimals.
	AssetDecimals map[string]int32

	// OwnerResolveTimeout bounds how long a confirmed deposit may wait for owner
	// resolution before the policy rejects it.
	OwnerResolveTimeout time.Duration
}

// backend resolves the client bound to a tool, or a BACKEND_ERROR.
func (uc *UseCase) backend(tool *mmodel.Tool) (out.BackendClient, error) {
	client, ok := uc.Backends[tool.Backend]
	if !ok {
		return nil, pkg.ValidateBusinessError(cn.ErrBackendError, "Backend")
	}

	return client, nil
}

// isRetriableBackendError gates the shared retry helper on transient upstream failures.
func isRetriableBackendError(err error) bool {
	return out.IsRetriableBackendError(err)
}

// classifyBackendError folds an upstream failure into the stable error taxonomy
// recorded on the generation record.
func classifyBackendError(err error) *mmodel.GenerationError {
	var upstream pkg.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Timeout {
			return &mmodel.GenerationError{
				Code:    cn.ErrBackendTimeout.Error(),
				Message: upstream.Message,
			}
		}

		return &mmodel.GenerationError{
			Code:    cn.ErrBackendError.Error(),
			Message: upstream.Message,
		}
	}

	if errors.Is(err, cn.ErrBackendTimeout) {
		return &mmodel.GenerationError{
			Code:    cn.ErrBackendTimeout.Error(),
			Message: "backend exceeded its declared deadline",
		}
	}

	return &mmodel.GenerationError{
		Code:    cn.ErrBackendError.Error(),
		Message: err.Error(),
	}
}
