package in

import (
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/rabbitmq"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RouterConfig carries everything the front door needs beyond its handlers.
type RouterConfig struct {
	Logger mlog.Logger

	Auth AuthConfig

	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisClient     *redis.Client

	Consumer     rabbitmq.ConsumerRepository
	EventsQueue  string
	DispatchHigh int
	Version      string
}

// NewRouter registers the REST surface of the core.
func NewRouter(cfg RouterConfig, gh *GenerationHandler, sh *SpellHandler, th *ToolHandler, wh *WalletHandler, ph *PaymentHandler, bh *BackendHookHandler) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	f.Use(http.WithCorrelationID())
	f.Use(http.WithRecover(cfg.Logger))
	f.Use(http.WithCORS())
	f.Use(http.WithLogging(cfg.Logger))

	auth := WithAuth(cfg.Auth)
	rateLimit := http.NewRateLimiter(http.RateLimitConfig{
		Max:         cfg.RateLimitMax,
		Expiration:  cfg.RateLimitWindow,
		RedisClient: cfg.RedisClient,
		KeyFunc:     IdentityKey,
	})
	admission := WithAdmissionControl(cfg.Consumer, cfg.EventsQueue, cfg.DispatchHigh)

	// Generations
	f.Post("/v1/generations/execute", auth, rateLimit, admission, http.WithBody(new(ExecuteGenerationInput), gh.ExecuteGeneration))
	f.Get("/v1/generations/:id", auth, http.ParseUUIDPathParameters, gh.GetGenerationByID)
	f.Post("/v1/generations/status", auth, rateLimit, http.WithBody(new(BatchStatusInput), gh.GetBatchStatus))
	f.Get("/v1/generations", auth, gh.GetAllGenerations)
	f.Post("/v1/generations/:id/cancel", auth, http.ParseUUIDPathParameters, gh.CancelGeneration)
	f.Post("/v1/generations/:id/redeliver", auth, http.ParseUUIDPathParameters, gh.RedeliverGeneration)

	// Spells
	f.Post("/v1/spells", auth, rateLimit, http.WithBody(new(command.CreateSpellInput), sh.CreateSpell))
	f.Post("/v1/spells/:id/publish", auth, http.ParseUUIDPathParameters, sh.PublishSpell)
	f.Get("/v1/spells", auth, sh.GetAllSpells)
	f.Post("/v1/spells/cast", auth, rateLimit, admission, http.WithBody(new(CastSpellInput), sh.CastSpell))
	f.Get("/v1/spells/casts/:id", auth, http.ParseUUIDPathParameters, sh.GetCastByID)

	// Tools
	f.Get("/v1/tools", th.GetAllTools)
	f.Get("/v1/tools/:id", th.GetToolByID)
	f.Post("/v1/tools/quote", auth, http.WithBody(new(QuoteToolInput), th.QuoteTool))
	f.Post("/v1/admin/tools/reload", auth, th.ReloadTools)

	// Wallets and balances
	f.Post("/v1/wallets/link/initiate", auth, rateLimit, http.WithBody(new(InitiateLinkInput), wh.InitiateLink))
	f.Get("/v1/wallets/link/status/:request_id", auth, http.ParseUUIDPathParameters, wh.GetLinkStatus)
	f.Get("/v1/balance", auth, wh.GetBalance)
	f.Get("/v1/ledger/entries", auth, wh.GetLedgerEntries)

	// Payment-gated one-shot execution: authorization is the payment itself.
	f.Post("/v1/x402/execute", rateLimit, admission, http.WithBody(new(X402ExecuteInput), ph.Execute))

	// Inbound backend callbacks, HMAC-authenticated.
	f.Post("/v1/callbacks/:generation_id", bh.HandleCallback)

	// Health and version
	f.Get("/health", http.Ping)
	f.Get("/version", http.Version(cfg.Version))

	return f
}
