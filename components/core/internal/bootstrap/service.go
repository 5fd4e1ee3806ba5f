package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/ethereum"
	httpin "github.com/GrimoireLabs/grimoire/components/core/internal/adapters/http/in"
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
	redisadapter "github.com/GrimoireLabs/grimoire/components/core/internal/adapters/redis"
	"github.com/GrimoireLabs/grimoire/components/core/internal/pricing"
	"github.com/GrimoireLabs/grimoire/components/core/internal/registry"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/query"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/GrimoireLabs/grimoire/pkg/mmongo"
	"github.com/GrimoireLabs/grimoire/pkg/mpostgres"
	"github.com/GrimoireLabs/grimoire/pkg/mrabbitmq"
	"github.com/GrimoireLabs/grimoire/pkg/mredis"
	"github.com/GrimoireLabs/grimoire/pkg/mretry"
	"github.com/GrimoireLabs/grimoire/pkg/mzap"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// Service is the application glue where we put all top level components to be used.
type Service struct {
	*Server
	consumer  *MultiQueueConsumer
	poller    *PollWorker
	janitor   *JanitorWorker
	observers []*ChainObserverWorker
	logger    mlog.Logger
}

// Run starts the http server and every background worker under one launcher.
func (app *Service) Run() {
	opts := []pkg.LauncherOption{
		pkg.WithLogger(app.logger),
		pkg.RunApp("HTTP Service", app.Server),
		pkg.RunApp("Notification Dispatcher", app.consumer),
		pkg.RunApp("Poll Sweeper", app.poller),
		pkg.RunApp("Reserve Janitor", app.janitor),
	}

	for _, observer := range app.observers {
		opts = append(opts, pkg.RunApp("Chain Observer "+observer.Chain.Name, observer))
	}

	pkg.NewLauncher(opts...).Run()
}

// InitServers initializes the core service from environment configuration.
func InitServers() (*Service, error) {
	cfg := &Config{}

	if err := pkg.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment variables: %w", err)
	}

	logger, err := mzap.InitializeLogger(cfg.EnvName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer := otel.Tracer(ApplicationName)

	logger.Infof("Starting %s version %s (%s)", ApplicationName, cfg.Version, cfg.EnvName)

	ctx := pkg.ContextWithLogger(pkg.ContextWithTracer(context.Background(), tracer), logger)

	// Postgres
	primarySource := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PrimaryDBUser, cfg.PrimaryDBPassword, cfg.PrimaryDBHost, cfg.PrimaryDBPort, cfg.PrimaryDBName)
	replicaSource := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.ReplicaDBUser, cfg.ReplicaDBPassword, cfg.ReplicaDBHost, cfg.ReplicaDBPort, cfg.ReplicaDBName)

	migrationsPath := cfg.MigrationsPath
	if migrationsPath == "" {
		migrationsPath = "components/core/migrations"
	}

	postgresConnection := &mpostgres.PostgresConnection{
		ConnectionStringPrimary: primarySource,
		ConnectionStringReplica: replicaSource,
		PrimaryDBName:           cfg.PrimaryDBName,
		ReplicaDBName:           cfg.ReplicaDBName,
		MigrationsPath:          migrationsPath,
		Logger:                  logger,
	}

	// MongoDB
	mongoConnection := &mmongo.MongoConnection{
		ConnectionStringSource: cfg.MongoURI,
		Database:               cfg.MongoDBName,
		Logger:                 logger,
	}

	// RabbitMQ
	rabbitConnection := &mrabbitmq.RabbitMQConnection{
		ConnectionStringSource: cfg.RabbitURI,
		Logger:                 logger,
	}

	// Redis
	redisConnection := &mredis.RedisConnection{
		ConnectionStringSource: cfg.RedisURI,
		Logger:                 logger,
	}

	generationRepo := generation.NewGenerationPostgreSQLRepository(postgresConnection)
	ledgerRepo := ledger.NewLedgerPostgreSQLRepository(postgresConnection)
	castRepo := spellcast.NewSpellCastPostgreSQLRepository(postgresConnection)
	depositRepo := deposit.NewDepositPostgreSQLRepository(postgresConnection)
	walletRepo := walletlink.NewWalletLinkPostgreSQLRepository(postgresConnection)
	paymentRepo := payment.NewPaymentPostgreSQLRepository(postgresConnection)
	usageRepo := toolusage.NewToolUsagePostgreSQLRepository(postgresConnection)
	spellRepo := spell.NewSpellMongoDBRepository(mongoConnection)
	redisRepo := redisadapter.NewConsumerRedis(redisConnection)

	producer := rabbitmq.NewProducerRabbitMQ(rabbitConnection)
	consumerRoutes := rabbitmq.NewConsumerRoutes(rabbitConnection, int(cfg.DispatchWorkers), logger, tracer)

	// Backends
	comfyClient := out.NewComfyClient(cfg.ComfyAPIURL, cfg.ComfyAPIKey, 120*time.Second)
	llmClient := out.NewLLMClient(cfg.LLMAPIURL, cfg.LLMAPIKey, 120*time.Second)

	backends := map[string]out.BackendClient{
		"comfy": comfyClient,
		"llm":   llmClient,
	}

	// Tool registry
	toolRegistry, err := registry.New(ctx, &registry.CompositeLoader{
		StaticPath: cfg.ToolsPath,
		Remote:     comfyClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tool registry: %w", err)
	}

	// Pricing
	creditUSD := decimal.NewFromFloat(0.001)
	if cfg.CreditUSDRate != "" {
		if parsed, err := decimal.NewFromString(cfg.CreditUSDRate); err == nil {
			creditUSD = parsed
		}
	}

	gpuRates := make(map[string]decimal.Decimal)
	for class, rate := range parsePairs(cfg.GPURates) {
		if parsed, err := decimal.NewFromString(rate); err == nil {
			gpuRates[class] = parsed
		}
	}

	quoter := pricing.NewQuoter(pricing.RateTable{
		CreditUSD:    creditUSD,
		GPUSecondUSD: gpuRates,
	})

	var oracle out.PriceOracle = out.NewPriceOracle(cfg.PriceOracleURL, 15*time.Second)
	if cfg.PriceOracleURL == "" {
		oracle = &out.StaticPriceOracle{Rates: map[string]decimal.Decimal{
			"USDC": decimal.NewFromInt(1),
			"USDT": decimal.NewFromInt(1),
		}}
	}

	backendRetry := mretry.DefaultConfig()
	if cfg.BackendMaxRetries > 0 {
		backendRetry = backendRetry.WithMaxRetries(int(cfg.BackendMaxRetries))
	} else {
		backendRetry = backendRetry.WithMaxRetries(2).WithMaxBackoff(10 * time.Second)
	}

	deliveryRetry := mretry.DefaultDeliveryConfig()
	if cfg.DeliveryMaxRetries > 0 {
		deliveryRetry = deliveryRetry.WithMaxRetries(int(cfg.DeliveryMaxRetries))
	}

	commandUseCase := &command.UseCase{
		GenerationRepo:      generationRepo,
		LedgerRepo:          ledgerRepo,
		CastRepo:            castRepo,
		SpellRepo:           spellRepo,
		DepositRepo:         depositRepo,
		WalletRepo:          walletRepo,
		PaymentRepo:         paymentRepo,
		UsageRepo:           usageRepo,
		RedisRepo:           redisRepo,
		Producer:            producer,
		Registry:            toolRegistry,
		Quoter:              quoter,
		Backends:            backends,
		WebhookSender:       out.NewWebhookSender(15 * time.Second),
		Facilitator:         out.NewFacilitatorClient(cfg.FacilitatorURL, 15*time.Second),
		Oracle:              oracle,
		Slots:               command.NewResponseSlots(),
		EventsExchange:      cfg.EventsExchange,
		EventsKey:           cfg.EventsKey,
		OutboundExchange:    cfg.OutboundExchange,
		CallbackBaseURL:     strings.TrimSuffix(cfg.CallbackBase, "/"),
		PaymentReceiver:     cfg.PaymentReceiver,
		PaymentChain:        cfg.PaymentChain,
		PaymentAsset:        cfg.PaymentAsset,
		BackendRetry:        backendRetry,
		DeliveryRetry:       deliveryRetry,
		AssetDecimals:       cfg.AssetDecimals(),
		OwnerResolveTimeout: durationOrDefault(cfg.OwnerTimeoutS, 24*time.Hour),
	}

	queryUseCase := &query.UseCase{
		GenerationRepo: generationRepo,
		LedgerRepo:     ledgerRepo,
		CastRepo:       castRepo,
		SpellRepo:      spellRepo,
		UsageRepo:      usageRepo,
		RedisRepo:      redisRepo,
		Registry:       toolRegistry,
		Quoter:         quoter,
	}

	// Front door
	apiKeys := make(map[string]uuid.UUID)
	for key, owner := range parsePairs(cfg.APIKeys) {
		if userID, err := uuid.Parse(owner); err == nil {
			apiKeys[key] = userID
		}
	}

	redisClient, err := redisConnection.GetClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	generationHandler := &httpin.GenerationHandler{
		Command:    commandUseCase,
		Query:      queryUseCase,
		Production: strings.EqualFold(cfg.EnvName, "production"),
	}
	spellHandler := &httpin.SpellHandler{Command: commandUseCase, Query: queryUseCase}
	toolHandler := &httpin.ToolHandler{Query: queryUseCase, Registry: toolRegistry}
	walletHandler := &httpin.WalletHandler{Command: commandUseCase, Query: queryUseCase}
	paymentHandler := &httpin.PaymentHandler{Command: commandUseCase}
	backendHookHandler := &httpin.BackendHookHandler{
		Command:       commandUseCase,
		SigningSecret: cfg.BackendHmac,
	}

	app := httpin.NewRouter(httpin.RouterConfig{
		Logger: logger,
		Auth: httpin.AuthConfig{
			APIKeys:       apiKeys,
			SessionSecret: cfg.WebSessionSecret,
		},
		RateLimitMax:    int(cfg.RateLimitMax),
		RateLimitWindow: durationOrDefault(cfg.RateLimitWindowS, time.Minute),
		RedisClient:     redisClient,
		Consumer:        consumerRoutes,
		EventsQueue:     cfg.EventsQueue,
		DispatchHigh:    int(cfg.DispatchHighWater),
		Version:         cfg.Version,
	}, generationHandler, spellHandler, toolHandler, walletHandler, paymentHandler, backendHookHandler)

	server := NewServer(cfg, app, logger, tracer)
	consumer := NewMultiQueueConsumer(consumerRoutes, commandUseCase, cfg.EventsQueue)
	poller := NewPollWorker(commandUseCase, durationOrDefault(cfg.PollTickS, 5*time.Second), logger, tracer)
	janitor := NewJanitorWorker(commandUseCase,
		durationOrDefault(cfg.JanitorIntervalS, time.Minute),
		durationOrDefault(cfg.ReserveCutoffS, 10*time.Minute), logger, tracer)

	var observers []*ChainObserverWorker

	for _, chain := range cfg.ChainConfigs() {
		reader, err := ethereum.NewClient(chain)
		if err != nil {
			logger.Errorf("Failed to dial chain %s, skipping: %v", chain.Name, err)
			continue
		}

		observers = append(observers, NewChainObserverWorker(commandUseCase, reader, chain,
			durationOrDefault(cfg.ObserverIntervalS, 15*time.Second), logger, tracer))
	}

	return &Service{
		Server:    server,
		consumer:  consumer,
		poller:    poller,
		janitor:   janitor,
		observers: observers,
		logger:    logger,
	}, nil
}

func durationOrDefault(seconds int64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}
