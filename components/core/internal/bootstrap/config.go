package bootstrap

import (
	"strconv"
	"strings"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ApplicationName is the component identity used in logs.
const ApplicationName = "core"

// Config is the top level configuration struct for the entire application.
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`
	Version  string `env:"VERSION"`

	ServerAddress string `env:"SERVER_ADDRESS"`

	// Postgres
	PrimaryDBHost     string `env:"DB_HOST"`
	PrimaryDBUser     string `env:"DB_USER"`
	PrimaryDBPassword string `env:"DB_PASSWORD"`
	PrimaryDBName     string `env:"DB_NAME"`
	PrimaryDBPort     string `env:"DB_PORT"`
	ReplicaDBHost     string `env:"DB_REPLICA_HOST"`
	ReplicaDBUser     string `env:"DB_REPLICA_USER"`
	ReplicaDBPassword string `env:"DB_REPLICA_PASSWORD"`
	ReplicaDBName     string `env:"DB_REPLICA_NAME"`
	ReplicaDBPort     string `env:"DB_REPLICA_PORT"`
	MigrationsPath    string `env:"DB_MIGRATIONS_PATH"`

	// MongoDB
	MongoURI    string `env:"MONGO_URI"`
	MongoDBName string `env:"MONGO_NAME"`

	// RabbitMQ
	RabbitURI        string `env:"RABBITMQ_URI"`
	EventsExchange   string `env:"RABBITMQ_EVENTS_EXCHANGE"`
	EventsKey        string `env:"RABBITMQ_EVENTS_KEY"`
	EventsQueue      string `env:"RABBITMQ_EVENTS_QUEUE"`
	OutboundExchange string `env:"RABBITMQ_OUTBOUND_EXCHANGE"`

	// Redis
	RedisURI string `env:"REDIS_URI"`

	// Tool registry
	ToolsPath string `env:"TOOLS_PATH"`

	// Backends
	ComfyAPIURL  string `env:"COMFY_API_URL"`
	ComfyAPIKey  string `env:"COMFY_API_KEY"`
	LLMAPIURL    string `env:"LLM_API_URL"`
	LLMAPIKey    string `env:"LLM_API_KEY"`
	BackendHmac  string `env:"BACKEND_WEBHOOK_SECRET"`
	CallbackBase string `env:"CALLBACK_BASE_URL"`

	// Payment gate
	FacilitatorURL  string `env:"FACILITATOR_URL"`
	PaymentReceiver string `env:"PAYMENT_RECEIVER_ADDRESS"`
	PaymentChain    string `env:"PAYMENT_CHAIN"`
	PaymentAsset    string `env:"PAYMENT_ASSET"`

	// Pricing
	PriceOracleURL string `env:"PRICE_ORACLE_URL"`
	CreditUSDRate  string `env:"CREDIT_USD_RATE"`
	GPURates       string `env:"GPU_SECOND_USD_RATES"`

	// Chains: name=value comma lists, e.g. "base=https://mainnet.base.org".
	ChainRPCURLs       string `env:"CHAIN_RPC_URLS"`
	ChainContracts     string `env:"LEDGER_CONTRACT_ADDRESSES"`
	ChainConfirmations string `env:"CHAIN_CONFIRMATIONS"`

	// Assets: "0xaddr=SYMBOL:decimals" semicolon list, zero address = native.
	ChainAssets string `env:"CHAIN_ASSETS"`

	// Auth: "key=uuid" comma list plus the web session secret.
	APIKeys          string `env:"API_KEYS"`
	WebSessionSecret string `env:"WEB_SESSION_SECRET"`

	// Rate limiting and admission control
	RateLimitMax      int64 `env:"RATE_LIMIT_MAX"`
	RateLimitWindowS  int64 `env:"RATE_LIMIT_WINDOW_SECONDS"`
	DispatchWorkers   int64 `env:"DISPATCH_WORKERS"`
	DispatchHighWater int64 `env:"DISPATCH_HIGH_WATER"`

	// Worker cadence (seconds)
	PollTickS         int64 `env:"POLL_TICK_SECONDS"`
	JanitorIntervalS  int64 `env:"JANITOR_INTERVAL_SECONDS"`
	ReserveCutoffS    int64 `env:"RESERVE_CUTOFF_SECONDS"`
	ObserverIntervalS int64 `env:"OBSERVER_POLL_INTERVAL_SECONDS"`
	OwnerTimeoutS     int64 `env:"DEPOSIT_OWNER_TIMEOUT_SECONDS"`

	// Delivery retry schedule
	DeliveryMaxRetries int64 `env:"DELIVERY_MAX_RETRIES"`
	BackendMaxRetries  int64 `env:"BACKEND_MAX_RETRIES"`
}

// ChainConfigs assembles the watched chain set from the name=value lists.
func (cfg *Config) ChainConfigs() []ethereum.ChainConfig {
	rpcs := parsePairs(cfg.ChainRPCURLs)
	contracts := parsePairs(cfg.ChainContracts)
	confirmations := parsePairs(cfg.ChainConfirmations)
	assets := cfg.AssetConfigs()

	chains := make([]ethereum.ChainConfig, 0, len(rpcs))

	for name, rpc := range rpcs {
		depth := uint64(5)
		if raw, ok := confirmations[name]; ok {
			if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
				depth = parsed
			}
		}

		chains = append(chains, ethereum.ChainConfig{
			Name:          name,
			RPCURL:        rpc,
			Contract:      ethcommon.HexToAddress(contracts[name]),
			Confirmations: depth,
			Assets:        assets,
		})
	}

	return chains
}

// AssetConfigs parses the accepted asset table.
func (cfg *Config) AssetConfigs() map[string]ethereum.AssetConfig {
	assets := make(map[string]ethereum.AssetConfig)

	for _, entry := range strings.Split(cfg.ChainAssets, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}

		spec := strings.SplitN(parts[1], ":", 2)

		decimals := int64(18)
		if len(spec) == 2 {
			if parsed, err := strconv.ParseInt(spec[1], 10, 32); err == nil {
				decimals = parsed
			}
		}

		assets[strings.ToLower(parts[0])] = ethereum.AssetConfig{
			Symbol:   spec[0],
			Decimals: int32(decimals),
		}
	}

	return assets
}

// AssetDecimals projects the asset table to symbol -> decimals.
func (cfg *Config) AssetDecimals() map[string]int32 {
	decimals := make(map[string]int32)

	for _, asset := range cfg.AssetConfigs() {
		decimals[asset.Symbol] = asset.Decimals
	}

	return decimals
}

func parsePairs(raw string) map[string]string {
	pairs := make(map[string]string)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}

		pairs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return pairs
}
