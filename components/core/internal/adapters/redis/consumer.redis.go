package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mredis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisRepository provides an interface for the component's redis-backed state:
// generation projection cache, magic-amount holds and wallet-link requests.
//
//go:generate mockgen --destination=consumer.redis.mock.go --package=redis . RedisRepository
type RedisRepository interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CacheProjection write-behinds the API projection of a generation.
	CacheProjection(ctx context.Context, projection *mmodel.GenerationProjection, ttl time.Duration) error

	// GetProjection returns a cached projection, nil on miss.
	GetProjection(ctx context.Context, id uuid.UUID) (*mmodel.GenerationProjection, error)

	// InvalidateProjection drops a cached projection after a terminal transition.
	InvalidateProjection(ctx context.Context, id uuid.UUID) error

	// HoldMagicAmount reserves a unique magic amount for a link request. It reports
	// false when the amount is already held by another request.
	HoldMagicAmount(ctx context.Context, chain, asset, amount string, requestID uuid.UUID, ttl time.Duration) (bool, error)

	// LookupMagicAmount resolves the link request holding an amount, Nil on miss.
	LookupMagicAmount(ctx context.Context, chain, asset, amount string) (uuid.UUID, error)

	// SaveLinkRequest stores a wallet-link request with its TTL.
	SaveLinkRequest(ctx context.Context, req *mmodel.LinkRequest, ttl time.Duration) error

	// GetLinkRequest returns a stored link request, nil when expired or unknown.
	GetLinkRequest(ctx context.Context, id uuid.UUID) (*mmodel.LinkRequest, error)
}

// RedisConsumerRepository is the go-redis implementation of RedisRepository.
type RedisConsumerRepository struct {
	conn *mredis.RedisConnection
}

// NewConsumerRedis returns a new instance of RedisConsumerRepository using the given redis connection.
func NewConsumerRedis(rc *mredis.RedisConnection) *RedisConsumerRepository {
	r := &RedisConsumerRepository{
		conn: rc,
	}

	_, err := r.conn.GetClient(context.Background())
	if err != nil {
		panic("Failed to connect redis")
	}

	return r
}

// Set stores a value under key with ttl.
func (rr *RedisConsumerRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.set")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get redis client", err)

		return err
	}

	return rds.Set(ctx, key, value, ttl).Err()
}

// Get returns the value under key, empty string on miss.
func (rr *RedisConsumerRepository) Get(ctx context.Context, key string) (string, error) {
	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		return "", err
	}

	value, err := rds.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}

	return value, err
}

// Del removes a key.
func (rr *RedisConsumerRepository) Del(ctx context.Context, key string) error {
	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		return err
	}

	return rds.Del(ctx, key).Err()
}

// Incr increments the counter under key.
func (rr *RedisConsumerRepository) Incr(ctx context.Context, key string) (int64, error) {
	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		return 0, err
	}

	return rds.Incr(ctx, key).Result()
}

// SetNX stores value only when key is absent.
func (rr *RedisConsumerRepository) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		return false, err
	}

	return rds.SetNX(ctx, key, value, ttl).Result()
}

func projectionKey(id uuid.UUID) string {
	return "generation:projection:" + id.String()
}

// cachedProjection is the msgpack wire shape of a projection. Decimal amounts ride
// as strings; msgpack reflection cannot see their unexported digits.
type cachedProjection struct {
	ID              string                  `msgpack:"id"`
	Status          string                  `msgpack:"status"`
	ToolID          string                  `msgpack:"tool_id"`
	Outputs         []mmodel.Output         `msgpack:"outputs,omitempty"`
	Error           *mmodel.GenerationError `msgpack:"error,omitempty"`
	CostUSD         string                  `msgpack:"cost_usd"`
	DeliveryOutcome string                  `msgpack:"delivery_outcome,omitempty"`
	CreatedAt       time.Time               `msgpack:"created_at"`
	CompletedAt     *time.Time              `msgpack:"completed_at,omitempty"`
	CheckAfterMs    int64                   `msgpack:"check_after_ms,omitempty"`
}

// CacheProjection write-behinds the API projection of a generation, msgpack encoded.
func (rr *RedisConsumerRepository) CacheProjection(ctx context.Context, projection *mmodel.GenerationProjection, ttl time.Duration) error {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "redis.cache_projection")
	defer span.End()

	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get redis client", err)

		return err
	}

	raw, err := msgpack.Marshal(&cachedProjection{
		ID:              projection.ID.String(),
		Status:          projection.Status,
		ToolID:          projection.ToolID,
		Outputs:         projection.Outputs,
		Error:           projection.Error,
		CostUSD:         projection.CostUSD.String(),
		DeliveryOutcome: projection.DeliveryOutcome,
		CreatedAt:       projection.CreatedAt,
		CompletedAt:     projection.CompletedAt,
		CheckAfterMs:    projection.CheckAfterMs,
	})
	if err != nil {
		return err
	}

	return rds.Set(ctx, projectionKey(projection.ID), raw, ttl).Err()
}

// GetProjection returns a cached projection, nil on miss.
func (rr *RedisConsumerRepository) GetProjection(ctx context.Context, id uuid.UUID) (*mmodel.GenerationProjection, error) {
	rds, err := rr.conn.GetClient(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := rds.Get(ctx, projectionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	cached := &cachedProjection{}
	if err := msgpack.Unmarshal(raw, cached); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(cached.ID)
	if err != nil {
		return nil, err
	}

	costUSD, err := decimal.NewFromString(cached.CostUSD)
	if err != nil {
		return nil, err
	}

	return &mmodel.GenerationProjection{
		ID:              parsedID,
		Status:          cached.Status,
		ToolID:          cached.ToolID,
		Outputs:         cached.Outputs,
		Error:           cached.Error,
		CostUSD:         costUSD,
		DeliveryOutcome: cached.DeliveryOutcome,
		CreatedAt:       cached.CreatedAt,
		CompletedAt:     cached.CompletedAt,
		CheckAfterMs:    cached.CheckAfterMs,
	}, nil
}

// InvalidateProjection drops a cached projection after a terminal transition.
func (rr *RedisConsumerRepository) InvalidateProjection(ctx context.Context, id uuid.UUID) error {
	return rr.Del(ctx, projectionKey(id))
}

func magicAmountKey(chain, asset, amount string) string {
	return "walletlink:magic:" + chain + ":" + asset + ":" + amount
}

func linkRequestKey(id uuid.UUID) string {
	return "walletlink:request:" + id.String()
}

// HoldMagicAmount reserves a unique magic amount for a link request.
func (rr *RedisConsumerRepository) HoldMagicAmount(ctx context.Context, chain, asset, amount string, requestID uuid.UUID, ttl time.Duration) (bool, error) {
	return rr.SetNX(ctx, magicAmountKey(chain, asset, amount), requestID.String(), ttl)
}

// LookupMagicAmount resolves the link request holding an amount, uuid.Nil on miss.
func (rr *RedisConsumerRepository) LookupMagicAmount(ctx context.Context, chain, asset, amount string) (uuid.UUID, error) {
	value, err := rr.Get(ctx, magicAmountKey(chain, asset, amount))
	if err != nil || value == "" {
		return uuid.Nil, err
	}

	return uuid.Parse(value)
}

// SaveLinkRequest stores a wallet-link request with its TTL.
func (rr *RedisConsumerRepository) SaveLinkRequest(ctx context.Context, req *mmodel.LinkRequest, ttl time.Duration) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return rr.Set(ctx, linkRequestKey(req.ID), string(raw), ttl)
}

// GetLinkRequest returns a stored link request, nil when expired or unknown.
func (rr *RedisConsumerRepository) GetLinkRequest(ctx context.Context, id uuid.UUID) (*mmodel.LinkRequest, error) {
	value, err := rr.Get(ctx, linkRequestKey(id))
	if err != nil || value == "" {
		return nil, err
	}

	req := &mmodel.LinkRequest{}
	if err := json.Unmarshal([]byte(value), req); err != nil {
		return nil, err
	}

	return req, nil
}
