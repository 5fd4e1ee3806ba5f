package mredis

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/redis/go-redis/v9"
)

// RedisConnection is a hub which deal with redis connections.
type RedisConnection struct {
	ConnectionStringSource string
	Client                 *redis.Client
	Connected              bool
	Logger                 mlog.Logger
}

// Connect keeps a singleton connection with redis.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	rc.Logger.Info("Connecting to redis...")

	opts, err := redis.ParseURL(rc.ConnectionStringSource)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(opts)

	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		rc.Logger.Errorf("RedisConnection.Ping %v", err)

		return err
	}

	rc.Logger.Info("Connected to redis ✅ ")

	rc.Connected = true

	rc.Client = rdb

	return nil
}

// GetClient returns a pointer to the redis client, initializing it if necessary.
func (rc *RedisConnection) GetClient(ctx context.Context) (*redis.Client, error) {
	if rc.Client == nil {
		err := rc.Connect(ctx)
		if err != nil {
			rc.Logger.Errorf("ERRCONECT %s", err)

			return nil, err
		}
	}

	return rc.Client, nil
}
