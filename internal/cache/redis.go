package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Redis stores entries in a Redis server shared between API instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a cache on the server at addr. No connection is made
// until the first call.
func NewRedis(logger *zap.Logger, addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{
		client: rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "failed to read cache key %s", key)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return eris.Wrapf(err, "failed to write cache key %s", key)
	}
	r.logger.Debug("cached result",
		zap.String("op", "cache.Redis.Set"),
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
