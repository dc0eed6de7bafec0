// Package cache stores encoded analysis results keyed by their request and
// the rules snapshot that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/iwvelando/brrrr-analyzer/internal/config"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cache is a byte store with a per-entry expiry. A miss is reported by ok
// being false, never by an error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key derives a cache key from an operation name, a rules version and the
// request payload. Equal requests under equal rules share a key.
func Key(op, rulesVersion string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrapf(err, "failed to encode %s cache key", op)
	}
	sum := sha256.Sum256(data)
	return "brrrr:" + op + ":" + rulesVersion + ":" + hex.EncodeToString(sum[:16]), nil
}

// New builds the cache selected by conf. The none driver yields a cache
// that never stores anything.
func New(logger *zap.Logger, conf config.CacheConfig) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch conf.Driver {
	case config.CacheMemory:
		return NewMemory(conf.TTL), nil
	case config.CacheRedis:
		return NewRedis(logger, conf.RedisAddr, conf.TTL), nil
	case config.CacheNone, "":
		return Nop{}, nil
	}
	return nil, eris.Errorf("unknown cache driver: %s", conf.Driver)
}

// Nop is a cache that always misses.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error { return nil }
func (Nop) Close() error { return nil }
