package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fairness/internal/config"
)

// Store is a byte cache with per-key TTL. The abuse detector uses it to
// memoize rate-limit denials for the remainder of their window; a cache miss
// always falls through to the activity store.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the configured backend. Unknown backends degrade to Nop so a
// config typo can never make caching load-bearing.
func New(cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &RedisStore{Client: redis.NewClient(opt)}, nil
	default:
		return NopStore{}, nil
	}
}

// NopStore caches nothing.
type NopStore struct{}

func (NopStore) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (NopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (NopStore) Delete(ctx context.Context, key string) error { return nil }
