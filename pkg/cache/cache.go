package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache. Values are opaque payloads (callers encode
// to JSON) so the local and redis backends stay interchangeable.
type Cache interface {
	// Get returns the cached payload for key, and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a payload with the given expiration; 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Clear drops every entry.
	Clear(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// Config selects and configures the cache backend.
type Config struct {
	// Type is "local" or "redis".
	Type string `env:"CACHE_TYPE"`

	Redis RedisConfig
	Local LocalConfig
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
	PoolSize int    `env:"REDIS_POOL_SIZE"`
}

type LocalConfig struct {
	DefaultExpiration time.Duration `env:"LOCAL_CACHE_DEFAULT_EXPIRATION"`
	CleanupInterval   time.Duration `env:"LOCAL_CACHE_CLEANUP_INTERVAL"`
}
