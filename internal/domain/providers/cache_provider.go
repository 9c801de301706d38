package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache, returning ErrCacheMiss when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// HTTPCacheKeyPrefix prefixes cached API responses. Keys look like
// "http:cache:<group>:<hash>" where group is the first path segment after /api.
const HTTPCacheKeyPrefix = "http:cache:"

// HTTPCachePattern matches every cached response of a route group
func HTTPCachePattern(group string) string {
	return HTTPCacheKeyPrefix + group + ":*"
}
