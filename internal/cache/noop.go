package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no Redis is configured - all operations succeed but no actual
// caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns nil (cache miss)
func (c *NoOpCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

// Set does nothing and always succeeds
func (c *NoOpCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
