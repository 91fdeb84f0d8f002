package cache

import (
	"context"
	"time"
)

// Cache stores serialized retrieval results. Keys embed the corpus revision,
// so entries written against an older corpus simply stop being asked for;
// nothing needs explicit invalidation on ingest.
type Cache interface {
	// Get retrieves a cached payload by key. Returns nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a payload with TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}
