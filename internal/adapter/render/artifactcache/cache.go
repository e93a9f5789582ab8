// Package artifactcache caches rendered report bytes in Redis so repeated
// downloads of the same plan skip the PDF engine.
package artifactcache

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// Cache implements domain.ArtifactCache on Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs a Cache from a Redis URL, e.g. redis://localhost:6379/0.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("op=artifactcache.new: %w", err)
	}
	return &Cache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached bytes for key, or domain.ErrNotFound on a miss.
func (c *Cache) Get(ctx domain.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("op=artifactcache.get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=artifactcache.get: %w", err)
	}
	return b, nil
}

// Put stores the bytes for key with the configured TTL.
func (c *Cache) Put(ctx domain.Context, key string, doc []byte) error {
	if err := c.rdb.Set(ctx, key, doc, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=artifactcache.put: %w", err)
	}
	return nil
}

// Ping checks connectivity, used by readiness probes.
func (c *Cache) Ping(ctx domain.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (c *Cache) Close() error { return c.rdb.Close() }
