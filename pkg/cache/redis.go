package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/relevance-finder/internal/relevance"
)

// RedisCache stores page verdicts in Redis as "true"/"false" strings under
// "<namespace>:<fingerprint>".
type RedisCache struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

var _ relevance.Cache = (*RedisCache)(nil)

// NewRedisCache wraps client. A ttl of 0 keeps entries until evicted.
func NewRedisCache(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *RedisCache) key(fp relevance.Fingerprint) string {
	if c.namespace == "" {
		return fp.String()
	}
	return c.namespace + ":" + fp.String()
}

func (c *RedisCache) Exists(ctx context.Context, fp relevance.Fingerprint) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check verdict: %w", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Get(ctx context.Context, fp relevance.Fingerprint) (bool, bool, error) {
	raw, err := c.client.Get(ctx, c.key(fp)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get verdict: %w", err)
	}
	verdict, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("corrupt verdict %q: %w", raw, err)
	}
	return verdict, true, nil
}

func (c *RedisCache) Set(ctx context.Context, fp relevance.Fingerprint, verdict bool) error {
	if err := c.client.Set(ctx, c.key(fp), strconv.FormatBool(verdict), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set verdict: %w", err)
	}
	return nil
}
