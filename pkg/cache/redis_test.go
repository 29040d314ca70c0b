package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/internal/relevance"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "relevance", ttl), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t, 0)
	ctx := context.Background()
	fp := relevance.NewFingerprint(3, "photosynthesis in plants", relevance.DefaultFingerprintPrefix)

	ok, err := c.Exists(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := c.Get(ctx, fp)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, fp, true))

	ok, err = c.Exists(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok)

	verdict, found, err := c.Get(ctx, fp)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, verdict)

	raw, err := mr.Get("relevance:" + fp.String())
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()
	fp := relevance.NewFingerprint(1, "x", relevance.DefaultFingerprintPrefix)

	require.NoError(t, c.Set(ctx, fp, false))
	mr.FastForward(2 * time.Hour)

	ok, err := c.Exists(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	c, mr := newTestCache(t, 0)
	fp := relevance.NewFingerprint(1, "x", relevance.DefaultFingerprintPrefix)
	require.NoError(t, mr.Set("relevance:"+fp.String(), "maybe"))

	_, _, err := c.Get(context.Background(), fp)
	assert.Error(t, err)
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := newTestCache(t, 0)
	mr.Close()
	fp := relevance.NewFingerprint(1, "x", relevance.DefaultFingerprintPrefix)

	_, err := c.Exists(context.Background(), fp)
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), fp, true))
}
