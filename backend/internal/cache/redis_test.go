package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)

	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: server.Addr()}), ttl)
	t.Cleanup(func() {
		c.Close()
		server.Close()
	})
	return c, server
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte("value")))

	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), val)
	assert.NoError(t, c.Ping(ctx))
}

func TestRedisCacheExpires(t *testing.T) {
	c, server := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("value")))
	assert.True(t, server.Exists(keyPrefix+"k"))
	assert.Equal(t, time.Minute, server.TTL(keyPrefix+"k"))

	server.FastForward(2 * time.Minute)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, server := newTestCache(t, time.Minute)
	server.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}
