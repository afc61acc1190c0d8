package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2, time.Minute)
	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", "3", 0)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestLRUExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := newLRU(4, time.Second, func() time.Time { return now })
	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, c.items)
}

func TestLRUPurge(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(4, time.Minute)
	c.Set(ctx, "k", "v", 0)
	c.Purge(ctx)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := NewRedis(context.Background(), "redis://"+mr.Addr(), "test:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestRedisCacheRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	mr, rc := newTestRedis(t)

	rc.Set(ctx, "answer", "42", 10*time.Second)
	v, ok := rc.Get(ctx, "answer")
	require.True(t, ok)
	assert.Equal(t, "42", v)
	assert.True(t, mr.Exists("test:answer"))

	mr.FastForward(11 * time.Second)
	_, ok = rc.Get(ctx, "answer")
	assert.False(t, ok)
}

func TestRedisPurgeKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr, rc := newTestRedis(t)
	require.NoError(t, mr.Set("other:key", "x"))

	rc.Set(ctx, "a", "1", 0)
	rc.Set(ctx, "b", "2", 0)
	rc.Purge(ctx)

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisUnavailableIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	rc := NewRedisFromClient(rdb, "x:", time.Minute)
	defer rc.Close()

	_, ok := rc.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTieredPromotesL2Hits(t *testing.T) {
	ctx := context.Background()
	_, rc := newTestRedis(t)
	l1 := NewLRU(4, time.Minute)
	c := NewTiered(l1, rc)

	rc.Set(ctx, "k", "from-l2", 0)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "from-l2", v)

	v, ok = l1.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "from-l2", v)

	assert.Same(t, l1, NewTiered(l1, nil))
}
