package params

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdcn-access/internal/metadata"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheFromClient(client, "test:"), mr
}

func TestRedisCache_RoundTripWithoutExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, eventsOverride))
	assert.True(t, mr.Exists("test:"+Key))
	assert.Zero(t, mr.TTL("test:"+Key))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, eventsOverride, got)

	require.NoError(t, c.Delete(ctx))
	assert.False(t, mr.Exists("test:"+Key))
}

func TestRedisCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := newTestRedisCache(t)
	require.NoError(t, mr.Set("test:"+Key, "not json"))

	_, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, mr.Exists("test:"+Key))
}

func TestNewRedisCache_FromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr()+"/0", "hdcn:")
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set(context.Background(), metadata.FunctionPermissions{}))
	assert.True(t, mr.Exists("hdcn:"+Key))

	_, err = NewRedisCache(context.Background(), "not-a-url", "hdcn:")
	assert.Error(t, err)
}

// After a restart with the source down, the store serves what Redis kept.
func TestStore_RedisSurvivesRestart(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	New(&fakeSource{table: eventsOverride}, WithCache(c)).FunctionPermissions(ctx)

	restarted := New(&fakeSource{err: assert.AnError}, WithCache(c))
	table, tier := restarted.lookup(ctx)
	assert.Equal(t, TierCache, tier)
	assert.Contains(t, table[metadata.FeatureEvents].Write, "Regio_Oost")
}
