package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

func newTestCache(t *testing.T) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return NewIdentityCache(client, time.Hour, logger, metrics), mr
}

func testIdentity() *Identity {
	return &Identity{
		ID:       1,
		Username: "alice",
		Email:    "alice@example.com",
		Verified: true,
		Role:     RoleUser,
	}
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testIdentity())

	got, ok := cache.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, testIdentity(), got)
}

func TestIdentityCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	got, ok := cache.Get(context.Background(), "nobody")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestIdentityCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testIdentity())

	ttl := mr.TTL(IdentityCacheKey("alice"))
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(time.Hour + time.Second)

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestIdentityCacheStoreDown(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	// Reads degrade to misses and writes are swallowed
	got, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
	assert.Nil(t, got)

	cache.Set(ctx, testIdentity())
	cache.Delete(ctx, "alice")
}

func TestIdentityCacheCorruptEntryDropped(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	key := IdentityCacheKey("alice")
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
	assert.False(t, mr.Exists(key), "corrupt entry should be deleted")
}

func TestIdentityCacheDelete(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, testIdentity())
	require.True(t, mr.Exists(IdentityCacheKey("alice")))

	cache.Delete(ctx, "alice")
	assert.False(t, mr.Exists(IdentityCacheKey("alice")))

	_, ok := cache.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestIdentityCacheKey(t *testing.T) {
	assert.Equal(t, "user:alice", IdentityCacheKey("alice"))
}
