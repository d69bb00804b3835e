package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

// cacheName labels identity cache metrics
const cacheName = "identity"

// IdentityCacheKey returns the cache key for a username
func IdentityCacheKey(username string) string {
	return "user:" + username
}

// IdentityCache is a read-through cache of identity snapshots keyed by
// username. It is strictly an optimization: every store failure degrades to
// a miss, and absence of an entry never means the user does not exist.
type IdentityCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewIdentityCache creates a cache with the given snapshot TTL
func NewIdentityCache(client *redis.Client, ttl time.Duration, logger *observability.Logger, metrics *observability.Metrics) *IdentityCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &IdentityCache{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns a live snapshot for the username, or (nil, false) on a miss.
// Store errors and corrupt payloads are logged and reported as misses.
func (c *IdentityCache) Get(ctx context.Context, username string) (*Identity, bool) {
	key := IdentityCacheKey(username)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cacheName).Inc()
		return nil, false
	} else if err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(cacheName, "get").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("identity cache get failed, treating as miss")
		return nil, false
	}

	var identity Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		// Corrupt entries are dropped so the next resolve repopulates
		c.client.Del(ctx, key)
		c.metrics.CacheErrorsTotal.WithLabelValues(cacheName, "decode").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("corrupt identity cache entry dropped")
		return nil, false
	}

	c.metrics.CacheHitsTotal.WithLabelValues(cacheName).Inc()
	return &identity, true
}

// Set stores a snapshot unconditionally with the configured TTL. Failures
// are swallowed; the cache must never become a source of request failure.
func (c *IdentityCache) Set(ctx context.Context, identity *Identity) {
	key := IdentityCacheKey(identity.Username)

	data, err := json.Marshal(identity)
	if err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(cacheName, "encode").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("failed to encode identity snapshot")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(cacheName, "set").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("identity cache set failed")
	}
}

// Delete removes the snapshot for a username. Used by the user directory to
// invalidate on record mutation so role and verification changes take effect
// before the TTL expires.
func (c *IdentityCache) Delete(ctx context.Context, username string) {
	key := IdentityCacheKey(username)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(cacheName, "delete").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("identity cache delete failed")
	}
}
