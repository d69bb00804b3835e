package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rolodexhq/rolodex/pkg/config"
	"github.com/rolodexhq/rolodex/pkg/observability"
)

// DistributedRateLimiter shares limits across instances using Redis
// fixed-window counters. A Redis failure fails open: throttling degrades,
// availability does not.
type DistributedRateLimiter struct {
	redis  *redis.Client
	logger *observability.Logger

	requests int
	window   time.Duration
	prefix   string
}

// NewDistributedRateLimiter creates a Redis-backed limiter
func NewDistributedRateLimiter(redisClient *redis.Client, cfg config.RateLimitConfig, logger *observability.Logger) *DistributedRateLimiter {
	window := cfg.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return &DistributedRateLimiter{
		redis:    redisClient,
		logger:   logger,
		requests: cfg.RequestsPerWindow,
		window:   window,
		prefix:   "ratelimit",
	}
}

// Allow increments the window counter for the key. The error reports a
// Redis failure; callers treat that as allowed.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit counter failed: %w", err)
	}

	return incr.Val() <= int64(rl.requests), nil
}

// Remaining returns the requests left in the current window
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.redis.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return rl.requests, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.requests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TTL returns the time until the window resets
func (rl *DistributedRateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Result()
}

// Reset clears the counter for a key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Handler throttles requests keyed the same way as the in-process limiter
func (rl *DistributedRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := limitKey(r)

		allowed, err := rl.Allow(ctx, key)
		if err != nil {
			// Fail open
			rl.logger.WithError(err).Warn("rate limit store unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		if remaining, err := rl.Remaining(ctx, key); err == nil {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		if ttl, err := rl.TTL(ctx, key); err == nil && ttl > 0 {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
		}

		if !allowed {
			retryWindow := rl.window
			if ttl, err := rl.TTL(ctx, key); err == nil && ttl > 0 {
				retryWindow = ttl
			}
			writeRateLimited(w, retryWindow)
			return
		}

		next.ServeHTTP(w, r)
	})
}
