package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rolodexhq/rolodex/pkg/config"
)

// maxBuckets bounds limiter memory; least recently used keys are evicted
const maxBuckets = 16384

// RateLimiter is an in-process token bucket limiter. Buckets live in an
// expiring LRU so idle keys are reclaimed without a sweeper goroutine.
type RateLimiter struct {
	requests int
	window   time.Duration
	burst    int

	buckets *expirable.LRU[string, *bucket]
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter creates a limiter allowing requests per window with a
// burst allowance on top
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	window := cfg.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		requests: cfg.RequestsPerWindow,
		window:   window,
		burst:    cfg.BurstSize,
		buckets:  expirable.NewLRU[string, *bucket](maxBuckets, nil, 2*window),
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.requests + rl.burst)
}

// Allow consumes one token for the key, reporting whether the request may
// proceed and how many tokens remain
func (rl *RateLimiter) Allow(key string) (bool, int) {
	b, ok := rl.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: rl.capacity(), lastUpdate: time.Now()}
		rl.buckets.Add(key, b)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)
	if elapsed > 0 {
		refill := elapsed.Seconds() * float64(rl.requests) / rl.window.Seconds()
		b.tokens += refill
		if b.tokens > rl.capacity() {
			b.tokens = rl.capacity()
		}
		b.lastUpdate = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens)
	}
	return false, 0
}

// Handler throttles requests keyed by authenticated username, falling
// back to client IP for anonymous callers
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limitKey(r)

		allowed, remaining := rl.Allow(key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rl.window).Unix(), 10))

		if !allowed {
			writeRateLimited(w, rl.window)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func limitKey(r *http.Request) string {
	if identity := IdentityFrom(r.Context()); identity != nil {
		return "user:" + identity.Username
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func writeRateLimited(w http.ResponseWriter, window time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"detail":"Rate limit exceeded"}`))
}
