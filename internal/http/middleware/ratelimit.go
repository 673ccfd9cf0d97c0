// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket rate limiter built on
// golang.org/x/time/rate. Each player (or, for anonymous requests, each
// client IP) gets its own bucket; idle buckets are evicted lazily. Replayed
// move submissions flagged by IdempotencyValidator are never limited.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to a bucket identity.
type keyFunc func(*gin.Context) string

// KeyByPlayerOrIP keys buckets by the player set by PlayerIdentity, falling
// back to the client IP. Keys are prefixed ("player:", "ip:") so the two
// namespaces never collide.
func KeyByPlayerOrIP() keyFunc {
	return func(c *gin.Context) string {
		if p := PlayerFrom(c); p != "" {
			return "player:" + p
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. It is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// sweepEvery is the number of lookups between idle-bucket sweeps.
const sweepEvery = 5000

// NewRateLimiter returns a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key, creating it when absent. The sweep
// runs before the lookup so a stale bucket for key itself is replaced.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator exempted this request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit, answering 429 with Retry-After: 1 and the
// standard error envelope when a bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
