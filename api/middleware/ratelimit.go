package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/models"
)

// Idle buckets older than limiterTTL are dropped by a sweep that
// piggybacks on lookups, so an idle server holds no timer goroutine.
const (
	limiterTTL = time.Hour
	sweepEvery = 5 * time.Minute
)

// clientLimiters hands out one token bucket per caller identity.
type clientLimiters struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(cfg config.RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		buckets:   make(map[string]*clientBucket),
		rps:       rate.Limit(cfg.RequestsPerSecond),
		burst:     cfg.Burst,
		lastSweep: time.Now(),
	}
}

// allow takes one token from identity's bucket, creating the bucket on
// first sight.
func (cl *clientLimiters) allow(identity string) bool {
	now := time.Now()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if now.Sub(cl.lastSweep) > sweepEvery {
		cutoff := now.Add(-limiterTTL)
		for id, b := range cl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(cl.buckets, id)
			}
		}
		cl.lastSweep = now
	}

	b, ok := cl.buckets[identity]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.buckets[identity] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// RateLimit returns per-caller token-bucket rate limiting middleware. The
// caller identity is the API key when auth is on, the client IP otherwise.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := newClientLimiters(cfg)

	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get("api_key"); ok {
			identity = key.(string)
		}

		if !limiters.allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewErrorResponse(
				models.ErrCodeRateLimited, "rate limit exceeded, please slow down"))
			return
		}

		c.Next()
	}
}
