package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/smartspace/backend/internal/interfaces/http/dto"
)

// RateLimiter keeps one token bucket per client key. Each bucket holds up to
// limit tokens and refills at limit per window.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*client
	limit       int
	every       rate.Limit
	window      time.Duration
	cleanupTick time.Duration
	now         func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing bursts of limit requests that
// refill over window. Idle clients are evicted until ctx is cancelled.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	limit = max(limit, 1)
	if window <= 0 {
		window = time.Minute
	}
	rl := &RateLimiter{
		clients:     make(map[string]*client),
		limit:       limit,
		every:       rate.Every(window / time.Duration(limit)),
		window:      window,
		cleanupTick: window * 2,
		now:         time.Now,
	}
	go rl.cleanup(ctx)
	return rl
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops clients idle for two windows; their buckets are full again by
// then, so a fresh bucket behaves the same
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.window*2 {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) clientFor(key string, now time.Time) *client {
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c
}

// Allow reports whether key may make a request now and takes a token if so
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	return rl.clientFor(key, now).limiter.AllowN(now, 1)
}

// Remaining returns the number of requests key may still make right now
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	tokens := c.limiter.TokensAt(rl.now())
	if tokens < 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

// RetryAfter returns how long key has to wait for its next token
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		return 0
	}
	missing := 1 - c.limiter.TokensAt(rl.now())
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing * float64(rl.window/time.Duration(rl.limit)))
}

// RateLimit limits by client IP, scoped to the company when the request is
// authenticated.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		key := c.ClientIP()
		if companyID := GetCompanyID(c); companyID != "" {
			key = companyID + ":" + key
		}
		return key
	})
}

// RateLimitByKey returns a rate limiting middleware with a custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			wait := int(math.Ceil(limiter.RetryAfter(key).Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(wait, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString("request_id"),
			))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
