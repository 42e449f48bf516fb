package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, limit, window)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("client"))
	assert.Equal(t, 0, rl.Remaining("client"))

	assert.True(t, rl.Allow("other"), "keys are independent")

	*now = now.Add(time.Minute)
	assert.Equal(t, 3, rl.Remaining("client"))
	assert.True(t, rl.Allow("client"))
	assert.Equal(t, 2, rl.Remaining("client"))
}

func TestRateLimiter_RefillsGradually(t *testing.T) {
	rl, now := newTestLimiter(t, 4, 2*time.Second)

	for i := 0; i < 4; i++ {
		assert.True(t, rl.Allow("client"))
	}
	assert.False(t, rl.Allow("client"))
	assert.Equal(t, 500*time.Millisecond, rl.RetryAfter("client"))

	// one token every 500ms, unlike a fixed window that resets all at once
	*now = now.Add(500 * time.Millisecond)
	assert.Equal(t, 1, rl.Remaining("client"))
	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"))

	*now = now.Add(250 * time.Millisecond)
	assert.False(t, rl.Allow("client"))
	assert.Equal(t, 250*time.Millisecond, rl.RetryAfter("client"))
	assert.Zero(t, rl.RetryAfter("unknown"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, now := newTestLimiter(t, 1, time.Second)
	rl.Allow("stale")

	*now = now.Add(3 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	assert.Empty(t, rl.clients)
	rl.mu.Unlock()

	// an evicted client starts with a full bucket
	assert.True(t, rl.Allow("stale"))
	assert.False(t, rl.Allow("stale"))
}

func TestRateLimit_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if company := c.GetHeader("X-Test-Company"); company != "" {
			c.Set(JWTCompanyIDKey, company)
		}
		c.Next()
	})
	router.Use(RateLimit(rl))
	router.GET("/test", okHandler)

	send := func(company string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Test-Company", company)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("acme")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("acme").Code)

	w = send("acme")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "ERR_RATE_LIMITED", errorCode(t, w))
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("globex").Code, "limits are per company")
}
