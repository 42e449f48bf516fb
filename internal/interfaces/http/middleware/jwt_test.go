package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/internal/infrastructure/auth"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/logger"
)

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "smartspace-test",
	})
}

func newTestTokenPair(t *testing.T, svc *auth.JWTService, permissions ...string) *auth.TokenPair {
	t.Helper()
	pair, err := svc.GenerateTokenPair(auth.Subject{
		CompanyID:   "acme",
		UserID:      "user-1",
		Email:       "jane@acme.test",
		Role:        "manager",
		Permissions: permissions,
	})
	require.NoError(t, err)
	return pair
}

func serveWithToken(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair := newTestTokenPair(t, svc, "read")

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, "acme", GetCompanyID(c))
		assert.Equal(t, "user-1", GetJWTUserID(c))
		assert.Equal(t, "acme", logger.GetCompanyID(c.Request.Context()))
		assert.Equal(t, "user-1", logger.GetUserID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := serveWithToken(router, "/test", pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair := newTestTokenPair(t, svc)
	expired := newTestTokenPair(t, newTestJWTService(-time.Minute))

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/test", okHandler)

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"missing header", "", "ERR_TOKEN_INVALID"},
		{"garbage token", "not-a-jwt", "ERR_TOKEN_INVALID"},
		{"expired token", expired.AccessToken, "ERR_TOKEN_EXPIRED"},
		{"refresh token used as access", pair.RefreshToken, "ERR_TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWithToken(router, "/test", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_BasicSchemeRejected(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService(time.Minute)))
	router.GET("/test", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_Blacklisted(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair := newTestTokenPair(t, svc)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", okHandler)

	w := serveWithToken(router, "/test", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_TOKEN_REVOKED", errorCode(t, w))
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService(time.Minute)))
	router.GET("/health", okHandler)
	router.POST("/api/v1/auth/login", okHandler)

	w := serveWithToken(router, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetCompanyID(c))
	assert.Empty(t, GetJWTUserID(c))
}
