package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveDocs(t *testing.T, cfg SwaggerConfig, jwt gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	t.Run("disabled answers not found", func(t *testing.T) {
		w := serveDocs(t, SwaggerConfig{}, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("enabled without restrictions", func(t *testing.T) {
		w := serveDocs(t, SwaggerConfig{Enabled: true}, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "docs", w.Body.String())
	})

	t.Run("address inside an allowed range", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}
		w := serveDocs(t, cfg, nil, "10.1.2.3:5555")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("exact address match", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{" 192.168.1.20 "}}
		w := serveDocs(t, cfg, nil, "192.168.1.20:5555")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("address outside the allow list", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "not-an-ip"}}
		w := serveDocs(t, cfg, nil, "172.16.0.9:5555")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
	})

	t.Run("auth required and rejected", func(t *testing.T) {
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
		w := serveDocs(t, SwaggerConfig{Enabled: true, RequireAuth: true}, deny, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("auth required and accepted", func(t *testing.T) {
		called := false
		allow := func(c *gin.Context) { called = true }
		w := serveDocs(t, SwaggerConfig{Enabled: true, RequireAuth: true}, allow, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	})
}
