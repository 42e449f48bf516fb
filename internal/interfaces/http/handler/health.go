package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/infrastructure/logger"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers liveness checks
type HealthHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, startTime: time.Now(), now: time.Now}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Time      string `json:"time"`
	Database  string `json:"database"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports service and database health. GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Time:      h.now().Format(time.RFC3339),
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
