package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/logger"
	"github.com/smartspace/backend/internal/interfaces/http/handler"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

// EngineConfig carries everything NewEngine wires into the middleware stack
type EngineConfig struct {
	HTTP   config.HTTPConfig
	Logger *zap.Logger

	JWT       middleware.JWTMiddlewareConfig
	Tracing   middleware.TracingConfig
	Metrics   middleware.HTTPMetricsConfig
	Profiling middleware.ProfilingConfig
	// Swagger gates /swagger/*any; a disabled endpoint answers 404
	Swagger middleware.SwaggerConfig

	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *middleware.RateLimiter
	Health      *handler.HealthHandler
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
}

// NewEngine builds the gin engine. Middleware order:
//  1. RequestID, Recovery, request logging
//  2. tracing and HTTP metrics
//  3. security headers, CORS, body limit, rate limit
//
// API routes additionally pass JWT auth, span enrichment and profiling labels.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health.Health)
	}
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	jwtCfg := cfg.JWT
	if jwtCfg.Logger == nil {
		jwtCfg.Logger = log
	}
	if len(jwtCfg.SkipPaths) == 0 {
		jwtCfg.SkipPaths = PublicPaths(r.BasePath())
	}
	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
	if cfg.Swagger.Enabled {
		log.Info("API documentation served at /swagger/index.html",
			zap.Bool("require_auth", cfg.Swagger.RequireAuth),
			zap.Int("allowed_ips", len(cfg.Swagger.AllowedIPs)),
		)
	}

	r.Use(
		jwtAuth,
		middleware.TracingAttributeInjector(),
		middleware.ProfilingWithConfig(cfg.Profiling),
	)

	RegisterAPI(r, h)
	r.Setup()
	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}
