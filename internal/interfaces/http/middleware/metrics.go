package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests gin could not route, keeping label cardinality bounded
const unmatchedRoute = "unmatched"

// HTTPMetricsConfig holds configuration for the HTTP metrics middleware
type HTTPMetricsConfig struct {
	// MeterProvider exports OTLP request metrics; optional
	MeterProvider *telemetry.MeterProvider
	// Collector feeds the Prometheus /metrics endpoint; optional
	Collector *telemetry.AnalyticsCollector
	Logger    *zap.Logger
}

// HTTPMetrics records request count, latency and in-flight requests.
// Routes are labelled with the gin route pattern, never the raw path.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	var otlp *telemetry.HTTPMetrics
	if cfg.MeterProvider != nil && cfg.MeterProvider.IsEnabled() {
		m, err := telemetry.NewHTTPMetrics(cfg.MeterProvider.Meter("smartspace.http"))
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Failed to create HTTP metric instruments", zap.Error(err))
			}
		} else {
			otlp = m
		}
	}

	if otlp == nil && cfg.Collector == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		var finish func(route string, status int, elapsed time.Duration)
		if otlp != nil {
			finish = otlp.Begin(c.Request.Context(), method)
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		if finish != nil {
			finish(route, status, elapsed)
		}
		if cfg.Collector != nil {
			cfg.Collector.ObserveHTTP(method, route, status, elapsed)
		}
	}
}
