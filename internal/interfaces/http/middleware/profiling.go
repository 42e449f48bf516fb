package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelResource  = "resource"
	ProfilingLabelCompanyID = "company_id"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// ProfilingWithConfig tags the handler's samples with Pyroscope labels so
// profiles can be filtered by route, method and company.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(profilingLabels(c)...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) []string {
	labels := []string{ProfilingLabelMethod, c.Request.Method}
	route := c.FullPath()
	if route != "" {
		labels = append(labels, ProfilingLabelRoute, route)
	}
	if resource := resourceFromRoute(route); resource != "" {
		labels = append(labels, ProfilingLabelResource, resource)
	}
	if companyID := GetCompanyID(c); companyID != "" {
		labels = append(labels, ProfilingLabelCompanyID, companyID)
	}
	return labels
}

// resourceFromRoute returns the first static segment after the API version.
// "/api/v1/spaces/:id/predict" gives "spaces".
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
