package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

func TestHTTPMetrics_PrometheusCollector(t *testing.T) {
	collector := telemetry.NewAnalyticsCollector()

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Collector: collector}))
	router.GET("/api/v1/spaces/:id", okHandler)

	for _, path := range []string{"/api/v1/spaces/1", "/api/v1/spaces/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// one series for the route pattern and one for unmatched requests
	count, err := testutil.GatherAndCount(collector.Registry(), "smartspace_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHTTPMetrics_NoSinks(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{}))
	router.GET("/test", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "test", Enabled: true, TracerProvider: provider}))
	router.Use(SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		c.Set(JWTCompanyIDKey, "acme")
		c.Set(JWTUserIDKey, "user-1")
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/api/v1/spaces/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spaces/42", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Contains(t, span.Name(), "/api/v1/spaces/:id")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Not Found", span.Status().Description)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, "acme", attrs[telemetry.AttrCompanyID].AsString())
	assert.Equal(t, "user-1", attrs["user_id"].AsString())
}

func TestTracing_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfiling_Labels(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTCompanyIDKey, "acme")
		c.Next()
	})
	router.Use(ProfilingWithConfig(DefaultProfilingConfig()))

	var labels []string
	router.GET("/api/v1/spaces/:id/predict", func(c *gin.Context) {
		labels = profilingLabels(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/spaces/7/predict", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{
		ProfilingLabelMethod, "GET",
		ProfilingLabelRoute, "/api/v1/spaces/:id/predict",
		ProfilingLabelResource, "spaces",
		ProfilingLabelCompanyID, "acme",
	}, labels)
}

func TestResourceFromRoute(t *testing.T) {
	assert.Equal(t, "reports", resourceFromRoute("/api/v1/reports/export/:type"))
	assert.Equal(t, "health", resourceFromRoute("/health"))
	assert.Empty(t, resourceFromRoute(""))
}
