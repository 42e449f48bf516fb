package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/smartspace/backend/docs"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/auth"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
	"github.com/smartspace/backend/internal/interfaces/http/handler"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

// Handlers without services: every request in these tests is answered by
// middleware or binding before a service is reached.
func bareHandlers() Handlers {
	return Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Employees: handler.NewEmployeeHandler(nil),
		Spaces:    handler.NewSpaceHandler(nil),
		Alerts:    handler.NewAlertHandler(nil),
		Conflicts: handler.NewConflictHandler(nil),
		Analytics: handler.NewAnalyticsHandler(nil),
		Energy:    handler.NewEnergyHandler(nil),
		Dashboard: handler.NewDashboardHandler(nil),
		Reports:   handler.NewReportHandler(nil),
		Processor: handler.NewProcessorHandler(nil),
	}
}

type engineFixture struct {
	jwt       *auth.JWTService
	collector *telemetry.AnalyticsCollector
	serve     func(method, path, token, body string) *httptest.ResponseRecorder
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	return newEngineFixtureWithDocs(t, middleware.SwaggerConfig{})
}

func newEngineFixtureWithDocs(t *testing.T, docs middleware.SwaggerConfig) *engineFixture {
	t.Helper()
	middleware.SetupValidator()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-at-least-32-chars",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	collector := telemetry.NewAnalyticsCollector()

	engine := NewEngine(EngineConfig{
		HTTP:           config.HTTPConfig{MaxBodySize: 1 << 20},
		JWT:            middleware.JWTMiddlewareConfig{JWTService: jwtService},
		Metrics:        middleware.HTTPMetricsConfig{Collector: collector},
		Swagger:        docs,
		Health:         handler.NewHealthHandler(okPinger{}, "test"),
		MetricsHandler: collector.Handler(),
	}, bareHandlers())

	return &engineFixture{
		jwt:       jwtService,
		collector: collector,
		serve: func(method, path, token, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			if body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			return w
		},
	}
}

func (f *engineFixture) token(t *testing.T, perms ...string) string {
	t.Helper()
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{
		CompanyID:   workspace.DemoCompanyID,
		UserID:      "emp_001",
		Email:       "emp001@demo.com",
		Role:        "employee",
		Permissions: perms,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func TestNewEngine_PublicRoutes(t *testing.T) {
	f := newEngineFixture(t)

	w := f.serve(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	// login is reachable without a token; the empty body fails validation
	w = f.serve(http.MethodPost, "/api/v1/auth/login", "", "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.serve(http.MethodPost, "/api/v1/auth/refresh", "", "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewEngine_ProtectedRoutesNeedToken(t *testing.T) {
	f := newEngineFixture(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/employees"},
		{http.MethodGet, "/api/v1/spaces/detailed"},
		{http.MethodGet, "/api/v1/data/occupancy"},
		{http.MethodGet, "/api/v1/analytics/predictions"},
		{http.MethodGet, "/api/v1/energy/dashboard"},
		{http.MethodGet, "/api/v1/dashboard/summary"},
		{http.MethodGet, "/api/v1/reports/export/spaces"},
		{http.MethodGet, "/api/v1/processor/status"},
		{http.MethodPost, "/api/v1/conflicts/detect"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := f.serve(p.method, p.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestNewEngine_PermissionGuards(t *testing.T) {
	f := newEngineFixture(t)
	reader := f.token(t, workspace.PermissionRead)
	writer := f.token(t, workspace.PermissionRead, workspace.PermissionWrite)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"create employee needs write", http.MethodPost, "/api/v1/employees", reader},
		{"update occupancy needs write", http.MethodPut, "/api/v1/spaces/desk_1_01/occupancy", reader},
		{"resolve alert needs write", http.MethodPost, "/api/v1/alerts/x/resolve", reader},
		{"detect conflicts needs write", http.MethodPost, "/api/v1/conflicts/detect", reader},
		{"run processor needs write", http.MethodPost, "/api/v1/processor/run", reader},
		{"delete employee needs admin", http.MethodDelete, "/api/v1/employees/emp_002", writer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.serve(tt.method, tt.path, tt.token, "")
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestNewEngine_WriterPassesGuardToBinding(t *testing.T) {
	f := newEngineFixture(t)
	writer := f.token(t, workspace.PermissionRead, workspace.PermissionWrite)

	// the guard passes and the handler rejects the empty body
	w := f.serve(http.MethodPost, "/api/v1/employees", writer, "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewEngine_MetricsEndpoint(t *testing.T) {
	f := newEngineFixture(t)

	f.serve(http.MethodGet, "/api/v1/employees", "", "")
	f.serve(http.MethodGet, "/health", "", "")

	count, err := testutil.GatherAndCount(f.collector.Registry(), "smartspace_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	w := f.serve(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smartspace_http_requests_total")
}

func TestNewEngine_UnknownRoute(t *testing.T) {
	f := newEngineFixture(t)

	w := f.serve(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine_SwaggerDisabledByDefault(t *testing.T) {
	f := newEngineFixture(t)

	for _, path := range []string{"/swagger/index.html", "/swagger/doc.json"} {
		w := f.serve(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestNewEngine_SwaggerEnabled(t *testing.T) {
	f := newEngineFixtureWithDocs(t, middleware.SwaggerConfig{Enabled: true})

	w := f.serve(http.MethodGet, "/swagger/index.html", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")

	w = f.serve(http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "SmartSpace Analytics API")
	assert.Contains(t, body, `"/employees/{id}"`)
	assert.Contains(t, body, `"/processor/run"`)
}

func TestNewEngine_SwaggerBehindAuth(t *testing.T) {
	f := newEngineFixtureWithDocs(t, middleware.SwaggerConfig{Enabled: true, RequireAuth: true})

	w := f.serve(http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.serve(http.MethodGet, "/swagger/doc.json", f.token(t, workspace.PermissionRead), "")
	assert.Equal(t, http.StatusOK, w.Code)
}
