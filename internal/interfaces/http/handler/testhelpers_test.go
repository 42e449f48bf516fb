package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	authapp "github.com/smartspace/backend/internal/application/auth"
	"github.com/smartspace/backend/internal/application/export"
	"github.com/smartspace/backend/internal/application/models"
	appworkspace "github.com/smartspace/backend/internal/application/workspace"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/auth"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/persistence"
	"github.com/smartspace/backend/internal/interfaces/http/dto"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const (
	demoAdminEmail = "admin@demo.com"
	demoPassword   = "password"
)

// apiFixture is the demo company behind a JWT protected engine with every
// handler mounted the way the router mounts them
type apiFixture struct {
	engine *gin.Engine
	db     *persistence.Database
	jwt    *auth.JWTService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := persistence.NewDatabaseFromGorm(gormDB)
	require.NoError(t, db.AutoMigrate())
	_, err = persistence.NewSeeder(db, zap.NewNop(), 7).SeedDemo(ctx, time.Now())
	require.NoError(t, err)

	log := zap.NewNop()
	c := cache.NewInMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	employees := persistence.NewGormEmployeeRepository(db.DB)
	spaces := persistence.NewGormSpaceRepository(db.DB)
	readings := persistence.NewGormReadingRepository(db.DB)
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	registry := models.NewRegistry(config.AnalyticsConfig{}, nil, log)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "smartspace-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := authapp.NewService(employees, persistence.NewGormActivityRepository(db.DB), jwtService, blacklist, log)
	conflicts := appworkspace.NewConflictService(conflictRepo, spaces, registry, c, log)

	authHandler := NewAuthHandler(authService)
	employeeHandler := NewEmployeeHandler(appworkspace.NewEmployeeService(employees, log))
	spaceHandler := NewSpaceHandler(appworkspace.NewSpaceService(spaces, registry, c, log))
	alertHandler := NewAlertHandler(appworkspace.NewAlertService(persistence.NewGormAlertRepository(db.DB), c, log))
	conflictHandler := NewConflictHandler(conflicts)
	reportHandler := NewReportHandler(export.NewService(spaces, readings, conflictRepo, log))

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	api.GET("/employees", employeeHandler.List)
	api.GET("/employees/:id", employeeHandler.Get)
	api.POST("/employees", employeeHandler.Create)
	api.PUT("/employees/:id", employeeHandler.Update)
	api.DELETE("/employees/:id", employeeHandler.Delete)

	api.GET("/spaces", spaceHandler.List)
	api.GET("/spaces/detailed", spaceHandler.Detailed)
	api.POST("/spaces", spaceHandler.Create)
	api.PUT("/spaces/:id/occupancy", spaceHandler.UpdateOccupancy)
	api.POST("/spaces/:id/predict", spaceHandler.Predict)

	api.GET("/alerts", alertHandler.List)
	api.POST("/alerts/:id/resolve", alertHandler.Resolve)

	api.GET("/conflicts", conflictHandler.List)
	api.POST("/conflicts/detect", conflictHandler.Detect)
	api.POST("/conflicts/:id/resolve", conflictHandler.Resolve)

	api.GET("/reports/export/:type", reportHandler.Export)

	return &apiFixture{engine: engine, db: db, jwt: jwtService}
}

// token signs an access token for the demo admin directly
// token signs an administrator token for the demo company
func (f *apiFixture) token(t *testing.T) string {
	t.Helper()
	return f.tokenWith(t, workspace.RoleAdmin, workspace.PermissionRead, workspace.PermissionWrite, workspace.PermissionAdmin)
}

func (f *apiFixture) tokenWith(t *testing.T, role string, permissions ...string) string {
	t.Helper()
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{
		CompanyID:   workspace.DemoCompanyID,
		UserID:      "emp_admin",
		Email:       demoAdminEmail,
		Role:        role,
		Permissions: permissions,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// envelope is the decoded response with data left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}
