package router

import (
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/interfaces/http/handler"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

// Handlers groups every API handler mounted under /api/v1
type Handlers struct {
	Auth      *handler.AuthHandler
	Employees *handler.EmployeeHandler
	Spaces    *handler.SpaceHandler
	Alerts    *handler.AlertHandler
	Conflicts *handler.ConflictHandler
	Analytics *handler.AnalyticsHandler
	Energy    *handler.EnergyHandler
	Dashboard *handler.DashboardHandler
	Reports   *handler.ReportHandler
	Processor *handler.ProcessorHandler
}

// PublicPaths are the API routes reachable without a token
func PublicPaths(basePath string) []string {
	return []string{
		basePath + "/auth/login",
		basePath + "/auth/refresh",
	}
}

// RegisterAPI adds the SmartSpace domain groups to r. Reads need only a valid
// token; mutations need the write permission and removing an employee needs admin.
func RegisterAPI(r *Router, h Handlers) {
	write := middleware.RequirePermission(workspace.PermissionWrite)
	admin := middleware.RequirePermission(workspace.PermissionAdmin)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	data := NewDomainGroup("data", "/data")
	data.GET("/occupancy", h.Dashboard.Occupancy).
		GET("/spaces", h.Dashboard.SpaceUsage).
		GET("/environmental", h.Dashboard.Environmental).
		GET("/weekly-trend", h.Dashboard.WeeklyTrend).
		GET("/zone-heatmap", h.Dashboard.ZoneHeatmap)

	employees := NewDomainGroup("employees", "/employees")
	employees.GET("", h.Employees.List).
		GET("/:id", h.Employees.Get).
		POST("", write, h.Employees.Create).
		PUT("/:id", write, h.Employees.Update).
		DELETE("/:id", admin, h.Employees.Delete)

	spaces := NewDomainGroup("spaces", "/spaces")
	spaces.GET("", h.Spaces.List).
		GET("/detailed", h.Spaces.Detailed).
		POST("", write, h.Spaces.Create).
		POST("/:id/predict", h.Spaces.Predict).
		PUT("/:id/occupancy", write, h.Spaces.UpdateOccupancy)

	alerts := NewDomainGroup("alerts", "/alerts")
	alerts.GET("", h.Alerts.List).
		POST("/:id/resolve", write, h.Alerts.Resolve)

	conflicts := NewDomainGroup("conflicts", "/conflicts")
	conflicts.GET("", h.Conflicts.List).
		POST("/detect", write, h.Conflicts.Detect).
		POST("/:id/resolve", write, h.Conflicts.Resolve)

	analytics := NewDomainGroup("analytics", "/analytics")
	analytics.GET("/predictions", h.Analytics.Predictions).
		GET("/optimization", h.Analytics.Optimization).
		GET("/real-time", h.Analytics.RealTime).
		GET("/forecast", h.Analytics.Forecast).
		GET("/suggestions", h.Analytics.Suggestions).
		POST("/recommendations", h.Analytics.Recommendations)

	energy := NewDomainGroup("energy", "/energy")
	energy.GET("/dashboard", h.Energy.Dashboard).
		GET("/predictions", h.Energy.Predictions).
		GET("/optimization", h.Energy.Optimization).
		GET("/analysis", h.Energy.Analysis).
		POST("/predict", h.Energy.Predict)

	dashboard := NewDomainGroup("dashboard", "/dashboard")
	dashboard.GET("/summary", h.Dashboard.Summary).
		GET("/metrics", h.Dashboard.Metrics).
		GET("/user-activity", h.Dashboard.UserActivity)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/export/:type", h.Reports.Export)

	processor := NewDomainGroup("processor", "/processor")
	processor.GET("/status", h.Processor.Status).
		POST("/run", write, h.Processor.Run)

	r.Register(authRoutes).
		Register(data).
		Register(employees).
		Register(spaces).
		Register(alerts).
		Register(conflicts).
		Register(analytics).
		Register(energy).
		Register(dashboard).
		Register(reports).
		Register(processor)
}
