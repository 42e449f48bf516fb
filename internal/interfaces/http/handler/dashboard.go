package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// DashboardHandler serves the dashboard summary and the chart series
type DashboardHandler struct {
	BaseHandler
	dashboard *appworkspace.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *appworkspace.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary      Dashboard summary
// @Description  Headline figures for the dashboard
// @Tags         dashboard
// @ID           getDashboardSummary
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.DashboardSummary}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Metrics godoc
// @Summary      Dashboard metrics
// @Description  Utilization, energy and efficiency metrics
// @Tags         dashboard
// @ID           getDashboardMetrics
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.MetricsSummary}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	metrics, err := h.dashboard.Metrics(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, metrics)
}

// UserActivity godoc
// @Summary      User activity
// @Description  Recent employee activity feed
// @Tags         dashboard
// @ID           getUserActivity
// @Produce      json
// @Param        department query string false "Department"
// @Param        limit query int false "Maximum rows" minimum(1) maximum(500)
// @Success      200 {object} dto.Response{data=[]workspace.UserActivity}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard/user-activity [get]
func (h *DashboardHandler) UserActivity(c *gin.Context) {
	var q appworkspace.ActivityQuery
	if !h.BindQuery(c, &q) {
		return
	}

	feed, err := h.dashboard.UserActivity(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, feed.Activities, feed.Metadata)
}

// Occupancy godoc
// @Summary      Occupancy series
// @Description  Hourly building occupancy for the requested window
// @Tags         data
// @ID           getOccupancySeries
// @Produce      json
// @Param        hours query int false "Hours of history" default(24) minimum(1) maximum(168)
// @Success      200 {object} dto.Response{data=[]appworkspace.OccupancyPoint}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /data/occupancy [get]
func (h *DashboardHandler) Occupancy(c *gin.Context) {
	var q appworkspace.SeriesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	points, err := h.dashboard.Occupancy(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// SpaceUsage godoc
// @Summary      Space usage by type
// @Description  Current utilization grouped by space type
// @Tags         data
// @ID           getSpaceUsage
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appworkspace.SpaceUsage}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /data/spaces [get]
func (h *DashboardHandler) SpaceUsage(c *gin.Context) {
	usage, err := h.dashboard.SpaceUsage(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usage)
}

// Environmental godoc
// @Summary      Environmental series
// @Description  Temperature, humidity, CO2 and air quality readings
// @Tags         data
// @ID           getEnvironmentalSeries
// @Produce      json
// @Param        hours query int false "Hours of history" default(24) minimum(1) maximum(168)
// @Success      200 {object} dto.Response{data=[]appworkspace.EnvironmentalPoint}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /data/environmental [get]
func (h *DashboardHandler) Environmental(c *gin.Context) {
	var q appworkspace.SeriesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	points, err := h.dashboard.Environmental(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// WeeklyTrend godoc
// @Summary      Weekly trend
// @Description  Average occupancy per weekday
// @Tags         data
// @ID           getWeeklyTrend
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appworkspace.WeekdayTrend}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /data/weekly-trend [get]
func (h *DashboardHandler) WeeklyTrend(c *gin.Context) {
	trend, err := h.dashboard.WeeklyTrend(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trend)
}

// ZoneHeatmap godoc
// @Summary      Zone heatmap
// @Description  Occupancy per floor and zone
// @Tags         data
// @ID           getZoneHeatmap
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appworkspace.HeatmapCell}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /data/zone-heatmap [get]
func (h *DashboardHandler) ZoneHeatmap(c *gin.Context) {
	cells, err := h.dashboard.ZoneHeatmap(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cells)
}
