package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// AnalyticsHandler serves model status, forecasts and recommendations
type AnalyticsHandler struct {
	BaseHandler
	analytics *appworkspace.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *appworkspace.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Predictions reports model status and conflict resolution statistics.
// @Summary      Model status
// @Description  Model readiness and conflict resolution statistics
// @Tags         analytics
// @ID           getModelStatus
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.ModelStatus}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/predictions [get]
func (h *AnalyticsHandler) Predictions(c *gin.Context) {
	status, err := h.analytics.ModelStatus(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Optimization combines space and energy opportunities.
// @Summary      Optimization plan
// @Description  Space and energy optimization opportunities
// @Tags         analytics
// @ID           getOptimizationPlan
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.OptimizationPlan}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/optimization [get]
func (h *AnalyticsHandler) Optimization(c *gin.Context) {
	plan, err := h.analytics.Optimization(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// RealTime returns the live utilization overview.
// @Summary      Real-time analytics
// @Description  Live utilization overview
// @Tags         analytics
// @ID           getRealTimeAnalytics
// @Produce      json
// @Success      200 {object} dto.Response{data=space.RealTimeAnalytics}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/real-time [get]
func (h *AnalyticsHandler) RealTime(c *gin.Context) {
	analytics, err := h.analytics.RealTime(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analytics)
}

// Forecast returns history and prediction for one metric.
// @Summary      Metric forecast
// @Description  History and prediction for one metric
// @Tags         analytics
// @ID           getMetricForecast
// @Produce      json
// @Param        metric_type query string false "Metric" Enums(occupancy, energy, efficiency)
// @Param        forecast_days query int false "Days ahead" minimum(1) maximum(30)
// @Success      200 {object} dto.Response{data=appworkspace.MetricForecast}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/forecast [get]
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	var q appworkspace.ForecastQuery
	if !h.BindQuery(c, &q) {
		return
	}

	forecast, err := h.analytics.Forecast(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// Suggestions filters the optimization catalog.
// @Summary      Optimization suggestions
// @Description  Filter the optimization catalog
// @Tags         analytics
// @ID           listSuggestions
// @Produce      json
// @Param        category query string false "Category" Enums(space, energy, cost)
// @Param        priority query int false "Minimum priority" minimum(1) maximum(5)
// @Success      200 {object} dto.Response{data=[]appworkspace.Suggestion}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/suggestions [get]
func (h *AnalyticsHandler) Suggestions(c *gin.Context) {
	var q appworkspace.SuggestionQuery
	if !h.BindQuery(c, &q) {
		return
	}
	list := h.analytics.Suggestions(q)
	h.SuccessWithMeta(c, list.Suggestions, list.Metadata)
}

// Recommendations derives space actions from current state. The kind comes
// from the query string, the filters from the optional body.
// @Summary      Space recommendations
// @Description  Derive space actions from the current state
// @Tags         analytics
// @ID           getRecommendations
// @Accept       json
// @Produce      json
// @Param        recommendation_type query string false "Kind" Enums(optimization, allocation, maintenance)
// @Param        request body appworkspace.RecommendationRequest false "Filters"
// @Success      200 {object} dto.Response{data=appworkspace.RecommendationList}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/recommendations [post]
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	var req appworkspace.RecommendationRequest
	if !h.BindQuery(c, &req) {
		return
	}
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	list, err := h.analytics.Recommendations(c.Request.Context(), companyID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}
