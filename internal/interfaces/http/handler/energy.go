package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smartspace/backend/internal/application/energy"
	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// EnergyHandler serves consumption data and the energy predictor
type EnergyHandler struct {
	BaseHandler
	energy *appworkspace.EnergyService
}

// NewEnergyHandler creates a new energy handler
func NewEnergyHandler(svc *appworkspace.EnergyService) *EnergyHandler {
	return &EnergyHandler{energy: svc}
}

// Dashboard returns the latest reading, 24 h totals and hourly data.
// @Summary      Energy dashboard
// @Description  Latest reading, 24 hour totals and hourly data
// @Tags         energy
// @ID           getEnergyDashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.EnergyDashboard}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /energy/dashboard [get]
func (h *EnergyHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.energy.Dashboard(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// Predictions forecasts consumption hour by hour.
// @Summary      Energy forecast
// @Description  Hour by hour consumption forecast
// @Tags         energy
// @ID           getEnergyForecast
// @Produce      json
// @Param        temperature query number false "Outside temperature" minimum(-50) maximum(60)
// @Param        occupancy query number false "Occupancy rate" minimum(0) maximum(1)
// @Param        hours query int false "Hours ahead" minimum(1) maximum(168)
// @Success      200 {object} dto.Response{data=energy.Forecast}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /energy/predictions [get]
func (h *EnergyHandler) Predictions(c *gin.Context) {
	var q appworkspace.EnergyForecastQuery
	if !h.BindQuery(c, &q) {
		return
	}

	forecast, err := h.energy.Predictions(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}

// Optimization lists anomalies and savings opportunities.
// @Summary      Energy optimization
// @Description  Anomalies and savings opportunities
// @Tags         energy
// @ID           getEnergyOptimization
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.EnergyOptimization}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /energy/optimization [get]
func (h *EnergyHandler) Optimization(c *gin.Context) {
	result, err := h.energy.Optimization(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Analysis returns the seasonal consumption analysis.
// @Summary      Energy analysis
// @Description  Seasonal consumption analysis
// @Tags         energy
// @ID           getEnergyAnalysis
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.EnergyAnalysis}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /energy/analysis [get]
func (h *EnergyHandler) Analysis(c *gin.Context) {
	analysis, err := h.energy.Analysis(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analysis)
}

// Predict runs one prediction; omitted fields take building defaults.
// @Summary      Predict consumption
// @Description  Run one prediction; omitted fields take building defaults
// @Tags         energy
// @ID           predictEnergy
// @Accept       json
// @Produce      json
// @Param        request body energy.Input false "Prediction inputs"
// @Success      200 {object} dto.Response{data=energy.Prediction}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /energy/predict [post]
func (h *EnergyHandler) Predict(c *gin.Context) {
	var in energy.Input
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &in) {
		return
	}

	prediction, err := h.energy.Predict(c.Request.Context(), companyID(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prediction)
}
