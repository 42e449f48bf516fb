package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// AlertHandler lists and resolves facility alerts
type AlertHandler struct {
	BaseHandler
	alerts *appworkspace.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts *appworkspace.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns alerts with table-wide counters
// @Summary      List alerts
// @Description  Alerts with table-wide counters in meta
// @Tags         alerts
// @ID           listAlerts
// @Produce      json
// @Param        severity query string false "Severity" Enums(low, medium, high, critical)
// @Param        resolved query bool false "Resolved flag"
// @Param        limit query int false "Maximum rows" minimum(1) maximum(50)
// @Success      200 {object} dto.Response{data=[]workspace.Alert}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	var q appworkspace.ListAlertsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	list, err := h.alerts.List(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list.Alerts, list.Metadata)
}

// Resolve marks an alert resolved
// @Summary      Resolve alert
// @Description  Mark an alert resolved
// @Tags         alerts
// @ID           resolveAlert
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      200 {object} dto.Response{data=workspace.Alert}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	alert, err := h.alerts.Resolve(c.Request.Context(), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}
