package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// SpaceHandler manages spaces and their live occupancy
type SpaceHandler struct {
	BaseHandler
	spaces *appworkspace.SpaceService
}

// NewSpaceHandler creates a new space handler
func NewSpaceHandler(spaces *appworkspace.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaces: spaces}
}

// List returns the raw spaces
// @Summary      List spaces
// @Description  Return the raw spaces
// @Tags         spaces
// @ID           listSpaces
// @Produce      json
// @Param        type query string false "Space type" Enums(desk, meeting_room, common_area, phone_booth, open_desk, quiet_zone, collaborative, hot_desk)
// @Param        floor query int false "Floor" minimum(0)
// @Success      200 {object} dto.Response{data=[]workspace.Space}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /spaces [get]
func (h *SpaceHandler) List(c *gin.Context) {
	var q appworkspace.ListSpacesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	spaces, err := h.spaces.List(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, spaces, gin.H{"total": len(spaces)})
}

// Detailed returns spaces with derived utilization metrics
// @Summary      Detailed spaces
// @Description  Spaces with derived utilization metrics
// @Tags         spaces
// @ID           listDetailedSpaces
// @Produce      json
// @Param        search query string false "Matches name or id"
// @Param        status_filter query string false "Utilization status" Enums(overutilized, optimal, underutilized)
// @Param        limit query int false "Maximum rows" minimum(1) maximum(50)
// @Success      200 {object} dto.Response{data=[]appworkspace.SpaceDetail}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /spaces/detailed [get]
func (h *SpaceHandler) Detailed(c *gin.Context) {
	var q appworkspace.DetailedSpacesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	list, err := h.spaces.Detailed(c.Request.Context(), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list.Spaces, gin.H{"total": list.Total, "returned": len(list.Spaces)})
}

// Create adds a space
// @Summary      Create space
// @Description  Add a space; an id already used in the company is rejected
// @Tags         spaces
// @ID           createSpace
// @Accept       json
// @Produce      json
// @Param        request body appworkspace.CreateSpaceRequest true "Space"
// @Success      201 {object} dto.Response{data=workspace.Space}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /spaces [post]
func (h *SpaceHandler) Create(c *gin.Context) {
	var req appworkspace.CreateSpaceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sp, err := h.spaces.Create(c.Request.Context(), companyID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sp)
}

// UpdateOccupancy sets the live head count
// @Summary      Update occupancy
// @Description  Set the live head count of a space
// @Tags         spaces
// @ID           updateSpaceOccupancy
// @Accept       json
// @Produce      json
// @Param        id path string true "Space ID"
// @Param        request body appworkspace.UpdateOccupancyRequest true "Occupancy"
// @Success      200 {object} dto.Response{data=workspace.Space}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /spaces/{id}/occupancy [put]
func (h *SpaceHandler) UpdateOccupancy(c *gin.Context) {
	var req appworkspace.UpdateOccupancyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sp, err := h.spaces.UpdateOccupancy(c.Request.Context(), companyID(c), c.Param("id"), *req.Occupancy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sp)
}

// Predict forecasts the utilization of one space
// @Summary      Predict utilization
// @Description  Forecast the utilization of one space; an empty body predicts for now
// @Tags         spaces
// @ID           predictSpaceUtilization
// @Accept       json
// @Produce      json
// @Param        id path string true "Space ID"
// @Param        request body appworkspace.PredictSpaceRequest false "Prediction inputs"
// @Success      200 {object} dto.Response{data=appworkspace.SpacePrediction}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /spaces/{id}/predict [post]
func (h *SpaceHandler) Predict(c *gin.Context) {
	var req appworkspace.PredictSpaceRequest
	// an empty body predicts for now
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	prediction, err := h.spaces.Predict(c.Request.Context(), companyID(c), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prediction)
}
