package handler

import (
	"github.com/gin-gonic/gin"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
)

// ConflictHandler exposes space conflict detection
type ConflictHandler struct {
	BaseHandler
	conflicts *appworkspace.ConflictService
}

// NewConflictHandler creates a new conflict handler
func NewConflictHandler(conflicts *appworkspace.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts}
}

// List returns open conflicts
// @Summary      List open conflicts
// @Description  Conflicts that are not resolved yet
// @Tags         conflicts
// @ID           listConflicts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]workspace.Conflict}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	conflicts, err := h.conflicts.ListOpen(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, conflicts, gin.H{"total": len(conflicts)})
}

// Detect runs detection over the current spaces
// @Summary      Detect conflicts
// @Description  Run conflict detection over the current spaces
// @Tags         conflicts
// @ID           detectConflicts
// @Produce      json
// @Success      200 {object} dto.Response{data=appworkspace.DetectionResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conflicts/detect [post]
func (h *ConflictHandler) Detect(c *gin.Context) {
	result, err := h.conflicts.Detect(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Resolve closes a conflict
// @Summary      Resolve conflict
// @Description  Close a conflict with an optional resolution note
// @Tags         conflicts
// @ID           resolveConflict
// @Accept       json
// @Produce      json
// @Param        id path string true "Conflict ID" format(uuid)
// @Param        request body appworkspace.ResolveConflictRequest false "Resolution note"
// @Success      200 {object} dto.Response{data=workspace.Conflict}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conflicts/{id}/resolve [post]
func (h *ConflictHandler) Resolve(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appworkspace.ResolveConflictRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	conflict, err := h.conflicts.Resolve(c.Request.Context(), companyID(c), id, req.Resolution)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, conflict)
}
