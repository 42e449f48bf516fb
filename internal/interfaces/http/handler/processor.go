package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/smartspace/backend/internal/application/processor"
)

// CycleRunner is the part of the real-time processor the API drives
type CycleRunner interface {
	Status() processor.Status
	RunNow(ctx context.Context, companyID string) (*processor.CycleResult, error)
}

// ProcessorHandler reports on and triggers the real-time processor
type ProcessorHandler struct {
	BaseHandler
	runner CycleRunner
}

// NewProcessorHandler creates a new processor handler
func NewProcessorHandler(runner CycleRunner) *ProcessorHandler {
	return &ProcessorHandler{runner: runner}
}

// Status godoc
// @Summary      Processor status
// @Description  Scheduler state and cycle counters
// @Tags         processor
// @ID           getProcessorStatus
// @Produce      json
// @Success      200 {object} dto.Response{data=processor.Status}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /processor/status [get]
func (h *ProcessorHandler) Status(c *gin.Context) {
	h.Success(c, h.runner.Status())
}

// Run executes one cycle for the caller's company and waits for it.
// @Summary      Run a cycle
// @Description  Run one processing cycle for the caller's company and wait for it
// @Tags         processor
// @ID           runProcessorCycle
// @Produce      json
// @Success      200 {object} dto.Response{data=processor.CycleResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /processor/run [post]
func (h *ProcessorHandler) Run(c *gin.Context) {
	result, err := h.runner.RunNow(c.Request.Context(), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
