package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartspace/backend/internal/application/export"
)

// ReportHandler exports reports as csv, excel or pdf
type ReportHandler struct {
	BaseHandler
	exports *export.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(exports *export.Service) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// Export builds a report. The JSON envelope carries the file base64 encoded;
// with download=true the file itself is returned as an attachment.
// @Summary      Export report
// @Description  Build a report; download=true returns the file as an attachment
// @Tags         reports
// @ID           exportReport
// @Produce      json
// @Param        type path string true "Report type" Enums(occupancy, energy, spaces, conflicts)
// @Param        format query string false "File format" Enums(csv, excel, pdf)
// @Param        time_range query string false "Time range" Enums(today, week, month, quarter, year)
// @Param        download query bool false "Return the file itself"
// @Success      200 {object} dto.Response{data=export.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/export/{type} [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var q export.Query
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.exports.Export(c.Request.Context(), companyID(c), export.ReportType(c.Param("type")), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if download, _ := boolQuery(c, "download"); download {
		data, err := base64.StdEncoding.DecodeString(result.Data)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
		c.Data(http.StatusOK, result.ContentType, data)
		return
	}
	h.Success(c, result)
}
