package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/infrastructure/logger"
	"github.com/smartspace/backend/internal/infrastructure/scheduler"
	"github.com/smartspace/backend/internal/interfaces/http/dto"
	"github.com/smartspace/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the id assigned by the RequestID middleware, falling
// back to the incoming header
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// companyID returns the company the caller's token is scoped to
func companyID(c *gin.Context) string {
	return middleware.GetCompanyID(c)
}

func callerPermissions(c *gin.Context) []string {
	if claims := middleware.GetJWTClaims(c); claims != nil {
		return claims.Permissions
	}
	return nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with list metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data, meta any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds the request body. Validation failures answer 400 with the
// rejected fields; it reports whether the handler may continue.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.bindError(c, err, "Invalid request body")
		return false
	}
	return true
}

// BindQuery binds query parameters like BindJSON binds the body
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.bindError(c, err, "Invalid query parameters")
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error, fallback string) {
	if isValidationError(err) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, fallback)
}

// HandleError converts domain errors to their HTTP status; anything else is
// logged and answered with a 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	if errors.Is(err, scheduler.ErrJobInFlight) {
		h.Error(c, http.StatusConflict, dto.ErrCodeJobInFlight, "A processing cycle is already running for this company")
		return
	}

	logger.GetGinLogger(c).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.InternalError(c, "An unexpected error occurred")
}
