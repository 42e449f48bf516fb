package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/interfaces/http/dto"
)

// Domain enum tags usable in binding:"..." struct tags
const (
	TagSpaceType      = "space_type"
	TagEmployeeStatus = "employee_status"
	TagSeverity       = "severity"
)

var setupOnce sync.Once

// SetupValidator reports fields by their json (or form) name and registers
// the workspace enum tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				name = ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation(TagSpaceType, func(fl validator.FieldLevel) bool {
			return workspace.SpaceType(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation(TagEmployeeStatus, func(fl validator.FieldLevel) bool {
			return workspace.EmployeeStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation(TagSeverity, func(fl validator.FieldLevel) bool {
			return workspace.Severity(fl.Field().String()).IsValid()
		})
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestIDFor(c)))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min", "max":
		bound := "at least "
		if e.Tag() == "max" {
			bound = "at most "
		}
		if e.Type().Kind() == reflect.String {
			return "Must be " + bound + e.Param() + " characters"
		}
		return "Must be " + bound + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case TagSpaceType:
		return "Must be one of: " + joinEnum(workspace.AllSpaceTypes)
	case TagEmployeeStatus:
		return "Must be one of: active inactive remote on_leave"
	case TagSeverity:
		return "Must be one of: critical high medium low"
	default:
		return "Invalid value"
	}
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
