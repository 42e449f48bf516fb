package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/internal/interfaces/http/dto"
)

func TestHandleValidationError(t *testing.T) {
	type createSpace struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity" binding:"required,min=1"`
		Type     string `json:"type" binding:"omitempty,oneof=meeting_room desk lounge"`
	}

	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/spaces", func(c *gin.Context) {
		var req createSpace
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	t.Run("lists each rejected field by json name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/spaces", strings.NewReader(`{"capacity": 0, "type": "garage"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-9")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-9", resp.Error.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "This field is required", messages["name"])
		assert.Equal(t, "This field is required", messages["capacity"])
		assert.Equal(t, "Must be one of: meeting_room desk lounge", messages["type"])
	})

	t.Run("valid body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/spaces", strings.NewReader(`{"name": "Room A", "capacity": 6}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestSetupValidator_WorkspaceTags(t *testing.T) {
	type filter struct {
		Type     string  `form:"type" binding:"omitempty,space_type"`
		Status   *string `json:"status" binding:"omitempty,employee_status"`
		Severity string  `form:"severity" binding:"omitempty,severity"`
	}

	SetupValidator()
	SetupValidator()

	remote, vacation := "remote", "vacation"
	tests := []struct {
		name    string
		in      filter
		field   string
		message string
	}{
		{"empty values pass", filter{}, "", ""},
		{"known values pass", filter{Type: "phone_booth", Status: &remote, Severity: "high"}, "", ""},
		{"unknown space type", filter{Type: "garage"}, "type", "Must be one of: desk meeting_room common_area phone_booth open_desk quiet_zone collaborative hot_desk"},
		{"unknown status", filter{Status: &vacation}, "status", "Must be one of: active inactive remote on_leave"},
		{"unknown severity", filter{Severity: "urgent"}, "severity", "Must be one of: critical high medium low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			resp := FormatValidationErrors(err, "req-2")
			require.NotNil(t, resp.Error)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Equal(t, tt.message, resp.Error.Details[0].Message)
		})
	}
}
