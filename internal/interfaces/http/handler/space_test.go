package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/internal/domain/workspace"
)

func TestSpaceHandler_List(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/spaces", f.token(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	spaces := decodeData[[]workspace.Space](t, w)
	require.NotEmpty(t, spaces)
	for _, sp := range spaces {
		assert.Equal(t, workspace.DemoCompanyID, sp.CompanyID)
	}
}

func TestSpaceHandler_Detailed(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/spaces/detailed?limit=3", f.token(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	var spaces []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &spaces))
	assert.LessOrEqual(t, len(spaces), 3)

	w = f.do(t, http.MethodGet, "/api/v1/spaces/detailed?status_filter=crowded", f.token(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpaceHandler_UpdateOccupancy(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodPut, "/api/v1/spaces/meeting_1_1/occupancy", token, gin.H{"occupancy": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decodeData[workspace.Space](t, w).CurrentOccupancy)

	w = f.do(t, http.MethodPut, "/api/v1/spaces/meeting_1_1/occupancy", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/spaces/nowhere/occupancy", token, gin.H{"occupancy": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpaceHandler_Create(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/spaces", f.token(t), gin.H{
		"name": "Focus Pod", "type": "phone_booth", "floor": 2, "capacity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sp := decodeData[workspace.Space](t, w)
	assert.NotEmpty(t, sp.ID)
	assert.Equal(t, 1, sp.Capacity)

	w = f.do(t, http.MethodPost, "/api/v1/spaces", f.token(t), gin.H{"name": "No Capacity", "type": "desk"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/spaces", f.token(t), gin.H{"name": "Garage", "type": "garage", "capacity": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
}

func TestSpaceHandler_PredictBeforeTraining(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/spaces/desk_1_01/predict", f.token(t), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ERR_MODEL_NOT_READY", errorCode(t, w))
}
