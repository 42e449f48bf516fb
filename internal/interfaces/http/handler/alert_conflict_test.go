package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appworkspace "github.com/smartspace/backend/internal/application/workspace"
	"github.com/smartspace/backend/internal/domain/workspace"
)

func TestAlertHandler_ListAndResolve(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodGet, "/api/v1/alerts", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	var alerts []workspace.Alert
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	require.NotEmpty(t, alerts)

	var before workspace.AlertStats
	require.NoError(t, json.Unmarshal(env.Meta, &before))
	assert.Positive(t, before.Unresolved)

	target := alerts[0]
	w = f.do(t, http.MethodPost, "/api/v1/alerts/"+target.ID.String()+"/resolve", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decodeData[workspace.Alert](t, w)
	assert.True(t, resolved.Resolved)
	assert.NotNil(t, resolved.ResolvedAt)

	// resolving twice is a state error
	w = f.do(t, http.MethodPost, "/api/v1/alerts/"+target.ID.String()+"/resolve", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", errorCode(t, w))

	w = f.do(t, http.MethodGet, "/api/v1/alerts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var after workspace.AlertStats
	require.NoError(t, json.Unmarshal(decode(t, w).Meta, &after))
	assert.Equal(t, before.Unresolved-1, after.Unresolved)
}

func TestAlertHandler_ResolveBadID(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodPost, "/api/v1/alerts/not-a-uuid/resolve", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_INPUT", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/alerts/"+uuid.NewString()+"/resolve", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertHandler_ListFilters(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/alerts?severity=critical", f.token(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, a := range decodeData[[]workspace.Alert](t, w) {
		assert.Equal(t, workspace.Severity("critical"), a.Severity)
	}

	w = f.do(t, http.MethodGet, "/api/v1/alerts?severity=urgent", f.token(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConflictHandler_DetectAndList(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodPost, "/api/v1/conflicts/detect", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeData[appworkspace.DetectionResult](t, w)
	assert.Equal(t, result.Detected, len(result.Conflicts))

	w = f.do(t, http.MethodGet, "/api/v1/conflicts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	open := decodeData[[]workspace.Conflict](t, w)
	assert.Len(t, open, result.Created+result.Refreshed)

	// a second run refreshes rather than duplicates
	w = f.do(t, http.MethodPost, "/api/v1/conflicts/detect", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeData[appworkspace.DetectionResult](t, w).Created)
}

func TestConflictHandler_ResolveMissing(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/conflicts/"+uuid.NewString()+"/resolve", f.token(t), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
