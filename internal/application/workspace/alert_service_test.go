package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
)

func TestAlertService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("default limit and metadata", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := NewAlertService(repo, nil, zap.NewNop())
		unresolved := false
		repo.On("FindAll", ctx, testCompany, workspace.AlertFilter{Resolved: &unresolved, Limit: 10}).
			Return([]*workspace.Alert(nil), nil)
		repo.On("Stats", ctx, testCompany).Return(workspace.AlertStats{Total: 4, Unresolved: 2, Critical: 1}, nil)

		list, err := svc.List(ctx, testCompany, ListAlertsQuery{Resolved: &unresolved})
		require.NoError(t, err)
		assert.NotNil(t, list.Alerts)
		assert.Equal(t, int64(2), list.Metadata.Unresolved)
		assert.Equal(t, int64(1), list.Metadata.Critical)
	})

	t.Run("severity filter", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := NewAlertService(repo, nil, zap.NewNop())
		repo.On("FindAll", ctx, testCompany, workspace.AlertFilter{Severity: workspace.SeverityHigh, Limit: 50}).
			Return([]*workspace.Alert{}, nil)
		repo.On("Stats", ctx, testCompany).Return(workspace.AlertStats{}, nil)

		_, err := svc.List(ctx, testCompany, ListAlertsQuery{Severity: "high", Limit: 80})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown severity", func(t *testing.T) {
		svc := NewAlertService(new(MockAlertRepository), nil, zap.NewNop())
		_, err := svc.List(ctx, testCompany, ListAlertsQuery{Severity: "extreme"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestAlertService_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAlertRepository)
	svc := NewAlertService(repo, nil, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	alert, err := workspace.NewAlert(testCompany, workspace.SeverityMedium, "HVAC Maintenance Due", "", nil)
	require.NoError(t, err)
	repo.On("FindByID", ctx, testCompany, alert.ID).Return(alert, nil)
	repo.On("Save", ctx, alert).Return(nil)

	resolved, err := svc.Resolve(ctx, testCompany, alert.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, testNow, *resolved.ResolvedAt)

	_, err = svc.Resolve(ctx, testCompany, alert.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	missing := uuid.New()
	repo.On("FindByID", ctx, testCompany, missing).Return(nil, shared.ErrNotFound)
	_, err = svc.Resolve(ctx, testCompany, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAlertService_RaiseOnce(t *testing.T) {
	ctx := context.Background()
	const title = "High Energy Consumption"

	t.Run("creates when none open", func(t *testing.T) {
		repo := new(MockAlertRepository)
		core, logs := observer.New(zapcore.WarnLevel)
		svc := NewAlertService(repo, nil, zap.New(core))
		svc.now = func() time.Time { return testNow }
		repo.On("FindUnresolvedByTitle", ctx, testCompany, title).Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*workspace.Alert")).Return(nil)

		alert, created, err := svc.RaiseOnce(ctx, testCompany, workspace.SeverityHigh, title, "Consumption above forecast", nil)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, testNow, alert.CreatedAt)
		assert.Equal(t, 1, logs.FilterMessage("Alert raised").Len())
	})

	t.Run("returns existing unresolved alert", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := NewAlertService(repo, nil, zap.NewNop())
		existing, err := workspace.NewAlert(testCompany, workspace.SeverityHigh, title, "", nil)
		require.NoError(t, err)
		repo.On("FindUnresolvedByTitle", ctx, testCompany, title).Return(existing, nil)

		alert, created, err := svc.RaiseOnce(ctx, testCompany, workspace.SeverityHigh, title, "", nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, alert)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := NewAlertService(repo, nil, zap.NewNop())
		repo.On("FindUnresolvedByTitle", ctx, testCompany, title).Return(nil, errors.New("timeout"))

		_, _, err := svc.RaiseOnce(ctx, testCompany, workspace.SeverityHigh, title, "", nil)
		assert.EqualError(t, err, "timeout")
	})
}
