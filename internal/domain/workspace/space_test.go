package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpace(t *testing.T) {
	t.Run("creates space with default environment", func(t *testing.T) {
		space, err := NewSpace(DemoCompanyID, "desk_1_01", "Desk 1.01", SpaceTypeDesk, 1, 1)

		require.NoError(t, err)
		assert.Equal(t, 22.0, space.Environment.Temperature)
		assert.Equal(t, 45.0, space.Environment.Humidity)
		assert.Equal(t, 400.0, space.Environment.CO2Level)
		assert.Empty(t, space.Amenities)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewSpace(DemoCompanyID, "x", "X", SpaceType("garage"), 1, 4)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown space type")
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		_, err := NewSpace(DemoCompanyID, "x", "X", SpaceTypeDesk, 1, 0)
		assert.Error(t, err)
	})
}

func TestSpace_Utilization(t *testing.T) {
	space, err := NewSpace(DemoCompanyID, "meeting_1_1", "Meeting Room 1.1", SpaceTypeMeetingRoom, 1, 10)
	require.NoError(t, err)

	space.SetOccupancy(9)
	assert.InDelta(t, 0.9, space.Utilization(), 1e-9)
	assert.Equal(t, StatusOverutilized, space.UtilizationStatus())
	assert.Equal(t, StatusOccupied, space.Availability())

	space.SetOccupancy(25)
	assert.Equal(t, 10, space.CurrentOccupancy)
	assert.Equal(t, 1.0, space.Utilization())

	space.SetOccupancy(-3)
	assert.Equal(t, 0, space.CurrentOccupancy)
	assert.Equal(t, StatusAvailable, space.Availability())

	space.Capacity = 0
	assert.Equal(t, 0.0, space.Utilization())
}

func TestClassifyUtilization(t *testing.T) {
	assert.Equal(t, StatusOverutilized, ClassifyUtilization(0.81))
	assert.Equal(t, StatusOptimal, ClassifyUtilization(0.8))
	assert.Equal(t, StatusOptimal, ClassifyUtilization(0.41))
	assert.Equal(t, StatusUnderutilized, ClassifyUtilization(0.4))
}

func TestSpace_IsMaintenanceDue(t *testing.T) {
	space, err := NewSpace(DemoCompanyID, "common_1", "Common Area 1", SpaceTypeCommonArea, 1, 15)
	require.NoError(t, err)
	now := time.Now()
	assert.False(t, space.IsMaintenanceDue(now))

	past := now.Add(-time.Hour)
	space.NextMaintenanceAt = &past
	assert.True(t, space.IsMaintenanceDue(now))
}

func TestOccupancyProfile(t *testing.T) {
	assert.Equal(t, 0.8, OccupancyProfile(10))
	assert.Equal(t, 0.8, OccupancyProfile(15))
	assert.Equal(t, 0.6, OccupancyProfile(8))
	assert.Equal(t, 0.6, OccupancyProfile(18))
	assert.Equal(t, 0.1, OccupancyProfile(3))
	assert.Equal(t, 0.1, OccupancyProfile(22))
}
