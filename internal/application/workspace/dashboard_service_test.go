package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
)

type dashboardFixture struct {
	companies   *MockCompanyRepository
	spaces      *MockSpaceRepository
	employees   *MockEmployeeRepository
	alerts      *MockAlertRepository
	conflicts   *MockConflictRepository
	readings    *MockReadingRepository
	predictions *MockPredictionRepository
	activities  *MockActivityRepository
	svc         *DashboardService
}

func newDashboardFixture(c cache.Cache) *dashboardFixture {
	f := &dashboardFixture{
		companies:   new(MockCompanyRepository),
		spaces:      new(MockSpaceRepository),
		employees:   new(MockEmployeeRepository),
		alerts:      new(MockAlertRepository),
		conflicts:   new(MockConflictRepository),
		readings:    new(MockReadingRepository),
		predictions: new(MockPredictionRepository),
		activities:  new(MockActivityRepository),
	}
	f.svc = NewDashboardService(DashboardRepositories{
		Companies:   f.companies,
		Spaces:      f.spaces,
		Employees:   f.employees,
		Alerts:      f.alerts,
		Conflicts:   f.conflicts,
		Readings:    f.readings,
		Predictions: f.predictions,
		Activities:  f.activities,
	}, untrainedModels(), c, time.Minute, zap.NewNop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func energyReading(at time.Time, consumption, efficiency float64) *workspace.EnergyReading {
	return &workspace.EnergyReading{
		CompanyID:            testCompany,
		Timestamp:            at,
		TotalConsumption:     consumption,
		HVACConsumption:      consumption * 0.5,
		LightingConsumption:  consumption * 0.2,
		EquipmentConsumption: consumption * 0.3,
		CostPerHour:          decimal.NewFromFloat(consumption).Mul(decimal.RequireFromString("0.12")),
		EfficiencyScore:      efficiency,
		CarbonFootprint:      consumption * 0.4,
	}
}

func spaceReading(at time.Time, utilization float64) *workspace.SpaceReading {
	return &workspace.SpaceReading{
		CompanyID:          testCompany,
		Timestamp:          at,
		OverallUtilization: utilization,
		TotalOccupancy:     int(utilization * 200),
		TotalCapacity:      200,
		AverageTemperature: 22,
		AverageHumidity:    45,
		AverageCO2:         500,
		AverageNoise:       48,
	}
}

func TestDashboardService_Summary(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache()
	defer c.Close()
	f := newDashboardFixture(c)

	company := workspace.NewCompany(testCompany, "Acme")
	energy := []*workspace.EnergyReading{
		energyReading(testNow, 200, 80),
		energyReading(testNow.Add(-time.Hour), 100, 60),
	}
	spaces := []*workspace.SpaceReading{
		spaceReading(testNow, 0.8),
		spaceReading(testNow.Add(-time.Hour), 0.6),
	}
	f.companies.On("FindByID", mock.Anything, testCompany).Return(company, nil).Once()
	f.readings.On("LatestEnergy", mock.Anything, testCompany, 24).Return(energy, nil).Once()
	f.readings.On("LatestSpace", mock.Anything, testCompany, 24).Return(spaces, nil).Once()
	f.conflicts.On("FindOpen", mock.Anything, testCompany).
		Return([]*workspace.Conflict{openConflict("meeting_1_1", testNow)}, nil).Once()
	f.predictions.On("Latest", mock.Anything, testCompany, workspace.ModelType(""), 5).
		Return([]*workspace.Prediction(nil), nil).Once()

	summary, err := f.svc.Summary(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, "Acme", summary.Company.Name)
	assert.Equal(t, 200.0, summary.CurrentMetrics.EnergyConsumption)
	assert.True(t, decimal.RequireFromString("24").Equal(summary.CurrentMetrics.EnergyCost))
	assert.Equal(t, 0.8, summary.CurrentMetrics.SpaceUtilization)
	assert.Equal(t, 300.0, summary.Trends24h.TotalEnergyConsumption)
	assert.InDelta(t, 70, summary.Trends24h.AverageEfficiency, 1e-9)
	assert.InDelta(t, 0.7, summary.Trends24h.AverageUtilization, 1e-9)
	assert.Equal(t, 1, summary.ActiveConflicts)
	assert.NotNil(t, summary.AIPredictions)

	// served from cache
	cached, err := f.svc.Summary(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, summary.ActiveConflicts, cached.ActiveConflicts)
	f.companies.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestDashboardService_Metrics(t *testing.T) {
	ctx := context.Background()
	f := newDashboardFixture(nil)
	from := testNow.Add(-24 * time.Hour)

	f.spaces.On("Count", ctx, testCompany).Return(int64(4), nil)
	f.alerts.On("Stats", ctx, testCompany).Return(workspace.AlertStats{Total: 5, Unresolved: 3}, nil)
	f.spaces.On("FindAll", ctx, testCompany, workspace.SpaceFilter{}).Return([]*workspace.Space{
		newSpace(t, "a", workspace.SpaceTypeMeetingRoom, 10, 6),
		newSpace(t, "b", workspace.SpaceTypeMeetingRoom, 10, 2),
	}, nil)
	f.readings.On("Energy", ctx, testCompany, from, testNow).Return([]*workspace.EnergyReading{
		energyReading(testNow.Add(-20*time.Hour), 100, 80),
		energyReading(testNow.Add(-2*time.Hour), 100, 80),
	}, nil)
	f.readings.On("Space", ctx, testCompany, from, testNow).Return([]*workspace.SpaceReading{
		spaceReading(testNow.Add(-20*time.Hour), 0.4),
		spaceReading(testNow.Add(-2*time.Hour), 0.6),
	}, nil)

	m, err := f.svc.Metrics(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, int64(4), m.Summary.TotalSpaces)
	assert.Equal(t, int64(3), m.Summary.ActiveAlerts)
	assert.Equal(t, 40.0, m.Summary.AverageOccupancy)
	assert.Equal(t, 80.0, m.Summary.EnergyEfficiency)
	assert.Greater(t, m.Summary.SustainabilityScore, 0.0)
	assert.Equal(t, testNow, m.Summary.LastUpdated)
	assert.Equal(t, TrendIncreasing, m.Trends.Occupancy)
	assert.Equal(t, TrendStable, m.Trends.Energy)
	assert.Equal(t, TrendStable, m.Trends.Efficiency)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, TrendStable, trend(nil, []float64{1}))
	assert.Equal(t, TrendIncreasing, trend([]float64{100}, []float64{106}))
	assert.Equal(t, TrendDecreasing, trend([]float64{100}, []float64{90}))
	assert.Equal(t, TrendStable, trend([]float64{100}, []float64{104}))
	assert.Equal(t, TrendIncreasing, trend([]float64{0}, []float64{1}))
}

func TestDashboardService_UserActivity(t *testing.T) {
	ctx := context.Background()
	f := newDashboardFixture(nil)

	f.activities.On("FindRecent", ctx, testCompany, workspace.ActivityFilter{Department: "hr", Limit: 100}).
		Return([]*workspace.UserActivity{
			workspace.NewUserActivity(testCompany, "emp_001", "hr", workspace.ActivityBadgeIn, "lobby", 30, testNow),
			workspace.NewUserActivity(testCompany, "emp_001", "hr", workspace.ActivityRoomBooking, "meeting_1_1", 60, testNow),
			workspace.NewUserActivity(testCompany, "emp_002", "hr", workspace.ActivityLogin, "dashboard", 0, testNow),
		}, nil)

	feed, err := f.svc.UserActivity(ctx, testCompany, ActivityQuery{Department: "hr"})
	require.NoError(t, err)
	assert.Equal(t, 3, feed.Metadata.TotalActivities)
	assert.Equal(t, 2, feed.Metadata.UniqueUsers)
	require.NotNil(t, feed.Metadata.AvgDurationMinutes)
	assert.Equal(t, 45.0, *feed.Metadata.AvgDurationMinutes)

	f.activities.On("FindRecent", ctx, testCompany, workspace.ActivityFilter{Limit: 500}).
		Return([]*workspace.UserActivity{}, nil)
	feed, err = f.svc.UserActivity(ctx, testCompany, ActivityQuery{Limit: 5000})
	require.NoError(t, err)
	assert.Nil(t, feed.Metadata.AvgDurationMinutes)
	assert.NotNil(t, feed.Activities)
}

func TestDashboardService_Series(t *testing.T) {
	ctx := context.Background()
	f := newDashboardFixture(nil)
	from := testNow.Add(-6 * time.Hour)
	f.readings.On("Space", ctx, testCompany, from, testNow).Return([]*workspace.SpaceReading{
		spaceReading(testNow.Add(-2*time.Hour), 0.5),
		spaceReading(testNow.Add(-time.Hour), 0.75),
	}, nil)

	t.Run("occupancy without trained model", func(t *testing.T) {
		points, err := f.svc.Occupancy(ctx, testCompany, SeriesQuery{Hours: 6})
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, "12:00", points[0].Hour)
		assert.Equal(t, 50.0, points[0].Utilization)
		assert.Equal(t, 200, points[1].Capacity)
		assert.Nil(t, points[1].Predicted)
	})

	t.Run("environmental", func(t *testing.T) {
		points, err := f.svc.Environmental(ctx, testCompany, SeriesQuery{Hours: 6})
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, 22.0, points[0].Temperature)
		assert.Equal(t, 100.0, points[0].Comfort)
	})

	t.Run("space usage", func(t *testing.T) {
		f.spaces.On("FindAll", ctx, testCompany, workspace.SpaceFilter{}).Return([]*workspace.Space{
			newSpace(t, "desk_1_01", workspace.SpaceTypeDesk, 1, 1),
			newSpace(t, "desk_1_02", workspace.SpaceTypeDesk, 1, 0),
		}, nil).Once()

		usage, err := f.svc.SpaceUsage(ctx, testCompany)
		require.NoError(t, err)
		require.Len(t, usage, 2)
		assert.Equal(t, workspace.StatusOccupied, usage[0].Status)
		assert.Equal(t, 100.0, usage[0].Utilization)
		assert.Equal(t, workspace.StatusAvailable, usage[1].Status)
	})
}

func TestDashboardService_WeeklyTrend(t *testing.T) {
	ctx := context.Background()
	f := newDashboardFixture(nil)
	from := testNow.Add(-7 * 24 * time.Hour)
	monday := time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	f.readings.On("Space", ctx, testCompany, from, testNow).Return([]*workspace.SpaceReading{
		spaceReading(monday, 0.8),
		spaceReading(monday.Add(time.Hour), 0.6),
	}, nil)
	f.readings.On("Energy", ctx, testCompany, from, testNow).Return([]*workspace.EnergyReading{
		energyReading(monday, 150, 90),
	}, nil)

	days, err := f.svc.WeeklyTrend(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, "Mon", days[0].Day)
	assert.Equal(t, "Sun", days[6].Day)
	assert.Equal(t, 70.0, days[0].Utilization)
	assert.Equal(t, 90.0, days[0].Efficiency)
	assert.Equal(t, 2, days[0].Samples)
	assert.Zero(t, days[1].Samples)
}

func TestDashboardService_ZoneHeatmap(t *testing.T) {
	ctx := context.Background()
	f := newDashboardFixture(nil)

	var spaces []*workspace.Space
	for i := 1; i <= 22; i++ {
		spaces = append(spaces, newSpace(t, "desk_"+string(rune('a'+i)), workspace.SpaceTypeDesk, 1, i%2))
	}
	f.spaces.On("FindAll", ctx, testCompany, workspace.SpaceFilter{}).Return(spaces, nil)
	owner := newTestEmployee(t, "emp_001", "owner@demo.com")
	f.employees.On("FindByAssignedDesk", ctx, testCompany, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 20
	})).Return(map[string]*workspace.Employee{spaces[6].ID: owner}, nil)

	cells, err := f.svc.ZoneHeatmap(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, cells, 20)
	assert.Equal(t, 1, cells[6].Row)
	assert.Equal(t, 1, cells[6].Col)
	require.NotNil(t, cells[6].Employee)
	assert.Equal(t, "Alex Kim", *cells[6].Employee)
	assert.Nil(t, cells[0].Employee)
	assert.Equal(t, workspace.StatusOccupied, cells[0].Status)
	assert.Equal(t, 3, cells[19].Row)
	assert.Equal(t, 4, cells[19].Col)
}
