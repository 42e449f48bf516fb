package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smartspace/backend/internal/application/models"
	appworkspace "github.com/smartspace/backend/internal/application/workspace"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/persistence"
	"github.com/smartspace/backend/internal/infrastructure/scheduler"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

var cycleTime = time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	energy []*workspace.EnergyReading
	space  []*workspace.SpaceReading
}

func (s *recordingSink) ArchiveEnergy(_ context.Context, readings ...*workspace.EnergyReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.energy = append(s.energy, readings...)
	return nil
}

func (s *recordingSink) ArchiveSpace(_ context.Context, readings ...*workspace.SpaceReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space = append(s.space, readings...)
	return nil
}

func (s *recordingSink) Close() error { return nil }

type fixture struct {
	db        *persistence.Database
	readings  *persistence.GormReadingRepository
	alerts    *persistence.GormAlertRepository
	sink      *recordingSink
	collector *telemetry.AnalyticsCollector
	processor *Processor
}

func processorConfig() config.ProcessorConfig {
	return config.ProcessorConfig{
		Enabled:           true,
		Interval:          time.Hour,
		RetryDelay:        time.Second,
		MaxRetries:        1,
		MaxConcurrentJobs: 1,
		QueueSize:         4,
		JobTimeout:        time.Minute,
	}
}

func smallAnalytics() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		Seed:                11,
		SpaceSamples:        300,
		SpaceEstimators:     10,
		EnergySamples:       300,
		EnergyGBEstimators:  10,
		EnergyRFEstimators:  4,
		TrainingWorkers:     2,
		TrainingStartOffset: 24 * time.Hour,
	}
}

func newFixture(t *testing.T, seed bool) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := persistence.NewDatabaseFromGorm(gormDB)
	require.NoError(t, db.AutoMigrate())
	if seed {
		_, err := persistence.NewSeeder(db, zap.NewNop(), 1).SeedDemo(context.Background(), cycleTime.Add(-time.Hour))
		require.NoError(t, err)
	}

	log := zap.NewNop()
	collector := telemetry.NewAnalyticsCollector()
	registry := models.NewRegistry(smallAnalytics(), collector, log)
	spaces := persistence.NewGormSpaceRepository(db.DB)
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	f := &fixture{
		db:        db,
		readings:  persistence.NewGormReadingRepository(db.DB),
		alerts:    persistence.NewGormAlertRepository(db.DB),
		sink:      &recordingSink{},
		collector: collector,
	}
	p, err := New(processorConfig(), Dependencies{
		Companies:   persistence.NewGormCompanyRepository(db.DB),
		Spaces:      spaces,
		Readings:    f.readings,
		Predictions: persistence.NewGormPredictionRepository(db.DB),
		Conflicts:   appworkspace.NewConflictService(conflictRepo, spaces, registry, nil, log),
		Alerts:      appworkspace.NewAlertService(f.alerts, nil, log),
		Models:      registry,
		Sink:        f.sink,
		Collector:   collector,
	}, 3, log)
	require.NoError(t, err)
	p.now = func() time.Time { return cycleTime }
	f.processor = p
	return f
}

func TestNew_InvalidSchedulerConfig(t *testing.T) {
	cfg := processorConfig()
	cfg.QueueSize = 0
	_, err := New(cfg, Dependencies{}, 1, zap.NewNop())
	assert.ErrorIs(t, err, scheduler.ErrInvalidConfig)
}

func TestProcessor_UpdateOccupancy(t *testing.T) {
	f := newFixture(t, false)
	var spaces []*workspace.Space
	for i := 0; i < 20; i++ {
		sp, err := workspace.NewSpace(workspace.DemoCompanyID, fmt.Sprintf("desk_%d", i), "Desk", workspace.SpaceTypeCommonArea, 1, 100)
		require.NoError(t, err)
		spaces = append(spaces, sp)
	}

	// 10:00 is a peak hour: 0.8 × [0.8, 1.2)
	f.processor.updateOccupancy(spaces, cycleTime)
	for _, sp := range spaces {
		assert.GreaterOrEqual(t, sp.CurrentOccupancy, 64)
		assert.LessOrEqual(t, sp.CurrentOccupancy, 96)
	}

	night := time.Date(2024, 3, 12, 2, 0, 0, 0, time.UTC)
	f.processor.updateOccupancy(spaces, night)
	for _, sp := range spaces {
		assert.LessOrEqual(t, sp.CurrentOccupancy, 12)
	}
}

func TestProcessor_Execute_UnknownJob(t *testing.T) {
	f := newFixture(t, false)
	err := f.processor.Execute(context.Background(), scheduler.NewJob("acme", "OTHER", 0))
	assert.ErrorIs(t, err, ErrUnknownJobType)
}

func TestProcessor_RecordStatus(t *testing.T) {
	f := newFixture(t, false)
	f.processor.record("acme", errors.New("boom"), time.Second)
	f.processor.record("acme", nil, time.Second)

	s := f.processor.Status()
	assert.Equal(t, int64(1), s.CyclesFailed)
	assert.Equal(t, int64(1), s.CyclesCompleted)
	assert.Empty(t, s.LastError)
	assert.Equal(t, "acme", s.LastCompanyID)
	require.NotNil(t, s.LastCycleAt)
	assert.Equal(t, cycleTime, *s.LastCycleAt)
	assert.Equal(t, "1h0m0s", s.Interval)
	series, err := testutil.GatherAndCount(f.collector.Registry(), "smartspace_processor_cycles_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestProcessor_StartStopIdempotent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.processor.Start(ctx))
	require.NoError(t, f.processor.Start(ctx))
	assert.True(t, f.processor.Status().Running)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(stopCtx))
	require.NoError(t, f.processor.Stop(stopCtx))
	assert.False(t, f.processor.Status().Running)
}

func TestProcessor_RunNow(t *testing.T) {
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	f := newFixture(t, true)
	ctx := context.Background()

	before, err := f.readings.CountEnergy(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)

	result, err := f.processor.RunNow(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)
	assert.Equal(t, 85, result.SpacesUpdated)
	assert.Greater(t, result.OverallUtilization, 0.0)
	assert.Greater(t, result.PredictedConsumption, 0.0)
	require.NotNil(t, result.Conflicts)

	after, err := f.readings.CountEnergy(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	latest, err := f.readings.LatestSpace(ctx, workspace.DemoCompanyID, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, cycleTime, latest[0].Timestamp.UTC())

	assert.Len(t, f.sink.energy, 1)
	assert.Len(t, f.sink.space, 1)
	assert.Equal(t, int64(1), f.processor.Status().CyclesCompleted)
	series, err := testutil.GatherAndCount(f.collector.Registry(), "smartspace_analytics_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestProcessor_RaisesHighConsumptionAlertOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	f := newFixture(t, true)
	ctx := context.Background()

	spike := &workspace.EnergyReading{
		ID:                   uuid.New(),
		CompanyID:            workspace.DemoCompanyID,
		Timestamp:            cycleTime.Add(-time.Minute),
		TotalConsumption:     50000,
		HVACConsumption:      30000,
		LightingConsumption:  10000,
		EquipmentConsumption: 10000,
		CostPerHour:          decimal.NewFromInt(6000),
		EfficiencyScore:      10,
		CarbonFootprint:      20000,
	}
	require.NoError(t, f.readings.SaveEnergy(ctx, spike))

	// the demo data ships an open alert with the same title
	seeded, err := f.alerts.FindUnresolvedByTitle(ctx, workspace.DemoCompanyID, HighConsumptionAlert)
	require.NoError(t, err)
	require.NoError(t, seeded.Resolve(cycleTime))
	require.NoError(t, f.alerts.Save(ctx, seeded))

	first, err := f.processor.RunNow(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)
	assert.True(t, first.AlertRaised)

	// the spike is no longer the newest reading; the cycle's own one is
	latest, err := f.readings.LatestEnergy(ctx, workspace.DemoCompanyID, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, cycleTime, latest[0].Timestamp.UTC())

	second, err := f.processor.RunNow(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)
	assert.False(t, second.AlertRaised)

	alert, err := f.alerts.FindUnresolvedByTitle(ctx, workspace.DemoCompanyID, HighConsumptionAlert)
	require.NoError(t, err)
	assert.False(t, alert.Resolved)
}

func TestProcessor_NoAlertForOrdinaryReadings(t *testing.T) {
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	f := newFixture(t, true)
	ctx := context.Background()

	seeded, err := f.alerts.FindUnresolvedByTitle(ctx, workspace.DemoCompanyID, HighConsumptionAlert)
	require.NoError(t, err)
	require.NoError(t, seeded.Resolve(cycleTime))
	require.NoError(t, f.alerts.Save(ctx, seeded))

	// two cycles back to back: the second one checks the first one's reading
	for i := 0; i < 2; i++ {
		result, err := f.processor.RunNow(ctx, workspace.DemoCompanyID)
		require.NoError(t, err)
		assert.False(t, result.AlertRaised, "cycle %d", i)
	}
}

func TestProcessor_RunNowRejectedWhileScheduledCycleInFlight(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// untrained models fail the scheduled cycle, which then waits for its retry
	cfg := processorConfig()
	cfg.RetryDelay = time.Minute
	p, err := New(cfg, f.processor.deps, 3, zap.NewNop())
	require.NoError(t, err)
	p.now = func() time.Time { return cycleTime }

	require.NoError(t, p.scheduler.Start(ctx))
	_, err = p.scheduler.Schedule(workspace.DemoCompanyID, scheduler.JobTypeRealtimeCycle)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.Status().CyclesFailed == 1 }, 5*time.Second, 10*time.Millisecond)

	_, err = p.RunNow(ctx, workspace.DemoCompanyID)
	assert.ErrorIs(t, err, scheduler.ErrJobInFlight)
	assert.Equal(t, int64(1), p.Status().CyclesFailed)
	assert.Zero(t, p.Status().CyclesCompleted)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, p.scheduler.Stop(stopCtx))

	// stopping drops the pending retry and frees the slot
	require.NoError(t, p.scheduler.RunExclusive(ctx, workspace.DemoCompanyID, scheduler.JobTypeRealtimeCycle,
		func(context.Context) error { return nil }))
}

func TestProcessor_ConcurrentRunNowRunsOneCycle(t *testing.T) {
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	f := newFixture(t, true)
	ctx := context.Background()

	const callers = 4
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.RunNow(ctx, workspace.DemoCompanyID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, busy int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, scheduler.ErrJobInFlight):
			busy++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.GreaterOrEqual(t, ok, 1)
	assert.Equal(t, callers, ok+busy)
	assert.Equal(t, int64(ok), f.processor.Status().CyclesCompleted)
}

func TestProcessor_CycleLeavesOtherCompanySpacesAlone(t *testing.T) {
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	f := newFixture(t, true)
	ctx := context.Background()

	companies := persistence.NewGormCompanyRepository(f.db.DB)
	spaces := persistence.NewGormSpaceRepository(f.db.DB)
	require.NoError(t, companies.Save(ctx, workspace.NewCompany("globex", "Globex")))
	theirs, err := workspace.NewSpace("globex", "desk_1_01", "Globex Desk", workspace.SpaceTypeDesk, 3, 500)
	require.NoError(t, err)
	theirs.SetOccupancy(7)
	require.NoError(t, spaces.Create(ctx, theirs))

	_, err = f.processor.RunNow(ctx, workspace.DemoCompanyID)
	require.NoError(t, err)

	got, err := spaces.FindByID(ctx, "globex", "desk_1_01")
	require.NoError(t, err)
	assert.Equal(t, "globex", got.CompanyID)
	assert.Equal(t, "Globex Desk", got.Name)
	assert.Equal(t, 500, got.Capacity)
	assert.Equal(t, 7, got.CurrentOccupancy)

	ours, err := spaces.FindByID(ctx, workspace.DemoCompanyID, "desk_1_01")
	require.NoError(t, err)
	assert.Equal(t, workspace.DemoCompanyID, ours.CompanyID)
	assert.NotEqual(t, "Globex Desk", ours.Name)
}
