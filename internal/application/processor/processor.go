// Package processor runs the background analytics cycle: it refreshes space
// occupancy, detects conflicts, stores model output and appends readings for
// every company on a fixed interval.
package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/energy"
	appworkspace "github.com/smartspace/backend/internal/application/workspace"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/ml"
	"github.com/smartspace/backend/internal/infrastructure/scheduler"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
	"github.com/smartspace/backend/internal/infrastructure/timeseries"
)

// HighConsumptionAlert is the title of the alert raised for consumption anomalies
const HighConsumptionAlert = "High Energy Consumption"

// Base conditions for the per-cycle energy prediction
const (
	baseOutdoorTemperature = 22.0
	baseBuildingAge        = 10.0
	baseFloorArea          = 50000.0
	carbonPerKWh           = 0.4
)

// Load split of a predicted total into its reading components
var (
	hvacShare     = 0.45
	lightingShare = 0.20
)

// ErrUnknownJobType is returned for jobs the processor does not handle
var ErrUnknownJobType = errors.New("processor: unknown job type")

// Models trains and serves the per-company analytics models
type Models interface {
	appworkspace.ModelProvider
	Train(ctx context.Context, companyID string, force bool) error
}

// Dependencies are the stores and services a cycle works with. Sink,
// Collector and Cache are optional.
type Dependencies struct {
	Companies   workspace.CompanyRepository
	Spaces      workspace.SpaceRepository
	Readings    workspace.ReadingRepository
	Predictions workspace.PredictionRepository
	Conflicts   *appworkspace.ConflictService
	Alerts      *appworkspace.AlertService
	Models      Models
	Sink        timeseries.Sink
	Collector   *telemetry.AnalyticsCollector
	Cache       cache.Cache
}

// Status is the externally visible state of the processor
type Status struct {
	Running         bool       `json:"running"`
	Interval        string     `json:"interval"`
	LastCycleAt     *time.Time `json:"last_cycle_at"`
	LastCompanyID   string     `json:"last_company_id,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	CyclesCompleted int64      `json:"cycles_completed"`
	CyclesFailed    int64      `json:"cycles_failed"`
}

// CycleResult summarizes one completed cycle
type CycleResult struct {
	CompanyID            string                        `json:"company_id"`
	Timestamp            time.Time                     `json:"timestamp"`
	SpacesUpdated        int                           `json:"spaces_updated"`
	OverallUtilization   float64                       `json:"overall_utilization"`
	Conflicts            *appworkspace.DetectionResult `json:"conflicts"`
	PredictedConsumption float64                       `json:"predicted_consumption"`
	AlertRaised          bool                          `json:"alert_raised"`
	Duration             string                        `json:"duration"`
}

// Processor owns the scheduler and interval trigger that drive the cycle
type Processor struct {
	cfg       config.ProcessorConfig
	deps      Dependencies
	logger    *zap.Logger
	scheduler *scheduler.Scheduler
	trigger   *scheduler.IntervalTrigger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	status Status
}

// New wires a processor. seed drives the occupancy jitter.
func New(cfg config.ProcessorConfig, deps Dependencies, seed uint64, logger *zap.Logger) (*Processor, error) {
	if deps.Sink == nil {
		deps.Sink = timeseries.NopSink{}
	}
	p := &Processor{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("processor"),
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		status: Status{Interval: cfg.Interval.String()},
	}

	sched, err := scheduler.NewScheduler(scheduler.SchedulerConfig{
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		QueueSize:         cfg.QueueSize,
		JobTimeout:        cfg.JobTimeout,
		RetryAttempts:     cfg.MaxRetries,
		RetryDelay:        cfg.RetryDelay,
	}, p, p.logger.Named("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("processor scheduler: %w", err)
	}
	sched.SetObserver(p.observe)
	p.scheduler = sched
	p.trigger = scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
		Interval:   cfg.Interval,
		JobType:    scheduler.JobTypeRealtimeCycle,
		RunOnStart: true,
	}, sched, scheduler.CompanyProviderFunc(p.companyIDs), p.logger.Named("trigger"))
	return p, nil
}

// Start trains the models of every company and begins the interval loop.
// Calling Start on a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.status.Running {
		p.mu.Unlock()
		return nil
	}
	p.status.Running = true
	p.mu.Unlock()

	ids, err := p.companyIDs(ctx)
	if err != nil {
		p.setRunning(false)
		return err
	}
	for _, id := range ids {
		if err := p.deps.Models.Train(ctx, id, false); err != nil {
			if ctx.Err() != nil {
				p.setRunning(false)
				return ctx.Err()
			}
			p.logger.Warn("Initial model training failed", zap.String("company_id", id), zap.Error(err))
		}
	}

	if err := p.scheduler.Start(ctx); err != nil {
		p.setRunning(false)
		return err
	}
	if err := p.trigger.Start(ctx); err != nil {
		_ = p.scheduler.Stop(ctx)
		p.setRunning(false)
		return err
	}
	p.logger.Info("Real-time processor started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Int("companies", len(ids)))
	return nil
}

// Stop halts the trigger and drains the worker pool
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.status.Running {
		p.mu.Unlock()
		return nil
	}
	p.status.Running = false
	p.mu.Unlock()

	triggerErr := p.trigger.Stop(ctx)
	schedErr := p.scheduler.Stop(ctx)
	p.logger.Info("Real-time processor stopped")
	return errors.Join(triggerErr, schedErr)
}

func (p *Processor) setRunning(running bool) {
	p.mu.Lock()
	p.status.Running = running
	p.mu.Unlock()
}

// Status returns a copy of the current status
func (p *Processor) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	if s.LastCycleAt != nil {
		at := *s.LastCycleAt
		s.LastCycleAt = &at
	}
	return s
}

// Execute implements scheduler.JobExecutor
func (p *Processor) Execute(ctx context.Context, job *scheduler.Job) error {
	if job.Type != scheduler.JobTypeRealtimeCycle {
		return ErrUnknownJobType
	}
	_, err := p.RunCycle(ctx, job.CompanyID)
	return err
}

// RunNow runs one cycle for a company outside the schedule, training its
// models first when needed. It shares the scheduler's per-company slot and
// returns scheduler.ErrJobInFlight while a cycle for the company is queued
// or running.
func (p *Processor) RunNow(ctx context.Context, companyID string) (*CycleResult, error) {
	if _, err := p.deps.Companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	var result *CycleResult
	err := p.scheduler.RunExclusive(ctx, companyID, scheduler.JobTypeRealtimeCycle, func(ctx context.Context) error {
		if err := p.deps.Models.Train(ctx, companyID, false); err != nil {
			return err
		}
		start := p.now()
		var err error
		result, err = p.RunCycle(ctx, companyID)
		p.record(companyID, err, p.now().Sub(start))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Processor) observe(job scheduler.Job, err error) {
	var elapsed time.Duration
	if job.StartedAt != nil && job.CompletedAt != nil {
		elapsed = job.CompletedAt.Sub(*job.StartedAt)
	}
	p.record(job.CompanyID, err, elapsed)
}

func (p *Processor) record(companyID string, err error, elapsed time.Duration) {
	at := p.now()
	p.mu.Lock()
	p.status.LastCycleAt = &at
	p.status.LastCompanyID = companyID
	if err != nil {
		p.status.CyclesFailed++
		p.status.LastError = err.Error()
	} else {
		p.status.CyclesCompleted++
		p.status.LastError = ""
	}
	p.mu.Unlock()

	if p.deps.Collector != nil {
		p.deps.Collector.ObserveCycle(companyID, err, elapsed)
	}
}

func (p *Processor) companyIDs(ctx context.Context) ([]string, error) {
	companies, err := p.deps.Companies.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}
	return ids, nil
}

// RunCycle performs one full processing pass for a company
func (p *Processor) RunCycle(ctx context.Context, companyID string) (*CycleResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "processor", "cycle", telemetry.AttrCompanyID, companyID)
	defer span.End()

	start := p.now()
	result, err := p.runCycle(ctx, companyID, start)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Duration = p.now().Sub(start).String()
	p.logger.Debug("Cycle completed",
		zap.String("company_id", companyID),
		zap.Int("conflicts", result.Conflicts.Detected),
		zap.Bool("alert_raised", result.AlertRaised))
	return result, nil
}

func (p *Processor) runCycle(ctx context.Context, companyID string, now time.Time) (*CycleResult, error) {
	spaces, err := p.deps.Spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		return nil, err
	}
	p.updateOccupancy(spaces, now)
	if err := p.deps.Spaces.SaveAll(ctx, spaces); err != nil {
		return nil, fmt.Errorf("save occupancy: %w", err)
	}

	detection, err := p.deps.Conflicts.Detect(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}
	if p.deps.Collector != nil {
		p.deps.Collector.SetOpenConflicts(companyID, detection.Detected)
	}

	spaceReading := workspace.SnapshotSpaces(companyID, spaces, now)
	result := &CycleResult{
		CompanyID:          companyID,
		Timestamp:          now,
		SpacesUpdated:      len(spaces),
		OverallUtilization: spaceReading.OverallUtilization,
		Conflicts:          detection,
	}

	if len(spaces) > 0 {
		analytics, err := p.deps.Models.Optimizer(companyID).RealTimeAnalytics(spaces, now)
		if err != nil {
			return nil, fmt.Errorf("real-time analytics: %w", err)
		}
		if err := p.storePrediction(ctx, companyID, workspace.ModelSpaceOptimizer, analytics, now); err != nil {
			return nil, err
		}
	}

	predictor := p.deps.Models.Predictor(companyID)
	base := baseInput(spaceReading.OverallUtilization).Resolve(now)
	pred, err := predictor.Predict(base)
	if err != nil {
		return nil, fmt.Errorf("energy prediction: %w", err)
	}
	if err := p.storePrediction(ctx, companyID, workspace.ModelEnergyPredictor, pred, now); err != nil {
		return nil, err
	}
	result.PredictedConsumption = pred.PredictedConsumption

	// the reading this cycle writes is the model's own expectation; the check
	// runs against what was stored before it
	previous, err := p.deps.Readings.LatestEnergy(ctx, companyID, 1)
	if err != nil {
		return nil, fmt.Errorf("load latest energy reading: %w", err)
	}

	energyReading := readingFromPrediction(companyID, pred, now)
	if err := p.deps.Readings.SaveSpace(ctx, spaceReading); err != nil {
		return nil, fmt.Errorf("save space reading: %w", err)
	}
	if err := p.deps.Readings.SaveEnergy(ctx, energyReading); err != nil {
		return nil, fmt.Errorf("save energy reading: %w", err)
	}

	raised, err := p.checkConsumption(ctx, companyID, predictor, base, previous)
	if err != nil {
		return nil, err
	}
	result.AlertRaised = raised

	p.archive(ctx, companyID, energyReading, spaceReading)

	if err := cache.Invalidate(ctx, p.deps.Cache, companyID); err != nil {
		p.logger.Warn("Failed to invalidate analytics cache", zap.String("company_id", companyID), zap.Error(err))
	}
	return result, nil
}

// updateOccupancy sets every space to the hourly profile with ±20% jitter
func (p *Processor) updateOccupancy(spaces []*workspace.Space, now time.Time) {
	profile := workspace.OccupancyProfile(now.Hour())
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	for _, sp := range spaces {
		factor := profile * ml.Uniform(p.rng, 0.8, 1.2)
		sp.SetOccupancy(int(math.Round(float64(sp.Capacity) * factor)))
	}
}

func baseInput(utilization float64) energy.Input {
	temp, age, area := baseOutdoorTemperature, baseBuildingAge, baseFloorArea
	return energy.Input{
		OutdoorTemperature: &temp,
		OccupancyRate:      &utilization,
		BuildingAge:        &age,
		FloorArea:          &area,
	}
}

func readingFromPrediction(companyID string, pred *energy.Prediction, at time.Time) *workspace.EnergyReading {
	total := pred.PredictedConsumption
	return &workspace.EnergyReading{
		ID:                   uuid.New(),
		CompanyID:            companyID,
		Timestamp:            at,
		TotalConsumption:     total,
		HVACConsumption:      total * hvacShare,
		LightingConsumption:  total * lightingShare,
		EquipmentConsumption: total * (1 - hvacShare - lightingShare),
		CostPerHour:          pred.PredictedCost.Round(4),
		EfficiencyScore:      pred.EfficiencyScore,
		CarbonFootprint:      total * carbonPerKWh,
	}
}

func (p *Processor) storePrediction(ctx context.Context, companyID string, model workspace.ModelType, payload any, at time.Time) error {
	prediction, err := workspace.NewPrediction(companyID, model, payload, at)
	if err != nil {
		return err
	}
	if err := p.deps.Predictions.Save(ctx, prediction); err != nil {
		return fmt.Errorf("store %s prediction: %w", model, err)
	}
	if p.deps.Collector != nil {
		p.deps.Collector.PredictionStored(string(model))
	}
	return nil
}

// checkConsumption raises the high consumption alert when the newest reading
// stored before this cycle deviates from the model expectation
func (p *Processor) checkConsumption(ctx context.Context, companyID string, predictor *energy.Predictor, base energy.Features, previous []*workspace.EnergyReading) (bool, error) {
	if len(previous) == 0 {
		return false, nil
	}
	anomalies, err := predictor.DetectAnomalies([]energy.Observation{energy.ObservationFromReading(previous[0], base)})
	if err != nil {
		return false, err
	}
	for _, a := range anomalies {
		if a.Type != energy.AnomalyConsumption {
			continue
		}
		_, created, err := p.deps.Alerts.RaiseOnce(ctx, companyID, a.Severity, HighConsumptionAlert, a.Message, nil)
		if err != nil {
			return false, fmt.Errorf("raise alert: %w", err)
		}
		if created && p.deps.Collector != nil {
			p.deps.Collector.AlertRaised(string(a.Severity))
		}
		return created, nil
	}
	return false, nil
}

// archive copies the new readings to the time-series sink. Failures are
// logged; the transactional store already holds the data.
func (p *Processor) archive(ctx context.Context, companyID string, e *workspace.EnergyReading, s *workspace.SpaceReading) {
	if err := p.deps.Sink.ArchiveEnergy(ctx, e); err != nil {
		p.logger.Warn("Failed to archive energy reading", zap.String("company_id", companyID), zap.Error(err))
	}
	if err := p.deps.Sink.ArchiveSpace(ctx, s); err != nil {
		p.logger.Warn("Failed to archive space reading", zap.String("company_id", companyID), zap.Error(err))
	}
}

var _ scheduler.JobExecutor = (*Processor)(nil)
