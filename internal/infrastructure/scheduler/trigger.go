package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CompanyProvider lists the companies to schedule work for
type CompanyProvider interface {
	CompanyIDs(ctx context.Context) ([]string, error)
}

// CompanyProviderFunc adapts a function to CompanyProvider
type CompanyProviderFunc func(ctx context.Context) ([]string, error)

// CompanyIDs implements CompanyProvider
func (f CompanyProviderFunc) CompanyIDs(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// IntervalTriggerConfig holds configuration for the interval trigger
type IntervalTriggerConfig struct {
	Interval   time.Duration
	JobType    JobType
	RunOnStart bool
}

// IntervalTrigger submits one job per company every Interval
type IntervalTrigger struct {
	config    IntervalTriggerConfig
	scheduler *Scheduler
	companies CompanyProvider
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(config IntervalTriggerConfig, scheduler *Scheduler, companies CompanyProvider, logger *zap.Logger) *IntervalTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		config:    config,
		scheduler: scheduler,
		companies: companies,
		logger:    logger,
	}
}

// Start starts the ticker loop. Calling Start twice is a no-op.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	if t.config.Interval <= 0 {
		return ErrInvalidConfig
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Interval trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.String("job_type", string(t.config.JobType)),
	)
	return nil
}

// Stop stops the ticker loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.Fire(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Fire(ctx)
		}
	}
}

// Fire submits a job for every company now and returns how many were queued
func (t *IntervalTrigger) Fire(ctx context.Context) int {
	ids, err := t.companies.CompanyIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to list companies for scheduling", zap.Error(err))
		return 0
	}

	queued := 0
	for _, id := range ids {
		_, err := t.scheduler.Schedule(id, t.config.JobType)
		switch {
		case err == nil:
			queued++
		case errors.Is(err, ErrJobInFlight):
			t.logger.Debug("Previous job still in flight, skipping tick", zap.String("company_id", id))
		default:
			t.logger.Warn("Failed to schedule job",
				zap.String("company_id", id),
				zap.Error(err))
		}
	}
	return queued
}
