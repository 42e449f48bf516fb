package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 2,
		QueueSize:         32,
		JobTimeout:        25 * time.Second,
		RetryAttempts:     3,
		RetryDelay:        60 * time.Second,
	}
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 || c.QueueSize <= 0 {
		return fmt.Errorf("%w: workers and queue size must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 || c.RetryDelay < 0 || c.RetryAttempts < 0 {
		return fmt.Errorf("%w: timeouts and retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

type inflightKey struct {
	companyID string
	jobType   JobType
}

// Scheduler runs jobs on a bounded worker pool. At most one job per company
// and type is queued or running at any time; failed jobs are retried after
// RetryDelay up to RetryAttempts times.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger
	observer JobObserver

	jobs     chan *Job
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	inflight map[inflightKey]struct{}
	timers   map[*time.Timer]*Job
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
		inflight: make(map[inflightKey]struct{}),
		timers:   make(map[*time.Timer]*Job),
	}, nil
}

// SetObserver registers a callback invoked after each job attempt
func (s *Scheduler) SetObserver(observer JobObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Start starts the worker pool. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs, drops queued jobs and pending retries and
// waits for workers. Jobs still running when ctx expires release their slot
// once they return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for t, job := range s.timers {
		t.Stop()
		delete(s.inflight, inflightKey{job.CompanyID, job.Type})
	}
	s.timers = make(map[*time.Timer]*Job)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.drain()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// drain discards queued jobs that no worker picked up
func (s *Scheduler) drain() {
	for {
		select {
		case job := <-s.jobs:
			s.release(job)
		default:
			return
		}
	}
}

// IsRunning reports whether the worker pool is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Schedule creates and submits a job for a company
func (s *Scheduler) Schedule(companyID string, jobType JobType) (*Job, error) {
	job := NewJob(companyID, jobType, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob enqueues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrSchedulerNotRunning
	}
	key := inflightKey{job.CompanyID, job.Type}
	if _, busy := s.inflight[key]; busy {
		return ErrJobInFlight
	}

	select {
	case s.jobs <- job:
		s.inflight[key] = struct{}{}
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("company_id", job.CompanyID),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// RunExclusive runs fn synchronously on the caller's goroutine while holding
// the company's slot for jobType, so a manual run and a scheduled job never
// overlap. It returns ErrJobInFlight when the slot is taken. The worker pool
// does not need to be running.
func (s *Scheduler) RunExclusive(ctx context.Context, companyID string, jobType JobType, fn func(context.Context) error) error {
	key := inflightKey{companyID, jobType}
	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrJobInFlight
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()
	return fn(ctx)
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	delete(s.inflight, inflightKey{job.CompanyID, job.Type})
	s.mu.Unlock()
}

// requeueLater puts a job back on the queue after its retry delay. The job
// stays in flight meanwhile, so the trigger cannot stack a duplicate on it.
func (s *Scheduler) requeueLater(job *Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		delete(s.inflight, inflightKey{job.CompanyID, job.Type})
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.timers, timer)
		if !s.running {
			delete(s.inflight, inflightKey{job.CompanyID, job.Type})
			return
		}
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue job for retry, queue full",
				zap.String("job_id", job.ID.String()))
			delete(s.inflight, inflightKey{job.CompanyID, job.Type})
		}
	})
	s.timers[timer] = job
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("company_id", job.CompanyID),
		zap.String("job_type", string(job.Type)),
	)
	log.Debug("Processing job", zap.Int("attempt", job.RetryCount+1))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()

	if err != nil {
		job.Fail(err.Error())
		log.Error("Job failed", zap.Error(err))
	} else {
		job.Complete()
		log.Debug("Job completed")
	}

	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer(*job, err)
	}

	if err != nil && job.ShouldRetry() && ctx.Err() == nil {
		job.ScheduleRetry(s.config.RetryDelay)
		log.Info("Job scheduled for retry",
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Duration("delay", s.config.RetryDelay),
		)
		s.requeueLater(job, s.config.RetryDelay)
		return
	}
	s.release(job)
}
