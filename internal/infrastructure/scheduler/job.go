package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType identifies the work a job performs
type JobType string

// JobTypeRealtimeCycle runs one analytics processing cycle for a company
const JobTypeRealtimeCycle JobType = "REALTIME_CYCLE"

// Job is one unit of background work for a company
type Job struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   string     `json:"company_id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// NewJob creates a pending job
func NewJob(companyID string, jobType JobType, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		CompanyID:  companyID,
		Type:       jobType,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
	j.NextRetryAt = nil
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// IsTerminal reports whether the job will not run again
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusSuccess || (j.Status == JobStatusFailed && !j.ShouldRetry())
}

// JobExecutor is the interface for executing jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute implements JobExecutor
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// JobObserver is notified after every attempt of a job
type JobObserver func(job Job, err error)
