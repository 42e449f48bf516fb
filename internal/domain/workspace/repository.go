package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompanyRepository persists tenants
type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*Company, error)
	FindAll(ctx context.Context) ([]*Company, error)
	Save(ctx context.Context, company *Company) error
}

// SpaceFilter narrows space listings
type SpaceFilter struct {
	Type  SpaceType
	Floor int
}

// SpaceRepository persists spaces
type SpaceRepository interface {
	FindByID(ctx context.Context, companyID, id string) (*Space, error)
	FindAll(ctx context.Context, companyID string, filter SpaceFilter) ([]*Space, error)
	// Create fails with shared.ErrAlreadyExists instead of overwriting
	Create(ctx context.Context, space *Space) error
	Save(ctx context.Context, space *Space) error
	SaveAll(ctx context.Context, spaces []*Space) error
	ExistsByID(ctx context.Context, companyID, id string) (bool, error)
	Count(ctx context.Context, companyID string) (int64, error)
}

// EmployeeFilter narrows employee listings
type EmployeeFilter struct {
	Search     string
	Department string
	Status     EmployeeStatus
	Limit      int
	SortBy     string
	SortOrder  string
}

// EmployeeRepository persists employees
type EmployeeRepository interface {
	FindByID(ctx context.Context, companyID, id string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	FindAll(ctx context.Context, companyID string, filter EmployeeFilter) ([]*Employee, int64, error)
	FindByAssignedDesk(ctx context.Context, companyID string, deskIDs []string) (map[string]*Employee, error)
	Create(ctx context.Context, employee *Employee) error
	Save(ctx context.Context, employee *Employee) error
	Delete(ctx context.Context, companyID, id string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	NextID(ctx context.Context, companyID string) (string, error)
}

// ConflictRepository persists detected conflicts
type ConflictRepository interface {
	FindByID(ctx context.Context, companyID string, id uuid.UUID) (*Conflict, error)
	FindOpen(ctx context.Context, companyID string) ([]*Conflict, error)
	FindOpenBySpace(ctx context.Context, companyID, spaceID string) (*Conflict, error)
	FindResolvedSince(ctx context.Context, companyID string, since time.Time) ([]*Conflict, error)
	Save(ctx context.Context, conflict *Conflict) error
	CountOpen(ctx context.Context, companyID string) (int64, error)
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	Severity Severity
	Resolved *bool
	Limit    int
}

// AlertStats summarizes the alert table for list metadata
type AlertStats struct {
	Total      int64 `json:"total_alerts"`
	Unresolved int64 `json:"unresolved_count"`
	Critical   int64 `json:"critical_count"`
}

// AlertRepository persists alerts
type AlertRepository interface {
	FindByID(ctx context.Context, companyID string, id uuid.UUID) (*Alert, error)
	FindAll(ctx context.Context, companyID string, filter AlertFilter) ([]*Alert, error)
	FindUnresolvedByTitle(ctx context.Context, companyID, title string) (*Alert, error)
	Stats(ctx context.Context, companyID string) (AlertStats, error)
	Save(ctx context.Context, alert *Alert) error
}

// ReadingRepository persists energy and space time series
type ReadingRepository interface {
	SaveEnergy(ctx context.Context, readings ...*EnergyReading) error
	SaveSpace(ctx context.Context, readings ...*SpaceReading) error
	// Energy and Space return readings in [from, to) ordered oldest first.
	Energy(ctx context.Context, companyID string, from, to time.Time) ([]*EnergyReading, error)
	Space(ctx context.Context, companyID string, from, to time.Time) ([]*SpaceReading, error)
	LatestEnergy(ctx context.Context, companyID string, limit int) ([]*EnergyReading, error)
	LatestSpace(ctx context.Context, companyID string, limit int) ([]*SpaceReading, error)
	CountEnergy(ctx context.Context, companyID string) (int64, error)
}

// PredictionRepository persists model outputs
type PredictionRepository interface {
	Save(ctx context.Context, prediction *Prediction) error
	// Latest returns newest first; an empty modelType matches all models.
	Latest(ctx context.Context, companyID string, modelType ModelType, limit int) ([]*Prediction, error)
}

// ActivityFilter narrows activity listings
type ActivityFilter struct {
	Department string
	Limit      int
}

// ActivityRepository persists user activities
type ActivityRepository interface {
	Save(ctx context.Context, activities ...*UserActivity) error
	FindRecent(ctx context.Context, companyID string, filter ActivityFilter) ([]*UserActivity, error)
	Count(ctx context.Context, companyID string) (int64, error)
}
