package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartspace/backend/internal/domain/workspace"
)

// ConflictModel is the persistence model for a detected space conflict
type ConflictModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	SpaceID       string                    `gorm:"type:varchar(64);not null;index"`
	SpaceName     string                    `gorm:"type:varchar(200);not null"`
	Issues        []workspace.ConflictIssue `gorm:"type:text;serializer:json"`
	TotalSeverity int                       `gorm:"not null"`
	Status        string                    `gorm:"type:varchar(20);not null;index"`
	Resolution    string                    `gorm:"type:text"`
	DetectedAt    time.Time                 `gorm:"not null;index"`
	LastSeenAt    time.Time                 `gorm:"not null"`
	ResolvedAt    *time.Time
}

// TableName returns the table name for GORM
func (ConflictModel) TableName() string {
	return "conflicts"
}

// FromDomain populates the model from a domain conflict
func (m *ConflictModel) FromDomain(c *workspace.Conflict) {
	m.ID = c.ID
	m.CompanyID = c.CompanyID
	m.SpaceID = c.SpaceID
	m.SpaceName = c.SpaceName
	m.Issues = c.Issues
	m.TotalSeverity = c.TotalSeverity
	m.Status = string(c.Status)
	m.Resolution = c.Resolution
	m.DetectedAt = c.DetectedAt
	m.LastSeenAt = c.LastSeenAt
	if m.LastSeenAt.IsZero() {
		m.LastSeenAt = c.DetectedAt
	}
	m.ResolvedAt = c.ResolvedAt
}

// ToDomain converts the model to a domain conflict
func (m *ConflictModel) ToDomain() *workspace.Conflict {
	issues := m.Issues
	if issues == nil {
		issues = []workspace.ConflictIssue{}
	}
	return &workspace.Conflict{
		ID:            m.ID,
		CompanyID:     m.CompanyID,
		SpaceID:       m.SpaceID,
		SpaceName:     m.SpaceName,
		Issues:        issues,
		TotalSeverity: m.TotalSeverity,
		Status:        workspace.ConflictStatus(m.Status),
		Resolution:    m.Resolution,
		DetectedAt:    m.DetectedAt,
		LastSeenAt:    m.LastSeenAt,
		ResolvedAt:    m.ResolvedAt,
	}
}

// AlertModel is the persistence model for an alert
type AlertModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	Severity       string    `gorm:"type:varchar(20);not null;index"`
	Title          string    `gorm:"type:varchar(200);not null"`
	Description    string    `gorm:"type:text"`
	AffectedSpaces []string  `gorm:"type:text;serializer:json"`
	Resolved       bool      `gorm:"not null;default:false;index"`
	CreatedAt      time.Time `gorm:"not null;index"`
	ResolvedAt     *time.Time
}

// TableName returns the table name for GORM
func (AlertModel) TableName() string {
	return "alerts"
}

// FromDomain populates the model from a domain alert
func (m *AlertModel) FromDomain(a *workspace.Alert) {
	m.ID = a.ID
	m.CompanyID = a.CompanyID
	m.Severity = string(a.Severity)
	m.Title = a.Title
	m.Description = a.Description
	m.AffectedSpaces = a.AffectedSpaces
	m.Resolved = a.Resolved
	m.CreatedAt = a.CreatedAt
	m.ResolvedAt = a.ResolvedAt
}

// ToDomain converts the model to a domain alert
func (m *AlertModel) ToDomain() *workspace.Alert {
	affected := m.AffectedSpaces
	if affected == nil {
		affected = []string{}
	}
	return &workspace.Alert{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		Severity:       workspace.Severity(m.Severity),
		Title:          m.Title,
		Description:    m.Description,
		AffectedSpaces: affected,
		Resolved:       m.Resolved,
		CreatedAt:      m.CreatedAt,
		ResolvedAt:     m.ResolvedAt,
	}
}

// UserActivityModel is the persistence model for a badge/booking/login event
type UserActivityModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	UserID          string    `gorm:"type:varchar(64);not null;index"`
	Department      string    `gorm:"type:varchar(64);index"`
	ActivityType    string    `gorm:"type:varchar(32);not null"`
	Location        string    `gorm:"type:varchar(64)"`
	DurationMinutes int       `gorm:"not null;default:0"`
	Timestamp       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (UserActivityModel) TableName() string {
	return "user_activities"
}

// FromDomain populates the model from a domain activity
func (m *UserActivityModel) FromDomain(a *workspace.UserActivity) {
	m.ID = a.ID
	m.CompanyID = a.CompanyID
	m.UserID = a.UserID
	m.Department = a.Department
	m.ActivityType = a.ActivityType
	m.Location = a.Location
	m.DurationMinutes = a.DurationMinutes
	m.Timestamp = a.Timestamp
}

// ToDomain converts the model to a domain activity
func (m *UserActivityModel) ToDomain() *workspace.UserActivity {
	return &workspace.UserActivity{
		ID:              m.ID,
		CompanyID:       m.CompanyID,
		UserID:          m.UserID,
		Department:      m.Department,
		ActivityType:    m.ActivityType,
		Location:        m.Location,
		DurationMinutes: m.DurationMinutes,
		Timestamp:       m.Timestamp,
	}
}
