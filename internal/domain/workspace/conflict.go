package workspace

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartspace/backend/internal/domain/shared"
)

// Severity ranks conflicts and alerts
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight is used to rank conflicting spaces
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical, SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// IsValid returns true for known severities
func (s Severity) IsValid() bool {
	return s.Weight() > 0
}

// Conflict issue types
const (
	IssueCriticalOvercrowding = "critical_overcrowding"
	IssueOvercrowdingWarning  = "overcrowding_warning"
	IssueTemperature          = "temperature_issue"
	IssueHumidity             = "humidity_issue"
	IssueAirQuality           = "air_quality_issue"
	IssueNoise                = "noise_issue"
)

// ConflictStatus tracks the lifecycle of a conflict
type ConflictStatus string

const (
	ConflictStatusOpen     ConflictStatus = "open"
	ConflictStatusResolved ConflictStatus = "resolved"
)

// ConflictIssue is a single rule violation found in a space
type ConflictIssue struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

// Conflict groups the issues detected for one space at one point in time
type Conflict struct {
	ID            uuid.UUID       `json:"id"`
	CompanyID     string          `json:"company_id"`
	SpaceID       string          `json:"space_id"`
	SpaceName     string          `json:"space_name"`
	Issues        []ConflictIssue `json:"conflicts"`
	TotalSeverity int             `json:"total_severity"`
	Status        ConflictStatus  `json:"status"`
	Resolution    string          `json:"resolution,omitempty"`
	DetectedAt    time.Time       `json:"timestamp"`
	LastSeenAt    time.Time       `json:"last_seen_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
}

// NewConflict creates an open conflict and computes its total severity
func NewConflict(companyID, spaceID, spaceName string, issues []ConflictIssue, detectedAt time.Time) *Conflict {
	c := &Conflict{
		ID:         uuid.New(),
		CompanyID:  companyID,
		SpaceID:    spaceID,
		SpaceName:  spaceName,
		Status:     ConflictStatusOpen,
		DetectedAt: detectedAt,
		LastSeenAt: detectedAt,
	}
	c.SetIssues(issues)
	return c
}

// SetIssues replaces the issue list and recomputes the severity total
func (c *Conflict) SetIssues(issues []ConflictIssue) {
	c.Issues = issues
	total := 0
	for _, issue := range issues {
		total += issue.Severity.Weight()
	}
	c.TotalSeverity = total
}

// Refresh updates an open conflict with a newer detection of the same space.
// DetectedAt keeps the first sighting so resolution times cover the whole
// life of the conflict.
func (c *Conflict) Refresh(other *Conflict) {
	c.SetIssues(other.Issues)
	c.SpaceName = other.SpaceName
	if other.DetectedAt.After(c.LastSeenAt) {
		c.LastSeenAt = other.DetectedAt
	}
}

// IsOpen returns true while the conflict is unresolved
func (c *Conflict) IsOpen() bool {
	return c.Status == ConflictStatusOpen
}

// HighestSeverity returns the most severe issue level
func (c *Conflict) HighestSeverity() Severity {
	best := Severity("")
	for _, issue := range c.Issues {
		if issue.Severity.Weight() > best.Weight() {
			best = issue.Severity
		}
	}
	return best
}

// Resolve closes the conflict with a resolution note
func (c *Conflict) Resolve(resolution string, at time.Time) error {
	if !c.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Conflict is already resolved")
	}
	if resolution == "" {
		resolution = "resolved"
	}
	c.Status = ConflictStatusResolved
	c.Resolution = resolution
	c.ResolvedAt = &at
	return nil
}
