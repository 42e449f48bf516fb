package workspace

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartspace/backend/internal/domain/shared"
)

// Alert is an operator-facing notification about the facility
type Alert struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      string     `json:"company_id"`
	Severity       Severity   `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AffectedSpaces []string   `json:"affected_spaces"`
	Resolved       bool       `json:"resolved"`
	CreatedAt      time.Time  `json:"timestamp"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// NewAlert creates an unresolved alert
func NewAlert(companyID string, severity Severity, title, description string, affected []string) (*Alert, error) {
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown alert severity: "+string(severity))
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Alert title is required")
	}
	if affected == nil {
		affected = []string{}
	}
	return &Alert{
		ID:             uuid.New(),
		CompanyID:      companyID,
		Severity:       severity,
		Title:          title,
		Description:    description,
		AffectedSpaces: affected,
		CreatedAt:      time.Now(),
	}, nil
}

// Resolve marks the alert as handled
func (a *Alert) Resolve(at time.Time) error {
	if a.Resolved {
		return shared.NewDomainError("INVALID_STATE", "Alert is already resolved")
	}
	a.Resolved = true
	a.ResolvedAt = &at
	return nil
}
