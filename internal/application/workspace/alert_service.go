package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
)

const (
	defaultAlertLimit = 10
	maxAlertLimit     = 50
)

// AlertService lists, raises and resolves facility alerts
type AlertService struct {
	alerts workspace.AlertRepository
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertService creates a new AlertService. c may be nil.
func NewAlertService(alerts workspace.AlertRepository, c cache.Cache, logger *zap.Logger) *AlertService {
	return &AlertService{
		alerts: alerts,
		cache:  c,
		logger: logger.Named("alerts"),
		now:    time.Now,
	}
}

// List returns alerts newest first together with table-wide counters
func (s *AlertService) List(ctx context.Context, companyID string, q ListAlertsQuery) (*AlertList, error) {
	filter := workspace.AlertFilter{
		Resolved: q.Resolved,
		Limit:    shared.ClampLimit(q.Limit, defaultAlertLimit, maxAlertLimit),
	}
	if q.Severity != "" {
		severity := workspace.Severity(q.Severity)
		if !severity.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown severity: "+q.Severity)
		}
		filter.Severity = severity
	}

	alerts, err := s.alerts.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	stats, err := s.alerts.Stats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []*workspace.Alert{}
	}
	return &AlertList{Alerts: alerts, Metadata: stats}, nil
}

// Resolve marks an alert as handled
func (s *AlertService) Resolve(ctx context.Context, companyID string, id uuid.UUID) (*workspace.Alert, error) {
	alert, err := s.alerts.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(s.now()); err != nil {
		return nil, err
	}
	if err := s.alerts.Save(ctx, alert); err != nil {
		return nil, err
	}
	if err := cache.Invalidate(ctx, s.cache, companyID); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
	return alert, nil
}

// RaiseOnce creates an alert unless an unresolved one with the same title
// exists. The second return value reports whether a new alert was stored.
func (s *AlertService) RaiseOnce(ctx context.Context, companyID string, severity workspace.Severity, title, description string, affected []string) (*workspace.Alert, bool, error) {
	existing, err := s.alerts.FindUnresolvedByTitle(ctx, companyID, title)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, false, err
	}

	alert, err := workspace.NewAlert(companyID, severity, title, description, affected)
	if err != nil {
		return nil, false, err
	}
	alert.CreatedAt = s.now()
	if err := s.alerts.Save(ctx, alert); err != nil {
		return nil, false, err
	}
	s.logger.Warn("Alert raised",
		zap.String("company_id", companyID),
		zap.String("severity", string(severity)),
		zap.String("title", title),
	)
	return alert, true, nil
}
