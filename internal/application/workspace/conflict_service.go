package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// AutoResolution is the resolution note of conflicts closed because their
// space no longer shows any issue.
const AutoResolution = "auto_resolved"

// ConflictService detects, stores and resolves space conflicts
type ConflictService struct {
	conflicts workspace.ConflictRepository
	spaces    workspace.SpaceRepository
	models    ModelProvider
	cache     cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewConflictService creates a new ConflictService. c may be nil.
func NewConflictService(
	conflicts workspace.ConflictRepository,
	spaces workspace.SpaceRepository,
	models ModelProvider,
	c cache.Cache,
	logger *zap.Logger,
) *ConflictService {
	return &ConflictService{
		conflicts: conflicts,
		spaces:    spaces,
		models:    models,
		cache:     c,
		logger:    logger.Named("conflicts"),
		now:       time.Now,
	}
}

// ListOpen returns the unresolved conflicts of a company
func (s *ConflictService) ListOpen(ctx context.Context, companyID string) ([]*workspace.Conflict, error) {
	conflicts, err := s.conflicts.FindOpen(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*workspace.Conflict{}
	}
	return conflicts, nil
}

// Detect runs conflict detection over the current spaces. A space keeps at
// most one open conflict: a new detection refreshes it, and open conflicts of
// spaces that no longer show issues are closed as auto resolved.
func (s *ConflictService) Detect(ctx context.Context, companyID string) (*DetectionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "conflicts", "detect", telemetry.AttrCompanyID, companyID)
	defer span.End()

	spaces, err := s.spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	open, err := s.conflicts.FindOpen(ctx, companyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	stale := make(map[string]*workspace.Conflict, len(open))
	for _, c := range open {
		stale[c.SpaceID] = c
	}

	now := s.now()
	detected := s.models.Optimizer(companyID).DetectConflicts(spaces, now)
	result := &DetectionResult{
		Detected:  len(detected),
		Conflicts: make([]*workspace.Conflict, 0, len(detected)),
	}
	for _, d := range detected {
		current, ok := stale[d.SpaceID]
		if ok {
			current.Refresh(d)
			result.Refreshed++
		} else {
			current = d
			result.Created++
		}
		if err := s.conflicts.Save(ctx, current); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("save conflict for space %s: %w", d.SpaceID, err)
		}
		delete(stale, d.SpaceID)
		result.Conflicts = append(result.Conflicts, current)
	}

	for _, c := range stale {
		if err := c.Resolve(AutoResolution, now); err != nil {
			continue
		}
		if err := s.conflicts.Save(ctx, c); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.AutoResolved++
	}

	if result.Created > 0 || result.AutoResolved > 0 {
		s.invalidate(ctx, companyID)
	}
	telemetry.SetAttributes(span, "detected", result.Detected, "auto_resolved", result.AutoResolved)
	s.logger.Debug("Conflict detection finished",
		zap.String("company_id", companyID),
		zap.Int("detected", result.Detected),
		zap.Int("created", result.Created),
		zap.Int("refreshed", result.Refreshed),
		zap.Int("auto_resolved", result.AutoResolved),
	)
	return result, nil
}

// Resolve closes a conflict with an operator supplied note
func (s *ConflictService) Resolve(ctx context.Context, companyID string, id uuid.UUID, resolution string) (*workspace.Conflict, error) {
	conflict, err := s.conflicts.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := conflict.Resolve(resolution, s.now()); err != nil {
		return nil, err
	}
	if err := s.conflicts.Save(ctx, conflict); err != nil {
		return nil, err
	}
	s.invalidate(ctx, companyID)
	s.logger.Info("Conflict resolved",
		zap.String("company_id", companyID),
		zap.String("conflict_id", id.String()),
		zap.String("space_id", conflict.SpaceID),
	)
	return conflict, nil
}

// ResolutionStats summarizes the conflicts resolved in the last week
func (s *ConflictService) ResolutionStats(ctx context.Context, companyID string) (ConflictResolutionStats, error) {
	var stats ConflictResolutionStats
	active, err := s.conflicts.CountOpen(ctx, companyID)
	if err != nil {
		return stats, err
	}
	stats.ActiveConflicts = active

	resolved, err := s.conflicts.FindResolvedSince(ctx, companyID, s.now().Add(-7*24*time.Hour))
	if err != nil {
		return stats, err
	}
	stats.ResolvedLastWeek = len(resolved)
	if len(resolved) == 0 {
		stats.AverageResolutionTime = "n/a"
		return stats, nil
	}

	var auto int
	var total time.Duration
	for _, c := range resolved {
		if c.Resolution == AutoResolution {
			auto++
		}
		if c.ResolvedAt != nil {
			total += c.ResolvedAt.Sub(c.DetectedAt)
		}
	}
	avg := total / time.Duration(len(resolved))
	stats.AutoResolutionRate = float64(auto) / float64(len(resolved))
	stats.AverageResolutionMinutes = avg.Minutes()
	stats.AverageResolutionTime = fmt.Sprintf("%.1f minutes", avg.Minutes())
	return stats, nil
}

func (s *ConflictService) invalidate(ctx context.Context, companyID string) {
	if err := cache.Invalidate(ctx, s.cache, companyID); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
}
