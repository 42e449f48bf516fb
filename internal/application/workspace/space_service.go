package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/energy"
	"github.com/smartspace/backend/internal/application/space"
	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

const (
	defaultDetailLimit = 20
	maxDetailLimit     = 50
)

// ModelProvider hands out the per-company analytics models
type ModelProvider interface {
	Optimizer(companyID string) *space.Optimizer
	Predictor(companyID string) *energy.Predictor
}

// SpaceService manages spaces and their live occupancy
type SpaceService struct {
	spaces workspace.SpaceRepository
	models ModelProvider
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewSpaceService creates a new SpaceService. c may be nil.
func NewSpaceService(spaces workspace.SpaceRepository, models ModelProvider, c cache.Cache, logger *zap.Logger) *SpaceService {
	return &SpaceService{
		spaces: spaces,
		models: models,
		cache:  c,
		logger: logger.Named("spaces"),
		now:    time.Now,
	}
}

// List returns the raw spaces of a company
func (s *SpaceService) List(ctx context.Context, companyID string, q ListSpacesQuery) ([]*workspace.Space, error) {
	filter := workspace.SpaceFilter{Floor: q.Floor}
	if q.Type != "" {
		t := workspace.SpaceType(q.Type)
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown space type: "+q.Type)
		}
		filter.Type = t
	}
	spaces, err := s.spaces.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	if spaces == nil {
		spaces = []*workspace.Space{}
	}
	return spaces, nil
}

// Detailed returns spaces with utilization, status and efficiency. Search
// matches name or type; the limit applies after filtering.
func (s *SpaceService) Detailed(ctx context.Context, companyID string, q DetailedSpacesQuery) (*SpaceDetailList, error) {
	spaces, err := s.spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		return nil, err
	}
	limit := shared.ClampLimit(q.Limit, defaultDetailLimit, maxDetailLimit)
	th := s.models.Optimizer(companyID).Thresholds()
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := &SpaceDetailList{Spaces: []SpaceDetail{}}
	for _, sp := range spaces {
		d := detail(sp, th)
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(d.Name), term) && !strings.Contains(d.Type, term) {
			continue
		}
		out.Spaces = append(out.Spaces, d)
		if len(out.Spaces) == limit {
			break
		}
	}
	out.Total = len(out.Spaces)
	return out, nil
}

func detail(sp *workspace.Space, th space.Thresholds) SpaceDetail {
	u := sp.Utilization()
	amenities := sp.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return SpaceDetail{
		ID:              sp.ID,
		Name:            sp.Name,
		Type:            string(sp.Type),
		Floor:           sp.Floor,
		Department:      sp.Department,
		Capacity:        sp.Capacity,
		Current:         sp.CurrentOccupancy,
		Utilization:     u,
		Efficiency:      space.SingleEfficiency(sp.Environment, u, th),
		Status:          workspace.ClassifyUtilization(u),
		Temperature:     sp.Environment.Temperature,
		Humidity:        sp.Environment.Humidity,
		CO2Level:        sp.Environment.CO2Level,
		Noise:           sp.Environment.NoiseLevel,
		AirQuality:      sp.Environment.AirQuality,
		LastCleaned:     sp.LastCleanedAt,
		NextMaintenance: sp.NextMaintenanceAt,
		Rating:          sp.Rating,
		Amenities:       amenities,
	}
}

// Create adds a space. Without an explicit id one is derived as
// {type}_{floor}_{n}.
func (s *SpaceService) Create(ctx context.Context, companyID string, req CreateSpaceRequest) (*workspace.Space, error) {
	spaceType := workspace.SpaceType(req.Type)
	if !spaceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown space type: "+req.Type)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		generated, err := s.nextID(ctx, companyID, spaceType, req.Floor)
		if err != nil {
			return nil, err
		}
		id = generated
	} else {
		exists, err := s.spaces.ExistsByID(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Space with this id already exists")
		}
	}

	sp, err := workspace.NewSpace(companyID, id, req.Name, spaceType, req.Floor, req.Capacity)
	if err != nil {
		return nil, err
	}
	sp.Department = strings.ToLower(strings.TrimSpace(req.Department))
	if req.Amenities != nil {
		sp.Amenities = req.Amenities
	}
	if err := s.spaces.Create(ctx, sp); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Space with this id already exists")
		}
		return nil, err
	}
	s.invalidate(ctx, companyID)
	s.logger.Info("Space created",
		zap.String("company_id", companyID),
		zap.String("space_id", sp.ID),
		zap.String("type", string(sp.Type)),
	)
	return sp, nil
}

func (s *SpaceService) nextID(ctx context.Context, companyID string, t workspace.SpaceType, floor int) (string, error) {
	count, err := s.spaces.Count(ctx, companyID)
	if err != nil {
		return "", err
	}
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("%s_%d_%d", t, floor, n)
		exists, err := s.spaces.ExistsByID(ctx, companyID, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

// UpdateOccupancy records a new head count, clamped to the capacity
func (s *SpaceService) UpdateOccupancy(ctx context.Context, companyID, id string, occupancy int) (*workspace.Space, error) {
	if occupancy < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Occupancy cannot be negative")
	}
	sp, err := s.spaces.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	sp.SetOccupancy(occupancy)
	if err := s.spaces.Save(ctx, sp); err != nil {
		return nil, err
	}
	s.invalidate(ctx, companyID)
	return sp, nil
}

// Predict estimates the utilization of a space at the requested time
func (s *SpaceService) Predict(ctx context.Context, companyID, id string, req PredictSpaceRequest) (*SpacePrediction, error) {
	ctx, span := telemetry.StartSpan(ctx, "spaces", "predict",
		telemetry.AttrCompanyID, companyID,
		telemetry.AttrSpaceID, id,
	)
	defer span.End()

	sp, err := s.spaces.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		at = *req.Timestamp
	}
	f := space.FeaturesForSpace(sp, at)
	f.BookingConflicts = req.BookingConflicts
	f.IsHoliday = req.IsHoliday

	pred, err := s.models.Optimizer(companyID).PredictUtilization(f)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &SpacePrediction{
		SpaceID:               sp.ID,
		SpaceName:             sp.Name,
		Timestamp:             at,
		UtilizationPrediction: pred,
	}, nil
}

func (s *SpaceService) invalidate(ctx context.Context, companyID string) {
	if err := cache.Invalidate(ctx, s.cache, companyID); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
}
