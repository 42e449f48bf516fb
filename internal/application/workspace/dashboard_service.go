package workspace

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/space"
	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 500
	defaultSeriesHours   = 24
	maxSeriesHours       = 168
	summaryReadings      = 24
	summaryPredictions   = 5
	heatmapSpaces        = 20
	heatmapColumns       = 5
	defaultCacheTTL      = 30 * time.Second

	// trendThreshold is the relative change between the two halves of the
	// last day above which a metric counts as moving.
	trendThreshold = 0.05
)

// DashboardRepositories groups the stores the dashboard reads from
type DashboardRepositories struct {
	Companies   workspace.CompanyRepository
	Spaces      workspace.SpaceRepository
	Employees   workspace.EmployeeRepository
	Alerts      workspace.AlertRepository
	Conflicts   workspace.ConflictRepository
	Readings    workspace.ReadingRepository
	Predictions workspace.PredictionRepository
	Activities  workspace.ActivityRepository
}

// DashboardService aggregates readings, spaces and model output for the
// landing page and the chart endpoints
type DashboardService struct {
	repos  DashboardRepositories
	models ModelProvider
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new DashboardService. c may be nil; a zero
// ttl uses the default.
func NewDashboardService(repos DashboardRepositories, models ModelProvider, c cache.Cache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &DashboardService{
		repos:  repos,
		models: models,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("dashboard"),
		now:    time.Now,
	}
}

// Summary returns the landing page payload, cached per company
func (s *DashboardService) Summary(ctx context.Context, companyID string) (*DashboardSummary, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.Key(companyID, "dashboard"), s.ttl,
		func(ctx context.Context) (*DashboardSummary, error) {
			return s.buildSummary(ctx, companyID)
		})
}

func (s *DashboardService) buildSummary(ctx context.Context, companyID string) (*DashboardSummary, error) {
	company, err := s.repos.Companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	energy, err := s.repos.Readings.LatestEnergy(ctx, companyID, summaryReadings)
	if err != nil {
		return nil, err
	}
	spaces, err := s.repos.Readings.LatestSpace(ctx, companyID, summaryReadings)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.repos.Conflicts.FindOpen(ctx, companyID)
	if err != nil {
		return nil, err
	}
	predictions, err := s.repos.Predictions.Latest(ctx, companyID, "", summaryPredictions)
	if err != nil {
		return nil, err
	}

	out := &DashboardSummary{
		Company:         company,
		ActiveConflicts: len(conflicts),
		RecentEnergy:    nonNil(energy),
		RecentSpace:     nonNil(spaces),
		Conflicts:       nonNil(conflicts),
		AIPredictions:   nonNil(predictions),
		Timestamp:       s.now(),
	}
	out.CurrentMetrics.EnergyCost = decimal.Zero
	if len(energy) > 0 {
		latest := energy[0]
		out.CurrentMetrics.EnergyConsumption = latest.TotalConsumption
		out.CurrentMetrics.EnergyCost = latest.CostPerHour
		out.CurrentMetrics.EfficiencyScore = latest.EfficiencyScore
		var efficiency float64
		for _, r := range energy {
			out.Trends24h.TotalEnergyConsumption += r.TotalConsumption
			efficiency += r.EfficiencyScore
		}
		out.Trends24h.AverageEfficiency = efficiency / float64(len(energy))
	}
	if len(spaces) > 0 {
		out.CurrentMetrics.SpaceUtilization = spaces[0].OverallUtilization
		out.CurrentMetrics.TotalOccupancy = spaces[0].TotalOccupancy
		var utilization float64
		for _, r := range spaces {
			utilization += r.OverallUtilization
		}
		out.Trends24h.AverageUtilization = utilization / float64(len(spaces))
	}
	return out, nil
}

// Metrics returns the headline KPIs and their direction over the last day
func (s *DashboardService) Metrics(ctx context.Context, companyID string) (*MetricsSummary, error) {
	now := s.now()
	total, err := s.repos.Spaces.Count(ctx, companyID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repos.Alerts.Stats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	spaces, err := s.repos.Spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		return nil, err
	}
	from := now.Add(-24 * time.Hour)
	energy, err := s.repos.Readings.Energy(ctx, companyID, from, now)
	if err != nil {
		return nil, err
	}
	spaceReadings, err := s.repos.Readings.Space(ctx, companyID, from, now)
	if err != nil {
		return nil, err
	}

	th := s.models.Optimizer(companyID).Thresholds()
	var occupancy, capacity int
	var spaceEfficiency float64
	for _, sp := range spaces {
		occupancy += sp.CurrentOccupancy
		capacity += sp.Capacity
		spaceEfficiency += space.SingleEfficiency(sp.Environment, sp.Utilization(), th)
	}
	if len(spaces) > 0 {
		spaceEfficiency /= float64(len(spaces))
	}

	var energyEfficiency float64
	for _, r := range energy {
		energyEfficiency += r.EfficiencyScore
	}
	if len(energy) > 0 {
		energyEfficiency /= float64(len(energy))
	}

	out := &MetricsSummary{}
	out.Summary.TotalSpaces = total
	out.Summary.ActiveAlerts = stats.Unresolved
	if capacity > 0 {
		out.Summary.AverageOccupancy = round1(float64(occupancy) / float64(capacity) * 100)
	}
	out.Summary.EnergyEfficiency = round1(energyEfficiency)
	out.Summary.SustainabilityScore = round1(0.6*energyEfficiency + 0.4*spaceEfficiency)
	out.Summary.LastUpdated = now

	mid := now.Add(-12 * time.Hour)
	out.Trends.Occupancy = trend(splitSpace(spaceReadings, mid, func(r *workspace.SpaceReading) float64 { return r.OverallUtilization }))
	out.Trends.Energy = trend(splitEnergy(energy, mid, func(r *workspace.EnergyReading) float64 { return r.TotalConsumption }))
	out.Trends.Efficiency = trend(splitEnergy(energy, mid, func(r *workspace.EnergyReading) float64 { return r.EfficiencyScore }))
	return out, nil
}

func splitEnergy(readings []*workspace.EnergyReading, mid time.Time, value func(*workspace.EnergyReading) float64) (older, newer []float64) {
	for _, r := range readings {
		if r.Timestamp.Before(mid) {
			older = append(older, value(r))
		} else {
			newer = append(newer, value(r))
		}
	}
	return older, newer
}

func splitSpace(readings []*workspace.SpaceReading, mid time.Time, value func(*workspace.SpaceReading) float64) (older, newer []float64) {
	for _, r := range readings {
		if r.Timestamp.Before(mid) {
			older = append(older, value(r))
		} else {
			newer = append(newer, value(r))
		}
	}
	return older, newer
}

// trend compares the mean of the newer half against the older half
func trend(older, newer []float64) string {
	if len(older) == 0 || len(newer) == 0 {
		return TrendStable
	}
	before, after := average(older), average(newer)
	if before == 0 {
		if after > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (after - before) / math.Abs(before)
	switch {
	case change > trendThreshold:
		return TrendIncreasing
	case change < -trendThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// UserActivity returns the newest activities with feed metadata
func (s *DashboardService) UserActivity(ctx context.Context, companyID string, q ActivityQuery) (*ActivityFeed, error) {
	activities, err := s.repos.Activities.FindRecent(ctx, companyID, workspace.ActivityFilter{
		Department: q.Department,
		Limit:      shared.ClampLimit(q.Limit, defaultActivityLimit, maxActivityLimit),
	})
	if err != nil {
		return nil, err
	}

	out := &ActivityFeed{Activities: nonNil(activities)}
	users := make(map[string]struct{}, len(activities))
	var duration, timed int
	for _, a := range activities {
		users[a.UserID] = struct{}{}
		if a.DurationMinutes > 0 {
			duration += a.DurationMinutes
			timed++
		}
	}
	out.Metadata.TotalActivities = len(activities)
	out.Metadata.UniqueUsers = len(users)
	if timed > 0 {
		avg := round1(float64(duration) / float64(timed))
		out.Metadata.AvgDurationMinutes = &avg
	}
	return out, nil
}

// Occupancy returns hourly building occupancy with the model's estimate for
// each hour. Predicted stays nil while the optimizer is untrained.
func (s *DashboardService) Occupancy(ctx context.Context, companyID string, q SeriesQuery) ([]OccupancyPoint, error) {
	readings, err := s.spaceSeries(ctx, companyID, q.Hours)
	if err != nil {
		return nil, err
	}
	optimizer := s.models.Optimizer(companyID)
	trained := optimizer.IsTrained()

	out := make([]OccupancyPoint, 0, len(readings))
	for _, r := range readings {
		p := OccupancyPoint{
			Hour:        r.Timestamp.Format("15:04"),
			Timestamp:   r.Timestamp,
			Occupancy:   r.TotalOccupancy,
			Capacity:    r.TotalCapacity,
			Utilization: round1(r.OverallUtilization * 100),
		}
		if trained {
			f := space.FeaturesAt(r.Timestamp)
			f.Capacity = 10
			f.Temperature = r.AverageTemperature
			f.Humidity = r.AverageHumidity
			f.CO2Level = r.AverageCO2
			f.NoiseLevel = r.AverageNoise
			f.AirQuality = 75
			f.SpaceType = workspace.SpaceTypeDesk
			f.Department = "engineering"
			f.Floor = 1
			if pred, err := optimizer.PredictUtilization(f); err == nil {
				v := round1(pred.PredictedUtilization * 100)
				p.Predicted = &v
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// SpaceUsage returns the current state of every space
func (s *DashboardService) SpaceUsage(ctx context.Context, companyID string) ([]SpaceUsage, error) {
	spaces, err := s.repos.Spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		return nil, err
	}
	th := s.models.Optimizer(companyID).Thresholds()
	out := make([]SpaceUsage, 0, len(spaces))
	for _, sp := range spaces {
		u := sp.Utilization()
		out = append(out, SpaceUsage{
			ID:          sp.ID,
			Name:        sp.Name,
			Current:     sp.CurrentOccupancy,
			Capacity:    sp.Capacity,
			Utilization: round1(u * 100),
			Efficiency:  round1(space.SingleEfficiency(sp.Environment, u, th)),
			Status:      sp.Availability(),
		})
	}
	return out, nil
}

// Environmental returns hourly averaged sensor values with a comfort score
func (s *DashboardService) Environmental(ctx context.Context, companyID string, q SeriesQuery) ([]EnvironmentalPoint, error) {
	readings, err := s.spaceSeries(ctx, companyID, q.Hours)
	if err != nil {
		return nil, err
	}
	th := s.models.Optimizer(companyID).Thresholds()
	out := make([]EnvironmentalPoint, 0, len(readings))
	for _, r := range readings {
		out = append(out, EnvironmentalPoint{
			Hour:        r.Timestamp.Format("15:04"),
			Timestamp:   r.Timestamp,
			Temperature: round1(r.AverageTemperature),
			Humidity:    round1(r.AverageHumidity),
			CO2:         round1(r.AverageCO2),
			Noise:       round1(r.AverageNoise),
			Comfort:     round1(space.ComfortScore(r.AverageTemperature, r.AverageHumidity, r.AverageCO2, r.AverageNoise, th)),
		})
	}
	return out, nil
}

func (s *DashboardService) spaceSeries(ctx context.Context, companyID string, hours int) ([]*workspace.SpaceReading, error) {
	if hours <= 0 {
		hours = defaultSeriesHours
	}
	if hours > maxSeriesHours {
		hours = maxSeriesHours
	}
	now := s.now()
	readings, err := s.repos.Readings.Space(ctx, companyID, now.Add(-time.Duration(hours)*time.Hour), now)
	if err != nil {
		return nil, err
	}
	return readings, nil
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeeklyTrend averages the last seven days of readings per weekday, Monday first
func (s *DashboardService) WeeklyTrend(ctx context.Context, companyID string) ([]WeekdayTrend, error) {
	now := s.now()
	from := now.Add(-7 * 24 * time.Hour)
	spaceReadings, err := s.repos.Readings.Space(ctx, companyID, from, now)
	if err != nil {
		return nil, err
	}
	energy, err := s.repos.Readings.Energy(ctx, companyID, from, now)
	if err != nil {
		return nil, err
	}

	utilization := make(map[time.Weekday][]float64, 7)
	for _, r := range spaceReadings {
		d := r.Timestamp.Weekday()
		utilization[d] = append(utilization[d], r.OverallUtilization)
	}
	efficiency := make(map[time.Weekday][]float64, 7)
	for _, r := range energy {
		d := r.Timestamp.Weekday()
		efficiency[d] = append(efficiency[d], r.EfficiencyScore)
	}

	out := make([]WeekdayTrend, 0, len(weekdays))
	for _, d := range weekdays {
		out = append(out, WeekdayTrend{
			Day:         d.String()[:3],
			Utilization: round1(average(utilization[d]) * 100),
			Efficiency:  round1(average(efficiency[d])),
			Samples:     len(utilization[d]),
		})
	}
	return out, nil
}

// ZoneHeatmap lays the first spaces out on a five column grid with the
// employee assigned to each desk
func (s *DashboardService) ZoneHeatmap(ctx context.Context, companyID string) ([]HeatmapCell, error) {
	spaces, err := s.repos.Spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		return nil, err
	}
	if len(spaces) > heatmapSpaces {
		spaces = spaces[:heatmapSpaces]
	}
	ids := make([]string, len(spaces))
	for i, sp := range spaces {
		ids[i] = sp.ID
	}
	assigned, err := s.repos.Employees.FindByAssignedDesk(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]HeatmapCell, 0, len(spaces))
	for i, sp := range spaces {
		cell := HeatmapCell{
			ID:          sp.ID,
			Row:         i / heatmapColumns,
			Col:         i % heatmapColumns,
			Status:      sp.Availability(),
			Temperature: round1(sp.Environment.Temperature),
		}
		if e, ok := assigned[sp.ID]; ok {
			name := e.Name
			cell.Employee = &name
		}
		out = append(out, cell)
	}
	return out, nil
}

func average(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
