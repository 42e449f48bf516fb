package workspace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/energy"
	"github.com/smartspace/backend/internal/application/space"
	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/cache"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

const (
	defaultForecastDays = 7
	maxForecastDays     = 30
	historyDays         = 7
	forecastHourStep    = 3
)

// Share of the next day's energy cost counted as avoidable, and the share of
// the carbon footprint the plan is expected to cut.
var (
	energySavingsShare = decimal.RequireFromString("0.15")
	carbonReduction    = 0.1
)

// AnalyticsService exposes the model-backed views: status, optimization
// plans, the real-time snapshot, forecasts and recommendations
type AnalyticsService struct {
	spaces      workspace.SpaceRepository
	readings    workspace.ReadingRepository
	predictions workspace.PredictionRepository
	conflicts   *ConflictService
	models      ModelProvider
	cache       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. c may be nil; a zero
// ttl uses the default.
func NewAnalyticsService(
	spaces workspace.SpaceRepository,
	readings workspace.ReadingRepository,
	predictions workspace.PredictionRepository,
	conflicts *ConflictService,
	models ModelProvider,
	c cache.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *AnalyticsService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &AnalyticsService{
		spaces:      spaces,
		readings:    readings,
		predictions: predictions,
		conflicts:   conflicts,
		models:      models,
		cache:       c,
		ttl:         ttl,
		logger:      logger.Named("analytics"),
		now:         time.Now,
	}
}

// ModelStatus reports training state, last stored output and conflict
// resolution statistics
func (s *AnalyticsService) ModelStatus(ctx context.Context, companyID string) (*ModelStatus, error) {
	optimizer := s.models.Optimizer(companyID)
	predictor := s.models.Predictor(companyID)

	spaceState, err := s.modelState(ctx, companyID, workspace.ModelSpaceOptimizer, optimizer.IsTrained(), optimizer.Metrics().TestR2)
	if err != nil {
		return nil, err
	}
	energyState, err := s.modelState(ctx, companyID, workspace.ModelEnergyPredictor, predictor.IsTrained(), predictor.Metrics().Ensemble.TestR2)
	if err != nil {
		return nil, err
	}
	stats, err := s.conflicts.ResolutionStats(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &ModelStatus{
		SpaceOptimizer:     spaceState,
		EnergyPredictor:    energyState,
		ConflictResolution: stats,
	}, nil
}

func (s *AnalyticsService) modelState(ctx context.Context, companyID string, model workspace.ModelType, trained bool, accuracy float64) (ModelState, error) {
	state := ModelState{Status: "training", Trained: trained}
	if trained {
		state.Status = "active"
		state.Accuracy = accuracy
	}
	latest, err := s.predictions.Latest(ctx, companyID, model, 1)
	if err != nil {
		return state, err
	}
	if len(latest) > 0 {
		at := latest[0].CreatedAt
		state.LastUpdated = &at
		state.Prediction = latest[0].Payload
	}
	return state, nil
}

// Optimization combines the space recommendations with the energy outlook
// for the next day. An untrained energy model leaves the energy part empty.
func (s *AnalyticsService) Optimization(ctx context.Context, companyID string) (*OptimizationPlan, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.Key(companyID, "optimization"), s.ttl,
		func(ctx context.Context) (*OptimizationPlan, error) {
			return s.buildOptimization(ctx, companyID)
		})
}

func (s *AnalyticsService) buildOptimization(ctx context.Context, companyID string) (*OptimizationPlan, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics", "optimization", telemetry.AttrCompanyID, companyID)
	defer span.End()

	spaces, err := s.spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	plan := &OptimizationPlan{
		SpaceOptimization:  s.models.Optimizer(companyID).GenerateRecommendations(spaces),
		EnergyOptimization: []energy.Opportunity{},
		SustainabilityImpact: SustainabilityImpact{
			EnergySavings:       "12-18%",
			SpaceEfficiencyGain: "15-25%",
		},
	}
	savings := decimal.NewFromFloat(plan.SpaceOptimization.CostSavingsPotential)

	forecast, err := s.models.Predictor(companyID).Forecast(energy.Input{}, 24, s.now())
	switch {
	case err == nil:
		plan.EnergyOptimization = forecast.Opportunities
		savings = savings.Add(forecast.Summary.TotalCost.Mul(energySavingsShare))
		plan.SustainabilityImpact.CarbonReduction = round1(forecast.Summary.CarbonFootprint * carbonReduction)
	case errors.Is(err, shared.ErrModelNotReady):
		s.logger.Debug("Energy model not ready, optimization plan covers spaces only",
			zap.String("company_id", companyID))
	default:
		telemetry.RecordError(span, err)
		return nil, err
	}
	plan.CostSavingsPotential = savings.Round(2)
	return plan, nil
}

// RealTime returns the live building snapshot, cached per company
func (s *AnalyticsService) RealTime(ctx context.Context, companyID string) (*space.RealTimeAnalytics, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.Key(companyID, "real_time"), s.ttl,
		func(ctx context.Context) (*space.RealTimeAnalytics, error) {
			spaces, err := s.spaces.FindAll(ctx, companyID, workspace.SpaceFilter{})
			if err != nil {
				return nil, err
			}
			return s.models.Optimizer(companyID).RealTimeAnalytics(spaces, s.now())
		})
}

// Forecast returns seven days of daily history and a daily model forecast
// for one metric. Each forecast day averages the model output over every
// third hour.
func (s *AnalyticsService) Forecast(ctx context.Context, companyID string, q ForecastQuery) (*MetricForecast, error) {
	metric := q.Metric
	if metric == "" {
		metric = MetricOccupancy
	}
	days := q.Days
	if days <= 0 {
		days = defaultForecastDays
	}
	if days > maxForecastDays {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Forecast cannot exceed %d days", maxForecastDays))
	}

	now := s.now()
	today := startOfDay(now)
	out := &MetricForecast{}
	out.Metadata.MetricType = metric
	out.Metadata.ForecastPeriod = days
	out.Metadata.GeneratedAt = now

	var (
		history []ForecastPoint
		predict func(t time.Time) (value, confidence float64, err error)
		err     error
	)
	from := today.AddDate(0, 0, -historyDays)
	switch metric {
	case MetricOccupancy:
		history, err = s.occupancyHistory(ctx, companyID, from, now)
		predict = s.occupancyAt(companyID)
		optimizer := s.models.Optimizer(companyID)
		out.ModelInfo.Name = string(workspace.ModelSpaceOptimizer)
		out.ModelInfo.Accuracy = optimizer.Metrics().TestR2
	case MetricEnergy, MetricEfficiency:
		history, err = s.energyHistory(ctx, companyID, from, now, metric)
		predict = s.energyAt(companyID, metric)
		out.ModelInfo.Name = string(workspace.ModelEnergyPredictor)
		out.ModelInfo.Accuracy = s.models.Predictor(companyID).Metrics().Ensemble.TestR2
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown metric type: "+metric)
	}
	if err != nil {
		return nil, err
	}
	out.HistoricalData = history

	out.Predictions = make([]ForecastPoint, 0, days)
	var confidence float64
	var samples int
	for d := 1; d <= days; d++ {
		day := today.AddDate(0, 0, d)
		var sum float64
		var n int
		for h := 0; h < 24; h += forecastHourStep {
			v, c, err := predict(day.Add(time.Duration(h) * time.Hour))
			if err != nil {
				return nil, err
			}
			sum += v
			confidence += c
			n++
			samples++
		}
		out.Predictions = append(out.Predictions, ForecastPoint{
			Timestamp: day,
			Value:     round1(sum / float64(n)),
			Predicted: true,
		})
	}
	if samples > 0 {
		out.ModelInfo.Confidence = math.Round(confidence/float64(samples)*100) / 100
	}
	return out, nil
}

func (s *AnalyticsService) occupancyHistory(ctx context.Context, companyID string, from, to time.Time) ([]ForecastPoint, error) {
	readings, err := s.readings.Space(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[time.Time][]float64{}
	for _, r := range readings {
		d := startOfDay(r.Timestamp)
		byDay[d] = append(byDay[d], r.OverallUtilization*100)
	}
	return dailyPoints(byDay), nil
}

func (s *AnalyticsService) energyHistory(ctx context.Context, companyID string, from, to time.Time, metric string) ([]ForecastPoint, error) {
	readings, err := s.readings.Energy(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[time.Time][]float64{}
	for _, r := range readings {
		d := startOfDay(r.Timestamp)
		v := r.TotalConsumption
		if metric == MetricEfficiency {
			v = r.EfficiencyScore
		}
		byDay[d] = append(byDay[d], v)
	}
	return dailyPoints(byDay), nil
}

func dailyPoints(byDay map[time.Time][]float64) []ForecastPoint {
	out := make([]ForecastPoint, 0, len(byDay))
	for d, vs := range byDay {
		out = append(out, ForecastPoint{Timestamp: d, Value: round1(average(vs))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (s *AnalyticsService) occupancyAt(companyID string) func(time.Time) (float64, float64, error) {
	optimizer := s.models.Optimizer(companyID)
	env := workspace.DefaultEnvironment()
	return func(t time.Time) (float64, float64, error) {
		f := space.FeaturesAt(t)
		f.Capacity = 10
		f.Temperature = env.Temperature
		f.Humidity = env.Humidity
		f.CO2Level = env.CO2Level
		f.NoiseLevel = env.NoiseLevel
		f.AirQuality = env.AirQuality
		f.SpaceType = workspace.SpaceTypeDesk
		f.Department = "engineering"
		f.Floor = 1
		p, err := optimizer.PredictUtilization(f)
		if err != nil {
			return 0, 0, err
		}
		return p.PredictedUtilization * 100, p.Confidence, nil
	}
}

func (s *AnalyticsService) energyAt(companyID, metric string) func(time.Time) (float64, float64, error) {
	predictor := s.models.Predictor(companyID)
	return func(t time.Time) (float64, float64, error) {
		f := energy.DefaultFeatures(t)
		f.OccupancyRate = workspace.OccupancyProfile(t.Hour())
		if f.IsWeekend {
			f.OccupancyRate *= 0.3
		}
		f.ElectricityRate = predictor.Company().Rate(f.Hour, f.IsWeekend)
		p, err := predictor.Predict(f)
		if err != nil {
			return 0, 0, err
		}
		if metric == MetricEfficiency {
			return p.EfficiencyScore, p.Confidence, nil
		}
		return p.PredictedConsumption, p.Confidence, nil
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type catalogEntry struct {
	category string
	title    string
	desc     string
	savings  int64
	effort   string
	priority int
}

var suggestionCatalog = []catalogEntry{
	{"space", "Consolidate Underutilized Meeting Rooms", "Combine 3 low-usage meeting rooms into flexible co-working space", 15000, "medium", 2},
	{"space", "Implement Hot Desking in Sales Department", "Reduce dedicated desks by 30% based on remote work patterns", 25000, "high", 1},
	{"energy", "Upgrade to LED Lighting", "Replace fluorescent fixtures with smart LED systems", 8000, "medium", 3},
	{"energy", "Install Smart Thermostats", "Implement zone-based temperature control", 12000, "low", 2},
	{"cost", "Renegotiate Cleaning Contracts", "Optimize cleaning schedules based on actual usage data", 6000, "low", 4},
	{"cost", "Implement Space Sharing Program", "Allow external companies to rent unused spaces", 30000, "high", 1},
}

// Suggestions filters the optimization catalog. Ids are numbered in catalog
// order before the list is sorted by priority.
func (s *AnalyticsService) Suggestions(q SuggestionQuery) *SuggestionList {
	out := &SuggestionList{Suggestions: []Suggestion{}}
	categories := map[string]struct{}{}
	for _, e := range suggestionCatalog {
		if q.Category != "" && e.category != q.Category {
			continue
		}
		if q.Priority != 0 && e.priority != q.Priority {
			continue
		}
		out.Suggestions = append(out.Suggestions, Suggestion{
			ID:                   fmt.Sprintf("OPT_%04d", len(out.Suggestions)+1),
			Category:             e.category,
			Title:                e.title,
			Description:          e.desc,
			PotentialSavings:     e.savings,
			ImplementationEffort: e.effort,
			Priority:             e.priority,
		})
		out.Metadata.TotalPotentialSavings += e.savings
		categories[e.category] = struct{}{}
	}
	sort.SliceStable(out.Suggestions, func(i, j int) bool {
		return out.Suggestions[i].Priority < out.Suggestions[j].Priority
	})
	out.Metadata.TotalSuggestions = len(out.Suggestions)
	out.Metadata.Categories = make([]string, 0, len(categories))
	for c := range categories {
		out.Metadata.Categories = append(out.Metadata.Categories, c)
	}
	sort.Strings(out.Metadata.Categories)
	return out
}

// Recommendations derives concrete actions from the current spaces:
// optimization looks at utilization, allocation moves load between spaces of
// the same type and maintenance follows open conflicts and due service dates.
func (s *AnalyticsService) Recommendations(ctx context.Context, companyID string, req RecommendationRequest) (*RecommendationList, error) {
	kind := req.Type
	if kind == "" {
		kind = RecommendationOptimization
	}
	filter := workspace.SpaceFilter{}
	if req.Floor != nil {
		filter.Floor = *req.Floor
	}
	if req.SpaceType != "" {
		t := workspace.SpaceType(req.SpaceType)
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown space type: "+req.SpaceType)
		}
		filter.Type = t
	}
	spaces, err := s.spaces.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	var recs []SpaceRecommendation
	switch kind {
	case RecommendationOptimization:
		recs = s.optimizationRecommendations(companyID, spaces)
	case RecommendationAllocation:
		recs = allocationRecommendations(spaces)
	case RecommendationMaintenance:
		open, err := s.conflicts.ListOpen(ctx, companyID)
		if err != nil {
			return nil, err
		}
		recs = maintenanceRecommendations(spaces, open, s.now())
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown recommendation type: "+kind)
	}

	out := &RecommendationList{Recommendations: nonNil(recs)}
	out.Metadata.RecommendationType = kind
	out.Metadata.TotalRecommendations = len(recs)
	out.Metadata.GeneratedAt = s.now()
	if len(recs) > 0 {
		var sum float64
		for _, r := range recs {
			sum += r.ConfidenceScore
		}
		out.Metadata.AvgConfidence = math.Round(sum/float64(len(recs))*100) / 100
	}
	return out, nil
}

func (s *AnalyticsService) optimizationRecommendations(companyID string, spaces []*workspace.Space) []SpaceRecommendation {
	th := s.models.Optimizer(companyID).Thresholds()
	var out []SpaceRecommendation
	for _, sp := range spaces {
		u := sp.Utilization()
		switch {
		case u < 0.3 && sp.Type == workspace.SpaceTypeMeetingRoom && sp.CurrentOccupancy <= 1:
			out = append(out, SpaceRecommendation{
				SpaceID:           sp.ID,
				SpaceType:         string(sp.Type),
				RecommendedAction: "convert_to_phone_booth",
				Reason:            fmt.Sprintf("Low utilization (%.0f%%) and single-person usage pattern", u*100),
				ExpectedImpact:    "Increase space efficiency by 40%",
				ConfidenceScore:   space.Confidence(u),
			})
		case u < 0.3:
			out = append(out, SpaceRecommendation{
				SpaceID:           sp.ID,
				SpaceType:         string(sp.Type),
				RecommendedAction: "consolidate_usage",
				Reason:            fmt.Sprintf("Low utilization (%.0f%%)", u*100),
				ExpectedImpact:    fmt.Sprintf("Free %d seats for other functions", sp.Capacity-sp.CurrentOccupancy),
				ConfidenceScore:   space.Confidence(u),
			})
		case u > th.OccupancyWarning:
			out = append(out, SpaceRecommendation{
				SpaceID:           sp.ID,
				SpaceType:         string(sp.Type),
				RecommendedAction: "add_collaborative_zones",
				Reason:            fmt.Sprintf("High utilization (%.0f%%) with little spare capacity", u*100),
				ExpectedImpact:    "Improve team productivity by 25%",
				ConfidenceScore:   space.Confidence(u),
			})
		}
	}
	return out
}

func allocationRecommendations(spaces []*workspace.Space) []SpaceRecommendation {
	byType := map[workspace.SpaceType][]*workspace.Space{}
	for _, sp := range spaces {
		byType[sp.Type] = append(byType[sp.Type], sp)
	}
	var out []SpaceRecommendation
	for _, t := range workspace.AllSpaceTypes {
		group := byType[t]
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Utilization() < group[j].Utilization() })
		least, most := group[0], group[len(group)-1]
		hi, lo := most.Utilization(), least.Utilization()
		if hi <= 0.8 || lo >= 0.4 {
			continue
		}
		out = append(out, SpaceRecommendation{
			SpaceID:           most.ID,
			SpaceType:         string(t),
			RecommendedAction: "redistribute_to_" + least.ID,
			Reason:            fmt.Sprintf("%s runs at %.0f%% while %s is at %.0f%%", most.Name, hi*100, least.Name, lo*100),
			ExpectedImpact:    "Balance load across spaces of the same type",
			ConfidenceScore:   math.Min(0.95, math.Round((hi-lo)*100)/100),
		})
	}
	return out
}

func maintenanceRecommendations(spaces []*workspace.Space, open []*workspace.Conflict, now time.Time) []SpaceRecommendation {
	inScope := make(map[string]*workspace.Space, len(spaces))
	for _, sp := range spaces {
		inScope[sp.ID] = sp
	}
	var out []SpaceRecommendation
	seen := map[string]bool{}
	for _, c := range open {
		sp, ok := inScope[c.SpaceID]
		if !ok {
			continue
		}
		types := make([]string, len(c.Issues))
		for i, issue := range c.Issues {
			types[i] = issue.Type
		}
		out = append(out, SpaceRecommendation{
			SpaceID:           sp.ID,
			SpaceType:         string(sp.Type),
			RecommendedAction: "inspect_environment_controls",
			Reason:            "Open conflict: " + strings.Join(types, ", "),
			ExpectedImpact:    "Restore comfort conditions and clear the conflict",
			ConfidenceScore:   math.Min(0.95, 0.6+float64(c.TotalSeverity)*0.05),
		})
		seen[sp.ID] = true
	}
	for _, sp := range spaces {
		if seen[sp.ID] || !sp.IsMaintenanceDue(now) {
			continue
		}
		out = append(out, SpaceRecommendation{
			SpaceID:           sp.ID,
			SpaceType:         string(sp.Type),
			RecommendedAction: "schedule_preventive_maintenance",
			Reason:            "Scheduled maintenance date has passed",
			ExpectedImpact:    "Prevent equipment failure and keep the space bookable",
			ConfidenceScore:   0.88,
		})
	}
	return out
}
