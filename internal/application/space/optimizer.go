// Package space implements the space optimizer: utilization prediction,
// conflict detection and optimization recommendations.
package space

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/ml"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// Config sizes the training run
type Config struct {
	CompanyID    string
	Samples      int
	Estimators   int
	LearningRate float64
	MaxDepth     int
	Subsample    float64
	Seed         uint64
	Start        time.Time
	Thresholds   Thresholds
}

// ConfigFromAnalytics derives the optimizer configuration from app settings
func ConfigFromAnalytics(companyID string, cfg config.AnalyticsConfig, now time.Time) Config {
	return Config{
		CompanyID:    companyID,
		Samples:      cfg.SpaceSamples,
		Estimators:   cfg.SpaceEstimators,
		LearningRate: 0.1,
		MaxDepth:     6,
		Subsample:    0.8,
		Seed:         cfg.Seed,
		Start:        now.Add(-cfg.TrainingStartOffset).Truncate(time.Hour),
		Thresholds:   DefaultThresholds(),
	}
}

func (c Config) withDefaults() Config {
	if c.Samples <= 0 {
		c.Samples = 15000
	}
	if c.Estimators <= 0 {
		c.Estimators = 200
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 6
	}
	if c.Subsample <= 0 {
		c.Subsample = 0.8
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	return c
}

// TrainingMetrics describes the fitted model
type TrainingMetrics struct {
	ml.Metrics
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Samples           int                `json:"samples"`
	TrainedAt         time.Time          `json:"trained_at"`
}

// Optimizer predicts space utilization and evaluates live spaces
type Optimizer struct {
	config Config
	logger *zap.Logger

	mu      sync.RWMutex
	model   *ml.Scaled
	metrics TrainingMetrics
	trained bool
}

// NewOptimizer creates an untrained optimizer
func NewOptimizer(cfg Config, logger *zap.Logger) *Optimizer {
	return &Optimizer{config: cfg.withDefaults(), logger: logger.Named("space_optimizer")}
}

// Thresholds returns the detection limits in use
func (o *Optimizer) Thresholds() Thresholds {
	return o.config.Thresholds
}

// Train generates synthetic data and fits the gradient boosting model
func (o *Optimizer) Train(ctx context.Context) (TrainingMetrics, error) {
	ctx, span := telemetry.StartSpan(ctx, "space_optimizer", "train",
		telemetry.AttrCompanyID, o.config.CompanyID,
		"samples", o.config.Samples,
	)
	defer span.End()

	rng := ml.NewRand(o.config.Seed)
	samples := GenerateTrainingData(o.config.Samples, o.config.Start, rng, o.config.Thresholds)
	X := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		X[i] = s.vector()
		y[i] = s.Utilization
	}
	split, err := ml.TrainTestSplit(X, y, 0.2, rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return TrainingMetrics{}, fmt.Errorf("split training data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return TrainingMetrics{}, err
	}

	started := time.Now()
	model := ml.NewScaled(ml.NewGradientBoosting(ml.BoostingParams{
		Estimators:   o.config.Estimators,
		LearningRate: o.config.LearningRate,
		Subsample:    o.config.Subsample,
		Tree:         ml.TreeParams{MaxDepth: o.config.MaxDepth},
	}, o.config.Seed))
	if err := model.Fit(split.XTrain, split.YTrain); err != nil {
		telemetry.RecordError(span, err)
		return TrainingMetrics{}, fmt.Errorf("fit space optimizer: %w", err)
	}

	metrics := TrainingMetrics{
		Metrics:           ml.Evaluate(model, split),
		FeatureImportance: make(map[string]float64, len(FeatureNames)),
		Samples:           len(samples),
		TrainedAt:         time.Now().UTC(),
	}
	for i, v := range model.FeatureImportances() {
		if i < len(FeatureNames) {
			metrics.FeatureImportance[FeatureNames[i]] = v
		}
	}

	o.mu.Lock()
	o.model = model
	o.metrics = metrics
	o.trained = true
	o.mu.Unlock()

	telemetry.SetAttributes(span, "test_r2", metrics.TestR2)
	o.logger.Info("Space optimizer trained",
		zap.String("company_id", o.config.CompanyID),
		zap.Int("samples", len(samples)),
		zap.Float64("test_r2", metrics.TestR2),
		zap.Duration("duration", time.Since(started)),
	)
	return metrics, nil
}

// IsTrained reports whether predictions are available
func (o *Optimizer) IsTrained() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.trained
}

// Metrics returns the last training metrics
func (o *Optimizer) Metrics() TrainingMetrics {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.metrics
}

// UtilizationPrediction is the model output for one space
type UtilizationPrediction struct {
	PredictedUtilization float64 `json:"predicted_utilization"`
	Confidence           float64 `json:"confidence"`
	RecommendedCapacity  int     `json:"recommended_capacity"`
	EfficiencyScore      float64 `json:"efficiency_score"`
}

// PredictUtilization estimates utilization for f
func (o *Optimizer) PredictUtilization(f Features) (UtilizationPrediction, error) {
	o.mu.RLock()
	model, trained := o.model, o.trained
	o.mu.RUnlock()
	if !trained {
		return UtilizationPrediction{}, shared.ErrModelNotReady
	}

	p := ml.Clip(model.Predict(f.vector()), 0, 1)
	capacity := f.Capacity
	if capacity <= 0 {
		capacity = 10
	}
	return UtilizationPrediction{
		PredictedUtilization: p,
		Confidence:           Confidence(p),
		RecommendedCapacity:  int(capacity * p),
		EfficiencyScore:      SingleEfficiency(f.Environment(), p, o.config.Thresholds),
	}, nil
}

// DetectConflicts evaluates every space against the thresholds and returns
// one open conflict per space with issues, most severe first.
func (o *Optimizer) DetectConflicts(spaces []*workspace.Space, at time.Time) []*workspace.Conflict {
	th := o.config.Thresholds
	conflicts := make([]*workspace.Conflict, 0)
	for _, s := range spaces {
		issues := detectIssues(s, th)
		if len(issues) == 0 {
			continue
		}
		conflicts = append(conflicts, workspace.NewConflict(s.CompanyID, s.ID, s.Name, issues, at))
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].TotalSeverity > conflicts[j].TotalSeverity
	})
	return conflicts
}

func detectIssues(s *workspace.Space, th Thresholds) []workspace.ConflictIssue {
	var issues []workspace.ConflictIssue
	u := rawUtilization(s)
	switch {
	case u > th.OccupancyCritical:
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueCriticalOvercrowding,
			Severity:       workspace.SeverityHigh,
			Message:        fmt.Sprintf("Critical overcrowding: %.1f%% capacity", u*100),
			Recommendation: "Immediately redirect bookings to alternate spaces",
		})
	case u > th.OccupancyWarning:
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueOvercrowdingWarning,
			Severity:       workspace.SeverityMedium,
			Message:        fmt.Sprintf("High occupancy: %.1f%% capacity", u*100),
			Recommendation: "Consider preparing alternate spaces",
		})
	}

	env := s.Environment
	if env.Temperature < th.TemperatureMin || env.Temperature > th.TemperatureMax {
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueTemperature,
			Severity:       workspace.SeverityMedium,
			Message:        fmt.Sprintf("Temperature out of comfort range: %.1f°C", env.Temperature),
			Recommendation: "Adjust HVAC settings for optimal comfort",
		})
	}
	if env.Humidity < th.HumidityMin || env.Humidity > th.HumidityMax {
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueHumidity,
			Severity:       workspace.SeverityLow,
			Message:        fmt.Sprintf("Humidity out of optimal range: %.1f%%", env.Humidity),
			Recommendation: "Adjust humidification system",
		})
	}
	if env.CO2Level > th.CO2Max {
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueAirQuality,
			Severity:       workspace.SeverityHigh,
			Message:        fmt.Sprintf("High CO2 levels: %.0f ppm", env.CO2Level),
			Recommendation: "Increase ventilation immediately",
		})
	}
	if env.NoiseLevel > th.NoiseMax {
		issues = append(issues, workspace.ConflictIssue{
			Type:           workspace.IssueNoise,
			Severity:       workspace.SeverityMedium,
			Message:        fmt.Sprintf("High noise levels: %.1f dB", env.NoiseLevel),
			Recommendation: "Implement noise reduction measures",
		})
	}
	return issues
}

// rawUtilization is not clamped so that data entry errors above capacity
// still register as overcrowding.
func rawUtilization(s *workspace.Space) float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.CurrentOccupancy) / float64(s.Capacity)
}

// Action is an immediate recommendation for one space
type Action struct {
	Space    string `json:"space"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
}

// Optimization is a short-term change for an underused space
type Optimization struct {
	Space            string  `json:"space"`
	Action           string  `json:"action"`
	PotentialSavings float64 `json:"potential_savings"`
}

// Strategy is a long-term portfolio recommendation
type Strategy struct {
	Strategy    string `json:"strategy"`
	Description string `json:"description"`
	Timeline    string `json:"timeline"`
}

// Recommendations groups the optimizer's advice by horizon
type Recommendations struct {
	ImmediateActions       []Action          `json:"immediate_actions"`
	ShortTermOptimizations []Optimization    `json:"short_term_optimizations"`
	LongTermStrategies     []Strategy        `json:"long_term_strategies"`
	CostSavingsPotential   float64           `json:"cost_savings_potential"`
	EfficiencyImprovements map[string]string `json:"efficiency_improvements"`
}

// GenerateRecommendations derives actions from current utilization and temperature
func (o *Optimizer) GenerateRecommendations(spaces []*workspace.Space) Recommendations {
	th := o.config.Thresholds
	rec := Recommendations{
		ImmediateActions:       []Action{},
		ShortTermOptimizations: []Optimization{},
		LongTermStrategies:     []Strategy{},
		EfficiencyImprovements: map[string]string{},
	}
	var high, low, envIssues int
	for _, s := range spaces {
		u := rawUtilization(s)
		switch {
		case u > th.OccupancyWarning:
			high++
			rec.ImmediateActions = append(rec.ImmediateActions, Action{
				Space:    s.Name,
				Action:   "Consider expanding capacity or redistributing load",
				Priority: "high",
			})
		case u < 0.3:
			low++
			rec.ShortTermOptimizations = append(rec.ShortTermOptimizations, Optimization{
				Space:            s.Name,
				Action:           "Reassign to different function or consolidate usage",
				PotentialSavings: float64(s.Capacity * 100),
			})
		}
		if t := s.Environment.Temperature; t < th.TemperatureMin || t > th.TemperatureMax {
			envIssues++
			rec.ImmediateActions = append(rec.ImmediateActions, Action{
				Space:    s.Name,
				Action:   fmt.Sprintf("Adjust temperature from %.1f°C to 22-24°C range", t),
				Priority: "medium",
			})
		}
	}

	total := len(spaces)
	if total > 0 {
		n := float64(total)
		rec.CostSavingsPotential = float64(low) / n * 50000
		rec.EfficiencyImprovements = map[string]string{
			"space_utilization":        percent(float64(total-low) / n),
			"environmental_compliance": percent(float64(total-envIssues) / n),
			"overall_efficiency":       percent(float64(total-low-envIssues) / n),
		}
	}
	if float64(high) > float64(total)*0.3 {
		rec.LongTermStrategies = append(rec.LongTermStrategies, Strategy{
			Strategy:    "Capacity expansion planning",
			Description: "Consider adding flexible workspaces or hybrid work policies",
			Timeline:    "3-6 months",
		})
	}
	if float64(low) > float64(total)*0.4 {
		rec.LongTermStrategies = append(rec.LongTermStrategies, Strategy{
			Strategy:    "Space consolidation",
			Description: "Consolidate underutilized spaces to reduce operational costs",
			Timeline:    "2-4 months",
		})
	}
	return rec
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Overview summarizes the whole building
type Overview struct {
	TotalSpaces        int     `json:"total_spaces"`
	TotalCapacity      int     `json:"total_capacity"`
	CurrentOccupancy   int     `json:"current_occupancy"`
	OverallUtilization float64 `json:"overall_utilization"`
	EfficiencyScore    float64 `json:"efficiency_score"`
}

// TypeBreakdown aggregates spaces of one type
type TypeBreakdown struct {
	Count       int     `json:"count"`
	Capacity    int     `json:"capacity"`
	Occupancy   int     `json:"occupancy"`
	Utilization float64 `json:"utilization"`
}

// EnvironmentSummary averages the sensor readings
type EnvironmentSummary struct {
	AverageTemperature float64 `json:"average_temperature"`
	AverageHumidity    float64 `json:"average_humidity"`
	AverageCO2         float64 `json:"average_co2"`
	AverageNoise       float64 `json:"average_noise"`
	ComfortScore       float64 `json:"comfort_score"`
}

// HourPrediction is the forecast utilization for an upcoming hour
type HourPrediction struct {
	Time                 string  `json:"time"`
	PredictedUtilization float64 `json:"predicted_utilization"`
	Confidence           float64 `json:"confidence"`
}

// ModelInfo identifies the model behind an analytics snapshot
type ModelInfo struct {
	CompanyID     string     `json:"company_id"`
	ModelAccuracy float64    `json:"model_accuracy"`
	LastTrained   *time.Time `json:"last_trained"`
}

// RealTimeAnalytics is the live dashboard snapshot
type RealTimeAnalytics struct {
	Timestamp      time.Time                `json:"timestamp"`
	Overview       Overview                 `json:"overview"`
	SpaceBreakdown map[string]TypeBreakdown `json:"space_breakdown"`
	Environmental  EnvironmentSummary       `json:"environmental"`
	Predictions    []HourPrediction         `json:"predictions"`
	ModelInfo      ModelInfo                `json:"model_info"`
}

// RealTimeAnalytics builds the live snapshot for spaces and forecasts the
// next five hours.
func (o *Optimizer) RealTimeAnalytics(spaces []*workspace.Space, now time.Time) (*RealTimeAnalytics, error) {
	if len(spaces) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No space data provided")
	}
	th := o.config.Thresholds
	out := &RealTimeAnalytics{
		Timestamp:      now,
		SpaceBreakdown: map[string]TypeBreakdown{},
		Predictions:    []HourPrediction{},
	}

	var temp, hum, co2, noise, eff float64
	for _, s := range spaces {
		out.Overview.TotalCapacity += s.Capacity
		out.Overview.CurrentOccupancy += s.CurrentOccupancy
		b := out.SpaceBreakdown[string(s.Type)]
		b.Count++
		b.Capacity += s.Capacity
		b.Occupancy += s.CurrentOccupancy
		out.SpaceBreakdown[string(s.Type)] = b

		temp += s.Environment.Temperature
		hum += s.Environment.Humidity
		co2 += s.Environment.CO2Level
		noise += s.Environment.NoiseLevel
		eff += SingleEfficiency(s.Environment, s.Utilization(), th)
	}
	for k, b := range out.SpaceBreakdown {
		if b.Capacity > 0 {
			b.Utilization = float64(b.Occupancy) / float64(b.Capacity)
		}
		out.SpaceBreakdown[k] = b
	}

	n := float64(len(spaces))
	out.Overview.TotalSpaces = len(spaces)
	if out.Overview.TotalCapacity > 0 {
		out.Overview.OverallUtilization = float64(out.Overview.CurrentOccupancy) / float64(out.Overview.TotalCapacity)
	}
	out.Overview.EfficiencyScore = eff / n
	out.Environmental = EnvironmentSummary{
		AverageTemperature: temp / n,
		AverageHumidity:    hum / n,
		AverageCO2:         co2 / n,
		AverageNoise:       noise / n,
	}
	out.Environmental.ComfortScore = ComfortScore(temp/n, hum/n, co2/n, noise/n, th)

	metrics := o.Metrics()
	out.ModelInfo = ModelInfo{CompanyID: o.config.CompanyID}
	if o.IsTrained() {
		trainedAt := metrics.TrainedAt
		out.ModelInfo.ModelAccuracy = metrics.TestR2
		out.ModelInfo.LastTrained = &trainedAt

		avgCapacity := float64(out.Overview.TotalCapacity) / n
		for i := 1; i <= 5; i++ {
			at := now.Add(time.Duration(i) * time.Hour)
			f := FeaturesAt(at)
			f.Capacity = avgCapacity
			f.Temperature = out.Environmental.AverageTemperature
			f.Humidity = out.Environmental.AverageHumidity
			f.CO2Level = out.Environmental.AverageCO2
			f.NoiseLevel = out.Environmental.AverageNoise
			f.AirQuality = 75
			f.SpaceType = workspace.SpaceTypeDesk
			f.Department = "engineering"
			f.Floor = 1
			p, err := o.PredictUtilization(f)
			if err != nil {
				return nil, err
			}
			out.Predictions = append(out.Predictions, HourPrediction{
				Time:                 at.Format("15:04"),
				PredictedUtilization: p.PredictedUtilization,
				Confidence:           p.Confidence,
			})
		}
	}
	return out, nil
}
