package workspace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/energy"
	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// Reference building used for the query-driven forecast and the
// optimization report.
const (
	referenceBuildingAge = 10.0
	referenceFloorArea   = 50000.0
	analysisWindow       = 365 * 24 * time.Hour
)

var efficiencyOpportunities = []EfficiencyOpportunity{
	{Category: "HVAC Optimization", PotentialSavings: "15-20%", Description: "Implement smart scheduling and zone control"},
	{Category: "Lighting Control", PotentialSavings: "10-15%", Description: "Install occupancy sensors and daylight harvesting"},
	{Category: "Equipment Scheduling", PotentialSavings: "8-12%", Description: "Optimize equipment operation schedules"},
}

// EnergyService serves the energy dashboard, forecasts and reports
type EnergyService struct {
	readings workspace.ReadingRepository
	models   ModelProvider
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnergyService creates a new EnergyService
func NewEnergyService(readings workspace.ReadingRepository, models ModelProvider, logger *zap.Logger) *EnergyService {
	return &EnergyService{
		readings: readings,
		models:   models,
		logger:   logger.Named("energy"),
		now:      time.Now,
	}
}

// Dashboard summarizes the last 24 hours of readings
func (s *EnergyService) Dashboard(ctx context.Context, companyID string) (*EnergyDashboard, error) {
	now := s.now()
	readings, err := s.readings.Energy(ctx, companyID, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "No energy readings in the last 24 hours")
	}

	latest := readings[len(readings)-1]
	out := &EnergyDashboard{
		CurrentConsumption: latest.TotalConsumption,
		CurrentCost:        latest.CostPerHour,
		EfficiencyScore:    latest.EfficiencyScore,
		TotalCost24h:       decimal.Zero,
		ConsumptionBreakdown: ConsumptionBreakdown{
			HVAC:      latest.HVACConsumption,
			Lighting:  latest.LightingConsumption,
			Equipment: latest.EquipmentConsumption,
		},
		HourlyData: make([]EnergyHour, 0, len(readings)),
	}
	var efficiency float64
	for _, r := range readings {
		out.TotalConsumption24h += r.TotalConsumption
		out.TotalCost24h = out.TotalCost24h.Add(r.CostPerHour)
		out.CarbonFootprint += r.CarbonFootprint
		efficiency += r.EfficiencyScore
		out.HourlyData = append(out.HourlyData, EnergyHour{
			Hour:        r.Timestamp.Format("15:04"),
			Timestamp:   r.Timestamp,
			Consumption: r.TotalConsumption,
			Cost:        r.CostPerHour,
			Efficiency:  r.EfficiencyScore,
		})
	}
	out.AverageEfficiency = round1(efficiency / float64(len(readings)))
	out.TotalConsumption24h = round1(out.TotalConsumption24h)
	out.CarbonFootprint = round1(out.CarbonFootprint)
	return out, nil
}

func referenceInput(temperature, occupancy *float64) energy.Input {
	age, area := referenceBuildingAge, referenceFloorArea
	return energy.Input{
		OutdoorTemperature: temperature,
		OccupancyRate:      occupancy,
		BuildingAge:        &age,
		FloorArea:          &area,
	}
}

// Predictions forecasts the coming hours for the queried outdoor temperature
// and occupancy
func (s *EnergyService) Predictions(ctx context.Context, companyID string, q EnergyForecastQuery) (*energy.Forecast, error) {
	_, span := telemetry.StartSpan(ctx, "energy", "forecast", telemetry.AttrCompanyID, companyID, "hours", q.Hours)
	defer span.End()

	hours := q.Hours
	if hours <= 0 {
		hours = 24
	}
	forecast, err := s.models.Predictor(companyID).Forecast(referenceInput(q.Temperature, q.Occupancy), hours, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return forecast, nil
}

// Optimization checks the last day of readings for anomalies and lists
// savings measures for the reference building
func (s *EnergyService) Optimization(ctx context.Context, companyID string) (*EnergyOptimization, error) {
	now := s.now()
	readings, err := s.readings.Energy(ctx, companyID, now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, err
	}
	predictor := s.models.Predictor(companyID)
	base := referenceInput(nil, nil).Resolve(now)

	observations := make([]energy.Observation, len(readings))
	for i, r := range readings {
		observations[i] = energy.ObservationFromReading(r, base)
	}
	anomalies := []energy.Anomaly{}
	if len(observations) > 0 {
		anomalies, err = predictor.DetectAnomalies(observations)
		if err != nil {
			return nil, err
		}
	}
	pred, err := predictor.Predict(base)
	if err != nil {
		return nil, err
	}
	return &EnergyOptimization{
		Anomalies:               nonNil(anomalies),
		Recommendations:         nonNil(pred.Recommendations),
		EfficiencyOpportunities: efficiencyOpportunities,
	}, nil
}

// Analysis runs the seasonal analysis over the last year of readings
func (s *EnergyService) Analysis(ctx context.Context, companyID string) (*EnergyAnalysis, error) {
	now := s.now()
	from := now.Add(-analysisWindow)
	readings, err := s.readings.Energy(ctx, companyID, from, now)
	if err != nil {
		return nil, err
	}
	seasonal, err := energy.SeasonalAnalysis(energy.ReadingPoints(readings))
	if err != nil {
		return nil, err
	}
	return &EnergyAnalysis{
		Analysis:   seasonal,
		DataPoints: len(readings),
		From:       from,
		To:         now,
	}, nil
}

// Predict runs a single prediction; missing inputs take the building defaults
func (s *EnergyService) Predict(ctx context.Context, companyID string, in energy.Input) (*energy.Prediction, error) {
	_, span := telemetry.StartSpan(ctx, "energy", "predict", telemetry.AttrCompanyID, companyID)
	defer span.End()

	pred, err := s.models.Predictor(companyID).Predict(in.Resolve(s.now()))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return pred, nil
}
