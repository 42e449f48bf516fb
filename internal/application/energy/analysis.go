package energy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
)

// Anomaly types
const (
	AnomalyConsumption = "consumption_anomaly"
	AnomalyCost        = "cost_anomaly"
	AnomalyEfficiency  = "efficiency_warning"
)

// MaxForecastHours bounds Forecast
const MaxForecastHours = 168

// Observation is a measured hour together with the conditions it was measured in
type Observation struct {
	Features    Features
	Timestamp   time.Time
	Consumption float64
	// Cost is optional; when nil the expected cost is assumed.
	Cost *decimal.Decimal
}

// ObservationFromReading pairs a stored reading with base building conditions.
// The calendar fields come from the reading and the electricity rate is
// derived from its cost.
func ObservationFromReading(r *workspace.EnergyReading, base Features) Observation {
	f := base
	f.setCalendar(r.Timestamp)
	if r.TotalConsumption > 0 && r.CostPerHour.IsPositive() {
		f.ElectricityRate = r.CostPerHour.InexactFloat64() / r.TotalConsumption
	}
	cost := r.CostPerHour
	return Observation{
		Features:    f,
		Timestamp:   r.Timestamp,
		Consumption: r.TotalConsumption,
		Cost:        &cost,
	}
}

// Anomaly is a deviation between observed and expected energy use
type Anomaly struct {
	Type             string             `json:"type"`
	Severity         workspace.Severity `json:"severity"`
	Timestamp        time.Time          `json:"timestamp"`
	Expected         float64            `json:"expected,omitempty"`
	Actual           float64            `json:"actual,omitempty"`
	ExpectedCost     *decimal.Decimal   `json:"expected_cost,omitempty"`
	ActualCost       *decimal.Decimal   `json:"actual_cost,omitempty"`
	DeviationPercent float64            `json:"deviation_percent,omitempty"`
	EfficiencyScore  float64            `json:"efficiency_score,omitempty"`
	Message          string             `json:"message"`
	Recommendations  []Recommendation   `json:"recommendations,omitempty"`
}

// DetectAnomalies compares every observation with the model expectation
func (p *Predictor) DetectAnomalies(observations []Observation) ([]Anomaly, error) {
	anomalies := []Anomaly{}
	th := p.config.Thresholds
	for _, obs := range observations {
		pred, err := p.Predict(obs.Features)
		if err != nil {
			return nil, err
		}
		expected := pred.PredictedConsumption
		if expected <= 0 {
			continue
		}

		deviation := math.Abs(obs.Consumption-expected) / expected
		if deviation > th.ConsumptionSpike-1 {
			severity := workspace.SeverityMedium
			if deviation > 1.0 {
				severity = workspace.SeverityHigh
			}
			anomalies = append(anomalies, Anomaly{
				Type:             AnomalyConsumption,
				Severity:         severity,
				Timestamp:        obs.Timestamp,
				Expected:         expected,
				Actual:           obs.Consumption,
				DeviationPercent: deviation * 100,
				Message:          fmt.Sprintf("Energy consumption %.1f%% %s expected", deviation*100, direction(obs.Consumption, expected)),
				Recommendations:  pred.Recommendations,
			})
		}

		expectedCost := pred.PredictedCost
		actualCost := expectedCost
		if obs.Cost != nil {
			actualCost = *obs.Cost
		}
		if expectedCost.IsPositive() {
			costDeviation := actualCost.Sub(expectedCost).Abs().Div(expectedCost).InexactFloat64()
			if costDeviation > th.CostAnomaly-1 {
				anomalies = append(anomalies, Anomaly{
					Type:             AnomalyCost,
					Severity:         workspace.SeverityMedium,
					Timestamp:        obs.Timestamp,
					ExpectedCost:     &expectedCost,
					ActualCost:       &actualCost,
					DeviationPercent: costDeviation * 100,
					Message: fmt.Sprintf("Energy cost %.1f%% %s expected", costDeviation*100,
						direction(actualCost.InexactFloat64(), expectedCost.InexactFloat64())),
				})
			}
		}

		if pred.EfficiencyScore < th.EfficiencyWarning*100 {
			anomalies = append(anomalies, Anomaly{
				Type:            AnomalyEfficiency,
				Severity:        workspace.SeverityLow,
				Timestamp:       obs.Timestamp,
				EfficiencyScore: pred.EfficiencyScore,
				Message:         fmt.Sprintf("Low energy efficiency: %.1f/100", pred.EfficiencyScore),
				Recommendations: pred.Recommendations,
			})
		}
	}
	return anomalies, nil
}

func direction(actual, expected float64) string {
	if actual < expected {
		return "below"
	}
	return "above"
}

// HourForecast is the prediction for one upcoming hour
type HourForecast struct {
	Hour                 string          `json:"hour"`
	Timestamp            time.Time       `json:"timestamp"`
	PredictedConsumption float64         `json:"predicted_consumption"`
	PredictedCost        decimal.Decimal `json:"predicted_cost"`
	EfficiencyScore      float64         `json:"efficiency_score"`
	Confidence           float64         `json:"confidence"`
}

// ForecastSummary totals a forecast
type ForecastSummary struct {
	TotalConsumption   float64         `json:"total_consumption"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	AverageEfficiency  float64         `json:"average_efficiency"`
	PeakConsumption    float64         `json:"peak_consumption"`
	OffPeakConsumption float64         `json:"off_peak_consumption"`
	CarbonFootprint    float64         `json:"carbon_footprint"`
}

// Opportunity is a savings measure derived from a forecast
type Opportunity struct {
	Category         string `json:"category"`
	Description      string `json:"description"`
	PotentialSavings string `json:"potential_savings"`
	Implementation   string `json:"implementation"`
}

// Forecast is an hourly consumption outlook
type Forecast struct {
	Predictions   []HourForecast  `json:"predictions"`
	Summary       ForecastSummary `json:"summary"`
	Opportunities []Opportunity   `json:"optimization_opportunities"`
}

// Forecast predicts the next hours starting at now. Occupancy follows the
// daily profile around the base rate; when no rate is given the company
// tariff for each hour applies.
func (p *Predictor) Forecast(base Input, hours int, now time.Time) (*Forecast, error) {
	if hours <= 0 {
		hours = 24
	}
	if hours > MaxForecastHours {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Forecast horizon cannot exceed %d hours", MaxForecastHours))
	}
	company := p.config.Company
	baseOccupancy := base.Resolve(now).OccupancyRate

	out := &Forecast{Predictions: make([]HourForecast, 0, hours)}
	totalCost := decimal.Zero
	var efficiency float64
	for h := 0; h < hours; h++ {
		t := now.Add(time.Duration(h) * time.Hour)
		f := base.Resolve(t)
		f.setCalendar(t)
		switch {
		case company.IsPeakHour(f.Hour):
			f.OccupancyRate = baseOccupancy * 1.2
		case f.Hour >= 6 && f.Hour <= 20:
			f.OccupancyRate = baseOccupancy
		default:
			f.OccupancyRate = baseOccupancy * 0.3
		}
		if base.ElectricityRate == nil {
			f.ElectricityRate = company.Rate(f.Hour, f.IsWeekend)
		}

		pred, err := p.Predict(f)
		if err != nil {
			return nil, err
		}
		out.Predictions = append(out.Predictions, HourForecast{
			Hour:                 t.Format("15:04"),
			Timestamp:            t,
			PredictedConsumption: pred.PredictedConsumption,
			PredictedCost:        pred.PredictedCost,
			EfficiencyScore:      pred.EfficiencyScore,
			Confidence:           pred.Confidence,
		})
		out.Summary.TotalConsumption += pred.PredictedConsumption
		totalCost = totalCost.Add(pred.PredictedCost)
		efficiency += pred.EfficiencyScore
		if company.IsPeakHour(f.Hour) {
			out.Summary.PeakConsumption += pred.PredictedConsumption
		}
	}
	out.Summary.TotalCost = totalCost
	out.Summary.AverageEfficiency = efficiency / float64(hours)
	out.Summary.OffPeakConsumption = out.Summary.TotalConsumption - out.Summary.PeakConsumption
	out.Summary.CarbonFootprint = out.Summary.TotalConsumption * company.CarbonIntensity
	out.Opportunities = p.opportunities(out.Predictions)
	return out, nil
}

func (p *Predictor) opportunities(predictions []HourForecast) []Opportunity {
	ops := []Opportunity{}
	if len(predictions) == 0 {
		return ops
	}

	peak := 0.0
	for _, h := range predictions {
		peak = math.Max(peak, h.PredictedConsumption)
	}
	var nearPeak, lowEfficiency int
	for _, h := range predictions {
		if h.PredictedConsumption > peak*p.config.Thresholds.DemandPeak {
			nearPeak++
		}
		if h.EfficiencyScore < 60 {
			lowEfficiency++
		}
	}
	if nearPeak > 1 {
		ops = append(ops, Opportunity{
			Category:         "Load Shifting",
			Description:      fmt.Sprintf("Consider shifting non-critical loads from %d peak hours", nearPeak),
			PotentialSavings: "5-15%",
			Implementation:   "Schedule equipment during off-peak hours",
		})
	}
	if lowEfficiency > 0 {
		ops = append(ops, Opportunity{
			Category:         "Efficiency Improvement",
			Description:      fmt.Sprintf("%d hours show low efficiency", lowEfficiency),
			PotentialSavings: "10-20%",
			Implementation:   "Optimize HVAC and equipment scheduling",
		})
	}

	byCost := append([]HourForecast(nil), predictions...)
	sort.SliceStable(byCost, func(i, j int) bool {
		return byCost[i].PredictedCost.GreaterThan(byCost[j].PredictedCost)
	})
	top := byCost[:min(4, len(byCost))]
	hours := make([]string, len(top))
	for i, h := range top {
		hours[i] = h.Hour
	}
	ops = append(ops, Opportunity{
		Category:         "Demand Response",
		Description:      fmt.Sprintf("Participate in demand response programs during peak cost periods (%s)", strings.Join(hours, ", ")),
		PotentialSavings: "8-12%",
		Implementation:   "Reduce non-essential loads during peak rate hours",
	})
	return ops
}

// UsagePoint is one hourly consumption value
type UsagePoint struct {
	Timestamp   time.Time
	Consumption float64
}

// SamplePoints converts training samples to usage points
func SamplePoints(samples []Sample) []UsagePoint {
	out := make([]UsagePoint, len(samples))
	for i, s := range samples {
		out[i] = UsagePoint{Timestamp: s.Timestamp, Consumption: s.Consumption}
	}
	return out
}

// ReadingPoints converts stored readings to usage points
func ReadingPoints(readings []*workspace.EnergyReading) []UsagePoint {
	out := make([]UsagePoint, len(readings))
	for i, r := range readings {
		out[i] = UsagePoint{Timestamp: r.Timestamp, Consumption: r.TotalConsumption}
	}
	return out
}

// Seasonal summarizes consumption over the year and the day
type Seasonal struct {
	TotalConsumption   float64         `json:"total_consumption"`
	AverageDaily       float64         `json:"average_daily"`
	PeakConsumption    float64         `json:"peak_consumption"`
	MinConsumption     float64         `json:"min_consumption"`
	Variance           float64         `json:"consumption_variance"`
	SummerAverage      float64         `json:"summer_avg"`
	WinterAverage      float64         `json:"winter_avg"`
	MonsoonAverage     float64         `json:"monsoon_avg"`
	HourlyPattern      map[int]float64 `json:"hourly_pattern"`
	PeakHours          []int           `json:"peak_hours"`
	OffPeakHours       []int           `json:"off_peak_hours"`
	HighConsumptionDay []string        `json:"high_consumption_days"`
	LowConsumptionDay  []string        `json:"low_consumption_days"`
}

// SeasonalAnalysis aggregates hourly usage points
func SeasonalAnalysis(points []UsagePoint) (*Seasonal, error) {
	if len(points) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No energy data to analyze")
	}
	values := make([]float64, len(points))
	var summer, winter, monsoon []float64
	hourly := map[int][]float64{}
	daily := map[time.Weekday][]float64{}
	for i, pt := range points {
		v := pt.Consumption
		values[i] = v
		switch pt.Timestamp.Month() {
		case time.April, time.May, time.June:
			summer = append(summer, v)
		case time.December, time.January, time.February:
			winter = append(winter, v)
		case time.July, time.August, time.September:
			monsoon = append(monsoon, v)
		}
		hourly[pt.Timestamp.Hour()] = append(hourly[pt.Timestamp.Hour()], v)
		daily[pt.Timestamp.Weekday()] = append(daily[pt.Timestamp.Weekday()], v)
	}

	out := &Seasonal{
		TotalConsumption: floats.Sum(values),
		AverageDaily:     stat.Mean(values, nil) * 24,
		PeakConsumption:  floats.Max(values),
		MinConsumption:   floats.Min(values),
		SummerAverage:    mean(summer),
		WinterAverage:    mean(winter),
		MonsoonAverage:   mean(monsoon),
		HourlyPattern:    make(map[int]float64, len(hourly)),
	}
	if len(values) > 1 {
		out.Variance = stat.Variance(values, nil)
	}

	hours := make([]int, 0, len(hourly))
	for h, vs := range hourly {
		out.HourlyPattern[h] = mean(vs)
		hours = append(hours, h)
	}
	sort.Ints(hours)
	sort.SliceStable(hours, func(i, j int) bool { return out.HourlyPattern[hours[i]] > out.HourlyPattern[hours[j]] })
	out.PeakHours = append([]int(nil), hours[:min(5, len(hours))]...)
	out.OffPeakHours = reversed(hours)[:min(5, len(hours))]

	days := make([]time.Weekday, 0, len(daily))
	dayMean := make(map[time.Weekday]float64, len(daily))
	for d, vs := range daily {
		dayMean[d] = mean(vs)
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if dayMean[days[i]] != dayMean[days[j]] {
			return dayMean[days[i]] > dayMean[days[j]]
		}
		return days[i] < days[j]
	})
	for _, d := range days[:min(3, len(days))] {
		out.HighConsumptionDay = append(out.HighConsumptionDay, d.String())
	}
	for i := len(days) - 1; i >= max(0, len(days)-3); i-- {
		out.LowConsumptionDay = append(out.LowConsumptionDay, days[i].String())
	}
	return out, nil
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return stat.Mean(vs, nil)
}

func reversed(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
