package energy

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/smartspace/backend/internal/infrastructure/ml"
)

// Features is one fully specified model input
type Features struct {
	Hour                 int     `json:"hour"`
	DayOfWeek            int     `json:"day_of_week"` // Monday = 0
	Month                int     `json:"month"`
	IsWeekend            bool    `json:"is_weekend"`
	IsHoliday            bool    `json:"is_holiday"`
	Season               int     `json:"season"`
	OutdoorTemperature   float64 `json:"outdoor_temperature"`
	OutdoorHumidity      float64 `json:"outdoor_humidity"`
	SolarRadiation       float64 `json:"solar_radiation"`
	OccupancyRate        float64 `json:"occupancy_rate"`
	TotalOccupants       float64 `json:"total_occupants"`
	HVACLoad             float64 `json:"hvac_load"`
	LightingLoad         float64 `json:"lighting_load"`
	ComputersLoad        float64 `json:"computers_load"`
	ServersLoad          float64 `json:"servers_load"`
	KitchenLoad          float64 `json:"kitchen_load"`
	BuildingAge          float64 `json:"building_age"`
	FloorArea            float64 `json:"floor_area"`
	InsulationRating     float64 `json:"insulation_rating"`
	ElectricityRate      float64 `json:"electricity_rate"`
	DemandResponseActive bool    `json:"demand_response_active"`
}

// FeatureNames matches the column order of the model input
var FeatureNames = []string{
	"hour", "day_of_week", "month", "is_weekend", "is_holiday", "season",
	"outdoor_temperature", "outdoor_humidity", "solar_radiation",
	"occupancy_rate", "total_occupants", "hvac_load", "lighting_load",
	"computers_load", "servers_load", "kitchen_load", "building_age",
	"floor_area", "insulation_rating", "electricity_rate",
	"demand_response_active",
}

func (f Features) vector() []float64 {
	return []float64{
		float64(f.Hour),
		float64(f.DayOfWeek),
		float64(f.Month),
		boolFloat(f.IsWeekend),
		boolFloat(f.IsHoliday),
		float64(f.Season),
		f.OutdoorTemperature,
		f.OutdoorHumidity,
		f.SolarRadiation,
		f.OccupancyRate,
		f.TotalOccupants,
		f.HVACLoad,
		f.LightingLoad,
		f.ComputersLoad,
		f.ServersLoad,
		f.KitchenLoad,
		f.BuildingAge,
		f.FloorArea,
		f.InsulationRating,
		f.ElectricityRate,
		boolFloat(f.DemandResponseActive),
	}
}

// setCalendar overwrites the time derived fields
func (f *Features) setCalendar(t time.Time) {
	f.Hour = t.Hour()
	f.DayOfWeek = (int(t.Weekday()) + 6) % 7
	f.Month = int(t.Month())
	f.IsWeekend = f.DayOfWeek >= 5
	f.Season = season(f.Month)
}

func season(month int) int {
	return (month % 12) / 3
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Input is a partially specified prediction request. Nil fields take the
// building defaults and the calendar fields default to the request time.
type Input struct {
	Hour                 *int     `json:"hour,omitempty"`
	DayOfWeek            *int     `json:"day_of_week,omitempty"`
	Month                *int     `json:"month,omitempty"`
	IsWeekend            *bool    `json:"is_weekend,omitempty"`
	IsHoliday            *bool    `json:"is_holiday,omitempty"`
	Season               *int     `json:"season,omitempty"`
	OutdoorTemperature   *float64 `json:"outdoor_temperature,omitempty" binding:"omitempty,gte=-50,lte=60"`
	OutdoorHumidity      *float64 `json:"outdoor_humidity,omitempty" binding:"omitempty,gte=0,lte=100"`
	SolarRadiation       *float64 `json:"solar_radiation,omitempty" binding:"omitempty,gte=0"`
	OccupancyRate        *float64 `json:"occupancy_rate,omitempty" binding:"omitempty,gte=0,lte=2"`
	TotalOccupants       *float64 `json:"total_occupants,omitempty" binding:"omitempty,gte=0"`
	HVACLoad             *float64 `json:"hvac_load,omitempty"`
	LightingLoad         *float64 `json:"lighting_load,omitempty"`
	ComputersLoad        *float64 `json:"computers_load,omitempty"`
	ServersLoad          *float64 `json:"servers_load,omitempty"`
	KitchenLoad          *float64 `json:"kitchen_load,omitempty"`
	BuildingAge          *float64 `json:"building_age,omitempty" binding:"omitempty,gte=0"`
	FloorArea            *float64 `json:"floor_area,omitempty" binding:"omitempty,gt=0"`
	InsulationRating     *float64 `json:"insulation_rating,omitempty" binding:"omitempty,gte=0,lte=1"`
	ElectricityRate      *float64 `json:"electricity_rate,omitempty" binding:"omitempty,gte=0"`
	DemandResponseActive *bool    `json:"demand_response_active,omitempty"`
}

// DefaultFeatures returns the reference building at time now
func DefaultFeatures(now time.Time) Features {
	f := Features{
		OutdoorTemperature: 22,
		OutdoorHumidity:    50,
		SolarRadiation:     500,
		OccupancyRate:      0.7,
		TotalOccupants:     200,
		HVACLoad:           0.8,
		LightingLoad:       0.7,
		ComputersLoad:      0.8,
		ServersLoad:        0.9,
		KitchenLoad:        0.6,
		BuildingAge:        15,
		FloorArea:          50000,
		InsulationRating:   0.7,
		ElectricityRate:    0.12,
	}
	f.setCalendar(now)
	return f
}

// Resolve fills every missing field from DefaultFeatures(now)
func (in Input) Resolve(now time.Time) Features {
	f := DefaultFeatures(now)
	setInt(&f.Hour, in.Hour)
	setInt(&f.DayOfWeek, in.DayOfWeek)
	setInt(&f.Month, in.Month)
	setBool(&f.IsWeekend, in.IsWeekend)
	setBool(&f.IsHoliday, in.IsHoliday)
	setInt(&f.Season, in.Season)
	setFloat(&f.OutdoorTemperature, in.OutdoorTemperature)
	setFloat(&f.OutdoorHumidity, in.OutdoorHumidity)
	setFloat(&f.SolarRadiation, in.SolarRadiation)
	setFloat(&f.OccupancyRate, in.OccupancyRate)
	setFloat(&f.TotalOccupants, in.TotalOccupants)
	setFloat(&f.HVACLoad, in.HVACLoad)
	setFloat(&f.LightingLoad, in.LightingLoad)
	setFloat(&f.ComputersLoad, in.ComputersLoad)
	setFloat(&f.ServersLoad, in.ServersLoad)
	setFloat(&f.KitchenLoad, in.KitchenLoad)
	setFloat(&f.BuildingAge, in.BuildingAge)
	setFloat(&f.FloorArea, in.FloorArea)
	setFloat(&f.InsulationRating, in.InsulationRating)
	setFloat(&f.ElectricityRate, in.ElectricityRate)
	setBool(&f.DemandResponseActive, in.DemandResponseActive)
	return f
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Sample is one synthetic training row
type Sample struct {
	Features
	Timestamp   time.Time
	Consumption float64
	Cost        float64
	Efficiency  float64
	Anomaly     bool
}

// GenerateTrainingData produces n hourly samples starting at start
func GenerateTrainingData(n int, start time.Time, rng *rand.Rand, cfg CompanyConfig) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		t := start.Add(time.Duration(i) * time.Hour)
		doy := float64(t.YearDay())
		yearPhase := 2 * math.Pi * doy / 365

		var f Features
		f.setCalendar(t)
		f.IsHoliday = ml.Bernoulli(rng, 0.03)
		f.OutdoorTemperature = ml.Clip(15+10*math.Sin(yearPhase)+ml.Normal(rng, 0, 3), -10, 40)
		f.OutdoorHumidity = ml.Clip(50+20*math.Sin(yearPhase+math.Pi/4)+ml.Normal(rng, 0, 10), 20, 90)
		solar := 800*math.Sin(math.Pi*float64(f.Hour)/12)*(1+0.3*math.Sin(yearPhase)) + ml.Normal(rng, 0, 100)
		f.SolarRadiation = ml.Clip(math.Max(0, solar), 0, 1000)
		f.OccupancyRate = ml.Beta(rng, 2, 5)
		f.TotalOccupants = float64(50+rng.IntN(450)) * f.OccupancyRate
		f.HVACLoad = ml.Beta(rng, 2, 3)
		f.LightingLoad = ml.Beta(rng, 2, 3)
		f.ComputersLoad = ml.Beta(rng, 2, 3)
		f.ServersLoad = ml.Beta(rng, 2, 3)
		f.KitchenLoad = ml.Beta(rng, 2, 3)
		f.BuildingAge = float64(1 + rng.IntN(29))
		f.FloorArea = ml.Normal(rng, 50000, 10000)
		f.InsulationRating = ml.Normal(rng, 0.7, 0.1)
		f.ElectricityRate = ml.Normal(rng, 0.12, 0.02)

		consumption := math.Max(5, consumptionModel(f, cfg)*ml.Normal(rng, 1, 0.05))
		samples[i] = Sample{
			Features:    f,
			Timestamp:   t,
			Consumption: consumption,
			Cost:        consumption * f.ElectricityRate,
		}
	}
	assignEfficiency(samples)

	for _, i := range rng.Perm(n)[:n*5/100] {
		samples[i].Consumption *= ml.Uniform(rng, 1.5, 3)
		samples[i].Anomaly = true
	}
	for _, i := range rng.Perm(n)[:n*2/100] {
		samples[i].DemandResponseActive = true
	}
	return samples
}

// consumptionModel is the deterministic part of hourly building consumption in kWh
func consumptionModel(f Features, cfg CompanyConfig) float64 {
	const (
		baseLoad   = 50.0
		targetTemp = 22.0
	)
	var cooling, heating float64
	if f.OutdoorTemperature > targetTemp {
		cooling = math.Pow(f.OutdoorTemperature-targetTemp, 1.5) * 2
	} else if f.OutdoorTemperature < targetTemp {
		heating = math.Pow(targetTemp-f.OutdoorTemperature, 1.5) * 1.5
	}
	hvac := (baseLoad*0.4 + cooling + heating) * f.HVACLoad * (f.FloorArea / 50000) * (2 - f.InsulationRating)
	lighting := 30 * math.Max(0.3, 1-f.SolarRadiation/800) * (0.3 + 0.7*f.OccupancyRate) * f.LightingLoad
	computers := 40 * f.OccupancyRate * f.ComputersLoad
	servers := 25 * (0.7 + 0.3*f.OccupancyRate) * f.ServersLoad
	kitchen := 15 * f.OccupancyRate * f.KitchenLoad

	timeFactor := 0.6
	switch {
	case cfg.IsPeakHour(f.Hour):
		timeFactor = 1.2
	case f.Hour >= 6 && f.Hour <= 20:
		timeFactor = 1.0
	}
	if f.IsWeekend {
		timeFactor *= 0.4
	}
	if f.IsHoliday {
		timeFactor *= 0.2
	}
	return (hvac + lighting + computers + servers + kitchen) * timeFactor
}

// assignEfficiency scores each sample by the percentile rank of its
// consumption per 1000 sq ft per occupant, adjusted for the building.
func assignEfficiency(samples []Sample) {
	n := len(samples)
	if n == 0 {
		return
	}
	normalized := make([]float64, n)
	for i, s := range samples {
		normalized[i] = s.Consumption / (s.FloorArea / 1000) / math.Max(1, s.TotalOccupants)
	}
	sorted := append([]float64(nil), normalized...)
	sort.Float64s(sorted)
	for i := range samples {
		rank := float64(sort.SearchFloat64s(sorted, normalized[i])+1) / float64(n)
		insulationBonus := (samples[i].InsulationRating - 0.5) * 20
		agePenalty := math.Max(0, (samples[i].BuildingAge-10)*0.5)
		samples[i].Efficiency = ml.Clip(100-rank*100+insulationBonus-agePenalty, 0, 100)
	}
}
