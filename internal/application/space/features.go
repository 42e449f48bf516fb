package space

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/ml"
)

// The model is trained on four representative space types; the remaining
// types are folded onto the closest one before encoding.
var trainingTypes = []workspace.SpaceType{
	workspace.SpaceTypeCommonArea,
	workspace.SpaceTypeDesk,
	workspace.SpaceTypeMeetingRoom,
	workspace.SpaceTypePhoneBooth,
}

var trainingDepartments = []string{"engineering", "finance", "hr", "marketing", "sales"}

// Features describes one space at one hour
type Features struct {
	Hour             int                 `json:"hour"`
	DayOfWeek        int                 `json:"day_of_week"` // Monday = 0
	Month            int                 `json:"month"`
	IsWeekend        bool                `json:"is_weekend"`
	IsHoliday        bool                `json:"is_holiday"`
	Capacity         float64             `json:"capacity"`
	Temperature      float64             `json:"temperature"`
	Humidity         float64             `json:"humidity"`
	CO2Level         float64             `json:"co2_level"`
	NoiseLevel       float64             `json:"noise_level"`
	AirQuality       float64             `json:"air_quality"`
	BookingConflicts int                 `json:"booking_conflicts"`
	MaintenanceDue   bool                `json:"maintenance_due"`
	SpaceType        workspace.SpaceType `json:"space_type"`
	Department       string              `json:"department"`
	Floor            int                 `json:"floor"`
}

// FeaturesAt fills the calendar fields from t
func FeaturesAt(t time.Time) Features {
	dow := weekdayIndex(t)
	return Features{
		Hour:      t.Hour(),
		DayOfWeek: dow,
		Month:     int(t.Month()),
		IsWeekend: dow >= 5,
	}
}

// FeaturesForSpace builds the model input for a stored space at t
func FeaturesForSpace(s *workspace.Space, t time.Time) Features {
	f := FeaturesAt(t)
	f.Capacity = float64(s.Capacity)
	f.Temperature = s.Environment.Temperature
	f.Humidity = s.Environment.Humidity
	f.CO2Level = s.Environment.CO2Level
	f.NoiseLevel = s.Environment.NoiseLevel
	f.AirQuality = s.Environment.AirQuality
	f.MaintenanceDue = s.IsMaintenanceDue(t)
	f.SpaceType = s.Type
	f.Department = s.Department
	f.Floor = s.Floor
	return f
}

// Environment returns the environment part of the features
func (f Features) Environment() workspace.Environment {
	return workspace.Environment{
		Temperature: f.Temperature,
		Humidity:    f.Humidity,
		CO2Level:    f.CO2Level,
		NoiseLevel:  f.NoiseLevel,
		AirQuality:  f.AirQuality,
	}
}

func (f Features) vector() []float64 {
	return []float64{
		float64(f.Hour),
		float64(f.DayOfWeek),
		float64(f.Month),
		boolFloat(f.IsWeekend),
		boolFloat(f.IsHoliday),
		f.Capacity,
		f.Temperature,
		f.Humidity,
		f.CO2Level,
		f.NoiseLevel,
		f.AirQuality,
		float64(f.BookingConflicts),
		boolFloat(f.MaintenanceDue),
		float64(encodeSpaceType(f.SpaceType)),
		float64(encodeDepartment(f.Department)),
		float64(encodeFloor(f.Floor)),
	}
}

// FeatureNames matches the column order of the model input
var FeatureNames = []string{
	"hour", "day_of_week", "month", "is_weekend", "is_holiday",
	"capacity", "temperature", "humidity", "co2_level", "noise_level",
	"air_quality", "booking_conflicts", "maintenance_due",
	"space_type_encoded", "department_encoded", "floor_encoded",
}

func trainingType(t workspace.SpaceType) workspace.SpaceType {
	switch t {
	case workspace.SpaceTypeOpenDesk, workspace.SpaceTypeHotDesk, workspace.SpaceTypeQuietZone:
		return workspace.SpaceTypeDesk
	case workspace.SpaceTypeCollaborative:
		return workspace.SpaceTypeMeetingRoom
	case "":
		return workspace.SpaceTypeDesk
	}
	return t
}

func encodeSpaceType(t workspace.SpaceType) int {
	if i := slices.Index(trainingTypes, trainingType(t)); i >= 0 {
		return i
	}
	return slices.Index(trainingTypes, workspace.SpaceTypeDesk)
}

func encodeDepartment(d string) int {
	if i := slices.Index(trainingDepartments, d); i >= 0 {
		return i
	}
	return 0
}

func encodeFloor(floor int) int {
	return min(max(floor, 1), 5) - 1
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Sample is one synthetic training row
type Sample struct {
	Features
	Utilization float64
	Occupancy   int
	Efficiency  float64
}

// GenerateTrainingData produces n hourly samples starting at start
func GenerateTrainingData(n int, start time.Time, rng *rand.Rand, th Thresholds) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		f := FeaturesAt(start.Add(time.Duration(i) * time.Hour))
		f.IsHoliday = ml.Bernoulli(rng, 0.05)
		f.SpaceType = trainingTypes[rng.IntN(len(trainingTypes))]
		f.Department = trainingDepartments[rng.IntN(len(trainingDepartments))]
		f.Floor = 1 + rng.IntN(5)
		f.Capacity = float64(1 + rng.IntN(20))
		f.Temperature = ml.Clip(ml.Normal(rng, 22, 2), 18, 28)
		f.Humidity = ml.Clip(ml.Normal(rng, 45, 10), 30, 80)
		f.CO2Level = ml.Clip(ml.Normal(rng, 400, 150), 300, 1500)
		f.NoiseLevel = ml.Clip(ml.Normal(rng, 45, 10), 30, 80)
		f.AirQuality = ml.Clip(ml.Normal(rng, 75, 15), 0, 100)
		f.BookingConflicts = ml.Poisson(rng, 0.1)
		f.MaintenanceDue = ml.Bernoulli(rng, 0.05)

		u := utilizationLabel(f, th, ml.Normal(rng, 0, 0.1))
		samples[i] = Sample{
			Features:    f,
			Utilization: u,
			Occupancy:   int(u*f.Capacity + 0.5),
			Efficiency:  SingleEfficiency(f.Environment(), u, th),
		}
	}
	return samples
}

func utilizationLabel(f Features, th Thresholds, noise float64) float64 {
	var base float64
	switch f.Hour {
	case 9, 10, 11, 14, 15, 16:
		base = 0.8
	case 8, 12, 13, 17, 18:
		base = 0.6
	default:
		if f.Hour < 8 || f.Hour > 18 {
			base = 0.1
		} else {
			base = 0.4
		}
	}
	if f.IsWeekend {
		base *= 0.2
	}
	if f.IsHoliday {
		base *= 0.1
	}

	spaceFactor := 0.3
	switch trainingType(f.SpaceType) {
	case workspace.SpaceTypeDesk:
		spaceFactor = 1.0
	case workspace.SpaceTypeMeetingRoom:
		spaceFactor = 0.6
	case workspace.SpaceTypeCommonArea:
		spaceFactor = 0.4
	}

	deptFactor := 0.9
	switch f.Department {
	case "engineering", "sales":
		deptFactor = 1.1
	case "marketing":
		deptFactor = 1.0
	}

	comfort := 1.0
	if f.Temperature < th.TemperatureMin || f.Temperature > th.TemperatureMax {
		comfort *= 0.8
	}
	if f.Humidity < th.HumidityMin || f.Humidity > th.HumidityMax {
		comfort *= 0.9
	}
	if f.CO2Level > th.CO2Max {
		comfort *= 0.7
	}
	if f.NoiseLevel > efficiencyNoiseLimit {
		comfort *= 0.8
	}
	return ml.Clip(base*spaceFactor*deptFactor*comfort+noise, 0, 1)
}
