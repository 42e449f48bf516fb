package space

import (
	"math"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
)

// Thresholds are the comfort and crowding limits used for detection
type Thresholds struct {
	OccupancyWarning  float64 `json:"occupancy_warning"`
	OccupancyCritical float64 `json:"occupancy_critical"`
	TemperatureMin    float64 `json:"temperature_min"`
	TemperatureMax    float64 `json:"temperature_max"`
	HumidityMin       float64 `json:"humidity_min"`
	HumidityMax       float64 `json:"humidity_max"`
	CO2Max            float64 `json:"co2_max"`
	NoiseMax          float64 `json:"noise_max"`
}

// DefaultThresholds returns the standard office comfort envelope
func DefaultThresholds() Thresholds {
	return Thresholds{
		OccupancyWarning:  0.85,
		OccupancyCritical: 0.95,
		TemperatureMin:    20,
		TemperatureMax:    26,
		HumidityMin:       30,
		HumidityMax:       70,
		CO2Max:            1000,
		NoiseMax:          70,
	}
}

// Efficiency and comfort penalize noise earlier than conflict detection does.
const (
	efficiencyNoiseLimit = 65.0
	comfortNoiseLimit    = 50.0
)

// SingleEfficiency scores a space from its utilization and environment, 0-100
func SingleEfficiency(env workspace.Environment, utilization float64, th Thresholds) float64 {
	score := utilization * 100
	if env.Temperature < th.TemperatureMin || env.Temperature > th.TemperatureMax {
		score -= 10
	}
	if env.Humidity < th.HumidityMin || env.Humidity > th.HumidityMax {
		score -= 5
	}
	if env.CO2Level > th.CO2Max {
		score -= 15
	}
	if env.NoiseLevel > efficiencyNoiseLimit {
		score -= 8
	}
	score += (env.AirQuality - 50) * 0.2
	return shared.Clamp(score, 0, 100)
}

// ComfortScore rates the environmental conditions, 0-100
func ComfortScore(temperature, humidity, co2, noise float64, th Thresholds) float64 {
	score := 100.0
	if temperature < th.TemperatureMin || temperature > th.TemperatureMax {
		score -= math.Abs(temperature-23) * 5
	}
	if humidity < th.HumidityMin {
		score -= (th.HumidityMin - humidity) * 0.5
	} else if humidity > th.HumidityMax {
		score -= (humidity - th.HumidityMax) * 0.3
	}
	if co2 > th.CO2Max {
		score -= (co2 - th.CO2Max) * 0.02
	}
	if noise > comfortNoiseLimit {
		score -= (noise - comfortNoiseLimit) * 0.5
	}
	return shared.Clamp(score, 0, 100)
}

// Confidence is highest for predictions near the middle of the range
func Confidence(prediction float64) float64 {
	return math.Min(0.95, math.Max(0.6, 1-math.Abs(prediction-0.5)*0.5))
}
