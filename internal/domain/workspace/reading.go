package workspace

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnergyReading is an hourly snapshot of building energy use
type EnergyReading struct {
	ID                   uuid.UUID       `json:"id"`
	CompanyID            string          `json:"company_id"`
	Timestamp            time.Time       `json:"timestamp"`
	TotalConsumption     float64         `json:"total_consumption"`
	HVACConsumption      float64         `json:"hvac_consumption"`
	LightingConsumption  float64         `json:"lighting_consumption"`
	EquipmentConsumption float64         `json:"equipment_consumption"`
	CostPerHour          decimal.Decimal `json:"cost_per_hour"`
	EfficiencyScore      float64         `json:"efficiency_score"`
	CarbonFootprint      float64         `json:"carbon_footprint"`
}

// SpaceReading is a building-wide occupancy and environment snapshot
type SpaceReading struct {
	ID                 uuid.UUID `json:"id"`
	CompanyID          string    `json:"company_id"`
	Timestamp          time.Time `json:"timestamp"`
	OverallUtilization float64   `json:"overall_utilization"`
	TotalOccupancy     int       `json:"total_occupancy"`
	TotalCapacity      int       `json:"total_capacity"`
	AverageTemperature float64   `json:"average_temperature"`
	AverageHumidity    float64   `json:"average_humidity"`
	AverageCO2         float64   `json:"average_co2"`
	AverageNoise       float64   `json:"average_noise"`
}

// SnapshotSpaces aggregates current spaces into a reading
func SnapshotSpaces(companyID string, spaces []*Space, at time.Time) *SpaceReading {
	r := &SpaceReading{
		ID:        uuid.New(),
		CompanyID: companyID,
		Timestamp: at,
	}
	if len(spaces) == 0 {
		return r
	}
	var temp, hum, co2, noise float64
	for _, s := range spaces {
		r.TotalOccupancy += s.CurrentOccupancy
		r.TotalCapacity += s.Capacity
		temp += s.Environment.Temperature
		hum += s.Environment.Humidity
		co2 += s.Environment.CO2Level
		noise += s.Environment.NoiseLevel
	}
	n := float64(len(spaces))
	r.AverageTemperature = temp / n
	r.AverageHumidity = hum / n
	r.AverageCO2 = co2 / n
	r.AverageNoise = noise / n
	if r.TotalCapacity > 0 {
		r.OverallUtilization = float64(r.TotalOccupancy) / float64(r.TotalCapacity)
	}
	return r
}
