package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartspace/backend/internal/domain/workspace"
)

// EnergyReadingModel is one hourly energy sample
type EnergyReadingModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	Timestamp            time.Time       `gorm:"not null;index"`
	TotalConsumption     float64         `gorm:"not null"`
	HVACConsumption      float64         `gorm:"column:hvac_consumption;not null"`
	LightingConsumption  float64         `gorm:"not null"`
	EquipmentConsumption float64         `gorm:"not null"`
	CostPerHour          decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	EfficiencyScore      float64         `gorm:"not null"`
	CarbonFootprint      float64         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EnergyReadingModel) TableName() string {
	return "energy_readings"
}

// FromDomain populates the model from a domain reading
func (m *EnergyReadingModel) FromDomain(r *workspace.EnergyReading) {
	m.ID = r.ID
	m.CompanyID = r.CompanyID
	m.Timestamp = r.Timestamp
	m.TotalConsumption = r.TotalConsumption
	m.HVACConsumption = r.HVACConsumption
	m.LightingConsumption = r.LightingConsumption
	m.EquipmentConsumption = r.EquipmentConsumption
	m.CostPerHour = r.CostPerHour
	m.EfficiencyScore = r.EfficiencyScore
	m.CarbonFootprint = r.CarbonFootprint
}

// ToDomain converts the model to a domain reading
func (m *EnergyReadingModel) ToDomain() *workspace.EnergyReading {
	return &workspace.EnergyReading{
		ID:                   m.ID,
		CompanyID:            m.CompanyID,
		Timestamp:            m.Timestamp,
		TotalConsumption:     m.TotalConsumption,
		HVACConsumption:      m.HVACConsumption,
		LightingConsumption:  m.LightingConsumption,
		EquipmentConsumption: m.EquipmentConsumption,
		CostPerHour:          m.CostPerHour,
		EfficiencyScore:      m.EfficiencyScore,
		CarbonFootprint:      m.CarbonFootprint,
	}
}

// SpaceReadingModel is one building-wide occupancy/environment snapshot
type SpaceReadingModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	Timestamp          time.Time `gorm:"not null;index"`
	OverallUtilization float64   `gorm:"not null"`
	TotalOccupancy     int       `gorm:"not null"`
	TotalCapacity      int       `gorm:"not null"`
	AverageTemperature float64   `gorm:"not null"`
	AverageHumidity    float64   `gorm:"not null"`
	AverageCO2         float64   `gorm:"column:average_co2;not null"`
	AverageNoise       float64   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SpaceReadingModel) TableName() string {
	return "space_readings"
}

// FromDomain populates the model from a domain reading
func (m *SpaceReadingModel) FromDomain(r *workspace.SpaceReading) {
	m.ID = r.ID
	m.CompanyID = r.CompanyID
	m.Timestamp = r.Timestamp
	m.OverallUtilization = r.OverallUtilization
	m.TotalOccupancy = r.TotalOccupancy
	m.TotalCapacity = r.TotalCapacity
	m.AverageTemperature = r.AverageTemperature
	m.AverageHumidity = r.AverageHumidity
	m.AverageCO2 = r.AverageCO2
	m.AverageNoise = r.AverageNoise
}

// ToDomain converts the model to a domain reading
func (m *SpaceReadingModel) ToDomain() *workspace.SpaceReading {
	return &workspace.SpaceReading{
		ID:                 m.ID,
		CompanyID:          m.CompanyID,
		Timestamp:          m.Timestamp,
		OverallUtilization: m.OverallUtilization,
		TotalOccupancy:     m.TotalOccupancy,
		TotalCapacity:      m.TotalCapacity,
		AverageTemperature: m.AverageTemperature,
		AverageHumidity:    m.AverageHumidity,
		AverageCO2:         m.AverageCO2,
		AverageNoise:       m.AverageNoise,
	}
}

// PredictionModel stores a model output as an opaque JSON document
type PredictionModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyScoped
	ModelType string    `gorm:"type:varchar(32);not null;index"`
	Payload   string    `gorm:"column:prediction_data;type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PredictionModel) TableName() string {
	return "predictions"
}

// FromDomain populates the model from a domain prediction
func (m *PredictionModel) FromDomain(p *workspace.Prediction) {
	m.ID = p.ID
	m.CompanyID = p.CompanyID
	m.ModelType = string(p.ModelType)
	m.Payload = string(p.Payload)
	m.CreatedAt = p.CreatedAt
}

// ToDomain converts the model to a domain prediction
func (m *PredictionModel) ToDomain() *workspace.Prediction {
	return &workspace.Prediction{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		ModelType: workspace.ModelType(m.ModelType),
		Payload:   json.RawMessage(m.Payload),
		CreatedAt: m.CreatedAt,
	}
}
