package models

import (
	"time"

	"github.com/smartspace/backend/internal/domain/workspace"
)

// CompanyModel is the persistence model for a company (tenant)
type CompanyModel struct {
	ID                    string    `gorm:"type:varchar(64);primaryKey"`
	Name                  string    `gorm:"type:varchar(200);not null"`
	TimeZone              string    `gorm:"type:varchar(64);not null;default:'UTC'"`
	BusinessHoursStart    int       `gorm:"not null;default:8"`
	BusinessHoursEnd      int       `gorm:"not null;default:18"`
	EnergyReductionTarget float64   `gorm:"not null;default:0"`
	SpaceEfficiencyTarget float64   `gorm:"not null;default:0"`
	CreatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// FromDomain populates the model from a domain company
func (m *CompanyModel) FromDomain(c *workspace.Company) {
	m.ID = c.ID
	m.Name = c.Name
	m.TimeZone = c.TimeZone
	m.BusinessHoursStart = c.BusinessHoursStart
	m.BusinessHoursEnd = c.BusinessHoursEnd
	m.EnergyReductionTarget = c.EnergyReductionTarget
	m.SpaceEfficiencyTarget = c.SpaceEfficiencyTarget
	m.CreatedAt = c.CreatedAt
}

// ToDomain converts the model to a domain company
func (m *CompanyModel) ToDomain() *workspace.Company {
	return &workspace.Company{
		ID:                    m.ID,
		Name:                  m.Name,
		TimeZone:              m.TimeZone,
		BusinessHoursStart:    m.BusinessHoursStart,
		BusinessHoursEnd:      m.BusinessHoursEnd,
		EnergyReductionTarget: m.EnergyReductionTarget,
		SpaceEfficiencyTarget: m.SpaceEfficiencyTarget,
		CreatedAt:             m.CreatedAt,
	}
}

// SpaceModel is the persistence model for a space. Environment values are
// flattened into columns so they can be aggregated in SQL.
type SpaceModel struct {
	TenantKey
	Name              string     `gorm:"type:varchar(200);not null"`
	Type              string     `gorm:"type:varchar(32);not null;index"`
	Floor             int        `gorm:"not null;index"`
	Capacity          int        `gorm:"not null"`
	CurrentOccupancy  int        `gorm:"not null;default:0"`
	Department        string     `gorm:"type:varchar(64)"`
	Amenities         []string   `gorm:"type:text;serializer:json"`
	Temperature       float64    `gorm:"not null"`
	Humidity          float64    `gorm:"not null"`
	CO2Level          float64    `gorm:"column:co2_level;not null"`
	NoiseLevel        float64    `gorm:"not null"`
	AirQuality        float64    `gorm:"not null"`
	MeasuredAt        time.Time  `gorm:"not null"`
	Rating            float64    `gorm:"not null;default:4"`
	LastCleanedAt     *time.Time
	NextMaintenanceAt *time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (SpaceModel) TableName() string {
	return "spaces"
}

// FromDomain populates the model from a domain space
func (m *SpaceModel) FromDomain(s *workspace.Space) {
	m.ID = s.ID
	m.CompanyID = s.CompanyID
	m.Name = s.Name
	m.Type = string(s.Type)
	m.Floor = s.Floor
	m.Capacity = s.Capacity
	m.CurrentOccupancy = s.CurrentOccupancy
	m.Department = s.Department
	m.Amenities = s.Amenities
	m.Temperature = s.Environment.Temperature
	m.Humidity = s.Environment.Humidity
	m.CO2Level = s.Environment.CO2Level
	m.NoiseLevel = s.Environment.NoiseLevel
	m.AirQuality = s.Environment.AirQuality
	m.MeasuredAt = s.Environment.MeasuredAt
	m.Rating = s.Rating
	m.LastCleanedAt = s.LastCleanedAt
	m.NextMaintenanceAt = s.NextMaintenanceAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// ToDomain converts the model to a domain space
func (m *SpaceModel) ToDomain() *workspace.Space {
	amenities := m.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return &workspace.Space{
		ID:               m.ID,
		CompanyID:        m.CompanyID,
		Name:             m.Name,
		Type:             workspace.SpaceType(m.Type),
		Floor:            m.Floor,
		Capacity:         m.Capacity,
		CurrentOccupancy: m.CurrentOccupancy,
		Department:       m.Department,
		Amenities:        amenities,
		Environment: workspace.Environment{
			Temperature: m.Temperature,
			Humidity:    m.Humidity,
			CO2Level:    m.CO2Level,
			NoiseLevel:  m.NoiseLevel,
			AirQuality:  m.AirQuality,
			MeasuredAt:  m.MeasuredAt,
		},
		Rating:            m.Rating,
		LastCleanedAt:     m.LastCleanedAt,
		NextMaintenanceAt: m.NextMaintenanceAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// EmployeeModel is the persistence model for an employee
type EmployeeModel struct {
	TenantKey
	Name           string     `gorm:"type:varchar(200);not null"`
	Email          string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	Phone          string     `gorm:"type:varchar(50)"`
	Department     string     `gorm:"type:varchar(64);not null;index"`
	Role           string     `gorm:"type:varchar(64);not null"`
	Status         string     `gorm:"type:varchar(20);not null;index"`
	AssignedDeskID string     `gorm:"column:assigned_desk_id;type:varchar(64);index"`
	PasswordHash   string     `gorm:"type:varchar(100)"`
	JoinedAt       time.Time  `gorm:"not null"`
	LastSeenAt     *time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// FromDomain populates the model from a domain employee
func (m *EmployeeModel) FromDomain(e *workspace.Employee) {
	m.ID = e.ID
	m.CompanyID = e.CompanyID
	m.Name = e.Name
	m.Email = e.Email
	m.Phone = e.Phone
	m.Department = e.Department
	m.Role = e.Role
	m.Status = string(e.Status)
	m.AssignedDeskID = e.AssignedDeskID
	m.PasswordHash = e.PasswordHash
	m.JoinedAt = e.JoinedAt
	m.LastSeenAt = e.LastSeenAt
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// ToDomain converts the model to a domain employee
func (m *EmployeeModel) ToDomain() *workspace.Employee {
	return &workspace.Employee{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		Department:     m.Department,
		Role:           m.Role,
		Status:         workspace.EmployeeStatus(m.Status),
		AssignedDeskID: m.AssignedDeskID,
		PasswordHash:   m.PasswordHash,
		JoinedAt:       m.JoinedAt,
		LastSeenAt:     m.LastSeenAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
