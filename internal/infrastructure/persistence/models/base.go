package models

import "time"

// CompanyScoped is embedded by every tenant-owned table
type CompanyScoped struct {
	CompanyID string `gorm:"type:varchar(64);not null;index"`
}

// TenantKey is the primary key of tables whose IDs are chosen by the company
// (spaces, employees), so two companies may use the same ID
type TenantKey struct {
	CompanyID string `gorm:"type:varchar(64);primaryKey;index"`
	ID        string `gorm:"type:varchar(64);primaryKey"`
}

// Timestamps provides created/updated columns managed by GORM
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All returns every model in migration order
func All() []any {
	return []any{
		&CompanyModel{},
		&SpaceModel{},
		&EmployeeModel{},
		&ConflictModel{},
		&AlertModel{},
		&UserActivityModel{},
		&EnergyReadingModel{},
		&SpaceReadingModel{},
		&PredictionModel{},
	}
}
