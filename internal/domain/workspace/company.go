package workspace

import "time"

// DemoCompanyID is the identifier of the seeded demo tenant
const DemoCompanyID = "demo_company"

// Company is the tenant that owns spaces, employees and readings
type Company struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	TimeZone              string    `json:"timezone"`
	BusinessHoursStart    int       `json:"business_hours_start"`
	BusinessHoursEnd      int       `json:"business_hours_end"`
	EnergyReductionTarget float64   `json:"energy_reduction_target"`
	SpaceEfficiencyTarget float64   `json:"space_efficiency_target"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewCompany creates a company with default business settings
func NewCompany(id, name string) *Company {
	return &Company{
		ID:                    id,
		Name:                  name,
		TimeZone:              "UTC",
		BusinessHoursStart:    8,
		BusinessHoursEnd:      18,
		EnergyReductionTarget: 0.15,
		SpaceEfficiencyTarget: 0.85,
		CreatedAt:             time.Now(),
	}
}

// IsBusinessHour reports whether hour falls inside the configured business window
func (c *Company) IsBusinessHour(hour int) bool {
	return hour >= c.BusinessHoursStart && hour <= c.BusinessHoursEnd
}
