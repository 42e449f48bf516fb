package workspace

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspace/backend/internal/application/energy"
	"github.com/smartspace/backend/internal/application/space"
	"github.com/smartspace/backend/internal/domain/workspace"
)

// ===================== Employees =====================

// ListEmployeesQuery filters the employee directory
type ListEmployeesQuery struct {
	Search     string `form:"search"`
	Department string `form:"department"`
	Status     string `form:"status" binding:"omitempty,employee_status"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// CreateEmployeeRequest adds an employee
type CreateEmployeeRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=200"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"omitempty,max=50"`
	Department     string `json:"department" binding:"required"`
	Role           string `json:"role" binding:"omitempty,max=100"`
	AssignedDeskID string `json:"assigned_desk" binding:"omitempty,max=50"`
	Password       string `json:"password" binding:"omitempty,min=6"`

	CallerPermissions []string `json:"-"` // Set from JWT claims, not from request body
}

// UpdateEmployeeRequest changes the given fields only
type UpdateEmployeeRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	Department     *string `json:"department" binding:"omitempty,min=1"`
	Role           *string `json:"role" binding:"omitempty,max=100"`
	Status         *string `json:"status" binding:"omitempty,employee_status"`
	AssignedDeskID *string `json:"assigned_desk" binding:"omitempty,max=50"`

	CallerPermissions []string `json:"-"` // Set from JWT claims, not from request body
}

// EmployeeList is a page of employees with the unpaged total
type EmployeeList struct {
	Employees []*workspace.Employee `json:"employees"`
	Total     int64                 `json:"total"`
}

// ===================== Spaces =====================

// ListSpacesQuery filters the raw space listing
type ListSpacesQuery struct {
	Type  string `form:"type" binding:"omitempty,space_type"`
	Floor int    `form:"floor" binding:"omitempty,min=0"`
}

// DetailedSpacesQuery filters the detailed space listing
type DetailedSpacesQuery struct {
	Search string `form:"search"`
	Status string `form:"status_filter" binding:"omitempty,oneof=overutilized optimal underutilized"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// SpaceDetail is a space enriched with derived metrics
type SpaceDetail struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Floor           int        `json:"floor"`
	Department      string     `json:"department,omitempty"`
	Capacity        int        `json:"capacity"`
	Current         int        `json:"current"`
	Utilization     float64    `json:"utilization"`
	Efficiency      float64    `json:"efficiency"`
	Status          string     `json:"status"`
	Temperature     float64    `json:"temperature"`
	Humidity        float64    `json:"humidity"`
	CO2Level        float64    `json:"co2_level"`
	Noise           float64    `json:"noise"`
	AirQuality      float64    `json:"air_quality"`
	LastCleaned     *time.Time `json:"last_cleaned,omitempty"`
	NextMaintenance *time.Time `json:"next_maintenance,omitempty"`
	Rating          float64    `json:"rating"`
	Amenities       []string   `json:"amenities"`
}

// SpaceDetailList is the detailed listing
type SpaceDetailList struct {
	Spaces []SpaceDetail `json:"spaces"`
	Total  int           `json:"total"`
}

// CreateSpaceRequest adds a space. The id is derived from the type and floor
// when omitted.
type CreateSpaceRequest struct {
	ID         string   `json:"id" binding:"omitempty,max=50"`
	Name       string   `json:"name" binding:"required,min=1,max=200"`
	Type       string   `json:"type" binding:"required,space_type"`
	Floor      int      `json:"floor" binding:"min=0"`
	Capacity   int      `json:"capacity" binding:"required,min=1"`
	Department string   `json:"department"`
	Amenities  []string `json:"amenities"`
}

// UpdateOccupancyRequest sets the live head count of a space
type UpdateOccupancyRequest struct {
	Occupancy *int `json:"occupancy" binding:"required,min=0"`
}

// PredictSpaceRequest asks for a utilization prediction. Timestamp defaults
// to now.
type PredictSpaceRequest struct {
	Timestamp        *time.Time `json:"timestamp"`
	BookingConflicts int        `json:"booking_conflicts" binding:"min=0"`
	IsHoliday        bool       `json:"is_holiday"`
}

// SpacePrediction is a utilization prediction for one space
type SpacePrediction struct {
	SpaceID   string    `json:"space_id"`
	SpaceName string    `json:"space_name"`
	Timestamp time.Time `json:"timestamp"`
	space.UtilizationPrediction
}

// ===================== Alerts & conflicts =====================

// ListAlertsQuery filters alerts
type ListAlertsQuery struct {
	Severity string `form:"severity" binding:"omitempty,severity"`
	Resolved *bool  `form:"resolved"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// AlertList is the alert listing with table-wide counters
type AlertList struct {
	Alerts   []*workspace.Alert   `json:"alerts"`
	Metadata workspace.AlertStats `json:"metadata"`
}

// ResolveConflictRequest closes a conflict
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"omitempty,max=500"`
}

// DetectionResult summarizes one conflict detection run
type DetectionResult struct {
	Detected     int                   `json:"detected"`
	Created      int                   `json:"created"`
	Refreshed    int                   `json:"refreshed"`
	AutoResolved int                   `json:"auto_resolved"`
	Conflicts    []*workspace.Conflict `json:"conflicts"`
}

// ===================== Dashboard =====================

// CurrentMetrics are the latest readings
type CurrentMetrics struct {
	EnergyConsumption float64         `json:"energy_consumption"`
	EnergyCost        decimal.Decimal `json:"energy_cost"`
	SpaceUtilization  float64         `json:"space_utilization"`
	TotalOccupancy    int             `json:"total_occupancy"`
	EfficiencyScore   float64         `json:"efficiency_score"`
}

// Trends24h aggregates the last day of readings
type Trends24h struct {
	TotalEnergyConsumption float64 `json:"total_energy_consumption"`
	AverageEfficiency      float64 `json:"average_efficiency"`
	AverageUtilization     float64 `json:"average_utilization"`
}

// DashboardSummary is everything the landing page shows
type DashboardSummary struct {
	Company         *workspace.Company         `json:"company"`
	CurrentMetrics  CurrentMetrics             `json:"current_metrics"`
	Trends24h       Trends24h                  `json:"trends_24h"`
	ActiveConflicts int                        `json:"active_conflicts"`
	RecentEnergy    []*workspace.EnergyReading `json:"recent_energy"`
	RecentSpace     []*workspace.SpaceReading  `json:"recent_space"`
	Conflicts       []*workspace.Conflict      `json:"conflicts"`
	AIPredictions   []*workspace.Prediction    `json:"ai_predictions"`
	Timestamp       time.Time                  `json:"timestamp"`
}

// Trend labels
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// MetricsSummary is the headline KPI block
type MetricsSummary struct {
	Summary struct {
		TotalSpaces         int64     `json:"total_spaces"`
		ActiveAlerts        int64     `json:"active_alerts"`
		AverageOccupancy    float64   `json:"avg_occupancy"`
		EnergyEfficiency    float64   `json:"energy_efficiency"`
		SustainabilityScore float64   `json:"sustainability_score"`
		LastUpdated         time.Time `json:"last_updated"`
	} `json:"summary"`
	Trends struct {
		Occupancy  string `json:"occupancy_trend"`
		Energy     string `json:"energy_trend"`
		Efficiency string `json:"efficiency_trend"`
	} `json:"trends"`
}

// ActivityQuery filters the user activity feed
type ActivityQuery struct {
	Department string `form:"department"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ActivityFeed is the newest-first activity list
type ActivityFeed struct {
	Activities []*workspace.UserActivity `json:"activities"`
	Metadata   struct {
		TotalActivities    int      `json:"total_activities"`
		UniqueUsers        int      `json:"unique_users"`
		AvgDurationMinutes *float64 `json:"avg_duration_minutes"`
	} `json:"metadata"`
}

// ===================== Data series =====================

// SeriesQuery selects how many hours of readings to return
type SeriesQuery struct {
	Hours int `form:"hours" binding:"omitempty,min=1,max=168"`
}

// OccupancyPoint is one hour of building occupancy
type OccupancyPoint struct {
	Hour        string    `json:"hour"`
	Timestamp   time.Time `json:"timestamp"`
	Occupancy   int       `json:"occupancy"`
	Capacity    int       `json:"capacity"`
	Utilization float64   `json:"utilization"`
	Predicted   *float64  `json:"predicted"`
}

// SpaceUsage is the current state of one space
type SpaceUsage struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Current     int     `json:"current"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"`
	Efficiency  float64 `json:"efficiency"`
	Status      string  `json:"status"`
}

// EnvironmentalPoint is one hour of averaged sensor data
type EnvironmentalPoint struct {
	Hour        string    `json:"hour"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CO2         float64   `json:"co2"`
	Noise       float64   `json:"noise"`
	Comfort     float64   `json:"comfort"`
}

// WeekdayTrend averages the last seven days per weekday
type WeekdayTrend struct {
	Day         string  `json:"day"`
	Utilization float64 `json:"utilization"`
	Efficiency  float64 `json:"efficiency"`
	Samples     int     `json:"samples"`
}

// HeatmapCell places a space on the floor grid
type HeatmapCell struct {
	ID          string  `json:"id"`
	Row         int     `json:"row"`
	Col         int     `json:"col"`
	Status      string  `json:"status"`
	Employee    *string `json:"employee"`
	Temperature float64 `json:"temperature"`
}

// ===================== Analytics =====================

// ModelState describes one analytics model
type ModelState struct {
	Status      string          `json:"status"`
	Trained     bool            `json:"trained"`
	LastUpdated *time.Time      `json:"last_updated"`
	Prediction  json.RawMessage `json:"predictions,omitempty"`
	Accuracy    float64         `json:"accuracy"`
}

// ConflictResolutionStats summarizes how conflicts get closed
type ConflictResolutionStats struct {
	ActiveConflicts          int64   `json:"active_conflicts"`
	ResolvedLastWeek         int     `json:"resolved_last_week"`
	AutoResolutionRate       float64 `json:"auto_resolution_rate"`
	AverageResolutionMinutes float64 `json:"average_resolution_minutes"`
	AverageResolutionTime    string  `json:"average_resolution_time"`
}

// ModelStatus is the analytics overview
type ModelStatus struct {
	SpaceOptimizer     ModelState              `json:"space_optimizer"`
	EnergyPredictor    ModelState              `json:"energy_predictor"`
	ConflictResolution ConflictResolutionStats `json:"conflict_resolution"`
}

// SustainabilityImpact estimates the environmental effect of the plan
type SustainabilityImpact struct {
	CarbonReduction     float64 `json:"carbon_reduction"`
	EnergySavings       string  `json:"energy_savings"`
	SpaceEfficiencyGain string  `json:"space_efficiency_gain"`
}

// OptimizationPlan combines space and energy recommendations
type OptimizationPlan struct {
	SpaceOptimization    space.Recommendations `json:"space_optimization"`
	EnergyOptimization   []energy.Opportunity  `json:"energy_optimization"`
	CostSavingsPotential decimal.Decimal       `json:"cost_savings_potential"`
	SustainabilityImpact SustainabilityImpact  `json:"sustainability_impact"`
}

// Forecast metrics
const (
	MetricOccupancy  = "occupancy"
	MetricEnergy     = "energy"
	MetricEfficiency = "efficiency"
)

// ForecastQuery selects a metric and horizon
type ForecastQuery struct {
	Metric string `form:"metric_type" binding:"omitempty,oneof=occupancy energy efficiency"`
	Days   int    `form:"forecast_days" binding:"omitempty,min=1,max=30"`
}

// ForecastPoint is one daily value
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Predicted bool      `json:"predicted"`
}

// MetricForecast is history plus prediction for one metric
type MetricForecast struct {
	HistoricalData []ForecastPoint `json:"historical_data"`
	Predictions    []ForecastPoint `json:"predictions"`
	ModelInfo      struct {
		Name       string  `json:"name"`
		Accuracy   float64 `json:"accuracy"`
		Confidence float64 `json:"confidence"`
	} `json:"model_info"`
	Metadata struct {
		MetricType     string    `json:"metric_type"`
		ForecastPeriod int       `json:"forecast_period"`
		GeneratedAt    time.Time `json:"generated_at"`
	} `json:"metadata"`
}

// SuggestionQuery filters the optimization catalog
type SuggestionQuery struct {
	Category string `form:"category" binding:"omitempty,oneof=space energy cost"`
	Priority int    `form:"priority" binding:"omitempty,min=1,max=5"`
}

// Suggestion is one catalog entry
type Suggestion struct {
	ID                   string `json:"suggestion_id"`
	Category             string `json:"category"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	PotentialSavings     int64  `json:"potential_savings"`
	ImplementationEffort string `json:"implementation_effort"`
	Priority             int    `json:"priority"`
}

// SuggestionList is the filtered catalog
type SuggestionList struct {
	Suggestions []Suggestion `json:"suggestions"`
	Metadata    struct {
		TotalSuggestions      int      `json:"total_suggestions"`
		TotalPotentialSavings int64    `json:"total_potential_savings"`
		Categories            []string `json:"categories"`
	} `json:"metadata"`
}

// Recommendation kinds
const (
	RecommendationOptimization = "optimization"
	RecommendationAllocation   = "allocation"
	RecommendationMaintenance  = "maintenance"
)

// RecommendationRequest narrows the spaces considered
type RecommendationRequest struct {
	Type      string `json:"-" form:"recommendation_type" binding:"omitempty,oneof=optimization allocation maintenance"`
	Floor     *int   `json:"floor" binding:"omitempty,min=0"`
	SpaceType string `json:"space_type"`
}

// SpaceRecommendation is a concrete action for one space or group
type SpaceRecommendation struct {
	SpaceID           string  `json:"space_id"`
	SpaceType         string  `json:"space_type"`
	RecommendedAction string  `json:"recommended_action"`
	Reason            string  `json:"reason"`
	ExpectedImpact    string  `json:"expected_impact"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// RecommendationList is the answer to a recommendation request
type RecommendationList struct {
	Recommendations []SpaceRecommendation `json:"recommendations"`
	Metadata        struct {
		RecommendationType   string    `json:"recommendation_type"`
		TotalRecommendations int       `json:"total_recommendations"`
		AvgConfidence        float64   `json:"avg_confidence"`
		GeneratedAt          time.Time `json:"generated_at"`
	} `json:"metadata"`
}

// ===================== Energy =====================

// ConsumptionBreakdown splits the latest reading by load
type ConsumptionBreakdown struct {
	HVAC      float64 `json:"hvac"`
	Lighting  float64 `json:"lighting"`
	Equipment float64 `json:"equipment"`
}

// EnergyHour is one hourly reading in the dashboard chart
type EnergyHour struct {
	Hour        string          `json:"hour"`
	Timestamp   time.Time       `json:"timestamp"`
	Consumption float64         `json:"consumption"`
	Cost        decimal.Decimal `json:"cost"`
	Efficiency  float64         `json:"efficiency"`
}

// EnergyDashboard summarizes the last day of energy readings
type EnergyDashboard struct {
	CurrentConsumption   float64              `json:"current_consumption"`
	CurrentCost          decimal.Decimal      `json:"current_cost"`
	EfficiencyScore      float64              `json:"efficiency_score"`
	TotalConsumption24h  float64              `json:"total_consumption_24h"`
	TotalCost24h         decimal.Decimal      `json:"total_cost_24h"`
	AverageEfficiency    float64              `json:"average_efficiency"`
	CarbonFootprint      float64              `json:"carbon_footprint"`
	ConsumptionBreakdown ConsumptionBreakdown `json:"consumption_breakdown"`
	HourlyData           []EnergyHour         `json:"hourly_data"`
}

// EnergyForecastQuery sets the base conditions of a forecast
type EnergyForecastQuery struct {
	Temperature *float64 `form:"temperature" binding:"omitempty,gte=-50,lte=60"`
	Occupancy   *float64 `form:"occupancy" binding:"omitempty,gte=0,lte=1"`
	Hours       int      `form:"hours" binding:"omitempty,min=1,max=168"`
}

// EfficiencyOpportunity is a standing efficiency measure
type EfficiencyOpportunity struct {
	Category         string `json:"category"`
	PotentialSavings string `json:"potential_savings"`
	Description      string `json:"description"`
}

// EnergyOptimization is the anomaly and recommendation report
type EnergyOptimization struct {
	Anomalies               []energy.Anomaly        `json:"anomalies"`
	Recommendations         []energy.Recommendation `json:"recommendations"`
	EfficiencyOpportunities []EfficiencyOpportunity `json:"efficiency_opportunities"`
}

// EnergyAnalysis is the seasonal report
type EnergyAnalysis struct {
	Analysis   *energy.Seasonal `json:"analysis"`
	DataPoints int              `json:"data_points"`
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
}
