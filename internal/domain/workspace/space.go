package workspace

import (
	"strings"
	"time"

	"github.com/smartspace/backend/internal/domain/shared"
)

// SpaceType classifies a bookable or shared area
type SpaceType string

const (
	SpaceTypeDesk          SpaceType = "desk"
	SpaceTypeMeetingRoom   SpaceType = "meeting_room"
	SpaceTypeCommonArea    SpaceType = "common_area"
	SpaceTypePhoneBooth    SpaceType = "phone_booth"
	SpaceTypeOpenDesk      SpaceType = "open_desk"
	SpaceTypeQuietZone     SpaceType = "quiet_zone"
	SpaceTypeCollaborative SpaceType = "collaborative"
	SpaceTypeHotDesk       SpaceType = "hot_desk"
)

// AllSpaceTypes lists every known space type in a stable order
var AllSpaceTypes = []SpaceType{
	SpaceTypeDesk,
	SpaceTypeMeetingRoom,
	SpaceTypeCommonArea,
	SpaceTypePhoneBooth,
	SpaceTypeOpenDesk,
	SpaceTypeQuietZone,
	SpaceTypeCollaborative,
	SpaceTypeHotDesk,
}

// IsValid returns true if the space type is known
func (t SpaceType) IsValid() bool {
	for _, known := range AllSpaceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Utilization status labels
const (
	StatusOverutilized  = "overutilized"
	StatusOptimal       = "optimal"
	StatusUnderutilized = "underutilized"
	StatusOccupied      = "occupied"
	StatusAvailable     = "available"
)

// Environment holds the latest sensor snapshot for a space
type Environment struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CO2Level    float64   `json:"co2_level"`
	NoiseLevel  float64   `json:"noise_level"`
	AirQuality  float64   `json:"air_quality"`
	MeasuredAt  time.Time `json:"measured_at"`
}

// DefaultEnvironment returns the comfortable baseline used when no sensor data is present
func DefaultEnvironment() Environment {
	return Environment{
		Temperature: 22,
		Humidity:    45,
		CO2Level:    400,
		NoiseLevel:  45,
		AirQuality:  75,
	}
}

// Space is a physical area with a capacity and a live occupancy count
type Space struct {
	ID                string      `json:"id"`
	CompanyID         string      `json:"company_id"`
	Name              string      `json:"name"`
	Type              SpaceType   `json:"type"`
	Floor             int         `json:"floor"`
	Capacity          int         `json:"capacity"`
	CurrentOccupancy  int         `json:"current_occupancy"`
	Department        string      `json:"department,omitempty"`
	Amenities         []string    `json:"amenities"`
	Environment       Environment `json:"environment"`
	Rating            float64     `json:"rating"`
	LastCleanedAt     *time.Time  `json:"last_cleaned_at,omitempty"`
	NextMaintenanceAt *time.Time  `json:"next_maintenance_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewSpace creates a space with the default environment
func NewSpace(companyID, id, name string, spaceType SpaceType, floor, capacity int) (*Space, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Space id and name are required")
	}
	if !spaceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown space type: "+string(spaceType))
	}
	if capacity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Space capacity must be positive")
	}
	if floor < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Floor cannot be negative")
	}
	now := time.Now()
	return &Space{
		ID:          id,
		CompanyID:   companyID,
		Name:        name,
		Type:        spaceType,
		Floor:       floor,
		Capacity:    capacity,
		Amenities:   []string{},
		Environment: DefaultEnvironment(),
		Rating:      4.0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Utilization returns occupancy divided by capacity, clamped to [0, 1]
func (s *Space) Utilization() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return shared.Clamp(float64(s.CurrentOccupancy)/float64(s.Capacity), 0, 1)
}

// UtilizationStatus buckets the utilization into over/optimal/under
func (s *Space) UtilizationStatus() string {
	return ClassifyUtilization(s.Utilization())
}

// Availability reports whether anyone is using the space
func (s *Space) Availability() string {
	if s.Utilization() > 0.1 {
		return StatusOccupied
	}
	return StatusAvailable
}

// SetOccupancy records a new head count, clamped to [0, capacity]
func (s *Space) SetOccupancy(count int) {
	if count < 0 {
		count = 0
	}
	if count > s.Capacity {
		count = s.Capacity
	}
	s.CurrentOccupancy = count
	s.UpdatedAt = time.Now()
}

// UpdateEnvironment replaces the sensor snapshot
func (s *Space) UpdateEnvironment(env Environment) {
	if env.MeasuredAt.IsZero() {
		env.MeasuredAt = time.Now()
	}
	s.Environment = env
	s.UpdatedAt = time.Now()
}

// IsMaintenanceDue reports whether the next maintenance window has passed
func (s *Space) IsMaintenanceDue(now time.Time) bool {
	return s.NextMaintenanceAt != nil && !s.NextMaintenanceAt.After(now)
}

// ClassifyUtilization maps a utilization ratio to its status label
func ClassifyUtilization(u float64) string {
	switch {
	case u > 0.8:
		return StatusOverutilized
	case u > 0.4:
		return StatusOptimal
	default:
		return StatusUnderutilized
	}
}

// OccupancyProfile is the expected building-wide utilization for an hour of a
// working day: morning and afternoon peaks, a business-hours plateau and a
// near-empty night.
func OccupancyProfile(hour int) float64 {
	switch {
	case hour == 10 || hour == 11 || hour == 14 || hour == 15:
		return 0.8
	case hour >= 8 && hour <= 18:
		return 0.6
	default:
		return 0.1
	}
}
