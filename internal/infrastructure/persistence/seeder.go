package persistence

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/ml"
)

const (
	demoCompanyName  = "Demo Corporation"
	demoPassword     = "password"
	demoAdminEmail   = "admin@demo.com"
	demoEmployees    = 50
	demoHistoryDays  = 30
	demoActivities   = 200
	desksPerFloor    = 20
	demoFloors       = 3
	demoPhoneBooths  = 7
	demoCapacityHint = 200
)

var (
	meetingRoomCapacities = []int{4, 6, 8, 10, 12}
	activityLocations     = []string{"FLOOR_1", "FLOOR_2", "FLOOR_3", "MEETING_ROOM_A", "CAFETERIA", "LOBBY"}
)

type alertTemplate struct {
	severity    workspace.Severity
	title       string
	description string
	spaces      []string
}

var demoAlerts = []alertTemplate{
	{workspace.SeverityCritical, "HVAC System Failure", "Air conditioning unit offline in Zone A", []string{"ZONE_A_01", "ZONE_A_02", "ZONE_A_03"}},
	{workspace.SeverityHigh, "High Energy Consumption", "Energy usage 25% above normal levels", []string{"FLOOR_3", "FLOOR_4"}},
	{workspace.SeverityMedium, "Low Space Utilization", "Meeting rooms showing consistent underutilization", []string{"MEETING_ROOM_A", "MEETING_ROOM_B"}},
	{workspace.SeverityLow, "Maintenance Reminder", "Scheduled maintenance due for elevator systems", []string{"ELEVATOR_01", "ELEVATOR_02"}},
}

// SeedResult reports what SeedDemo created
type SeedResult struct {
	Skipped        bool `json:"skipped"`
	Spaces         int  `json:"spaces"`
	Employees      int  `json:"employees"`
	EnergyReadings int  `json:"energy_readings"`
	SpaceReadings  int  `json:"space_readings"`
	Alerts         int  `json:"alerts"`
	Activities     int  `json:"activities"`
}

// Seeder loads the demo tenant
type Seeder struct {
	db     *Database
	logger *zap.Logger
	seed   uint64
}

// NewSeeder creates a seeder; seed drives the pseudo-random parts (activities)
func NewSeeder(db *Database, logger *zap.Logger, seed uint64) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, logger: logger, seed: seed}
}

// SeedDemo creates the demo company with spaces, employees, 30 days of
// readings, alerts and activities. It does nothing when the company already
// has employees.
func (s *Seeder) SeedDemo(ctx context.Context, now time.Time) (*SeedResult, error) {
	now = now.UTC().Truncate(time.Hour)

	var existing int64
	if err := s.db.DB.WithContext(ctx).Table("employees").
		Where("company_id = ?", workspace.DemoCompanyID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check demo data: %w", err)
	}
	if existing > 0 {
		s.logger.Debug("demo data already present, skipping seed")
		return &SeedResult{Skipped: true}, nil
	}

	hash, err := workspace.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	spaces, err := demoSpaces(now)
	if err != nil {
		return nil, err
	}
	employees, err := demoEmployeeList(hash, now)
	if err != nil {
		return nil, err
	}
	energy := demoEnergyReadings(now)
	occupancy := demoSpaceReadings(now)
	alerts, err := demoAlertList(now)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x5eed))
	activities := demoActivityList(rng, now)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		company := workspace.NewCompany(workspace.DemoCompanyID, demoCompanyName)
		company.CreatedAt = now
		if err := NewGormCompanyRepository(tx).Save(ctx, company); err != nil {
			return fmt.Errorf("company: %w", err)
		}
		if err := NewGormSpaceRepository(tx).SaveAll(ctx, spaces); err != nil {
			return fmt.Errorf("spaces: %w", err)
		}
		employeeRepo := NewGormEmployeeRepository(tx)
		for _, e := range employees {
			if err := employeeRepo.Save(ctx, e); err != nil {
				return fmt.Errorf("employee %s: %w", e.ID, err)
			}
		}
		readings := NewGormReadingRepository(tx)
		if err := readings.SaveEnergy(ctx, energy...); err != nil {
			return fmt.Errorf("energy readings: %w", err)
		}
		if err := readings.SaveSpace(ctx, occupancy...); err != nil {
			return fmt.Errorf("space readings: %w", err)
		}
		alertRepo := NewGormAlertRepository(tx)
		for _, a := range alerts {
			if err := alertRepo.Save(ctx, a); err != nil {
				return fmt.Errorf("alert: %w", err)
			}
		}
		if err := NewGormActivityRepository(tx).Save(ctx, activities...); err != nil {
			return fmt.Errorf("activities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo data: %w", err)
	}

	result := &SeedResult{
		Spaces:         len(spaces),
		Employees:      len(employees),
		EnergyReadings: len(energy),
		SpaceReadings:  len(occupancy),
		Alerts:         len(alerts),
		Activities:     len(activities),
	}
	s.logger.Info("seeded demo company",
		zap.String("company_id", workspace.DemoCompanyID),
		zap.Int("spaces", result.Spaces),
		zap.Int("employees", result.Employees),
		zap.Int("energy_readings", result.EnergyReadings))
	return result, nil
}

func demoSpaces(now time.Time) ([]*workspace.Space, error) {
	var spaces []*workspace.Space
	add := func(id, name string, t workspace.SpaceType, floor, capacity int, dept string, amenities ...string) error {
		sp, err := workspace.NewSpace(workspace.DemoCompanyID, id, name, t, floor, capacity)
		if err != nil {
			return err
		}
		sp.Department = dept
		sp.Amenities = append([]string{}, amenities...)
		sp.Environment.MeasuredAt = now
		sp.CreatedAt = now
		sp.UpdatedAt = now
		spaces = append(spaces, sp)
		return nil
	}

	for floor := 1; floor <= demoFloors; floor++ {
		for n := 1; n <= desksPerFloor; n++ {
			dept := workspace.Departments[n%len(workspace.Departments)]
			id := fmt.Sprintf("desk_%d_%02d", floor, n)
			if err := add(id, fmt.Sprintf("Desk %d-%02d", floor, n), workspace.SpaceTypeDesk, floor, 1, dept, "monitor", "power"); err != nil {
				return nil, err
			}
		}
		for n, capacity := range meetingRoomCapacities {
			id := fmt.Sprintf("meeting_%d_%d", floor, n+1)
			if err := add(id, fmt.Sprintf("Meeting Room %d-%d", floor, n+1), workspace.SpaceTypeMeetingRoom, floor, capacity, "", "projector", "whiteboard", "video_conference"); err != nil {
				return nil, err
			}
		}
		if err := add(fmt.Sprintf("common_%d", floor), fmt.Sprintf("Common Area %d", floor), workspace.SpaceTypeCommonArea, floor, 15, "", "coffee", "seating"); err != nil {
			return nil, err
		}
	}
	for n := 1; n <= demoPhoneBooths; n++ {
		floor := (n-1)/3 + 1
		if err := add(fmt.Sprintf("booth_%d", n), fmt.Sprintf("Phone Booth %d", n), workspace.SpaceTypePhoneBooth, floor, 1, "", "soundproof"); err != nil {
			return nil, err
		}
	}
	return spaces, nil
}

func demoEmployeeList(hash string, now time.Time) ([]*workspace.Employee, error) {
	employees := make([]*workspace.Employee, 0, demoEmployees+1)
	for n := 1; n <= demoEmployees; n++ {
		role := "Junior"
		if n%3 == 0 {
			role = "Senior"
		}
		e, err := workspace.NewEmployee(
			workspace.DemoCompanyID,
			fmt.Sprintf("emp_%03d", n),
			fmt.Sprintf("Employee %d", n),
			fmt.Sprintf("employee%d@demo.com", n),
			workspace.Departments[n%len(workspace.Departments)],
			role,
		)
		if err != nil {
			return nil, err
		}
		e.AssignedDeskID = fmt.Sprintf("desk_%d_%02d", (n-1)/desksPerFloor+1, (n-1)%desksPerFloor+1)
		e.PasswordHash = hash
		e.JoinedAt = now.AddDate(0, 0, -n*7)
		e.CreatedAt = now
		e.UpdatedAt = now
		employees = append(employees, e)
	}

	admin, err := workspace.NewEmployee(workspace.DemoCompanyID, "emp_admin", "Facility Admin", demoAdminEmail, "operations", workspace.RoleAdmin)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = hash
	admin.JoinedAt = now.AddDate(-1, 0, 0)
	admin.CreatedAt = now
	admin.UpdatedAt = now
	return append(employees, admin), nil
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func demoEnergyReadings(now time.Time) []*workspace.EnergyReading {
	start := now.AddDate(0, 0, -demoHistoryDays)
	readings := make([]*workspace.EnergyReading, 0, demoHistoryDays*24)
	rate := decimal.NewFromFloat(0.12)

	for ts := start; ts.Before(now); ts = ts.Add(time.Hour) {
		h := float64(ts.Hour())
		dist := (h - 12) * (h - 12)
		total := 150 + dist*2
		hvac := 70 + dist*1.2
		lighting, equipment := 10.0, 15.0
		if ts.Hour() >= 8 && ts.Hour() <= 18 {
			lighting, equipment = 25, 35
		}
		if isWeekend(ts) {
			total *= 0.6
			hvac *= 0.6
			lighting *= 0.6
			equipment *= 0.6
		}
		totalDec := decimal.NewFromFloat(total)
		readings = append(readings, &workspace.EnergyReading{
			ID:                   newID(),
			CompanyID:            workspace.DemoCompanyID,
			Timestamp:            ts,
			TotalConsumption:     total,
			HVACConsumption:      hvac,
			LightingConsumption:  lighting,
			EquipmentConsumption: equipment,
			CostPerHour:          totalDec.Mul(rate).Round(4),
			EfficiencyScore:      math.Max(60, 100-math.Abs(h-14)*3),
			CarbonFootprint:      total * 0.4,
		})
	}
	return readings
}

func demoSpaceReadings(now time.Time) []*workspace.SpaceReading {
	start := now.AddDate(0, 0, -demoHistoryDays)
	readings := make([]*workspace.SpaceReading, 0, demoHistoryDays*24)

	for ts := start; ts.Before(now); ts = ts.Add(time.Hour) {
		u := workspace.OccupancyProfile(ts.Hour())
		if isWeekend(ts) {
			u *= 0.3
		}
		readings = append(readings, &workspace.SpaceReading{
			ID:                 newID(),
			CompanyID:          workspace.DemoCompanyID,
			Timestamp:          ts,
			OverallUtilization: u,
			TotalOccupancy:     int(u * demoCapacityHint),
			TotalCapacity:      demoCapacityHint,
			AverageTemperature: 22 + float64(ts.Hour()-12)*0.5,
			AverageHumidity:    45,
			AverageCO2:         400 + u*200,
			AverageNoise:       40 + u*15,
		})
	}
	return readings
}

func demoAlertList(now time.Time) ([]*workspace.Alert, error) {
	alerts := make([]*workspace.Alert, 0, len(demoAlerts))
	for i, tpl := range demoAlerts {
		a, err := workspace.NewAlert(workspace.DemoCompanyID, tpl.severity, tpl.title, tpl.description, tpl.spaces)
		if err != nil {
			return nil, err
		}
		a.CreatedAt = now.Add(-time.Duration(i*6+1) * time.Hour)
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func demoActivityList(rng *rand.Rand, now time.Time) []*workspace.UserActivity {
	activities := make([]*workspace.UserActivity, 0, demoActivities)
	for i := 0; i < demoActivities; i++ {
		n := i%demoEmployees + 1
		kind := workspace.ActivityTypes[rng.IntN(len(workspace.ActivityTypes))]
		duration := 0
		if kind == workspace.ActivityMeetingCheckin || kind == workspace.ActivityDeskBooking {
			duration = 30 + rng.IntN(450)
		}
		// recent activity is more likely
		ago := time.Duration(ml.Exponential(rng, 0.5) * float64(time.Hour))
		activities = append(activities, workspace.NewUserActivity(
			workspace.DemoCompanyID,
			fmt.Sprintf("emp_%03d", n),
			workspace.Departments[n%len(workspace.Departments)],
			kind,
			activityLocations[rng.IntN(len(activityLocations))],
			duration,
			now.Add(-ago),
		))
	}
	return activities
}
