package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
)

const testCompany = "acme"

func mustSpace(t *testing.T, id string, typ workspace.SpaceType, floor, capacity int) *workspace.Space {
	t.Helper()
	s, err := workspace.NewSpace(testCompany, id, "Space "+id, typ, floor, capacity)
	require.NoError(t, err)
	return s
}

func mustEmployee(t *testing.T, id, name, email, dept string) *workspace.Employee {
	t.Helper()
	e, err := workspace.NewEmployee(testCompany, id, name, email, dept, "Junior")
	require.NoError(t, err)
	return e
}

func TestGormSpaceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSpaceRepository(newTestDatabase(t).DB)

	desk := mustSpace(t, "desk_1_01", workspace.SpaceTypeDesk, 1, 1)
	desk.Amenities = []string{"monitor"}
	room := mustSpace(t, "meeting_2_1", workspace.SpaceTypeMeetingRoom, 2, 8)
	require.NoError(t, repo.SaveAll(ctx, []*workspace.Space{room, desk}))

	t.Run("find by id round-trips environment and amenities", func(t *testing.T) {
		got, err := repo.FindByID(ctx, testCompany, "desk_1_01")
		require.NoError(t, err)
		assert.Equal(t, []string{"monitor"}, got.Amenities)
		assert.Equal(t, 22.0, got.Environment.Temperature)
		assert.Equal(t, 400.0, got.Environment.CO2Level)
	})

	t.Run("missing space maps to not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, testCompany, "nope")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByID(ctx, "other", "desk_1_01")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list ordered by floor and filtered", func(t *testing.T) {
		all, err := repo.FindAll(ctx, testCompany, workspace.SpaceFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "desk_1_01", all[0].ID)

		rooms, err := repo.FindAll(ctx, testCompany, workspace.SpaceFilter{Type: workspace.SpaceTypeMeetingRoom})
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, "meeting_2_1", rooms[0].ID)

		floor1, err := repo.FindAll(ctx, testCompany, workspace.SpaceFilter{Floor: 1})
		require.NoError(t, err)
		assert.Len(t, floor1, 1)
	})

	t.Run("save updates occupancy", func(t *testing.T) {
		room.SetOccupancy(6)
		require.NoError(t, repo.Save(ctx, room))
		got, err := repo.FindByID(ctx, testCompany, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.CurrentOccupancy)
	})

	t.Run("exists and count", func(t *testing.T) {
		ok, err := repo.ExistsByID(ctx, testCompany, "desk_1_01")
		require.NoError(t, err)
		assert.True(t, ok)
		n, err := repo.Count(ctx, testCompany)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestGormSpaceRepository_IDsAreScopedToCompany(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSpaceRepository(newTestDatabase(t).DB)

	ours := mustSpace(t, "desk_1_01", workspace.SpaceTypeDesk, 1, 1)
	require.NoError(t, repo.Create(ctx, ours))

	theirs, err := workspace.NewSpace("globex", "desk_1_01", "Globex Desk", workspace.SpaceTypeMeetingRoom, 4, 12)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, theirs))

	t.Run("create never overwrites", func(t *testing.T) {
		dup := mustSpace(t, "desk_1_01", workspace.SpaceTypeDesk, 9, 99)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

		got, err := repo.FindByID(ctx, testCompany, "desk_1_01")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Capacity)
	})

	t.Run("save only touches the owner's row", func(t *testing.T) {
		theirs.SetOccupancy(10)
		require.NoError(t, repo.Save(ctx, theirs))
		require.NoError(t, repo.SaveAll(ctx, []*workspace.Space{theirs}))

		got, err := repo.FindByID(ctx, testCompany, "desk_1_01")
		require.NoError(t, err)
		assert.Equal(t, testCompany, got.CompanyID)
		assert.Equal(t, "Space desk_1_01", got.Name)
		assert.Equal(t, 0, got.CurrentOccupancy)

		other, err := repo.FindByID(ctx, "globex", "desk_1_01")
		require.NoError(t, err)
		assert.Equal(t, "Globex Desk", other.Name)
		assert.Equal(t, 10, other.CurrentOccupancy)
	})

	t.Run("counts stay per company", func(t *testing.T) {
		for _, company := range []string{testCompany, "globex"} {
			n, err := repo.Count(ctx, company)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n, company)
		}
	})
}

func TestGormEmployeeRepository_IDsAreScopedToCompany(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEmployeeRepository(newTestDatabase(t).DB)

	ours := mustEmployee(t, "emp_001", "Alice Smith", "alice@acme.com", "engineering")
	require.NoError(t, repo.Create(ctx, ours))
	theirs, err := workspace.NewEmployee("globex", "emp_001", "Gil Bates", "gil@globex.com", "sales", "Junior")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, theirs))

	// same id within the company, or an email registered anywhere
	dupID := mustEmployee(t, "emp_001", "Imposter", "imposter@acme.com", "hr")
	assert.ErrorIs(t, repo.Create(ctx, dupID), shared.ErrAlreadyExists)
	dupEmail, err := workspace.NewEmployee("globex", "emp_002", "Alice Again", "alice@acme.com", "hr", "Junior")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dupEmail), shared.ErrAlreadyExists)

	got, err := repo.FindByID(ctx, testCompany, "emp_001")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.Name)

	require.NoError(t, repo.Delete(ctx, "globex", "emp_001"))
	_, err = repo.FindByID(ctx, testCompany, "emp_001")
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, "globex", "emp_001")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormEmployeeRepository(newTestDatabase(t).DB)

	alice := mustEmployee(t, "emp_001", "Alice Smith", "alice@acme.com", "engineering")
	alice.AssignedDeskID = "desk_1_01"
	bob := mustEmployee(t, "emp_002", "Bob Jones", "bob@acme.com", "sales")
	carol := mustEmployee(t, "emp_010", "Carol White", "carol@acme.com", "engineering")
	require.NoError(t, carol.SetStatus(workspace.EmployeeStatusRemote))
	for _, e := range []*workspace.Employee{alice, bob, carol} {
		require.NoError(t, repo.Save(ctx, e))
	}

	t.Run("find by email is case insensitive", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "ALICE@acme.com")
		require.NoError(t, err)
		assert.Equal(t, "emp_001", got.ID)
	})

	t.Run("search, department and status filters", func(t *testing.T) {
		list, total, err := repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{Search: "JONES"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "emp_002", list[0].ID)

		list, total, err = repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{Department: "Engineering", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 1)

		list, _, err = repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{Status: workspace.EmployeeStatusRemote})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "emp_010", list[0].ID)
	})

	t.Run("search wildcards match literally", func(t *testing.T) {
		for _, term := range []string{"%", "_", `\`, "a%e"} {
			_, total, err := repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{Search: term})
			require.NoError(t, err)
			assert.Zero(t, total, term)
		}

		odd := mustEmployee(t, "emp_050", "Pat 100% O_Neil", "pat@acme.com", "hr")
		require.NoError(t, repo.Create(ctx, odd))
		defer func() { require.NoError(t, repo.Delete(ctx, testCompany, "emp_050")) }()

		list, total, err := repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{Search: "100% o_n"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "emp_050", list[0].ID)
	})

	t.Run("sort by name descending", func(t *testing.T) {
		list, _, err := repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{SortBy: "name", SortOrder: "desc"})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Carol White", list[0].Name)
	})

	t.Run("unknown sort field falls back to id", func(t *testing.T) {
		list, _, err := repo.FindAll(ctx, testCompany, workspace.EmployeeFilter{SortBy: "password_hash; DROP TABLE employees"})
		require.NoError(t, err)
		assert.Equal(t, "emp_001", list[0].ID)
	})

	t.Run("assigned desk lookup", func(t *testing.T) {
		byDesk, err := repo.FindByAssignedDesk(ctx, testCompany, []string{"desk_1_01", "desk_9_99"})
		require.NoError(t, err)
		require.Contains(t, byDesk, "desk_1_01")
		assert.Equal(t, "Alice Smith", byDesk["desk_1_01"].Name)
		assert.NotContains(t, byDesk, "desk_9_99")
	})

	t.Run("next id skips past the highest number", func(t *testing.T) {
		id, err := repo.NextID(ctx, testCompany)
		require.NoError(t, err)
		assert.Equal(t, "emp_011", id)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, testCompany, "emp_002"))
		assert.ErrorIs(t, repo.Delete(ctx, testCompany, "emp_002"), shared.ErrNotFound)
		exists, err := repo.ExistsByEmail(ctx, "bob@acme.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormConflictRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConflictRepository(newTestDatabase(t).DB)
	now := time.Now().UTC()

	low := workspace.NewConflict(testCompany, "s1", "Space 1", []workspace.ConflictIssue{
		{Type: workspace.IssueHumidity, Severity: workspace.SeverityLow, Message: "dry"},
	}, now)
	high := workspace.NewConflict(testCompany, "s2", "Space 2", []workspace.ConflictIssue{
		{Type: workspace.IssueCriticalOvercrowding, Severity: workspace.SeverityHigh, Message: "full"},
		{Type: workspace.IssueNoise, Severity: workspace.SeverityMedium, Message: "loud"},
	}, now)
	require.NoError(t, repo.Save(ctx, low))
	require.NoError(t, repo.Save(ctx, high))

	open, err := repo.FindOpen(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "s2", open[0].SpaceID)
	assert.Len(t, open[0].Issues, 2)

	bySpace, err := repo.FindOpenBySpace(ctx, testCompany, "s1")
	require.NoError(t, err)
	assert.Equal(t, low.ID, bySpace.ID)

	require.NoError(t, low.Resolve("opened a window", now))
	require.NoError(t, repo.Save(ctx, low))

	n, err := repo.CountOpen(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindOpenBySpace(ctx, testCompany, "s1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	resolved, err := repo.FindResolvedSince(ctx, testCompany, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "opened a window", resolved[0].Resolution)

	high.Refresh(workspace.NewConflict(testCompany, "s2", "Space 2", high.Issues, now.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, high))

	got, err := repo.FindByID(ctx, testCompany, high.ID)
	require.NoError(t, err)
	assert.Equal(t, high.TotalSeverity, got.TotalSeverity)
	assert.WithinDuration(t, now, got.DetectedAt, time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), got.LastSeenAt, time.Second)

	_, err = repo.FindByID(ctx, testCompany, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAlertRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAlertRepository(newTestDatabase(t).DB)

	crit, err := workspace.NewAlert(testCompany, workspace.SeverityCritical, "HVAC down", "offline", []string{"z1"})
	require.NoError(t, err)
	crit.CreatedAt = time.Now().UTC().Add(-time.Hour)
	med, err := workspace.NewAlert(testCompany, workspace.SeverityMedium, "Low use", "quiet", nil)
	require.NoError(t, err)
	med.CreatedAt = time.Now().UTC()
	require.NoError(t, repo.Save(ctx, crit))
	require.NoError(t, repo.Save(ctx, med))

	all, err := repo.FindAll(ctx, testCompany, workspace.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Low use", all[0].Title)
	assert.NotNil(t, all[0].AffectedSpaces)

	stats, err := repo.Stats(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, workspace.AlertStats{Total: 2, Unresolved: 2, Critical: 1}, stats)

	require.NoError(t, crit.Resolve(time.Now().UTC()))
	require.NoError(t, repo.Save(ctx, crit))

	resolved := true
	list, err := repo.FindAll(ctx, testCompany, workspace.AlertFilter{Resolved: &resolved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, crit.ID, list[0].ID)

	list, err = repo.FindAll(ctx, testCompany, workspace.AlertFilter{Severity: workspace.SeverityMedium})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.FindUnresolvedByTitle(ctx, testCompany, "HVAC down")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	found, err := repo.FindUnresolvedByTitle(ctx, testCompany, "Low use")
	require.NoError(t, err)
	assert.Equal(t, med.ID, found.ID)
}

func TestGormReadingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReadingRepository(newTestDatabase(t).DB)
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	var energy []*workspace.EnergyReading
	var spaces []*workspace.SpaceReading
	for h := 0; h < 6; h++ {
		energy = append(energy, &workspace.EnergyReading{
			ID:               uuid.New(),
			CompanyID:        testCompany,
			Timestamp:        base.Add(time.Duration(h) * time.Hour),
			TotalConsumption: float64(100 + h),
			CostPerHour:      decimal.RequireFromString("12.3456"),
			EfficiencyScore:  80,
		})
		spaces = append(spaces, &workspace.SpaceReading{
			ID:                 uuid.New(),
			CompanyID:          testCompany,
			Timestamp:          base.Add(time.Duration(h) * time.Hour),
			OverallUtilization: float64(h) / 10,
			TotalCapacity:      100,
		})
	}
	require.NoError(t, repo.SaveEnergy(ctx, energy...))
	require.NoError(t, repo.SaveSpace(ctx, spaces...))

	window, err := repo.Energy(ctx, testCompany, base.Add(2*time.Hour), base.Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, 102.0, window[0].TotalConsumption)
	assert.True(t, window[0].CostPerHour.Equal(decimal.RequireFromString("12.3456")))

	latest, err := repo.LatestEnergy(ctx, testCompany, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 105.0, latest[0].TotalConsumption)

	latestSpace, err := repo.LatestSpace(ctx, testCompany, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, latestSpace[0].OverallUtilization, 1e-9)

	spaceWindow, err := repo.Space(ctx, testCompany, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, spaceWindow, 1)

	n, err := repo.CountEnergy(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestGormPredictionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPredictionRepository(newTestDatabase(t).DB)
	now := time.Now().UTC()

	for i, mt := range []workspace.ModelType{workspace.ModelSpaceOptimizer, workspace.ModelEnergyPredictor, workspace.ModelSpaceOptimizer} {
		p, err := workspace.NewPrediction(testCompany, mt, map[string]int{"n": i}, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
	}

	space, err := repo.Latest(ctx, testCompany, workspace.ModelSpaceOptimizer, 10)
	require.NoError(t, err)
	require.Len(t, space, 2)
	assert.JSONEq(t, `{"n":2}`, string(space[0].Payload))

	all, err := repo.Latest(ctx, testCompany, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormActivityRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormActivityRepository(newTestDatabase(t).DB)
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx,
		workspace.NewUserActivity(testCompany, "emp_001", "sales", workspace.ActivityBadgeIn, "LOBBY", 0, now.Add(-2*time.Hour)),
		workspace.NewUserActivity(testCompany, "emp_002", "engineering", workspace.ActivityDeskBooking, "FLOOR_1", 90, now.Add(-time.Hour)),
		workspace.NewUserActivity(testCompany, "emp_003", "engineering", workspace.ActivityLogin, "dashboard", 0, now),
	))

	recent, err := repo.FindRecent(ctx, testCompany, workspace.ActivityFilter{Department: "engineering"})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "emp_003", recent[0].UserID)

	limited, err := repo.FindRecent(ctx, testCompany, workspace.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := repo.Count(ctx, testCompany)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestGormCompanyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCompanyRepository(newTestDatabase(t).DB)

	require.NoError(t, repo.Save(ctx, workspace.NewCompany("b_co", "B Co")))
	require.NoError(t, repo.Save(ctx, workspace.NewCompany("a_co", "A Co")))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a_co", all[0].ID)

	got, err := repo.FindByID(ctx, "b_co")
	require.NoError(t, err)
	assert.Equal(t, "B Co", got.Name)
	assert.Equal(t, 8, got.BusinessHoursStart)
}
