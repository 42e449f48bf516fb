package workspace

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmployee(t *testing.T) {
	t.Run("normalizes email and department", func(t *testing.T) {
		e, err := NewEmployee(DemoCompanyID, "emp_001", "Employee 1", " Employee1@Demo.com ", "Engineering", "Senior Engineer")
		require.NoError(t, err)
		assert.Equal(t, "employee1@demo.com", e.Email)
		assert.Equal(t, "engineering", e.Department)
		assert.Equal(t, EmployeeStatusActive, e.Status)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewEmployee(DemoCompanyID, "emp_001", "Employee 1", "not-an-email", "sales", "Junior")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewEmployee(DemoCompanyID, "emp_001", " ", "a@b.com", "sales", "Junior")
		assert.Error(t, err)
	})
}

func TestEmployee_Permissions(t *testing.T) {
	senior := &Employee{Role: "Senior Engineer"}
	junior := &Employee{Role: "Junior Analyst"}
	admin := &Employee{Role: RoleAdmin}

	assert.Equal(t, []string{PermissionRead, PermissionWrite}, senior.Permissions())
	assert.Equal(t, []string{PermissionRead}, junior.Permissions())
	assert.Equal(t, []string{PermissionRead, PermissionWrite, PermissionAdmin}, admin.Permissions())
}

func TestEmployee_MatchesSearch(t *testing.T) {
	e := &Employee{Name: "Ada Lovelace", Email: "ada@demo.com", Department: "engineering"}
	assert.True(t, e.MatchesSearch("ADA"))
	assert.True(t, e.MatchesSearch("engin"))
	assert.True(t, e.MatchesSearch(""))
	assert.False(t, e.MatchesSearch("sales"))
}

func TestEmployee_SetStatus(t *testing.T) {
	e := &Employee{Status: EmployeeStatusActive}
	require.NoError(t, e.SetStatus(EmployeeStatusRemote))
	assert.Equal(t, EmployeeStatusRemote, e.Status)
	assert.Error(t, e.SetStatus("vacation"))
}

func TestAlert_Resolve(t *testing.T) {
	a, err := NewAlert(DemoCompanyID, SeverityCritical, "HVAC System Failure", "Floor 3 HVAC offline", nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Empty(t, a.AffectedSpaces)

	require.NoError(t, a.Resolve(time.Now()))
	assert.True(t, a.Resolved)
	assert.Error(t, a.Resolve(time.Now()))

	_, err = NewAlert(DemoCompanyID, Severity("urgent"), "x", "", nil)
	assert.Error(t, err)
}

func TestSnapshotSpaces(t *testing.T) {
	a, _ := NewSpace(DemoCompanyID, "a", "A", SpaceTypeDesk, 1, 10)
	b, _ := NewSpace(DemoCompanyID, "b", "B", SpaceTypeDesk, 1, 10)
	a.SetOccupancy(5)
	b.SetOccupancy(10)
	b.Environment.Temperature = 24

	r := SnapshotSpaces(DemoCompanyID, []*Space{a, b}, time.Now())
	assert.Equal(t, 15, r.TotalOccupancy)
	assert.Equal(t, 20, r.TotalCapacity)
	assert.InDelta(t, 0.75, r.OverallUtilization, 1e-9)
	assert.InDelta(t, 23.0, r.AverageTemperature, 1e-9)

	empty := SnapshotSpaces(DemoCompanyID, nil, time.Now())
	assert.Equal(t, 0.0, empty.OverallUtilization)
}

func TestEmployee_Password(t *testing.T) {
	e := &Employee{}
	assert.False(t, e.VerifyPassword("password"))

	require.NoError(t, e.SetPassword("password"))
	assert.True(t, e.VerifyPassword("password"))
	assert.False(t, e.VerifyPassword("wrong"))

	assert.Error(t, e.SetPassword("123"))
}
