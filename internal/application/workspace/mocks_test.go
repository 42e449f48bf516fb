package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/application/models"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCompanyRepository is a mock implementation of workspace.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id string) (*workspace.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context) ([]*workspace.Company, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*workspace.Company), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *workspace.Company) error {
	return m.Called(ctx, company).Error(0)
}

// MockSpaceRepository is a mock implementation of workspace.SpaceRepository
type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) FindByID(ctx context.Context, companyID, id string) (*workspace.Space, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Space), args.Error(1)
}

func (m *MockSpaceRepository) FindAll(ctx context.Context, companyID string, filter workspace.SpaceFilter) ([]*workspace.Space, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*workspace.Space), args.Error(1)
}

func (m *MockSpaceRepository) Create(ctx context.Context, space *workspace.Space) error {
	return m.Called(ctx, space).Error(0)
}

func (m *MockSpaceRepository) Save(ctx context.Context, space *workspace.Space) error {
	return m.Called(ctx, space).Error(0)
}

func (m *MockSpaceRepository) SaveAll(ctx context.Context, spaces []*workspace.Space) error {
	return m.Called(ctx, spaces).Error(0)
}

func (m *MockSpaceRepository) ExistsByID(ctx context.Context, companyID, id string) (bool, error) {
	args := m.Called(ctx, companyID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSpaceRepository) Count(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmployeeRepository is a mock implementation of workspace.EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) FindByID(ctx context.Context, companyID, id string) (*workspace.Employee, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByEmail(ctx context.Context, email string) (*workspace.Employee, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindAll(ctx context.Context, companyID string, filter workspace.EmployeeFilter) ([]*workspace.Employee, int64, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*workspace.Employee), args.Get(1).(int64), args.Error(2)
}

func (m *MockEmployeeRepository) FindByAssignedDesk(ctx context.Context, companyID string, deskIDs []string) (map[string]*workspace.Employee, error) {
	args := m.Called(ctx, companyID, deskIDs)
	return args.Get(0).(map[string]*workspace.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *workspace.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockEmployeeRepository) Save(ctx context.Context, employee *workspace.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, companyID, id string) error {
	return m.Called(ctx, companyID, id).Error(0)
}

func (m *MockEmployeeRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockEmployeeRepository) NextID(ctx context.Context, companyID string) (string, error) {
	args := m.Called(ctx, companyID)
	return args.String(0), args.Error(1)
}

// MockConflictRepository is a mock implementation of workspace.ConflictRepository
type MockConflictRepository struct {
	mock.Mock
}

func (m *MockConflictRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*workspace.Conflict, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Conflict), args.Error(1)
}

func (m *MockConflictRepository) FindOpen(ctx context.Context, companyID string) ([]*workspace.Conflict, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*workspace.Conflict), args.Error(1)
}

func (m *MockConflictRepository) FindOpenBySpace(ctx context.Context, companyID, spaceID string) (*workspace.Conflict, error) {
	args := m.Called(ctx, companyID, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Conflict), args.Error(1)
}

func (m *MockConflictRepository) FindResolvedSince(ctx context.Context, companyID string, since time.Time) ([]*workspace.Conflict, error) {
	args := m.Called(ctx, companyID, since)
	return args.Get(0).([]*workspace.Conflict), args.Error(1)
}

func (m *MockConflictRepository) Save(ctx context.Context, conflict *workspace.Conflict) error {
	return m.Called(ctx, conflict).Error(0)
}

func (m *MockConflictRepository) CountOpen(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertRepository is a mock implementation of workspace.AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*workspace.Alert, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, companyID string, filter workspace.AlertFilter) ([]*workspace.Alert, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*workspace.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindUnresolvedByTitle(ctx context.Context, companyID, title string) (*workspace.Alert, error) {
	args := m.Called(ctx, companyID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Alert), args.Error(1)
}

func (m *MockAlertRepository) Stats(ctx context.Context, companyID string) (workspace.AlertStats, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(workspace.AlertStats), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *workspace.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

// MockReadingRepository is a mock implementation of workspace.ReadingRepository
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) SaveEnergy(ctx context.Context, readings ...*workspace.EnergyReading) error {
	return m.Called(ctx, readings).Error(0)
}

func (m *MockReadingRepository) SaveSpace(ctx context.Context, readings ...*workspace.SpaceReading) error {
	return m.Called(ctx, readings).Error(0)
}

func (m *MockReadingRepository) Energy(ctx context.Context, companyID string, from, to time.Time) ([]*workspace.EnergyReading, error) {
	args := m.Called(ctx, companyID, from, to)
	return args.Get(0).([]*workspace.EnergyReading), args.Error(1)
}

func (m *MockReadingRepository) Space(ctx context.Context, companyID string, from, to time.Time) ([]*workspace.SpaceReading, error) {
	args := m.Called(ctx, companyID, from, to)
	return args.Get(0).([]*workspace.SpaceReading), args.Error(1)
}

func (m *MockReadingRepository) LatestEnergy(ctx context.Context, companyID string, limit int) ([]*workspace.EnergyReading, error) {
	args := m.Called(ctx, companyID, limit)
	return args.Get(0).([]*workspace.EnergyReading), args.Error(1)
}

func (m *MockReadingRepository) LatestSpace(ctx context.Context, companyID string, limit int) ([]*workspace.SpaceReading, error) {
	args := m.Called(ctx, companyID, limit)
	return args.Get(0).([]*workspace.SpaceReading), args.Error(1)
}

func (m *MockReadingRepository) CountEnergy(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPredictionRepository is a mock implementation of workspace.PredictionRepository
type MockPredictionRepository struct {
	mock.Mock
}

func (m *MockPredictionRepository) Save(ctx context.Context, prediction *workspace.Prediction) error {
	return m.Called(ctx, prediction).Error(0)
}

func (m *MockPredictionRepository) Latest(ctx context.Context, companyID string, modelType workspace.ModelType, limit int) ([]*workspace.Prediction, error) {
	args := m.Called(ctx, companyID, modelType, limit)
	return args.Get(0).([]*workspace.Prediction), args.Error(1)
}

// MockActivityRepository is a mock implementation of workspace.ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Save(ctx context.Context, activities ...*workspace.UserActivity) error {
	return m.Called(ctx, activities).Error(0)
}

func (m *MockActivityRepository) FindRecent(ctx context.Context, companyID string, filter workspace.ActivityFilter) ([]*workspace.UserActivity, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*workspace.UserActivity), args.Error(1)
}

func (m *MockActivityRepository) Count(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Fixtures
// =============================================================================

const testCompany = "acme"

var testNow = time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC) // Tuesday

func smallAnalytics() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		Seed:                7,
		SpaceSamples:        300,
		SpaceEstimators:     10,
		EnergySamples:       300,
		EnergyGBEstimators:  10,
		EnergyRFEstimators:  4,
		TrainingWorkers:     2,
		TrainingStartOffset: 24 * time.Hour,
	}
}

// untrainedModels returns a registry whose models have never been fitted
func untrainedModels() *models.Registry {
	return models.NewRegistry(smallAnalytics(), nil, zap.NewNop())
}

// trainedModels fits small models for testCompany. Skipped with -short.
func trainedModels(t *testing.T) *models.Registry {
	t.Helper()
	if testing.Short() {
		t.Skip("model training skipped in short mode")
	}
	r := untrainedModels()
	require.NoError(t, r.Train(context.Background(), testCompany, false))
	return r
}

func newSpace(t *testing.T, id string, spaceType workspace.SpaceType, capacity, occupancy int) *workspace.Space {
	t.Helper()
	sp, err := workspace.NewSpace(testCompany, id, "Space "+id, spaceType, 1, capacity)
	require.NoError(t, err)
	sp.CurrentOccupancy = occupancy
	return sp
}
