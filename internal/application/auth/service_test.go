package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/auth"
	"github.com/smartspace/backend/internal/infrastructure/config"
)

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

func newJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-with-enough-length",
		RefreshSecret:          "test-refresh-secret-with-enough-length",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "smartspace-test",
	})
}

type fixture struct {
	employees  *MockEmployeeRepository
	activities *MockActivityRepository
	blacklist  *auth.InMemoryTokenBlacklist
	jwt        *auth.JWTService
	service    *Service
}

func newFixture() *fixture {
	f := &fixture{
		employees:  new(MockEmployeeRepository),
		activities: new(MockActivityRepository),
		blacklist:  auth.NewInMemoryTokenBlacklist(),
		jwt:        newJWT(),
	}
	f.service = NewService(f.employees, f.activities, f.jwt, f.blacklist, zap.NewNop())
	return f
}

func testEmployee(t *testing.T, role string) *workspace.Employee {
	t.Helper()
	e, err := workspace.NewEmployee("demo_company", "emp_003", "Jordan Lee", "employee3@demo.com", "hr", role)
	require.NoError(t, err)
	require.NoError(t, e.SetPassword("password"))
	return e
}

func TestService_Login(t *testing.T) {
	f := newFixture()
	emp := testEmployee(t, "Senior")
	f.employees.On("FindByEmail", mock.Anything, "employee3@demo.com").Return(emp, nil)
	f.employees.On("Save", mock.Anything, emp).Return(nil)
	f.activities.On("Save", mock.Anything, mock.MatchedBy(func(a []*workspace.UserActivity) bool {
		return len(a) == 1 && a[0].ActivityType == workspace.ActivityLogin && a[0].UserID == "emp_003"
	})).Return(nil)

	result, err := f.service.Login(context.Background(), LoginInput{Email: "employee3@demo.com", Password: "password"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, 900, result.ExpiresIn)
	assert.Equal(t, UserInfo{
		ID:          "emp_003",
		Email:       "employee3@demo.com",
		Name:        "Jordan Lee",
		Role:        "Senior",
		Department:  "hr",
		CompanyID:   "demo_company",
		Permissions: []string{workspace.PermissionRead, workspace.PermissionWrite},
	}, result.User)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "demo_company", claims.CompanyID)
	assert.True(t, claims.HasPermission(workspace.PermissionWrite))
	assert.NotNil(t, emp.LastSeenAt)
	f.employees.AssertExpectations(t)
	f.activities.AssertExpectations(t)
}

func TestService_Login_ActivityFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture()
	emp := testEmployee(t, "Junior")
	f.employees.On("FindByEmail", mock.Anything, emp.Email).Return(emp, nil)
	f.employees.On("Save", mock.Anything, emp).Return(nil)
	f.activities.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	result, err := f.service.Login(context.Background(), LoginInput{Email: emp.Email, Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, []string{workspace.PermissionRead}, result.User.Permissions)
}

func TestService_Login_Failures(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		f := newFixture()
		f.employees.On("FindByEmail", mock.Anything, "nobody@demo.com").Return(nil, shared.ErrNotFound)
		_, err := f.service.Login(context.Background(), LoginInput{Email: "nobody@demo.com", Password: "x"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CREDENTIALS", de.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture()
		emp := testEmployee(t, "Junior")
		f.employees.On("FindByEmail", mock.Anything, emp.Email).Return(emp, nil)
		_, err := f.service.Login(context.Background(), LoginInput{Email: emp.Email, Password: "wrong"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CREDENTIALS", de.Code)
		f.employees.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newFixture()
		emp := testEmployee(t, "Junior")
		emp.Status = workspace.EmployeeStatusInactive
		f.employees.On("FindByEmail", mock.Anything, emp.Email).Return(emp, nil)
		_, err := f.service.Login(context.Background(), LoginInput{Email: emp.Email, Password: "password"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ACCOUNT_INACTIVE", de.Code)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture()
		boom := errors.New("connection refused")
		f.employees.On("FindByEmail", mock.Anything, "a@demo.com").Return(nil, boom)
		_, err := f.service.Login(context.Background(), LoginInput{Email: "a@demo.com", Password: "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Refresh(t *testing.T) {
	f := newFixture()
	emp := testEmployee(t, "admin")
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{CompanyID: emp.CompanyID, UserID: emp.ID, Email: emp.Email})
	require.NoError(t, err)
	f.employees.On("FindByID", mock.Anything, "demo_company", "emp_003").Return(emp, nil)

	result, err := f.service.Refresh(context.Background(), RefreshInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.Contains(t, result.User.Permissions, workspace.PermissionAdmin)

	// refresh tokens are single use
	_, err = f.service.Refresh(context.Background(), RefreshInput{RefreshToken: pair.RefreshToken})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "TOKEN_REVOKED", de.Code)
}

func TestService_Refresh_InvalidToken(t *testing.T) {
	f := newFixture()
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{CompanyID: "demo_company", UserID: "emp_001"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"access token", pair.AccessToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), RefreshInput{RefreshToken: tt.token})
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "TOKEN_INVALID", de.Code)
		})
	}
}

func TestService_Logout(t *testing.T) {
	f := newFixture()
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{CompanyID: "demo_company", UserID: "emp_001"})
	require.NoError(t, err)
	claims, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), claims))
	revoked, err := f.blacklist.IsBlacklisted(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, f.service.Logout(context.Background(), nil), shared.ErrUnauthorized)
}

func TestService_Logout_WithoutBlacklist(t *testing.T) {
	svc := NewService(new(MockEmployeeRepository), new(MockActivityRepository), newJWT(), nil, zap.NewNop())
	assert.NoError(t, svc.Logout(context.Background(), &auth.Claims{UserID: "emp_001"}))
}

func TestService_CurrentUser(t *testing.T) {
	f := newFixture()
	emp := testEmployee(t, "Junior")
	f.employees.On("FindByID", mock.Anything, "demo_company", "emp_003").Return(emp, nil)
	f.employees.On("FindByID", mock.Anything, "demo_company", "gone").Return(nil, shared.ErrNotFound)

	info, err := f.service.CurrentUser(context.Background(), &auth.Claims{CompanyID: "demo_company", UserID: "emp_003"})
	require.NoError(t, err)
	assert.Equal(t, "Jordan Lee", info.Name)

	_, err = f.service.CurrentUser(context.Background(), &auth.Claims{CompanyID: "demo_company", UserID: "gone"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "USER_NOT_FOUND", de.Code)
}
