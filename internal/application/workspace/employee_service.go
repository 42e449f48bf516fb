// Package workspace serves the dashboard: the employee and space directories,
// alerts, conflicts, aggregated readings and the analytics views built on the
// per-company models.
package workspace

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
)

const (
	defaultEmployeeLimit = 50
	maxEmployeeLimit     = 100
	defaultEmployeeRole  = "Associate"
)

// EmployeeService manages the employee directory
type EmployeeService struct {
	employees workspace.EmployeeRepository
	logger    *zap.Logger
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(employees workspace.EmployeeRepository, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		logger:    logger.Named("employees"),
	}
}

// List returns employees matching the query
func (s *EmployeeService) List(ctx context.Context, companyID string, q ListEmployeesQuery) (*EmployeeList, error) {
	filter := workspace.EmployeeFilter{
		Search:     strings.TrimSpace(q.Search),
		Department: strings.ToLower(strings.TrimSpace(q.Department)),
		Limit:      shared.ClampLimit(q.Limit, defaultEmployeeLimit, maxEmployeeLimit),
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
	if q.Status != "" {
		status := workspace.EmployeeStatus(q.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown employee status: "+q.Status)
		}
		filter.Status = status
	}

	employees, total, err := s.employees.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	if employees == nil {
		employees = []*workspace.Employee{}
	}
	return &EmployeeList{Employees: employees, Total: total}, nil
}

// Get returns one employee
func (s *EmployeeService) Get(ctx context.Context, companyID, id string) (*workspace.Employee, error) {
	return s.employees.FindByID(ctx, companyID, id)
}

// Create adds an employee with the next free id
func (s *EmployeeService) Create(ctx context.Context, companyID string, req CreateEmployeeRequest) (*workspace.Employee, error) {
	exists, err := s.employees.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Employee with this email already exists")
	}

	id, err := s.employees.NextID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = defaultEmployeeRole
	}
	employee, err := workspace.NewEmployee(companyID, id, req.Name, req.Email, req.Department, role)
	if err != nil {
		return nil, err
	}
	if err := authorizeGrant(req.CallerPermissions, employee); err != nil {
		return nil, err
	}
	employee.Phone = req.Phone
	employee.AssignedDeskID = req.AssignedDeskID
	if req.Password != "" {
		if err := employee.SetPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	s.logger.Info("Employee created",
		zap.String("company_id", companyID),
		zap.String("employee_id", employee.ID),
	)
	return employee, nil
}

// Update applies the non-nil fields of req
func (s *EmployeeService) Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (*workspace.Employee, error) {
	employee, err := s.employees.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if employee.IsAdmin() && !slices.Contains(req.CallerPermissions, workspace.PermissionAdmin) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only administrators can modify an administrator account")
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != employee.Email {
			exists, err := s.employees.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "Employee with this email already exists")
			}
			employee.Email = email
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", "Employee name is required")
		}
		employee.Name = name
	}
	if req.Department != nil {
		employee.Department = strings.ToLower(strings.TrimSpace(*req.Department))
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if role == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", "Employee role cannot be empty")
		}
		if role != employee.Role {
			if !slices.Contains(req.CallerPermissions, workspace.PermissionAdmin) {
				return nil, shared.NewDomainError("FORBIDDEN", "Only administrators can change an employee role")
			}
			employee.Role = role
		}
	}
	if req.AssignedDeskID != nil {
		employee.AssignedDeskID = *req.AssignedDeskID
	}
	if req.Status != nil {
		if err := employee.SetStatus(workspace.EmployeeStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.employees.Save(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// authorizeGrant rejects creating an employee whose role carries permissions
// the caller does not hold
func authorizeGrant(callerPermissions []string, employee *workspace.Employee) error {
	for _, p := range employee.Permissions() {
		if !slices.Contains(callerPermissions, p) {
			return shared.NewDomainError("FORBIDDEN", "Cannot grant the "+p+" permission without holding it")
		}
	}
	return nil
}

// Delete removes an employee and returns the removed record
func (s *EmployeeService) Delete(ctx context.Context, companyID, id string) (*workspace.Employee, error) {
	employee, err := s.employees.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.employees.Delete(ctx, companyID, id); err != nil {
		return nil, err
	}
	s.logger.Info("Employee deleted",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)
	return employee, nil
}
