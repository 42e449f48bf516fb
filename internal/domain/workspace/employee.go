package workspace

import (
	"net/mail"
	"strings"
	"time"

	"github.com/smartspace/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// EmployeeStatus is the presence status of an employee
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
	EmployeeStatusRemote   EmployeeStatus = "remote"
	EmployeeStatusOnLeave  EmployeeStatus = "on_leave"
)

// IsValid returns true if the status is known
func (s EmployeeStatus) IsValid() bool {
	switch s {
	case EmployeeStatusActive, EmployeeStatusInactive, EmployeeStatusRemote, EmployeeStatusOnLeave:
		return true
	}
	return false
}

// Permission names carried in access tokens
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// RoleAdmin is the role name of facility administrators
const RoleAdmin = "admin"

// Departments used by the demo tenant
var Departments = []string{"engineering", "sales", "marketing", "hr", "finance"}

// Employee is a person who occupies spaces and may sign in to the dashboard
type Employee struct {
	ID             string         `json:"id"`
	CompanyID      string         `json:"company_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Department     string         `json:"department"`
	Role           string         `json:"role"`
	Status         EmployeeStatus `json:"status"`
	AssignedDeskID string         `json:"assigned_desk,omitempty"`
	PasswordHash   string         `json:"-"`
	JoinedAt       time.Time      `json:"joined_at"`
	LastSeenAt     *time.Time     `json:"last_seen_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewEmployee validates and creates an active employee
func NewEmployee(companyID, id, name, email, department, role string) (*Employee, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Employee name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid email address")
	}
	if strings.TrimSpace(department) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department is required")
	}
	now := time.Now()
	return &Employee{
		ID:         id,
		CompanyID:  companyID,
		Name:       strings.TrimSpace(name),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Department: strings.ToLower(department),
		Role:       role,
		Status:     EmployeeStatusActive,
		JoinedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsAdmin reports whether the employee administers the facility
func (e *Employee) IsAdmin() bool {
	return strings.EqualFold(e.Role, RoleAdmin)
}

// Permissions derives the token permissions from the role
func (e *Employee) Permissions() []string {
	if e.IsAdmin() {
		return []string{PermissionRead, PermissionWrite, PermissionAdmin}
	}
	role := strings.ToLower(e.Role)
	for _, senior := range []string{"senior", "manager", "lead", "director"} {
		if strings.Contains(role, senior) {
			return []string{PermissionRead, PermissionWrite}
		}
	}
	return []string{PermissionRead}
}

// SetStatus changes the presence status
func (e *Employee) SetStatus(status EmployeeStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown employee status: "+string(status))
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", shared.NewDomainError("INVALID_INPUT", "Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SetPassword replaces the stored password hash
func (e *Employee) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	e.PasswordHash = hash
	return nil
}

// VerifyPassword checks password against the stored hash; employees without
// a hash cannot sign in.
func (e *Employee) VerifyPassword(password string) bool {
	if e.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)) == nil
}

// Touch records the last time the employee was seen
func (e *Employee) Touch(at time.Time) {
	e.LastSeenAt = &at
}

// MatchesSearch does a case-insensitive match on name, email and department
func (e *Employee) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), term) ||
		strings.Contains(strings.ToLower(e.Email), term) ||
		strings.Contains(strings.ToLower(e.Department), term)
}
