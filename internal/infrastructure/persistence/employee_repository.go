package persistence

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormEmployeeRepository implements EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByID finds an employee within a company
func (r *GormEmployeeRepository) FindByID(ctx context.Context, companyID, id string) (*workspace.Employee, error) {
	var m models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds an employee by login email across companies
func (r *GormEmployeeRepository) FindByEmail(ctx context.Context, email string) (*workspace.Employee, error) {
	var m models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists employees matching the filter and returns the unpaged total
func (r *GormEmployeeRepository) FindAll(ctx context.Context, companyID string, filter workspace.EmployeeFilter) ([]*workspace.Employee, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EmployeeModel{}).Where("company_id = ?", companyID)
	if filter.Search != "" {
		term := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(department) LIKE ? ESCAPE '\'`, term, term, term)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", strings.ToLower(filter.Department))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.EmployeeModel
	order := orderClause(filter.SortBy, filter.SortOrder, EmployeeSortFields, "id", "ASC")
	if err := query.Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDomainSlice(rows, (*models.EmployeeModel).ToDomain), total, nil
}

// FindByAssignedDesk maps desk IDs to the employee sitting there
func (r *GormEmployeeRepository) FindByAssignedDesk(ctx context.Context, companyID string, deskIDs []string) (map[string]*workspace.Employee, error) {
	out := make(map[string]*workspace.Employee, len(deskIDs))
	if len(deskIDs) == 0 {
		return out, nil
	}
	var rows []models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND assigned_desk_id IN ?", companyID, deskIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].AssignedDeskID] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new employee. ErrAlreadyExists is returned when the ID is
// taken within the company or the email is registered anywhere.
func (r *GormEmployeeRepository) Create(ctx context.Context, employee *workspace.Employee) error {
	var m models.EmployeeModel
	m.FromDomain(employee)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Save updates an employee, inserting it when missing
func (r *GormEmployeeRepository) Save(ctx context.Context, employee *workspace.Employee) error {
	var m models.EmployeeModel
	m.FromDomain(employee)
	return translateError(r.db.WithContext(ctx).Save(&m).Error)
}

// Delete removes an employee
func (r *GormEmployeeRepository) Delete(ctx context.Context, companyID, id string) error {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&models.EmployeeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// ExistsByEmail reports whether an email is already registered
func (r *GormEmployeeRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmployeeModel{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// NextID returns the next free emp_NNN identifier for a company
func (r *GormEmployeeRepository) NextID(ctx context.Context, companyID string) (string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.EmployeeModel{}).
		Where("company_id = ? AND id LIKE ?", companyID, "emp_%").
		Pluck("id", &ids).Error; err != nil {
		return "", err
	}
	maxN := 0
	for _, id := range ids {
		var n int
		if _, err := fmt.Sscanf(id, "emp_%d", &n); err == nil && n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("emp_%03d", maxN+1), nil
}

var _ workspace.EmployeeRepository = (*GormEmployeeRepository)(nil)
