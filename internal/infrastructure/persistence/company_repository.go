package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id string) (*workspace.Company, error) {
	var m models.CompanyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns every company ordered by ID
func (r *GormCompanyRepository) FindAll(ctx context.Context) ([]*workspace.Company, error) {
	var rows []models.CompanyModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.CompanyModel).ToDomain), nil
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *workspace.Company) error {
	var m models.CompanyModel
	m.FromDomain(company)
	return r.db.WithContext(ctx).Save(&m).Error
}

var _ workspace.CompanyRepository = (*GormCompanyRepository)(nil)
