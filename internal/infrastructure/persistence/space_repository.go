package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormSpaceRepository implements SpaceRepository using GORM
type GormSpaceRepository struct {
	db *gorm.DB
}

// NewGormSpaceRepository creates a new GormSpaceRepository
func NewGormSpaceRepository(db *gorm.DB) *GormSpaceRepository {
	return &GormSpaceRepository{db: db}
}

// FindByID finds a space within a company
func (r *GormSpaceRepository) FindByID(ctx context.Context, companyID, id string) (*workspace.Space, error) {
	var m models.SpaceModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists spaces ordered by floor then ID
func (r *GormSpaceRepository) FindAll(ctx context.Context, companyID string, filter workspace.SpaceFilter) ([]*workspace.Space, error) {
	query := r.db.WithContext(ctx).Model(&models.SpaceModel{}).Where("company_id = ?", companyID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Floor > 0 {
		query = query.Where("floor = ?", filter.Floor)
	}

	var rows []models.SpaceModel
	if err := query.Order("floor ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.SpaceModel).ToDomain), nil
}

// Create inserts a new space. An existing row with the same company and ID
// is left untouched and ErrAlreadyExists is returned.
func (r *GormSpaceRepository) Create(ctx context.Context, space *workspace.Space) error {
	var m models.SpaceModel
	m.FromDomain(space)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Save updates a space, inserting it when missing
func (r *GormSpaceRepository) Save(ctx context.Context, space *workspace.Space) error {
	var m models.SpaceModel
	m.FromDomain(space)
	return r.db.WithContext(ctx).Save(&m).Error
}

// SaveAll upserts spaces in one transaction
func (r *GormSpaceRepository) SaveAll(ctx context.Context, spaces []*workspace.Space) error {
	if len(spaces) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range spaces {
			var m models.SpaceModel
			m.FromDomain(s)
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ExistsByID reports whether a space ID is taken within a company
func (r *GormSpaceRepository) ExistsByID(ctx context.Context, companyID, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SpaceModel{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Count(&count).Error
	return count > 0, err
}

// Count returns the number of spaces for a company
func (r *GormSpaceRepository) Count(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SpaceModel{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

var _ workspace.SpaceRepository = (*GormSpaceRepository)(nil)
