package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Save inserts activities
func (r *GormActivityRepository) Save(ctx context.Context, activities ...*workspace.UserActivity) error {
	if len(activities) == 0 {
		return nil
	}
	rows := make([]models.UserActivityModel, len(activities))
	for i, a := range activities {
		rows[i].FromDomain(a)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, readingBatchSize).Error
}

// FindRecent returns activities newest first
func (r *GormActivityRepository) FindRecent(ctx context.Context, companyID string, filter workspace.ActivityFilter) ([]*workspace.UserActivity, error) {
	query := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.UserActivityModel
	if err := query.Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.UserActivityModel).ToDomain), nil
}

// Count returns the number of stored activities
func (r *GormActivityRepository) Count(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserActivityModel{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

var _ workspace.ActivityRepository = (*GormActivityRepository)(nil)
