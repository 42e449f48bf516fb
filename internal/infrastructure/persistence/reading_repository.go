package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

const readingBatchSize = 500

// GormReadingRepository implements ReadingRepository using GORM
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// SaveEnergy inserts energy readings in batches
func (r *GormReadingRepository) SaveEnergy(ctx context.Context, readings ...*workspace.EnergyReading) error {
	if len(readings) == 0 {
		return nil
	}
	rows := make([]models.EnergyReadingModel, len(readings))
	for i, rd := range readings {
		rows[i].FromDomain(rd)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, readingBatchSize).Error
}

// SaveSpace inserts space readings in batches
func (r *GormReadingRepository) SaveSpace(ctx context.Context, readings ...*workspace.SpaceReading) error {
	if len(readings) == 0 {
		return nil
	}
	rows := make([]models.SpaceReadingModel, len(readings))
	for i, rd := range readings {
		rows[i].FromDomain(rd)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, readingBatchSize).Error
}

// Energy returns readings in [from, to) oldest first
func (r *GormReadingRepository) Energy(ctx context.Context, companyID string, from, to time.Time) ([]*workspace.EnergyReading, error) {
	var rows []models.EnergyReadingModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND timestamp >= ? AND timestamp < ?", companyID, from, to).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.EnergyReadingModel).ToDomain), nil
}

// Space returns readings in [from, to) oldest first
func (r *GormReadingRepository) Space(ctx context.Context, companyID string, from, to time.Time) ([]*workspace.SpaceReading, error) {
	var rows []models.SpaceReadingModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND timestamp >= ? AND timestamp < ?", companyID, from, to).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.SpaceReadingModel).ToDomain), nil
}

// LatestEnergy returns the newest readings, newest first
func (r *GormReadingRepository) LatestEnergy(ctx context.Context, companyID string, limit int) ([]*workspace.EnergyReading, error) {
	var rows []models.EnergyReadingModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.EnergyReadingModel).ToDomain), nil
}

// LatestSpace returns the newest readings, newest first
func (r *GormReadingRepository) LatestSpace(ctx context.Context, companyID string, limit int) ([]*workspace.SpaceReading, error) {
	var rows []models.SpaceReadingModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.SpaceReadingModel).ToDomain), nil
}

// CountEnergy returns the number of stored energy readings
func (r *GormReadingRepository) CountEnergy(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EnergyReadingModel{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

var _ workspace.ReadingRepository = (*GormReadingRepository)(nil)
