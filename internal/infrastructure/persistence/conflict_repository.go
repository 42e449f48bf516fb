package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormConflictRepository implements ConflictRepository using GORM
type GormConflictRepository struct {
	db *gorm.DB
}

// NewGormConflictRepository creates a new GormConflictRepository
func NewGormConflictRepository(db *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: db}
}

// FindByID finds a conflict within a company
func (r *GormConflictRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*workspace.Conflict, error) {
	var m models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindOpen returns unresolved conflicts, most severe first
func (r *GormConflictRepository) FindOpen(ctx context.Context, companyID string) ([]*workspace.Conflict, error) {
	var rows []models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, workspace.ConflictStatusOpen).
		Order("total_severity DESC, detected_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.ConflictModel).ToDomain), nil
}

// FindOpenBySpace returns the open conflict of a space, if any
func (r *GormConflictRepository) FindOpenBySpace(ctx context.Context, companyID, spaceID string) (*workspace.Conflict, error) {
	var m models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND space_id = ? AND status = ?", companyID, spaceID, workspace.ConflictStatusOpen).
		Order("detected_at DESC").
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindResolvedSince returns conflicts resolved at or after since
func (r *GormConflictRepository) FindResolvedSince(ctx context.Context, companyID string, since time.Time) ([]*workspace.Conflict, error) {
	var rows []models.ConflictModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND resolved_at >= ?", companyID, workspace.ConflictStatusResolved, since).
		Order("resolved_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.ConflictModel).ToDomain), nil
}

// Save creates or updates a conflict
func (r *GormConflictRepository) Save(ctx context.Context, conflict *workspace.Conflict) error {
	var m models.ConflictModel
	m.FromDomain(conflict)
	return r.db.WithContext(ctx).Save(&m).Error
}

// CountOpen returns the number of unresolved conflicts
func (r *GormConflictRepository) CountOpen(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConflictModel{}).
		Where("company_id = ? AND status = ?", companyID, workspace.ConflictStatusOpen).
		Count(&count).Error
	return count, err
}

var _ workspace.ConflictRepository = (*GormConflictRepository)(nil)
