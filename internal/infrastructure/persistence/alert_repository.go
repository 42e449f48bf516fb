package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert within a company
func (r *GormAlertRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*workspace.Alert, error) {
	var m models.AlertModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists alerts newest first
func (r *GormAlertRepository) FindAll(ctx context.Context, companyID string, filter workspace.AlertFilter) ([]*workspace.Alert, error) {
	query := r.db.WithContext(ctx).Model(&models.AlertModel{}).Where("company_id = ?", companyID)
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.AlertModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.AlertModel).ToDomain), nil
}

// FindUnresolvedByTitle returns the newest unresolved alert with title
func (r *GormAlertRepository) FindUnresolvedByTitle(ctx context.Context, companyID, title string) (*workspace.Alert, error) {
	var m models.AlertModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND title = ? AND resolved = ?", companyID, title, false).
		Order("created_at DESC").
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Stats counts all, unresolved and unresolved critical alerts
func (r *GormAlertRepository) Stats(ctx context.Context, companyID string) (workspace.AlertStats, error) {
	var stats workspace.AlertStats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.AlertModel{}).Where("company_id = ?", companyID)
	}
	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := base().Where("resolved = ?", false).Count(&stats.Unresolved).Error; err != nil {
		return stats, err
	}
	if err := base().Where("resolved = ? AND severity = ?", false, workspace.SeverityCritical).Count(&stats.Critical).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *workspace.Alert) error {
	var m models.AlertModel
	m.FromDomain(alert)
	return r.db.WithContext(ctx).Save(&m).Error
}

var _ workspace.AlertRepository = (*GormAlertRepository)(nil)
