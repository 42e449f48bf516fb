package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/persistence/models"
)

// GormPredictionRepository implements PredictionRepository using GORM
type GormPredictionRepository struct {
	db *gorm.DB
}

// NewGormPredictionRepository creates a new GormPredictionRepository
func NewGormPredictionRepository(db *gorm.DB) *GormPredictionRepository {
	return &GormPredictionRepository{db: db}
}

// Save stores a prediction
func (r *GormPredictionRepository) Save(ctx context.Context, prediction *workspace.Prediction) error {
	var m models.PredictionModel
	m.FromDomain(prediction)
	return r.db.WithContext(ctx).Create(&m).Error
}

// Latest returns the newest predictions; an empty modelType matches all models
func (r *GormPredictionRepository) Latest(ctx context.Context, companyID string, modelType workspace.ModelType, limit int) ([]*workspace.Prediction, error) {
	query := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if modelType != "" {
		query = query.Where("model_type = ?", modelType)
	}
	var rows []models.PredictionModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(rows, (*models.PredictionModel).ToDomain), nil
}

var _ workspace.PredictionRepository = (*GormPredictionRepository)(nil)
