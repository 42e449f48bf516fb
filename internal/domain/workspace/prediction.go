package workspace

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ModelType names the analytics engine that produced a prediction
type ModelType string

const (
	ModelSpaceOptimizer  ModelType = "space_optimizer"
	ModelEnergyPredictor ModelType = "energy_predictor"
)

// Prediction is a stored model output
type Prediction struct {
	ID        uuid.UUID       `json:"id"`
	CompanyID string          `json:"company_id"`
	ModelType ModelType       `json:"model_type"`
	Payload   json.RawMessage `json:"prediction_data"`
	CreatedAt time.Time       `json:"timestamp"`
}

// NewPrediction serializes payload into a new prediction record
func NewPrediction(companyID string, modelType ModelType, payload any, at time.Time) (*Prediction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		ID:        uuid.New(),
		CompanyID: companyID,
		ModelType: modelType,
		Payload:   raw,
		CreatedAt: at,
	}, nil
}
