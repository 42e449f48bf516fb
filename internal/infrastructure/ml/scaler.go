package ml

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers features to zero mean and unit variance
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit learns per-column statistics
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return ErrEmptyDataset
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || std != std {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// Transform returns a scaled copy of a single row
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if j >= len(s.Mean) {
			out[j] = v
			continue
		}
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll returns scaled copies of every row
func (s *StandardScaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}

// Scaled wraps a regressor so that raw rows are scaled before fitting and predicting
type Scaled struct {
	Scaler StandardScaler
	Model  Regressor
}

// NewScaled wraps model with its own scaler
func NewScaled(model Regressor) *Scaled {
	return &Scaled{Model: model}
}

// Fit learns the scaler then the model on the scaled rows
func (s *Scaled) Fit(X [][]float64, y []float64) error {
	if err := validate(X, y); err != nil {
		return err
	}
	if err := s.Scaler.Fit(X); err != nil {
		return err
	}
	return s.Model.Fit(s.Scaler.TransformAll(X), y)
}

// Predict scales x and delegates
func (s *Scaled) Predict(x []float64) float64 {
	return s.Model.Predict(s.Scaler.Transform(x))
}

// FeatureImportances forwards to the wrapped model when it exposes importances
func (s *Scaled) FeatureImportances() []float64 {
	if fi, ok := s.Model.(FeatureImportancer); ok {
		return fi.FeatureImportances()
	}
	return nil
}
