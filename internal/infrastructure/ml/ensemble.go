package ml

import (
	"fmt"
	"math"
)

// Member is one named model in an ensemble together with its hold-out metrics
type Member struct {
	Name    string
	Model   Regressor
	Metrics Metrics
	Weight  float64
}

// Ensemble combines independently trained regressors by weighted average
type Ensemble struct {
	Members []*Member
}

// NewEnsemble creates an empty ensemble
func NewEnsemble() *Ensemble {
	return &Ensemble{}
}

// Add registers a model under name
func (e *Ensemble) Add(name string, model Regressor) {
	e.Members = append(e.Members, &Member{Name: name, Model: model})
}

// Fit trains every member on the split's training rows, scores it on the
// held-out rows and derives weights from max(0.1, test R²).
func (e *Ensemble) Fit(split Split) error {
	if len(e.Members) == 0 {
		return fmt.Errorf("ml: ensemble has no members")
	}
	var total float64
	for _, m := range e.Members {
		if err := m.Model.Fit(split.XTrain, split.YTrain); err != nil {
			return fmt.Errorf("ml: fit %s: %w", m.Name, err)
		}
		m.Metrics = Evaluate(m.Model, split)
		m.Weight = math.Max(0.1, m.Metrics.TestR2)
		total += m.Weight
	}
	for _, m := range e.Members {
		m.Weight /= total
	}
	return nil
}

// Weights returns the normalized weight per member name
func (e *Ensemble) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.Members))
	for _, m := range e.Members {
		out[m.Name] = m.Weight
	}
	return out
}

// Individual returns each member's raw prediction
func (e *Ensemble) Individual(x []float64) map[string]float64 {
	out := make(map[string]float64, len(e.Members))
	for _, m := range e.Members {
		out[m.Name] = m.Model.Predict(x)
	}
	return out
}

// Predict returns the weighted prediction and the population standard
// deviation of the member predictions.
func (e *Ensemble) Predict(x []float64) (prediction, spread float64) {
	if len(e.Members) == 0 {
		return 0, 0
	}
	preds := make([]float64, len(e.Members))
	var mean float64
	for i, m := range e.Members {
		preds[i] = m.Model.Predict(x)
		prediction += m.Weight * preds[i]
		mean += preds[i]
	}
	mean /= float64(len(preds))
	var variance float64
	for _, p := range preds {
		variance += (p - mean) * (p - mean)
	}
	spread = math.Sqrt(variance / float64(len(preds)))
	return prediction, spread
}

// Evaluate scores the combined prediction on a split
func (e *Ensemble) Evaluate(split Split) Metrics {
	combined := regressorFunc(func(x []float64) float64 {
		p, _ := e.Predict(x)
		return p
	})
	return Evaluate(combined, split)
}

type regressorFunc func(x []float64) float64

func (f regressorFunc) Fit([][]float64, []float64) error { return nil }
func (f regressorFunc) Predict(x []float64) float64      { return f(x) }
