package ml

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// BoostingParams configures gradient boosting
type BoostingParams struct {
	Estimators   int
	LearningRate float64
	// Subsample is the fraction of rows drawn without replacement per stage.
	Subsample float64
	Tree      TreeParams
}

// GradientBoosting fits shallow trees to the residuals of the running prediction
type GradientBoosting struct {
	Params BoostingParams
	init   float64
	trees  []*RegressionTree
	seed   uint64
}

// NewGradientBoosting creates an unfitted squared-loss booster
func NewGradientBoosting(params BoostingParams, seed uint64) *GradientBoosting {
	if params.Estimators <= 0 {
		params.Estimators = 100
	}
	if params.LearningRate <= 0 {
		params.LearningRate = 0.1
	}
	if params.Subsample <= 0 || params.Subsample > 1 {
		params.Subsample = 1
	}
	params.Tree = params.Tree.withDefaults()
	return &GradientBoosting{Params: params, seed: seed}
}

// Fit runs the boosting stages
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if err := validate(X, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(g.seed, g.seed+7))
	data := newBinnedData(X, g.Params.Tree.MaxBins, rng)
	n := len(y)

	g.init = stat.Mean(y, nil)
	current := make([]float64, n)
	for i := range current {
		current[i] = g.init
	}
	residual := make([]float64, n)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	sampleSize := max(1, int(float64(n)*g.Params.Subsample))

	g.trees = make([]*RegressionTree, 0, g.Params.Estimators)
	for stage := 0; stage < g.Params.Estimators; stage++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		idx := rows
		if sampleSize < n {
			rng.Shuffle(n, func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
			idx = append([]int(nil), rows[:sampleSize]...)
		}

		tree := &RegressionTree{Params: g.Params.Tree}
		tree.fitBinned(data, idx, residual, rng)
		g.trees = append(g.trees, tree)

		for i := range current {
			current[i] += g.Params.LearningRate * tree.predictBinned(data, i)
		}
	}
	return nil
}

// Predict sums the initial estimate and the shrunken tree outputs
func (g *GradientBoosting) Predict(x []float64) float64 {
	out := g.init
	for _, t := range g.trees {
		out += g.Params.LearningRate * t.Predict(x)
	}
	return out
}

// FeatureImportances returns normalized importances across stages
func (g *GradientBoosting) FeatureImportances() []float64 {
	return averageImportances(g.trees)
}
