package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// linearData returns y = 3a - 2b + 5 with a small amount of noise
func linearData(n int, seed uint64) ([][]float64, []float64) {
	rng := NewRand(seed)
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a := Uniform(rng, -5, 5)
		b := Uniform(rng, 0, 10)
		X[i] = []float64{a, b}
		y[i] = 3*a - 2*b + 5 + Normal(rng, 0, 0.01)
	}
	return X, y
}

// stepData has a target driven only by the first feature
func stepData(n int, seed uint64) ([][]float64, []float64) {
	rng := NewRand(seed)
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a := Uniform(rng, 0, 10)
		noise := Uniform(rng, 0, 10)
		X[i] = []float64{a, noise}
		switch {
		case a < 3:
			y[i] = 1
		case a < 7:
			y[i] = 5
		default:
			y[i] = 10
		}
	}
	return X, y
}

func TestLinearRegression_RecoversCoefficients(t *testing.T) {
	X, y := linearData(500, 1)
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))

	assert.InDelta(t, 3.0, m.Coefficients[0], 0.01)
	assert.InDelta(t, -2.0, m.Coefficients[1], 0.01)
	assert.InDelta(t, 5.0, m.Intercept, 0.05)
	assert.InDelta(t, 3*1-2*2+5.0, m.Predict([]float64{1, 2}), 0.05)
}

func TestLinearRegression_CollinearColumns(t *testing.T) {
	X := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	y := []float64{2, 4, 6, 8}
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, 10.0, m.Predict([]float64{5, 10}), 0.01)
}

func TestRegressor_EmptyInput(t *testing.T) {
	models := []Regressor{
		NewLinearRegression(),
		NewRegressionTree(TreeParams{}, 1),
		NewRandomForest(ForestParams{Trees: 2}, 1),
		NewGradientBoosting(BoostingParams{Estimators: 2}, 1),
	}
	for _, m := range models {
		assert.ErrorIs(t, m.Fit(nil, nil), ErrEmptyDataset)
		assert.ErrorIs(t, m.Fit([][]float64{{1}}, []float64{1, 2}), ErrShapeMismatch)
	}
}

func TestRegressionTree_LearnsSteps(t *testing.T) {
	X, y := stepData(600, 2)
	tree := NewRegressionTree(TreeParams{MaxDepth: 3}, 2)
	require.NoError(t, tree.Fit(X, y))

	assert.InDelta(t, 1.0, tree.Predict([]float64{1, 5}), 0.5)
	assert.InDelta(t, 5.0, tree.Predict([]float64{5, 5}), 0.5)
	assert.InDelta(t, 10.0, tree.Predict([]float64{9, 5}), 0.5)
	assert.LessOrEqual(t, tree.Depth(), 3)

	imp := tree.FeatureImportances()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1])
}

func TestRegressionTree_ConstantTargetIsSingleLeaf(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{7, 7, 7, 7}
	tree := NewRegressionTree(TreeParams{}, 1)
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, 7.0, tree.Predict([]float64{100}))
}

func TestRandomForest_FitsNonLinearTarget(t *testing.T) {
	X, y := stepData(800, 3)
	split, err := TrainTestSplit(X, y, 0.2, NewRand(3))
	require.NoError(t, err)

	forest := NewRandomForest(ForestParams{Trees: 20, Tree: TreeParams{MaxDepth: 6, MaxFeatures: 2}, Workers: 4}, 3)
	require.NoError(t, forest.Fit(split.XTrain, split.YTrain))

	m := Evaluate(forest, split)
	assert.Greater(t, m.TestR2, 0.8)
	imp := forest.FeatureImportances()
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := stepData(200, 4)
	a := NewRandomForest(ForestParams{Trees: 5, Workers: 3}, 42)
	b := NewRandomForest(ForestParams{Trees: 5, Workers: 1}, 42)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.Predict([]float64{4, 4}), b.Predict([]float64{4, 4}))
}

func TestGradientBoosting_BeatsBaseline(t *testing.T) {
	X, y := stepData(800, 5)
	split, err := TrainTestSplit(X, y, 0.2, NewRand(5))
	require.NoError(t, err)

	gb := NewGradientBoosting(BoostingParams{Estimators: 50, LearningRate: 0.1, Subsample: 0.8, Tree: TreeParams{MaxDepth: 3}}, 5)
	require.NoError(t, gb.Fit(split.XTrain, split.YTrain))

	m := Evaluate(gb, split)
	assert.Greater(t, m.TestR2, 0.9)
	assert.Less(t, m.TestMSE, 1.0)
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	var s StandardScaler
	require.NoError(t, s.Fit(X))

	row := s.Transform([]float64{2, 10})
	assert.InDelta(t, 0.0, row[0], 1e-9)
	assert.InDelta(t, 0.0, row[1], 1e-9)
	assert.Equal(t, 1.0, s.Std[1])
}

func TestTrainTestSplit(t *testing.T) {
	X, y := linearData(100, 6)
	split, err := TrainTestSplit(X, y, 0.2, NewRand(6))
	require.NoError(t, err)
	assert.Len(t, split.XTest, 20)
	assert.Len(t, split.XTrain, 80)
	assert.Len(t, split.YTrain, 80)

	tiny, err := TrainTestSplit([][]float64{{1}}, []float64{1}, 0.5, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, tiny.XTrain, 1)
}

func TestMetrics(t *testing.T) {
	actual := []float64{1, 2, 3}
	assert.Equal(t, 1.0, R2(actual, actual))
	assert.Equal(t, 0.0, MSE(actual, actual))
	assert.InDelta(t, 1.0, MAE(actual, []float64{2, 3, 4}), 1e-9)
	assert.Equal(t, 1.0, R2([]float64{2, 2}, []float64{2, 2}))
	assert.Equal(t, 0.0, R2([]float64{2, 2}, []float64{1, 3}))
}

func TestEnsemble_WeightsAndSpread(t *testing.T) {
	X, y := linearData(400, 7)
	split, err := TrainTestSplit(X, y, 0.2, NewRand(7))
	require.NoError(t, err)

	e := NewEnsemble()
	e.Add("linear", NewLinearRegression())
	e.Add("tree", NewRegressionTree(TreeParams{MaxDepth: 2}, 7))
	require.NoError(t, e.Fit(split))

	w := e.Weights()
	assert.InDelta(t, 1.0, w["linear"]+w["tree"], 1e-9)
	assert.Greater(t, w["linear"], w["tree"])

	pred, spread := e.Predict([]float64{1, 2})
	assert.InDelta(t, 4.0, pred, 5.0)
	assert.GreaterOrEqual(t, spread, 0.0)
	assert.Len(t, e.Individual([]float64{1, 2}), 2)
	assert.Greater(t, e.Evaluate(split).TestR2, 0.5)
}

func TestEnsemble_NoMembers(t *testing.T) {
	assert.Error(t, NewEnsemble().Fit(Split{}))
}

func TestSampling(t *testing.T) {
	rng := NewRand(9)
	var sum float64
	for i := 0; i < 5000; i++ {
		v := Beta(rng, 2, 5)
		require.True(t, v >= 0 && v <= 1)
		sum += v
	}
	assert.InDelta(t, 2.0/7.0, sum/5000, 0.02)

	var count int
	for i := 0; i < 5000; i++ {
		count += Poisson(rng, 0.1)
	}
	assert.InDelta(t, 0.1, float64(count)/5000, 0.03)
	assert.Equal(t, 0, Poisson(rng, 0))
	assert.Equal(t, 1.0, Clip(3, 0, 1))

	normals := make([]float64, 5000)
	var hits int
	for i := range normals {
		normals[i] = Normal(rng, 22, 2)
		if Bernoulli(rng, 0.05) {
			hits++
		}
		u := Uniform(rng, 1.5, 3)
		require.True(t, u >= 1.5 && u < 3)
	}
	mean, std := stat.MeanStdDev(normals, nil)
	assert.InDelta(t, 22, mean, 0.1)
	assert.InDelta(t, 2, std, 0.1)
	assert.InDelta(t, 0.05, float64(hits)/5000, 0.015)
}

func TestSampling_Exponential(t *testing.T) {
	rng := NewRand(3)
	draws := make([]float64, 5000)
	for i := range draws {
		draws[i] = Exponential(rng, 0.5)
		require.GreaterOrEqual(t, draws[i], 0.0)
	}
	assert.InDelta(t, 2, stat.Mean(draws, nil), 0.15)
}

func TestSampling_SeededDrawsRepeat(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, Normal(a, 0, 1), Normal(b, 0, 1))
		assert.Equal(t, Beta(a, 2, 3), Beta(b, 2, 3))
		assert.Equal(t, Poisson(a, 0.5), Poisson(b, 0.5))
	}
}
