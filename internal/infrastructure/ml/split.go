package ml

import "math/rand/v2"

// Split holds a shuffled train/test partition
type Split struct {
	XTrain [][]float64
	YTrain []float64
	XTest  [][]float64
	YTest  []float64
}

// TrainTestSplit shuffles rows and holds out testFraction of them.
// At least one row stays in the training set.
func TrainTestSplit(X [][]float64, y []float64, testFraction float64, rng *rand.Rand) (Split, error) {
	if err := validate(X, y); err != nil {
		return Split{}, err
	}
	n := len(X)
	perm := rng.Perm(n)
	nTest := int(float64(n) * testFraction)
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	s := Split{
		XTrain: make([][]float64, 0, n-nTest),
		YTrain: make([]float64, 0, n-nTest),
		XTest:  make([][]float64, 0, nTest),
		YTest:  make([]float64, 0, nTest),
	}
	for i, p := range perm {
		if i < nTest {
			s.XTest = append(s.XTest, X[p])
			s.YTest = append(s.YTest, y[p])
			continue
		}
		s.XTrain = append(s.XTrain, X[p])
		s.YTrain = append(s.YTrain, y[p])
	}
	return s, nil
}
