package ml

import (
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
)

// ForestParams configures a random forest
type ForestParams struct {
	Trees int
	Tree  TreeParams
	// Workers bounds how many trees are grown concurrently; 0 uses GOMAXPROCS.
	Workers int
}

// RandomForest averages bootstrapped regression trees
type RandomForest struct {
	Params ForestParams
	trees  []*RegressionTree
	seed   uint64
}

// NewRandomForest creates an unfitted forest. When Tree.MaxFeatures is zero,
// each split considers √features candidates.
func NewRandomForest(params ForestParams, seed uint64) *RandomForest {
	if params.Trees <= 0 {
		params.Trees = 100
	}
	params.Tree = params.Tree.withDefaults()
	return &RandomForest{Params: params, seed: seed}
}

// Fit grows every tree on its own bootstrap sample
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if err := validate(X, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(f.seed, f.seed+1))
	data := newBinnedData(X, f.Params.Tree.MaxBins, rng)

	treeParams := f.Params.Tree
	if treeParams.MaxFeatures == 0 {
		treeParams.MaxFeatures = max(1, int(math.Sqrt(float64(len(X[0])))))
	}

	seeds := make([]uint64, f.Params.Trees)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	workers := f.Params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	f.trees = make([]*RegressionTree, f.Params.Trees)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range f.trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			treeRng := rand.New(rand.NewPCG(seeds[i], seeds[i]>>1))
			boot := make([]int, len(y))
			for k := range boot {
				boot[k] = treeRng.IntN(len(y))
			}
			tree := &RegressionTree{Params: treeParams}
			tree.fitBinned(data, boot, y, treeRng)
			f.trees[i] = tree
		}(i)
	}
	wg.Wait()
	return nil
}

// Predict averages the tree outputs
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees))
}

// FeatureImportances returns normalized importances averaged over trees
func (f *RandomForest) FeatureImportances() []float64 {
	return averageImportances(f.trees)
}

func averageImportances(trees []*RegressionTree) []float64 {
	if len(trees) == 0 {
		return nil
	}
	out := make([]float64, len(trees[0].importances))
	for _, t := range trees {
		for j, v := range t.importances {
			out[j] += v
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}
