package ml

import (
	"math/rand/v2"
)

// TreeParams controls how a regression tree grows
type TreeParams struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures is the number of features examined per split; 0 means all.
	MaxFeatures int
	MaxBins     int
}

func (p TreeParams) withDefaults() TreeParams {
	if p.MaxDepth <= 0 {
		p.MaxDepth = 6
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MaxBins <= 0 {
		p.MaxBins = defaultMaxBins
	}
	return p
}

type treeNode struct {
	feature   int
	bin       uint8
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// RegressionTree is a CART tree minimizing squared error
type RegressionTree struct {
	Params      TreeParams
	nodes       []treeNode
	importances []float64
	seed        uint64
}

// NewRegressionTree creates an unfitted tree
func NewRegressionTree(params TreeParams, seed uint64) *RegressionTree {
	return &RegressionTree{Params: params.withDefaults(), seed: seed}
}

// Fit grows the tree on raw feature rows
func (t *RegressionTree) Fit(X [][]float64, y []float64) error {
	if err := validate(X, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(t.seed, t.seed^0x9e3779b97f4a7c15))
	data := newBinnedData(X, t.Params.MaxBins, rng)
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.fitBinned(data, idx, y, rng)
	return nil
}

// fitBinned grows the tree over the rows listed in idx; idx may repeat rows.
func (t *RegressionTree) fitBinned(data *binnedData, idx []int, y []float64, rng *rand.Rand) {
	t.Params = t.Params.withDefaults()
	t.nodes = t.nodes[:0]
	t.importances = make([]float64, len(data.bins))
	b := &treeBuilder{
		tree:  t,
		data:  data,
		y:     y,
		rng:   rng,
		feats: make([]int, len(data.bins)),
	}
	for i := range b.feats {
		b.feats[i] = i
	}
	b.grow(idx, 0)
}

// Predict walks the tree for a raw feature row
func (t *RegressionTree) Predict(x []float64) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	n := 0
	for !t.nodes[n].leaf {
		node := t.nodes[n]
		if x[node.feature] <= node.threshold {
			n = node.left
		} else {
			n = node.right
		}
	}
	return t.nodes[n].value
}

func (t *RegressionTree) predictBinned(data *binnedData, row int) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	n := 0
	for !t.nodes[n].leaf {
		node := t.nodes[n]
		if data.bins[node.feature][row] <= node.bin {
			n = node.left
		} else {
			n = node.right
		}
	}
	return t.nodes[n].value
}

// FeatureImportances returns the unnormalized squared-error reduction per feature
func (t *RegressionTree) FeatureImportances() []float64 {
	out := make([]float64, len(t.importances))
	copy(out, t.importances)
	return out
}

// Depth returns the number of levels below the root
func (t *RegressionTree) Depth() int {
	var walk func(n, d int) int
	walk = func(n, d int) int {
		if t.nodes[n].leaf {
			return d
		}
		return max(walk(t.nodes[n].left, d+1), walk(t.nodes[n].right, d+1))
	}
	if len(t.nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}

type treeBuilder struct {
	tree  *RegressionTree
	data  *binnedData
	y     []float64
	rng   *rand.Rand
	feats []int
	sum   [256]float64
	cnt   [256]int
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	n := float64(len(idx))
	nodeID := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, treeNode{leaf: true, value: sum / n})

	p := b.tree.Params
	if depth >= p.MaxDepth || len(idx) < p.MinSamplesSplit || len(idx) < 2*p.MinSamplesLeaf {
		return nodeID
	}

	feature, bin, gain, ok := b.bestSplit(idx, sum)
	if !ok || gain <= 1e-12 {
		return nodeID
	}

	column := b.data.bins[feature]
	left := make([]int, 0, len(idx)/2)
	right := make([]int, 0, len(idx)/2)
	for _, i := range idx {
		if column[i] <= bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.tree.importances[feature] += gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.nodes[nodeID] = treeNode{
		feature:   feature,
		bin:       bin,
		threshold: b.data.edges[feature][bin],
		left:      l,
		right:     r,
		value:     sum / n,
	}
	return nodeID
}

func (b *treeBuilder) candidateFeatures() []int {
	k := b.tree.Params.MaxFeatures
	if k <= 0 || k >= len(b.feats) {
		return b.feats
	}
	b.rng.Shuffle(len(b.feats), func(i, j int) { b.feats[i], b.feats[j] = b.feats[j], b.feats[i] })
	return b.feats[:k]
}

// bestSplit scans bin histograms and returns the split with the largest
// squared-error reduction.
func (b *treeBuilder) bestSplit(idx []int, total float64) (feature int, bin uint8, gain float64, ok bool) {
	n := len(idx)
	minLeaf := b.tree.Params.MinSamplesLeaf
	parent := total * total / float64(n)
	gain = 0

	for _, f := range b.candidateFeatures() {
		edges := b.data.edges[f]
		if len(edges) == 0 {
			continue
		}
		nb := len(edges) + 1
		for k := 0; k < nb; k++ {
			b.sum[k] = 0
			b.cnt[k] = 0
		}
		column := b.data.bins[f]
		for _, i := range idx {
			c := column[i]
			b.sum[c] += b.y[i]
			b.cnt[c]++
		}

		var sumL float64
		var cntL int
		for k := 0; k < nb-1; k++ {
			sumL += b.sum[k]
			cntL += b.cnt[k]
			cntR := n - cntL
			if cntL < minLeaf {
				continue
			}
			if cntR < minLeaf {
				break
			}
			sumR := total - sumL
			g := sumL*sumL/float64(cntL) + sumR*sumR/float64(cntR) - parent
			if g > gain {
				gain = g
				feature = f
				bin = uint8(k)
				ok = true
			}
		}
	}
	return feature, bin, gain, ok
}
