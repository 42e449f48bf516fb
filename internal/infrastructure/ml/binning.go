package ml

import (
	"math/rand/v2"
	"slices"
	"sort"
)

const (
	defaultMaxBins = 64
	binSampleLimit = 20000
)

// binnedData is a column-major, quantized copy of a feature matrix.
// Trees search splits over bin boundaries instead of every distinct value.
type binnedData struct {
	// edges[f] holds ascending thresholds; bin b of feature f covers values
	// in (edges[f][b-1], edges[f][b]].
	edges [][]float64
	bins  [][]uint8
	rows  int
}

func newBinnedData(X [][]float64, maxBins int, rng *rand.Rand) *binnedData {
	if maxBins <= 1 || maxBins > 256 {
		maxBins = defaultMaxBins
	}
	rows, cols := len(X), len(X[0])
	d := &binnedData{
		edges: make([][]float64, cols),
		bins:  make([][]uint8, cols),
		rows:  rows,
	}

	sampleIdx := make([]int, 0, min(rows, binSampleLimit))
	if rows <= binSampleLimit {
		for i := 0; i < rows; i++ {
			sampleIdx = append(sampleIdx, i)
		}
	} else {
		for i := 0; i < binSampleLimit; i++ {
			sampleIdx = append(sampleIdx, rng.IntN(rows))
		}
	}

	values := make([]float64, len(sampleIdx))
	for f := 0; f < cols; f++ {
		for k, i := range sampleIdx {
			values[k] = X[i][f]
		}
		slices.Sort(values)
		d.edges[f] = quantileEdges(values, maxBins)

		column := make([]uint8, rows)
		for i := 0; i < rows; i++ {
			column[i] = uint8(sort.SearchFloat64s(d.edges[f], X[i][f]))
		}
		d.bins[f] = column
	}
	return d
}

// quantileEdges picks at most maxBins-1 distinct cut points from sorted values.
// The maximum value is never a cut point since nothing could fall to its right.
func quantileEdges(sorted []float64, maxBins int) []float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	last := sorted[n-1]
	edges := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		v := sorted[k*(n-1)/maxBins]
		if v >= last {
			break
		}
		if len(edges) > 0 && v <= edges[len(edges)-1] {
			continue
		}
		edges = append(edges, v)
	}
	if len(edges) == 0 && sorted[0] < last {
		edges = append(edges, sorted[0])
	}
	return edges
}
