package ml

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normal draws from N(mu, sigma²)
func Normal(rng *rand.Rand, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: rng}.Rand()
}

// Uniform draws from [lo, hi)
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: rng}.Rand()
}

// Bernoulli returns true with probability p
func Bernoulli(rng *rand.Rand, p float64) bool {
	return distuv.Bernoulli{P: p, Src: rng}.Rand() == 1
}

// Poisson draws a count with mean lambda; non-positive rates yield 0
func Poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
}

// Exponential draws from Exp(rate); the mean is 1/rate
func Exponential(rng *rand.Rand, rate float64) float64 {
	return distuv.Exponential{Rate: rate, Src: rng}.Rand()
}

// Beta draws from Beta(a, b)
func Beta(rng *rand.Rand, a, b float64) float64 {
	return distuv.Beta{Alpha: a, Beta: b, Src: rng}.Rand()
}

// Clip bounds v to [lo, hi]
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// NewRand returns a deterministic generator for seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
}
