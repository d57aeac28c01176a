package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/celldb/sample"
)

// RNG wraps a seeded math/rand source. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// SparseSamples generates n samples with ids "cell-0000", "cell-0001", ...
//
// Each feature is measured with probability density. A measured value is an
// explicit 0.0 with probability zeroFraction and a positive count-like value
// otherwise. Entries are emitted in shuffled index order so tests also cover
// non-ascending storage order.
func (r *RNG) SparseSamples(n, dimension int, density, zeroFraction float64) []*sample.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*sample.Sample, n)
	for i := range out {
		var (
			indices []int32
			values  []float64
		)
		for j := range dimension {
			if r.rand.Float64() >= density {
				continue
			}
			indices = append(indices, int32(j)) //nolint:gosec
			if r.rand.Float64() < zeroFraction {
				values = append(values, 0)
			} else {
				values = append(values, float64(1+r.rand.Intn(50))+r.rand.Float64())
			}
		}
		r.rand.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
			values[a], values[b] = values[b], values[a]
		})
		out[i] = sample.MustNew(fmt.Sprintf("cell-%04d", i), dimension, indices, values)
	}
	return out
}

// LowRankSamples generates n fully measured samples lying near a rank-k
// subspace: x = Σ z_j·basis_j + noise·ε with z, ε standard normal.
func (r *RNG) LowRankSamples(n, dimension, k int, noise float64) []*sample.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	basis := make([][]float64, k)
	for j := range basis {
		basis[j] = make([]float64, dimension)
		for d := range basis[j] {
			basis[j][d] = r.rand.NormFloat64() * float64(k-j)
		}
	}

	indices := make([]int32, dimension)
	for d := range indices {
		indices[d] = int32(d) //nolint:gosec
	}

	out := make([]*sample.Sample, n)
	for i := range out {
		values := make([]float64, dimension)
		for j := range basis {
			z := r.rand.NormFloat64()
			for d := range values {
				values[d] += z * basis[j][d]
			}
		}
		for d := range values {
			values[d] += noise * r.rand.NormFloat64()
		}
		out[i] = sample.MustNew(fmt.Sprintf("cell-%04d", i), dimension, indices, values)
	}
	return out
}

// ScenarioDimension is the dimension of ScenarioSamples.
const ScenarioDimension = 5

// ScenarioSamples returns three samples over five features:
//
//	s1: {1: 1.0, 2: 0.0, 3: 7.0}
//	s2: {0: 2.0, 2: 3.0, 3: 4.0, 4: 5.0}
//	s3: {0: 4.0, 1: 0.0, 4: 9.0}
//
// s1 holds an explicit zero at 2; s3 holds one at 1 and misses 2.
func ScenarioSamples() []*sample.Sample {
	return []*sample.Sample{
		sample.MustNew("s1", ScenarioDimension, []int32{1, 2, 3}, []float64{1.0, 0.0, 7.0}),
		sample.MustNew("s2", ScenarioDimension, []int32{0, 2, 3, 4}, []float64{2.0, 3.0, 4.0, 5.0}),
		sample.MustNew("s3", ScenarioDimension, []int32{0, 1, 4}, []float64{4.0, 0.0, 9.0}),
	}
}
