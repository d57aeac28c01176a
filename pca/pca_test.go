package pca

import (
	"math"
	"testing"

	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestComputePrincipalComponents_InvalidRank(t *testing.T) {
	samples := testutil.ScenarioSamples()

	for _, k := range []int{0, -1, 6} {
		_, err := ComputePrincipalComponents(samples, k)
		assert.ErrorIs(t, err, ErrInvalidRank, "k=%d", k)
	}

	_, err := ComputePrincipalComponents(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestComputePrincipalComponents_DimensionMismatch(t *testing.T) {
	samples := append(testutil.ScenarioSamples(), sample.MustNew("x", 6, nil, nil))
	_, err := ComputePrincipalComponents(samples, 2)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestComputePrincipalComponents_Orthonormal(t *testing.T) {
	samples := testutil.NewRNG(4711).SparseSamples(80, 12, 0.4, 0.1)

	c, err := ComputePrincipalComponents(samples, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Dimension())
	assert.Equal(t, 5, c.K())

	w := c.Matrix()
	var gram mat.Dense
	gram.Mul(w.T(), w)
	assert.True(t, mat.EqualApprox(&gram, eye(5), 1e-9), "components must be orthonormal:\n%v", mat.Formatted(&gram))

	values := c.Eigenvalues()
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i-1], values[i])
	}

	total := 0.0
	for _, r := range c.ExplainedVarianceRatio() {
		total += r
	}
	assert.LessOrEqual(t, total, 1+1e-9)
}

func TestComputePrincipalComponents_Deterministic(t *testing.T) {
	samples := testutil.NewRNG(1).SparseSamples(40, 8, 0.5, 0.1)

	a, err := ComputePrincipalComponents(samples, 3)
	require.NoError(t, err)
	b, err := ComputePrincipalComponents(samples, 3)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.Matrix(), b.Matrix()))
	assert.Equal(t, a.Eigenvalues(), b.Eigenvalues())
}

func TestComputePrincipalComponents_DominantDirection(t *testing.T) {
	// Points spread along (1, 1, 0) with a little spread along (1, -1, 0).
	var samples []*sample.Sample
	for i := range 21 {
		x := float64(i - 10)
		e := 0.01 * float64(i%3-1)
		samples = append(samples, sample.MustNew(
			string(rune('a'+i)), 3,
			[]int32{0, 1, 2},
			[]float64{x + e, x - e, 0},
		))
	}

	c, err := ComputePrincipalComponents(samples, 1)
	require.NoError(t, err)

	first := c.Component(0)
	assert.InDelta(t, math.Sqrt2/2, first[0], 1e-3)
	assert.InDelta(t, math.Sqrt2/2, first[1], 1e-3)
	assert.InDelta(t, 0, first[2], 1e-9)
	assert.InDelta(t, 1, c.ExplainedVarianceRatio()[0], 1e-4)
}

func TestComputePrincipalComponents_SignNormalized(t *testing.T) {
	c, err := ComputePrincipalComponents(testutil.NewRNG(9).SparseSamples(30, 6, 0.6, 0), 6)
	require.NoError(t, err)

	for j := range c.K() {
		v := c.Component(j)
		best := 0
		for i := range v {
			if math.Abs(v[i]) > math.Abs(v[best]) {
				best = i
			}
		}
		assert.Positive(t, v[best], "component %d", j)
	}
}

func TestComputePrincipalComponents_SingleSample(t *testing.T) {
	c, err := ComputePrincipalComponents(testutil.ScenarioSamples()[:1], 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, c.Eigenvalues())
	assert.Equal(t, []float64{0, 0}, c.ExplainedVarianceRatio())
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}
