package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSamples(t *testing.T) {
	rng := NewRNG(4711)

	samples := rng.SparseSamples(50, 40, 0.3, 0.2)
	require.Len(t, samples, 50)

	active, zeros := 0, 0
	for _, s := range samples {
		assert.Equal(t, 40, s.Dimension())
		active += s.NumActive()
		zeros += s.TrueZeros()
	}
	assert.InDelta(t, 0.3, float64(active)/float64(50*40), 0.05)
	assert.Positive(t, zeros)
}

func TestSparseSamples_Deterministic(t *testing.T) {
	a := NewRNG(1).SparseSamples(5, 10, 0.5, 0.1)

	rng := NewRNG(2)
	_ = rng.SparseSamples(5, 10, 0.5, 0.1)
	rng2 := NewRNG(1)
	b := rng2.SparseSamples(5, 10, 0.5, 0.1)

	for i := range a {
		assert.True(t, a[i].Equal(b[i]))
	}
}

func TestLowRankSamples(t *testing.T) {
	samples := NewRNG(4711).LowRankSamples(10, 6, 2, 0.01)
	require.Len(t, samples, 10)
	for _, s := range samples {
		assert.Equal(t, 6, s.NumActive())
	}
}

func TestScenarioSamples(t *testing.T) {
	samples := ScenarioSamples()
	require.Len(t, samples, 3)
	assert.Equal(t, []int{3, 4, 3}, []int{samples[0].NumActive(), samples[1].NumActive(), samples[2].NumActive()})
}
