// Package query answers analytic questions over a collection of samples that
// share one dimension. All functions are stateless and synchronous.
//
// Missing entries are never counted as zeros: measurement counts include
// explicit zeros, and TrueZerosPerSample counts only explicit 0.0 values.
package query

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/store"
)

var (
	// ErrEmptyDataset is returned when a statistic needs at least one sample.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrDimensionMismatch is returned when samples disagree on dimension.
	ErrDimensionMismatch = store.ErrDimensionMismatch
)

// dimension returns the common dimension of samples, 0 for an empty slice.
func dimension(samples []*sample.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	dim := samples[0].Dimension()
	for _, s := range samples[1:] {
		if s.Dimension() != dim {
			return 0, fmt.Errorf("sample %q: %w", s.ID(), &store.DimensionMismatchError{Expected: dim, Actual: s.Dimension()})
		}
	}
	return dim, nil
}

// MeasurementsPerSample returns, per sample id, the number of explicit
// entries (explicit zeros included).
func MeasurementsPerSample(samples []*sample.Sample) map[string]int {
	out := make(map[string]int, len(samples))
	for _, s := range samples {
		out[s.ID()] = s.NumActive()
	}
	return out
}

// DatasetSparsity returns mean(NumActive) / dimension, a value in [0, 1].
func DatasetSparsity(samples []*sample.Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyDataset
	}
	dim, err := dimension(samples)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, s := range samples {
		total += s.NumActive()
	}
	return float64(total) / float64(len(samples)) / float64(dim), nil
}

// TrueZerosPerSample returns, per sample id, the number of explicit entries
// whose value is exactly 0.0.
func TrueZerosPerSample(samples []*sample.Sample) map[string]int {
	out := make(map[string]int, len(samples))
	for _, s := range samples {
		out[s.ID()] = s.TrueZeros()
	}
	return out
}

// ProjectFeatures returns, per sample id, the values at featureIndices in
// request order. Missing features become 0.0 (see sample.DenseProjection).
func ProjectFeatures(featureIndices []int, samples []*sample.Sample) (map[string][]float64, error) {
	if _, err := dimension(samples); err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(samples))
	for _, s := range samples {
		row, err := s.DenseProjection(featureIndices)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", s.ID(), err)
		}
		out[s.ID()] = row
	}
	return out, nil
}

// FeatureMeans returns the mean of every feature over the samples that
// measured it, plus the per-feature measurement counts. Missing entries are
// excluded, so a feature nobody measured has mean NaN and count 0.
func FeatureMeans(samples []*sample.Sample) ([]float64, []int, error) {
	if len(samples) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	dim, err := dimension(samples)
	if err != nil {
		return nil, nil, err
	}

	sums := make([]float64, dim)
	counts := make([]int, dim)
	for _, s := range samples {
		for _, e := range s.Entries() {
			sums[e.Index] += e.Value
			counts[e.Index]++
		}
	}

	for i := range sums {
		if counts[i] == 0 {
			sums[i] = math.NaN()
			continue
		}
		sums[i] /= float64(counts[i])
	}
	return sums, counts, nil
}

// Summary aggregates dataset-level counts.
type Summary struct {
	Samples   int     `json:"samples"`
	Dimension int     `json:"dimension"`
	Entries   int     `json:"entries"`
	TrueZeros int     `json:"true_zeros"`
	Missing   int     `json:"missing"`
	Sparsity  float64 `json:"sparsity"`
}

// Summarize computes a Summary.
func Summarize(samples []*sample.Sample) (Summary, error) {
	sparsity, err := DatasetSparsity(samples)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Samples:   len(samples),
		Dimension: samples[0].Dimension(),
		Sparsity:  sparsity,
	}
	for _, s := range samples {
		sum.Entries += s.NumActive()
		sum.TrueZeros += s.TrueZeros()
	}
	sum.Missing = sum.Samples*sum.Dimension - sum.Entries
	return sum, nil
}
