// Package pca computes principal components of a sample collection and
// projects samples onto them.
//
// Samples are densified first (missing features become 0.0). That conversion
// is lossy: a missing value and an explicit zero give the same row.
// Components come from the mean-centred covariance matrix; Project multiplies
// the raw dense rows without centring.
package pca

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/store"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidRank is returned when k < 1, k > dimension, or there are no
	// samples to decompose.
	ErrInvalidRank = errors.New("invalid rank")

	// ErrDuplicateID is returned when the projection input repeats a sample id.
	ErrDuplicateID = errors.New("duplicate sample id")

	// ErrDimensionMismatch is returned when samples disagree on dimension.
	ErrDimensionMismatch = store.ErrDimensionMismatch

	// ErrFactorization is returned when the eigen-decomposition does not converge.
	ErrFactorization = errors.New("eigen-decomposition failed")
)

// Components holds the top-k principal components as a dimension × k matrix.
type Components struct {
	vectors  *mat.Dense
	values   []float64
	variance float64
}

// ComputePrincipalComponents returns the k eigenvectors of the covariance
// matrix with the largest eigenvalues, ordered by descending eigenvalue.
//
// Every component's sign is fixed so that its largest-magnitude coordinate is
// positive, which makes the result deterministic for a given input.
func ComputePrincipalComponents(samples []*sample.Sample, k int) (*Components, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidRank)
	}
	dim, err := commonDimension(samples)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > dim {
		return nil, fmt.Errorf("%w: k=%d not in [1, %d]", ErrInvalidRank, k, dim)
	}

	x := denseRows(samples, dim)

	cov := mat.NewSymDense(dim, nil)
	if len(samples) > 1 {
		stat.CovarianceMatrix(cov, x, nil)
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, ErrFactorization
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, dim)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	c := &Components{
		vectors: mat.NewDense(dim, k, nil),
		values:  make([]float64, k),
	}
	for _, v := range values {
		c.variance += math.Max(v, 0)
	}

	col := make([]float64, dim)
	for j := range k {
		mat.Col(col, order[j], &vectors)
		normalizeSign(col)
		c.vectors.SetCol(j, col)
		c.values[j] = math.Max(values[order[j]], 0)
	}
	return c, nil
}

// normalizeSign flips v so that its largest-magnitude coordinate is positive.
// Ties go to the lowest index.
func normalizeSign(v []float64) {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	if v[best] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

func commonDimension(samples []*sample.Sample) (int, error) {
	dim := samples[0].Dimension()
	for _, s := range samples[1:] {
		if s.Dimension() != dim {
			return 0, fmt.Errorf("sample %q: %w", s.ID(), &store.DimensionMismatchError{Expected: dim, Actual: s.Dimension()})
		}
	}
	return dim, nil
}

func denseRows(samples []*sample.Sample, dim int) *mat.Dense {
	x := mat.NewDense(len(samples), dim, nil)
	for i, s := range samples {
		s.FillDense(x.RawRowView(i))
	}
	return x
}

// Dimension returns the number of features each component spans.
func (c *Components) Dimension() int {
	r, _ := c.vectors.Dims()
	return r
}

// K returns the number of components.
func (c *Components) K() int {
	_, k := c.vectors.Dims()
	return k
}

// Matrix returns a copy of the dimension × k component matrix.
func (c *Components) Matrix() *mat.Dense {
	return mat.DenseCopyOf(c.vectors)
}

// Component returns component j (0 = largest eigenvalue) as a slice.
func (c *Components) Component(j int) []float64 {
	return mat.Col(nil, j, c.vectors)
}

// Eigenvalues returns the variance explained by each component, descending.
func (c *Components) Eigenvalues() []float64 {
	return append([]float64(nil), c.values...)
}

// ExplainedVarianceRatio returns each component's share of the total
// variance. All zeros when the data has no variance.
func (c *Components) ExplainedVarianceRatio() []float64 {
	out := make([]float64, len(c.values))
	if c.variance == 0 {
		return out
	}
	for i, v := range c.values {
		out[i] = v / c.variance
	}
	return out
}
