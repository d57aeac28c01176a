// Package sample defines SparseSample, one row of a celldb dataset.
//
// A sample is a sample identifier plus a sparse vector of explicit
// measurements. An index that is not stored is "missing" (not measured), which
// is different from an explicit entry whose value is 0.0 (measured and zero).
// Every accessor preserves that distinction except the dense conversions,
// which are documented as lossy.
package sample

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidEntry is returned when construction input is malformed.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrIndexOutOfRange is returned when a feature index is outside [0, dimension).
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Entry is a single explicit measurement.
type Entry struct {
	Index int32
	Value float64
}

// Sample is an immutable sparse row.
//
// Entries keep the order they were constructed with; that order is what gets
// persisted and read back.
type Sample struct {
	id      string
	dim     int
	indices []int32
	values  []float64

	// order holds entry positions sorted by index, for ValueAt lookups.
	order []int32
}

// New constructs a sample from parallel index/value slices.
//
// The slices are copied. New fails with ErrInvalidEntry when the id is empty,
// the dimension is not positive, the slices differ in length, or an index is
// out of range or repeated.
func New(id string, dimension int, indices []int32, values []float64) (*Sample, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty sample id", ErrInvalidEntry)
	}
	if dimension <= 0 || dimension > math.MaxInt32 {
		return nil, fmt.Errorf("%w: sample %q: invalid dimension %d", ErrInvalidEntry, id, dimension)
	}
	if len(indices) != len(values) {
		return nil, fmt.Errorf("%w: sample %q: %d indices but %d values", ErrInvalidEntry, id, len(indices), len(values))
	}

	s := &Sample{
		id:      id,
		dim:     dimension,
		indices: append([]int32(nil), indices...),
		values:  append([]float64(nil), values...),
		order:   make([]int32, len(indices)),
	}

	for i, idx := range s.indices {
		if idx < 0 || int(idx) >= dimension {
			return nil, fmt.Errorf("%w: sample %q: index %d outside [0, %d)", ErrInvalidEntry, id, idx, dimension)
		}
		s.order[i] = int32(i)
	}

	sort.Slice(s.order, func(a, b int) bool {
		return s.indices[s.order[a]] < s.indices[s.order[b]]
	})
	for i := 1; i < len(s.order); i++ {
		if s.indices[s.order[i]] == s.indices[s.order[i-1]] {
			return nil, fmt.Errorf("%w: sample %q: duplicate index %d", ErrInvalidEntry, id, s.indices[s.order[i]])
		}
	}

	return s, nil
}

// FromMap constructs a sample from an index → value map.
// Entries are stored in ascending index order.
func FromMap(id string, dimension int, entries map[int32]float64) (*Sample, error) {
	indices := make([]int32, 0, len(entries))
	for idx := range entries {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = entries[idx]
	}
	return New(id, dimension, indices, values)
}

// MustNew is like New but panics on error. Intended for tests and examples.
func MustNew(id string, dimension int, indices []int32, values []float64) *Sample {
	s, err := New(id, dimension, indices, values)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the sample identifier.
func (s *Sample) ID() string { return s.id }

// Dimension returns the number of logical features.
func (s *Sample) Dimension() int { return s.dim }

// NumActive returns the number of explicit entries, explicit zeros included.
func (s *Sample) NumActive() int { return len(s.indices) }

// TrueZeros returns the number of explicit entries whose value is exactly 0.0.
func (s *Sample) TrueZeros() int {
	n := 0
	for _, v := range s.values {
		if v == 0 {
			n++
		}
	}
	return n
}

// ValueAt returns the measurement at index.
//
// ok is false when the index is missing; v is then 0 but must not be read as a
// measured zero. An index outside [0, dimension) yields ErrIndexOutOfRange.
func (s *Sample) ValueAt(index int) (v float64, ok bool, err error) {
	if index < 0 || index >= s.dim {
		return 0, false, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, s.dim)
	}
	pos, found := s.lookup(int32(index))
	if !found {
		return 0, false, nil
	}
	return s.values[pos], true, nil
}

func (s *Sample) lookup(index int32) (int, bool) {
	i := sort.Search(len(s.order), func(i int) bool {
		return s.indices[s.order[i]] >= index
	})
	if i < len(s.order) && s.indices[s.order[i]] == index {
		return int(s.order[i]), true
	}
	return 0, false
}

// DenseProjection returns the values at the requested feature indices, in
// request order.
//
// The conversion is lossy: missing features become 0.0 and can no longer be
// told apart from explicit zeros. Dense linear algebra downstream needs a
// real-valued row, so this is deliberate.
func (s *Sample) DenseProjection(indices []int) ([]float64, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		v, _, err := s.ValueAt(idx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dense returns the full dense row with missing features as 0.0.
// Lossy in the same way as DenseProjection.
func (s *Sample) Dense() []float64 {
	out := make([]float64, s.dim)
	s.FillDense(out)
	return out
}

// FillDense writes the dense row into dst, which must have length Dimension().
func (s *Sample) FillDense(dst []float64) {
	clear(dst)
	for i, idx := range s.indices {
		dst[idx] = s.values[i]
	}
}

// Indices returns a copy of the explicit indices in stored order.
func (s *Sample) Indices() []int32 {
	return append([]int32(nil), s.indices...)
}

// Values returns a copy of the explicit values in stored order.
func (s *Sample) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Entries returns the explicit entries in stored order.
func (s *Sample) Entries() []Entry {
	out := make([]Entry, len(s.indices))
	for i := range s.indices {
		out[i] = Entry{Index: s.indices[i], Value: s.values[i]}
	}
	return out
}

// Equal reports whether two samples have the same id, dimension and explicit
// entries in the same order. Values are compared bit for bit.
func (s *Sample) Equal(other *Sample) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.id != other.id || s.dim != other.dim || len(s.indices) != len(other.indices) {
		return false
	}
	for i := range s.indices {
		if s.indices[i] != other.indices[i] {
			return false
		}
		if math.Float64bits(s.values[i]) != math.Float64bits(other.values[i]) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s *Sample) String() string {
	return fmt.Sprintf("Sample(%s, dim=%d, active=%d)", s.id, s.dim, len(s.indices))
}
