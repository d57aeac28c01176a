package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		dim     int
		indices []int32
		values  []float64
	}{
		{"empty id", "", 5, nil, nil},
		{"zero dimension", "s", 0, nil, nil},
		{"length mismatch", "s", 5, []int32{1, 2}, []float64{1}},
		{"negative index", "s", 5, []int32{-1}, []float64{1}},
		{"index equals dimension", "s", 5, []int32{5}, []float64{1}},
		{"duplicate index", "s", 5, []int32{2, 3, 2}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.dim, tt.indices, tt.values)
			require.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	indices := []int32{3, 1}
	values := []float64{7, 1}

	s, err := New("s1", 5, indices, values)
	require.NoError(t, err)

	indices[0] = 4
	values[0] = 99

	assert.Equal(t, []int32{3, 1}, s.Indices())
	assert.Equal(t, []float64{7, 1}, s.Values())
}

func TestSample_ExplicitZero(t *testing.T) {
	s := MustNew("s1", 5, []int32{1, 2, 3}, []float64{1.0, 0.0, 7.0})

	assert.Equal(t, 3, s.NumActive())
	assert.Equal(t, 1, s.TrueZeros())

	v, ok, err := s.ValueAt(2)
	require.NoError(t, err)
	assert.True(t, ok, "explicit zero must be reported as measured")
	assert.Equal(t, 0.0, v)
}

func TestSample_MissingIsNotZero(t *testing.T) {
	s := MustNew("s1", 5, []int32{1, 2, 3}, []float64{1.0, 0.0, 7.0})

	for _, idx := range []int{0, 4} {
		v, ok, err := s.ValueAt(idx)
		require.NoError(t, err)
		assert.False(t, ok, "index %d should be missing", idx)
		assert.Equal(t, 0.0, v)
	}
}

func TestSample_ValueAtOutOfRange(t *testing.T) {
	s := MustNew("s1", 5, []int32{1}, []float64{1.0})

	_, _, err := s.ValueAt(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = s.ValueAt(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSample_UnsortedEntriesKeepOrder(t *testing.T) {
	s := MustNew("s", 10, []int32{9, 0, 4}, []float64{0.9, 0.0, 0.4})

	assert.Equal(t, []int32{9, 0, 4}, s.Indices())

	v, ok, err := s.ValueAt(4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)

	v, ok, err = s.ValueAt(9)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.9, v)
}

func TestSample_DenseProjection(t *testing.T) {
	s := MustNew("s3", 5, []int32{0, 1, 4}, []float64{4.0, 0.0, 9.0})

	got, err := s.DenseProjection([]int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{4.0, 0.0}, got)

	_, err = s.DenseProjection([]int{7})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Equal(t, []float64{4, 0, 0, 0, 9}, s.Dense())
}

func TestFromMap(t *testing.T) {
	s, err := FromMap("s2", 5, map[int32]float64{4: 5, 0: 2, 3: 4, 2: 3})
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 2, 3, 4}, s.Indices())
	assert.Equal(t, 4, s.NumActive())
	assert.Equal(t, 0, s.TrueZeros())
}

func TestSample_Equal(t *testing.T) {
	a := MustNew("a", 3, []int32{0, 1}, []float64{0.0, 1.0})
	b := MustNew("a", 3, []int32{0, 1}, []float64{0.0, 1.0})
	negZero := MustNew("a", 3, []int32{0, 1}, []float64{math.Copysign(0, -1), 1.0})
	reordered := MustNew("a", 3, []int32{1, 0}, []float64{1.0, 0.0})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(negZero), "equality is bit-exact")
	assert.False(t, a.Equal(reordered))
	assert.False(t, a.Equal(nil))
}
