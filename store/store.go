// Package store implements SampleStore: an in-memory id → sample map with a
// shared dimension that persists to, and loads from, the celldb table format
// on any blobstore.BlobStore.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/celldb/sample"
)

var (
	// ErrDimensionMismatch is returned when a sample or table does not have
	// the store dimension. The concrete error is *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotFound is returned when a sample id is not in the store.
	ErrNotFound = errors.New("sample not found")

	// ErrInvalidDimension is returned for a dimension ≤ 0, or when neither a
	// table nor the caller provides one.
	ErrInvalidDimension = errors.New("invalid dimension")
)

// DimensionMismatchError carries both dimensions.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Unwrap returns ErrDimensionMismatch.
func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// Store holds samples that share one dimension. It is safe for concurrent use.
type Store struct {
	dim int

	mu      sync.RWMutex
	samples map[string]*sample.Sample
}

// New creates an empty store.
func New(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dimension)
	}
	return &Store{
		dim:     dimension,
		samples: make(map[string]*sample.Sample),
	}, nil
}

// Dimension returns the shared dimension.
func (s *Store) Dimension() int { return s.dim }

// Put inserts or replaces a sample.
func (s *Store) Put(smp *sample.Sample) error {
	return s.PutAll([]*sample.Sample{smp})
}

// PutAll inserts or replaces samples. It validates every sample first, so
// on error nothing is stored.
func (s *Store) PutAll(samples []*sample.Sample) error {
	for _, smp := range samples {
		if smp == nil {
			return fmt.Errorf("%w: nil sample", sample.ErrInvalidEntry)
		}
		if smp.Dimension() != s.dim {
			return fmt.Errorf("sample %q: %w", smp.ID(), &DimensionMismatchError{Expected: s.dim, Actual: smp.Dimension()})
		}
	}

	s.mu.Lock()
	for _, smp := range samples {
		s.samples[smp.ID()] = smp
	}
	s.mu.Unlock()
	return nil
}

// Get returns the sample with the given id.
func (s *Store) Get(id string) (*sample.Sample, error) {
	s.mu.RLock()
	smp, ok := s.samples[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return smp, nil
}

// Delete removes a sample.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.samples[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.samples, id)
	return nil
}

// Len returns the number of samples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// IDs returns all sample ids in ascending order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.samples))
	for id := range s.samples {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Samples returns all samples ordered by id.
func (s *Store) Samples() []*sample.Sample {
	s.mu.RLock()
	out := make([]*sample.Sample, 0, len(s.samples))
	for _, smp := range s.samples {
		out = append(out, smp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
