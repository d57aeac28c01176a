package celldb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/pca"
	"github.com/hupe1980/celldb/query"
	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/store"
	"github.com/hupe1980/celldb/table"
)

var (
	// ErrNotFound is returned when a sample id is not in the database.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("celldb: closed")

	// ErrInvalidRank is returned when k is not in [1, dimension] or there is
	// nothing to reduce.
	ErrInvalidRank = errors.New("k must be in [1, dimension]")

	// ErrNoCommit is returned when a dataset has no committed version.
	ErrNoCommit = store.ErrNoCommit

	// ErrConflict is returned by Commit when another writer committed the
	// same version first.
	ErrConflict = blobstore.ErrConflict

	// ErrInvalidEntry is returned for malformed sample input.
	ErrInvalidEntry = sample.ErrInvalidEntry

	// ErrIndexOutOfRange is returned for a feature index outside [0, dimension).
	ErrIndexOutOfRange = sample.ErrIndexOutOfRange

	// ErrSchemaMismatch is returned when a table does not carry the celldb schema.
	ErrSchemaMismatch = table.ErrSchemaMismatch

	// ErrCorrupted is returned when a table fails its checksums.
	ErrCorrupted = table.ErrCorrupted

	// ErrEmptyDataset is returned by aggregate queries over no samples.
	ErrEmptyDataset = query.ErrEmptyDataset

	// ErrDuplicateID is returned when a projection input repeats a sample id.
	ErrDuplicateID = pca.ErrDuplicateID
)

// ErrDimensionMismatch indicates a sample or table dimensionality mismatch.
//
// Expected and Actual are zero when the underlying error did not carry them.
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	if e.Expected == 0 && e.Actual == 0 {
		return fmt.Sprintf("dimension mismatch: %v", e.cause)
	}
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid or unknown dataset dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var dm *store.DimensionMismatchError
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, store.ErrDimensionMismatch) {
		return &ErrDimensionMismatch{cause: err}
	}
	if errors.Is(err, store.ErrInvalidDimension) {
		return &ErrInvalidDimension{cause: err}
	}
	if errors.Is(err, pca.ErrInvalidRank) {
		return fmt.Errorf("%w: %w", ErrInvalidRank, err)
	}

	return err
}
