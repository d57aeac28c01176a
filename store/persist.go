package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/resource"
	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/table"
)

// PersistStats describes one Persist call.
type PersistStats struct {
	Name        string
	Rows        int
	Entries     int
	RawBytes    int64
	Bytes       int64
	Compression table.Compression
	Duration    time.Duration
}

// Persist writes every sample as one table row to the blob name. Rows carry
// exactly the explicit entries of each sample, in stored order. The blob only
// becomes visible when the whole table was written.
func (s *Store) Persist(ctx context.Context, bs blobstore.BlobStore, name string, opts ...Option) (PersistStats, error) {
	o := applyOptions(opts)
	start := time.Now()
	samples := s.Samples()

	w, err := bs.Create(ctx, name)
	if err != nil {
		return PersistStats{}, fmt.Errorf("create %s: %w", name, err)
	}

	tw := table.NewWriter(resource.NewRateLimitedWriter(ctx, w, o.rc),
		table.WithCompression(o.compression),
		table.WithDimension(s.dim),
		table.WithBlockSize(o.blockSize),
	)

	for _, smp := range samples {
		if err := ctx.Err(); err != nil {
			_ = blobstore.Abort(w)
			return PersistStats{}, err
		}
		row := table.Row{ID: smp.ID(), Idx: smp.Indices(), Quant: smp.Values()}
		if err := tw.Append(row); err != nil {
			_ = blobstore.Abort(w)
			return PersistStats{}, err
		}
	}

	ts, err := tw.Close()
	if err != nil {
		_ = blobstore.Abort(w)
		return PersistStats{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return PersistStats{}, fmt.Errorf("close %s: %w", name, err)
	}

	return PersistStats{
		Name:        name,
		Rows:        ts.Rows,
		Entries:     ts.Entries,
		RawBytes:    ts.RawBytes,
		Bytes:       ts.BytesWritten,
		Compression: o.compression,
		Duration:    time.Since(start),
	}, nil
}

// Load reads the table blob name into a new store.
//
// The dimension comes from the table header. When the header carries none,
// expectedDimension is used; when both are set and differ, Load fails with
// ErrDimensionMismatch. Pass 0 to accept whatever the table records.
func Load(ctx context.Context, bs blobstore.BlobStore, name string, expectedDimension int, opts ...Option) (*Store, error) {
	o := applyOptions(opts)

	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	data, err := readBlob(ctx, blob, o.rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	r, err := table.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	dim, err := resolveDimension(r.Dimension(), expectedDimension)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	st, err := New(dim)
	if err != nil {
		return nil, err
	}
	// The row count is only a hint until the rows decode.
	st.samples = make(map[string]*sample.Sample, min(r.NumRows(), maxPresize))

	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}

		smp, err := sample.New(row.ID, dim, row.Idx, row.Quant)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if _, dup := st.samples[row.ID]; dup {
			return nil, fmt.Errorf("load %s: %w: duplicate sample id %q", name, sample.ErrInvalidEntry, row.ID)
		}
		st.samples[row.ID] = smp
	}
	return st, nil
}

const maxPresize = 1 << 20

func resolveDimension(stored, expected int) (int, error) {
	switch {
	case stored == 0 && expected <= 0:
		return 0, fmt.Errorf("%w: table has no dimension and none was given", ErrInvalidDimension)
	case stored == 0:
		return expected, nil
	case expected > 0 && stored != expected:
		return 0, &DimensionMismatchError{Expected: expected, Actual: stored}
	default:
		return stored, nil
	}
}

// readBlob returns the blob content. Without a controller, mappable blobs are
// used in place; decoded rows never alias the returned bytes.
func readBlob(ctx context.Context, blob blobstore.Blob, rc *resource.Controller) ([]byte, error) {
	if rc == nil {
		return blobstore.ReadAll(ctx, blob)
	}
	return io.ReadAll(resource.NewRateLimitedReader(ctx, blobstore.Reader(ctx, blob), rc))
}
