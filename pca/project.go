package pca

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hupe1980/celldb/resource"
	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/store"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Projection is one sample's coordinates in component space.
type Projection struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// ProjectOption configures Project.
type ProjectOption func(*projectOptions)

type projectOptions struct {
	partitions int
	workers    int
	rc         *resource.Controller
}

// WithPartitions sets how many partitions the input is split into.
// Defaults to GOMAXPROCS.
func WithPartitions(n int) ProjectOption {
	return func(o *projectOptions) { o.partitions = n }
}

// WithWorkers bounds how many partitions run at once. Defaults to the
// partition count.
func WithWorkers(n int) ProjectOption {
	return func(o *projectOptions) { o.workers = n }
}

// WithResourceController makes every partition hold a worker slot and account
// its dense buffers against the controller's memory limit.
func WithResourceController(rc *resource.Controller) ProjectOption {
	return func(o *projectOptions) { o.rc = rc }
}

// Project multiplies each sample's dense row by the component matrix and
// returns k coordinates per sample id.
//
// The input is split into partitions that run concurrently. Each partition
// emits keyed Projection records and the results are joined by id, so the
// output does not depend on partition count or scheduling.
func Project(ctx context.Context, samples []*sample.Sample, c *Components, opts ...ProjectOption) (map[string][]float64, error) {
	parts, err := project(ctx, samples, c, opts)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(samples))
	for _, part := range parts {
		for _, p := range part {
			if _, dup := out[p.ID]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
			}
			out[p.ID] = p.Vector
		}
	}
	return out, nil
}

// ProjectOrdered is like Project but returns the projections in input order.
func ProjectOrdered(ctx context.Context, samples []*sample.Sample, c *Components, opts ...ProjectOption) ([]Projection, error) {
	byID, err := Project(ctx, samples, c, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]Projection, len(samples))
	for i, s := range samples {
		out[i] = Projection{ID: s.ID(), Vector: byID[s.ID()]}
	}
	return out, nil
}

func project(ctx context.Context, samples []*sample.Sample, c *Components, opts []ProjectOption) ([][]Projection, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil components", ErrInvalidRank)
	}

	o := projectOptions{partitions: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	dim := c.Dimension()
	seen := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		if s.Dimension() != dim {
			return nil, fmt.Errorf("sample %q: %w", s.ID(), &store.DimensionMismatchError{Expected: dim, Actual: s.Dimension()})
		}
		if _, dup := seen[s.ID()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, s.ID())
		}
		seen[s.ID()] = struct{}{}
	}
	if len(samples) == 0 {
		return nil, nil
	}

	n := min(max(o.partitions, 1), len(samples))
	workers := o.workers
	if workers <= 0 {
		workers = n
	}

	parts := make([][]Projection, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for p := range n {
		lo, hi := p*len(samples)/n, (p+1)*len(samples)/n
		g.Go(func() error {
			recs, err := projectPartition(gctx, samples[lo:hi], c, o.rc)
			if err != nil {
				return fmt.Errorf("partition %d: %w", p, err)
			}
			parts[p] = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func projectPartition(ctx context.Context, samples []*sample.Sample, c *Components, rc *resource.Controller) ([]Projection, error) {
	if err := rc.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseWorker()

	dim, k := c.vectors.Dims()
	bytes := int64(len(samples)) * int64(dim+k) * 8
	if err := rc.AcquireMemory(ctx, bytes); err != nil {
		return nil, err
	}
	defer rc.ReleaseMemory(bytes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x := denseRows(samples, dim)
	var y mat.Dense
	y.Mul(x, c.vectors)

	out := make([]Projection, len(samples))
	for i, s := range samples {
		out[i] = Projection{ID: s.ID(), Vector: append([]float64(nil), y.RawRowView(i)...)}
	}
	return out, nil
}
