package celldb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/pca"
	"github.com/hupe1980/celldb/query"
	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/store"
)

// Manifest describes one committed version.
type Manifest = store.Manifest

// Summary aggregates dataset-level counts.
type Summary = query.Summary

// Stats describes a DB.
type Stats struct {
	Summary
	// Version is the committed version the DB was opened at or last
	// committed, 0 if none.
	Version uint64 `json:"version"`
	// Dirty reports uncommitted changes.
	Dirty bool `json:"dirty"`
}

// PCAResult holds principal components and the projection of every sample.
type PCAResult struct {
	Components  *pca.Components
	Projections []pca.Projection
}

// DB is a sparse sample dataset backed by a blob store.
//
// Writes go to memory; Commit persists a new immutable version. DB is safe
// for concurrent use.
type DB struct {
	bs   blobstore.BlobStore
	opts options

	st *store.Store

	mu       sync.RWMutex
	manifest *store.Manifest
	changes  uint64 // mutations since Open
	clean    uint64 // changes included in the last commit
	closed   bool
}

// Open opens the dataset in bs at its current version.
//
// A dataset without a committed version is created empty; its dimension must
// then be given with WithDimension.
func Open(ctx context.Context, bs blobstore.BlobStore, optFns ...Option) (*DB, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	db := &DB{bs: bs, opts: o}

	start := time.Now()
	st, m, err := store.Open(ctx, bs, o.dimension, o.storeOptions()...)
	switch {
	case err == nil:
		db.st, db.manifest = st, m
		o.metricsCollector.RecordLoad(st.Len(), time.Since(start), nil)
		o.logger.WithVersion(m.Version).LogLoad(ctx, m.Table, st.Len(), time.Since(start), nil)
	case errors.Is(err, store.ErrNoCommit):
		if o.dimension <= 0 {
			return nil, &ErrInvalidDimension{Dimension: o.dimension, cause: err}
		}
		st, err := store.New(o.dimension)
		if err != nil {
			return nil, translateError(err)
		}
		db.st = st
		o.logger.WithDimension(o.dimension).InfoContext(ctx, "created dataset")
	default:
		o.metricsCollector.RecordLoad(0, time.Since(start), err)
		o.logger.LogLoad(ctx, store.CurrentName, 0, time.Since(start), err)
		return nil, translateError(err)
	}
	return db, nil
}

func (db *DB) checkOpen() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return nil
}

// Dimension returns the dataset dimension.
func (db *DB) Dimension() int { return db.st.Dimension() }

// Len returns the number of samples.
func (db *DB) Len() int { return db.st.Len() }

// IDs returns all sample ids in ascending order.
func (db *DB) IDs() []string { return db.st.IDs() }

// Samples returns all samples ordered by id.
func (db *DB) Samples() []*sample.Sample { return db.st.Samples() }

// Manifest returns the committed version the DB reflects, or nil.
func (db *DB) Manifest() *Manifest {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.manifest
}

// Put inserts or replaces a sample.
func (db *DB) Put(ctx context.Context, s *sample.Sample) error {
	return db.PutAll(ctx, []*sample.Sample{s})
}

// PutAll inserts or replaces samples. Either all samples are stored or none.
func (db *DB) PutAll(ctx context.Context, samples []*sample.Sample) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	start := time.Now()
	err := translateError(db.st.PutAll(samples))
	db.opts.metricsCollector.RecordPut(len(samples), time.Since(start), err)
	if err != nil {
		db.opts.logger.ErrorContext(ctx, "put failed", "count", len(samples), "error", err)
		return err
	}

	db.markChanged()
	db.opts.logger.DebugContext(ctx, "put completed", "count", len(samples))
	return nil
}

func (db *DB) markChanged() {
	db.mu.Lock()
	db.changes++
	db.mu.Unlock()
}

// Get returns the sample with the given id.
func (db *DB) Get(id string) (*sample.Sample, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	s, err := db.st.Get(id)
	return s, translateError(err)
}

// Delete removes a sample.
func (db *DB) Delete(ctx context.Context, id string) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if err := db.st.Delete(id); err != nil {
		return translateError(err)
	}
	db.markChanged()
	db.opts.logger.WithID(id).DebugContext(ctx, "delete completed")
	return nil
}

// Commit persists the dataset as a new version.
func (db *DB) Commit(ctx context.Context) (*Manifest, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	// Changes counted before the snapshot are part of this commit. Later
	// ones keep the DB dirty.
	db.mu.RLock()
	baseline := db.changes
	db.mu.RUnlock()

	start := time.Now()
	m, err := db.st.Commit(ctx, db.bs, db.opts.storeOptions()...)
	elapsed := time.Since(start)
	if err != nil {
		db.opts.metricsCollector.RecordPersist(0, 0, elapsed, err)
		db.opts.logger.LogPersist(ctx, "", db.st.Len(), 0, elapsed, err)
		return nil, translateError(err)
	}
	db.opts.metricsCollector.RecordPersist(m.Rows, m.Bytes, elapsed, nil)
	db.opts.logger.WithVersion(m.Version).LogPersist(ctx, m.Table, m.Rows, m.Bytes, elapsed, nil)

	db.mu.Lock()
	db.manifest = m
	db.clean = max(db.clean, baseline)
	db.mu.Unlock()
	return m, nil
}

// Versions lists every committed version in ascending order.
func (db *DB) Versions(ctx context.Context) ([]*Manifest, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	ms, err := store.Versions(ctx, db.bs, db.opts.storeOptions()...)
	return ms, translateError(err)
}

// Stats summarizes the dataset.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var sum Summary
	err := db.query(ctx, "summarize", func(samples []*sample.Sample) (err error) {
		sum, err = query.Summarize(samples)
		return err
	})
	if err != nil {
		return Stats{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	st := Stats{Summary: sum, Dirty: db.changes != db.clean}
	if db.manifest != nil {
		st.Version = db.manifest.Version
	}
	return st, nil
}

// Sparsity returns the mean fraction of features measured per sample.
func (db *DB) Sparsity(ctx context.Context) (float64, error) {
	var out float64
	err := db.query(ctx, "sparsity", func(samples []*sample.Sample) (err error) {
		out, err = query.DatasetSparsity(samples)
		return err
	})
	return out, err
}

// MeasurementsPerSample returns the number of explicit entries per sample.
func (db *DB) MeasurementsPerSample(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	err := db.query(ctx, "measurements", func(samples []*sample.Sample) error {
		out = query.MeasurementsPerSample(samples)
		return nil
	})
	return out, err
}

// TrueZerosPerSample returns the number of explicit zeros per sample.
func (db *DB) TrueZerosPerSample(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	err := db.query(ctx, "true_zeros", func(samples []*sample.Sample) error {
		out = query.TrueZerosPerSample(samples)
		return nil
	})
	return out, err
}

// ProjectFeatures returns, per sample id, the values at the given features.
// Missing features read as 0.0.
func (db *DB) ProjectFeatures(ctx context.Context, features []int) (map[string][]float64, error) {
	var out map[string][]float64
	err := db.query(ctx, "project_features", func(samples []*sample.Sample) (err error) {
		out, err = query.ProjectFeatures(features, samples)
		return err
	})
	return out, err
}

// FeatureMeans returns the mean over explicit measurements per feature and
// the number of measurements behind each mean.
func (db *DB) FeatureMeans(ctx context.Context) ([]float64, []int, error) {
	var (
		means  []float64
		counts []int
	)
	err := db.query(ctx, "feature_means", func(samples []*sample.Sample) (err error) {
		means, counts, err = query.FeatureMeans(samples)
		return err
	})
	return means, counts, err
}

// Coverage indexes which samples measured which features.
func (db *DB) Coverage(ctx context.Context) (*query.Coverage, error) {
	var out *query.Coverage
	err := db.query(ctx, "coverage", func(samples []*sample.Sample) (err error) {
		out, err = query.NewCoverage(samples)
		return err
	})
	return out, err
}

func (db *DB) query(ctx context.Context, op string, fn func([]*sample.Sample) error) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	start := time.Now()
	samples := db.st.Samples()
	err := translateError(fn(samples))
	db.opts.metricsCollector.RecordQuery(op, time.Since(start), err)
	db.opts.logger.LogQuery(ctx, op, len(samples), err)
	return err
}

// PrincipalComponents computes the top k principal components.
func (db *DB) PrincipalComponents(ctx context.Context, k int) (*pca.Components, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()
	samples := db.st.Samples()
	c, err := pca.ComputePrincipalComponents(samples, k)
	err = translateError(err)
	db.opts.metricsCollector.RecordReduce(k, time.Since(start), err)
	db.opts.logger.LogReduce(ctx, "components", k, len(samples), time.Since(start), err)
	return c, err
}

// Project multiplies every sample's dense row by the components and returns
// the result keyed by sample id.
func (db *DB) Project(ctx context.Context, c *pca.Components) (map[string][]float64, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()
	samples := db.st.Samples()
	out, err := pca.Project(ctx, samples, c, db.opts.projectOptions()...)
	err = translateError(err)
	k := 0
	if c != nil {
		k = c.K()
	}
	db.opts.metricsCollector.RecordReduce(k, time.Since(start), err)
	db.opts.logger.LogReduce(ctx, "project", k, len(samples), time.Since(start), err)
	return out, err
}

// PCA computes k components and projects every sample onto them. Projections
// are ordered by sample id.
func (db *DB) PCA(ctx context.Context, k int) (*PCAResult, error) {
	c, err := db.PrincipalComponents(ctx, k)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	samples := db.st.Samples()
	projections, err := pca.ProjectOrdered(ctx, samples, c, db.opts.projectOptions()...)
	err = translateError(err)
	db.opts.metricsCollector.RecordReduce(k, time.Since(start), err)
	db.opts.logger.LogReduce(ctx, "project", k, len(samples), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return &PCAResult{Components: c, Projections: projections}, nil
}
