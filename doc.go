// Package celldb provides an embedded store for sparse single-cell style
// measurement data.
//
// A dataset is a set of samples sharing one dimension. Each sample keeps only
// its explicit measurements; an index that was never measured is missing,
// which is different from a measured 0.0. That distinction survives every
// round trip through the columnar table format.
//
// # Quick Start
//
//	ctx := context.Background()
//	bs := blobstore.NewLocalStore("./data")
//	db, _ := celldb.Open(ctx, bs, celldb.WithDimension(5))
//	defer db.Close()
//
//	_ = db.Put(ctx, sample.MustNew("s1", 5, []int32{1, 2, 3}, []float64{1, 0, 7}))
//	m, _ := db.Commit(ctx) // durable after this
//	fmt.Println(m.Version)
//
// # Queries
//
//	sparsity, _ := db.Sparsity(ctx)
//	values, _ := db.ProjectFeatures(ctx, []int{0, 2})
//	cov, _ := db.Coverage(ctx)
//	ids, _ := cov.MeasuredAll(1, 3)
//
// # Dimensionality Reduction
//
// PCA converts rows to dense form (missing becomes 0.0), computes the top k
// eigenvectors of the covariance matrix and multiplies every row by them.
// Projection runs in partitions and joins results by sample id.
//
//	res, _ := db.PCA(ctx, 2)
//	for _, p := range res.Projections {
//	    fmt.Println(p.ID, p.Vector)
//	}
//
// # Storage
//
// Commits write immutable tables and manifests to any blobstore.BlobStore:
// the local filesystem, memory, S3 (optionally with a DynamoDB commit
// pointer) or MinIO.
package celldb
