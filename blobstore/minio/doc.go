// Package minio provides a blobstore.BlobStore backed by MinIO or any other
// S3-compatible server (Ceph, Garage, SeaweedFS).
//
//	store, err := minio.New("localhost:9000", "celldb", minio.WithPrefix("datasets/pbmc"),
//	    minio.WithCredentials("minioadmin", "minioadmin"))
//	db, err := celldb.Open(ctx, store)
//
// Unlike blobstore/s3 it needs no AWS configuration, which keeps air-gapped
// deployments simple. CURRENT is overwritten without compare-and-swap, so
// only one process should commit to a prefix at a time.
package minio
