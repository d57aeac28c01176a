// Package blobstore abstracts where celldb tables and manifests live.
//
// A BlobStore holds named, immutable byte blobs. celldb writes each committed
// table and manifest as its own blob and never modifies one in place, so any
// backend that can store whole objects works.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap-backed reads, atomic renames on write
//   - MemoryStore: in-memory, for tests
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// LocalStore and MemoryStore blobs implement Mappable, so ReadAll hands out
// their bytes without copying. LocalStore writes go through an
// internal/fs.FileSystem, which tests replace to inject I/O failures.
package blobstore
