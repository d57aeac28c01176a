// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("celldb/"), s3.WithRegion("eu-central-1"))
//	db, err := celldb.Open(ctx, store)
//
// S3 has no compare-and-swap, so two writers committing at the same time can
// both overwrite CURRENT. DDBCommitStore keeps tables and manifests in S3 and
// moves the CURRENT pointer into a DynamoDB table with conditional writes.
package s3
