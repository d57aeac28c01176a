package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/celldb/blobstore"
)

// CurrentName is the blob name DDBCommitStore serves from DynamoDB.
const CurrentName = "CURRENT"

// ErrConcurrentModification is returned when another writer committed the
// same version first. It matches blobstore.ErrConflict.
var ErrConcurrentModification = fmt.Errorf("concurrent modification detected: %w", blobstore.ErrConflict)

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DDBCommitStore stores blobs in S3 and the CURRENT pointer in DynamoDB.
//
// Every write of CURRENT becomes a new item keyed by the version it commits,
// guarded by attribute_not_exists(version), so the second writer of a version
// fails with ErrConcurrentModification. The version comes from PutIfVersion,
// or from a manifest name ("manifests/000007-....json") passed to Put; other
// targets get latest+1. Readers take the highest version.
//
// Table schema:
//   - Partition key: base_uri (S)
//   - Sort key: version (N)
//
//	aws dynamodb create-table \
//	  --table-name celldb-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewDDBCommitStore creates a commit store. baseURI ("s3://bucket/prefix")
// is the partition key, so several datasets can share one table.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open opens a blob. CURRENT is resolved from DynamoDB.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.s3Store.Open(ctx, name)
	}
	version, target, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(target)}, nil
}

// Put writes a blob. CURRENT is committed to DynamoDB.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commit(ctx, string(data), manifestVersion(string(data)))
	}
	return s.s3Store.Put(ctx, name, data)
}

// PutIfVersion commits CURRENT as version. Only CURRENT is versioned.
func (s *DDBCommitStore) PutIfVersion(ctx context.Context, name string, data []byte, version uint64) error {
	if name != CurrentName {
		return fmt.Errorf("dynamodb commit store: %s is not versioned", name)
	}
	if version == 0 {
		return fmt.Errorf("dynamodb commit store: invalid version 0")
	}
	return s.commit(ctx, string(data), version)
}

// manifestVersion parses the version prefix of a manifest name, 0 if target
// is not one.
func manifestVersion(target string) uint64 {
	base, ok := strings.CutPrefix(target, "manifests/")
	if !ok {
		return 0
	}
	digits, _, ok := strings.Cut(base, "-")
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Create creates a writable blob in S3.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentName {
		return &pointerWriter{ctx: ctx, store: s}, nil
	}
	return s.s3Store.Create(ctx, name)
}

// Delete deletes a blob from S3. CURRENT history is kept.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == CurrentName {
		return nil
	}
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs in S3.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// Version returns the latest committed version, 0 if none.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	v, _, err := s.latest(ctx)
	return v, err
}

func (s *DDBCommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("commit table: invalid version attribute")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("commit table: invalid target attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("commit table: parse version: %w", err)
	}
	return version, targetAttr.Value, nil
}

// commit writes target as version, or as latest+1 when version is 0.
func (s *DDBCommitStore) commit(ctx context.Context, target string, version uint64) error {
	if version == 0 {
		current, _, err := s.latest(ctx)
		if err != nil {
			return err
		}
		version = current + 1
	}

	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit to dynamodb: %w", err)
	}
	return nil
}

// pointerBlob serves the CURRENT target read from DynamoDB.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error { return nil }

func (b *pointerBlob) Size() int64 { return int64(len(b.content)) }

func (b *pointerBlob) Bytes() ([]byte, error) { return b.content, nil }

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b.content)))
	return blobstore.NopReadCloser(bytes.NewReader(b.content[off:end])), nil
}

// pointerWriter buffers a CURRENT write and commits it on Close.
type pointerWriter struct {
	ctx   context.Context
	store *DDBCommitStore
	buf   bytes.Buffer
}

func (w *pointerWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *pointerWriter) Sync() error { return nil }

func (w *pointerWriter) Abort() error {
	w.buf.Reset()
	return nil
}

func (w *pointerWriter) Close() error {
	target := w.buf.String()
	return w.store.commit(w.ctx, target, manifestVersion(target))
}

var (
	_ blobstore.BlobStore         = (*DDBCommitStore)(nil)
	_ blobstore.ConditionalPutter = (*DDBCommitStore)(nil)
)
