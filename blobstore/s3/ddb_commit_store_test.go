package s3

import (
	"context"
	"testing"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDBCommitStore_CurrentPointer(t *testing.T) {
	ddb := newMockDDBClient()
	store := NewDDBCommitStore(NewStore(new(MockS3Client), "bucket", "ds"), ddb, "celldb-commits", "s3://bucket/ds")
	ctx := context.Background()

	_, err := store.Open(ctx, CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, CurrentName, []byte("manifests/000001.json")))
	require.NoError(t, store.Put(ctx, CurrentName, []byte("manifests/000002.json")))

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	blob, err := store.Open(ctx, CurrentName)
	require.NoError(t, err)
	data, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "manifests/000002.json", string(data))

	w, err := store.Create(ctx, CurrentName)
	require.NoError(t, err)
	_, err = w.Write([]byte("manifests/000003.json"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	v, err = store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func readCurrent(t *testing.T, store *DDBCommitStore) string {
	t.Helper()
	ctx := context.Background()
	blob, err := store.Open(ctx, CurrentName)
	require.NoError(t, err)
	defer blob.Close()
	data, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_ConcurrentModification(t *testing.T) {
	ddb := newMockDDBClient()
	a := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/ds")
	b := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/ds")
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, CurrentName, []byte("manifests/000001-base.json")))

	// Both writers read the same parent before either commits.
	assert.Equal(t, "manifests/000001-base.json", readCurrent(t, a))
	assert.Equal(t, "manifests/000001-base.json", readCurrent(t, b))

	require.NoError(t, a.Put(ctx, CurrentName, []byte("manifests/000002-aaaaaaaa.json")))
	err := b.Put(ctx, CurrentName, []byte("manifests/000002-bbbbbbbb.json"))
	require.ErrorIs(t, err, ErrConcurrentModification)
	assert.ErrorIs(t, err, blobstore.ErrConflict)

	v, err := b.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, "manifests/000002-aaaaaaaa.json", readCurrent(t, b))
}

func TestDDBCommitStore_PutIfVersion(t *testing.T) {
	ddb := newMockDDBClient()
	a := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/ds")
	b := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/ds")
	ctx := context.Background()

	require.NoError(t, a.PutIfVersion(ctx, CurrentName, []byte("m1"), 1))
	require.NoError(t, a.PutIfVersion(ctx, CurrentName, []byte("m2"), 2))

	// A writer that read version 1 and commits 2 loses.
	err := b.PutIfVersion(ctx, CurrentName, []byte("other"), 2)
	require.ErrorIs(t, err, blobstore.ErrConflict)
	assert.Equal(t, "m2", readCurrent(t, b))

	// The same writer still collides after further commits.
	require.NoError(t, a.PutIfVersion(ctx, CurrentName, []byte("m3"), 3))
	require.ErrorIs(t, b.PutIfVersion(ctx, CurrentName, []byte("other"), 2), blobstore.ErrConflict)

	assert.Error(t, a.PutIfVersion(ctx, "manifests/x.json", []byte("x"), 4))
	assert.Error(t, a.PutIfVersion(ctx, CurrentName, []byte("x"), 0))
}

func TestManifestVersion(t *testing.T) {
	tests := []struct {
		target string
		want   uint64
	}{
		{"manifests/000007-1a2b3c4d.json", 7},
		{"manifests/000123-x.json", 123},
		{"manifests/latest.json", 0},
		{"manifests/abc-1.json", 0},
		{"tables/000001-x.cdb", 0},
		{"a1", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, manifestVersion(tt.target), tt.target)
	}
}

func TestDDBCommitStore_IsolatedByBaseURI(t *testing.T) {
	ddb := newMockDDBClient()
	a := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/a")
	b := NewDDBCommitStore(nil, ddb, "t", "s3://bucket/b")
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, CurrentName, []byte("a1")))

	v, err := b.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}
