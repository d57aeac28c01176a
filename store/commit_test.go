package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/codec"
	cfs "github.com/hupe1980/celldb/internal/fs"
	"github.com/hupe1980/celldb/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitOpen(t *testing.T) {
	ctx := context.Background()

	for name, bs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := Open(ctx, bs, 5)
			require.ErrorIs(t, err, ErrNoCommit)

			st := scenarioStore(t)
			m1, err := st.Commit(ctx, bs)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), m1.Version)
			assert.Equal(t, 3, m1.Rows)
			assert.True(t, strings.HasPrefix(m1.Table, "tables/celldb-000001-"))

			require.NoError(t, st.Put(sample.MustNew("s4", 5, []int32{2}, []float64{0})))
			m2, err := st.Commit(ctx, bs, WithCodec(codec.JSON{}))
			require.NoError(t, err)
			assert.Equal(t, uint64(2), m2.Version)
			assert.Equal(t, "json", m2.Codec)

			got, m, err := Open(ctx, bs, 5)
			require.NoError(t, err)
			assert.Equal(t, m2.Table, m.Table)
			assertSameSamples(t, st, got)

			versions, err := Versions(ctx, bs)
			require.NoError(t, err)
			require.Len(t, versions, 2)
			assert.Equal(t, uint64(1), versions[0].Version)
			assert.Equal(t, uint64(2), versions[1].Version)

			old, err := Load(ctx, bs, versions[0].Table, 5)
			require.NoError(t, err)
			assert.Equal(t, 3, old.Len())
		})
	}
}

func TestOpen_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	_, err := scenarioStore(t).Commit(ctx, bs)
	require.NoError(t, err)

	_, _, err = Open(ctx, bs, 6)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

var errConflict = errors.New("concurrent modification detected")

// conflictStore rejects every write of CURRENT, like a commit store that lost
// the race to another writer.
type conflictStore struct {
	*blobstore.MemoryStore
}

func (c conflictStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return errConflict
	}
	return c.MemoryStore.Put(ctx, name, data)
}

func (c conflictStore) PutIfVersion(ctx context.Context, name string, data []byte, version uint64) error {
	if name == CurrentName {
		return errConflict
	}
	return c.MemoryStore.PutIfVersion(ctx, name, data, version)
}

func TestCommit_LostRaceCleansUp(t *testing.T) {
	ctx := context.Background()
	bs := conflictStore{blobstore.NewMemoryStore()}

	_, err := scenarioStore(t).Commit(ctx, bs)
	require.ErrorIs(t, err, errConflict)

	names, err := bs.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

// staleCurrentStore serves a CURRENT read earlier, like a writer that read
// its parent before another writer committed.
type staleCurrentStore struct {
	*blobstore.MemoryStore
	current []byte
}

func (s staleCurrentStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.MemoryStore.Open(ctx, name)
	}
	snapshot := blobstore.NewMemoryStore()
	if err := snapshot.Put(ctx, name, s.current); err != nil {
		return nil, err
	}
	return snapshot.Open(ctx, name)
}

func TestCommit_ConcurrentWritersOfSameParent(t *testing.T) {
	ctx := context.Background()
	shared := blobstore.NewMemoryStore()

	base, err := scenarioStore(t).Commit(ctx, shared)
	require.NoError(t, err)

	blob, err := shared.Open(ctx, CurrentName)
	require.NoError(t, err)
	parent, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	parent = append([]byte(nil), parent...)
	require.NoError(t, blob.Close())

	first := scenarioStore(t)
	require.NoError(t, first.Put(sample.MustNew("first", 5, []int32{0}, []float64{1})))
	second := scenarioStore(t)
	require.NoError(t, second.Put(sample.MustNew("second", 5, []int32{1}, []float64{2})))

	won, err := first.Commit(ctx, staleCurrentStore{shared, parent})
	require.NoError(t, err)
	assert.Equal(t, base.Version+1, won.Version)

	_, err = second.Commit(ctx, staleCurrentStore{shared, parent})
	require.ErrorIs(t, err, blobstore.ErrConflict)

	got, m, err := Open(ctx, shared, 5)
	require.NoError(t, err)
	assert.Equal(t, won.Table, m.Table)
	_, err = got.Get("first")
	require.NoError(t, err)
	_, err = got.Get("second")
	assert.ErrorIs(t, err, ErrNotFound)

	tables, err := shared.List(ctx, "tables/")
	require.NoError(t, err)
	assert.Equal(t, []string{base.Table, won.Table}, tables)

	versions, err := Versions(ctx, shared)
	require.NoError(t, err)
	require.Len(t, versions, 2)
}

func TestReadManifest_Invalid(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	require.NoError(t, bs.Put(ctx, "manifests/bad.json", []byte(`{"format_version": 9, "codec": "json"}`)))
	_, err := ReadManifest(ctx, bs, "manifests/bad.json")
	assert.ErrorContains(t, err, "unsupported format version")

	require.NoError(t, bs.Put(ctx, "manifests/codec.json", []byte(`{"format_version": 1, "codec": "msgpack"}`)))
	_, err = ReadManifest(ctx, bs, "manifests/codec.json")
	assert.ErrorContains(t, err, "unknown codec")

	require.NoError(t, bs.Put(ctx, CurrentName, []byte("manifests/missing.json")))
	_, err = CurrentManifest(ctx, bs)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommit_FailedTableWriteKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ffs := cfs.NewFaultyFS(nil)
	bs := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))

	st := scenarioStore(t)
	m1, err := st.Commit(ctx, bs)
	require.NoError(t, err)

	ffs.AddRule(".cdb", cfs.Fault{FailAfterBytes: 16})
	require.NoError(t, st.Put(sample.MustNew("s4", 5, []int32{2}, []float64{0})))
	_, err = st.Commit(ctx, bs)
	require.ErrorIs(t, err, cfs.ErrInjected)

	got, m, err := Open(ctx, bs, 5)
	require.NoError(t, err)
	assert.Equal(t, m1.Version, m.Version)
	assert.Equal(t, 3, got.Len())

	tables, err := bs.List(ctx, "tables/")
	require.NoError(t, err)
	assert.Equal(t, []string{m1.Table}, tables)
}
