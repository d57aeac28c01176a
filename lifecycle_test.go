package celldb_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/celldb"
	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/sample"
	"github.com/hupe1980/celldb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNoGoroutineLeaks verifies that projection partitions finish before PCA
// returns, including when the context is canceled.
func TestNoGoroutineLeaks(t *testing.T) {
	ctx := context.Background()
	before := runtime.NumGoroutine()

	db, err := celldb.Open(ctx, blobstore.NewMemoryStore(),
		celldb.WithDimension(16),
		celldb.WithPartitions(8),
	)
	require.NoError(t, err)
	require.NoError(t, db.PutAll(ctx, testutil.NewRNG(1).SparseSamples(200, 16, 0.4, 0.1)))

	for range 5 {
		_, err := db.PCA(ctx, 3)
		require.NoError(t, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = db.PCA(canceled, 3)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, db.Close())

	time.Sleep(50 * time.Millisecond)
	after := runtime.NumGoroutine()
	assert.LessOrEqual(t, after, before+2, "goroutines leaked: before=%d after=%d", before, after)
}

// TestConcurrentUse runs writers, readers and committers at the same time.
func TestConcurrentUse(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewLocalStore(t.TempDir())

	db, err := celldb.Open(ctx, bs, celldb.WithDimension(8))
	require.NoError(t, err)
	defer db.Close()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				s := sample.MustNew(fmt.Sprintf("w%d-%03d", w, i), 8, []int32{int32(i % 8)}, []float64{float64(i)})
				assert.NoError(t, db.Put(ctx, s))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			_, _ = db.Sparsity(ctx)
			_, _ = db.Coverage(ctx)
		}
	}()

	wg.Wait()

	m, err := db.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, m.Rows)

	reopened, err := celldb.Open(ctx, bs)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 200, reopened.Len())
}
