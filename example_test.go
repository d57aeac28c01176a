package celldb_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/celldb"
	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/sample"
)

// Example demonstrates storing samples with explicit zeros and reading them
// back from a committed version.
func Example() {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	db, err := celldb.Open(ctx, bs, celldb.WithDimension(5))
	if err != nil {
		log.Fatal(err)
	}

	_ = db.Put(ctx, sample.MustNew("s1", 5, []int32{1, 2, 3}, []float64{1.0, 0.0, 7.0}))
	_ = db.Put(ctx, sample.MustNew("s2", 5, []int32{0, 2, 3, 4}, []float64{2.0, 3.0, 4.0, 5.0}))

	m, err := db.Commit(ctx)
	if err != nil {
		log.Fatal(err)
	}
	_ = db.Close()

	reopened, err := celldb.Open(ctx, bs)
	if err != nil {
		log.Fatal(err)
	}
	defer reopened.Close()

	s1, _ := reopened.Get("s1")
	zero, measured, _ := s1.ValueAt(2)
	_, measured0, _ := s1.ValueAt(0)

	fmt.Println("version:", m.Version)
	fmt.Println("index 2:", zero, measured)
	fmt.Println("index 0 measured:", measured0)
	// Output:
	// version: 1
	// index 2: 0 true
	// index 0 measured: false
}

// ExampleDB_Sparsity demonstrates dataset-level queries.
func ExampleDB_Sparsity() {
	ctx := context.Background()
	db, _ := celldb.Open(ctx, blobstore.NewMemoryStore(), celldb.WithDimension(4))
	defer db.Close()

	_ = db.PutAll(ctx, []*sample.Sample{
		sample.MustNew("a", 4, []int32{0, 1}, []float64{1, 0}),
		sample.MustNew("b", 4, []int32{0, 1, 2, 3}, []float64{1, 2, 3, 4}),
	})

	sparsity, _ := db.Sparsity(ctx)
	zeros, _ := db.TrueZerosPerSample(ctx)

	fmt.Printf("sparsity: %.2f\n", sparsity)
	fmt.Println("true zeros in a:", zeros["a"])
	// Output:
	// sparsity: 0.75
	// true zeros in a: 1
}

// ExampleDB_Coverage demonstrates bitmap queries over measured features.
func ExampleDB_Coverage() {
	ctx := context.Background()
	db, _ := celldb.Open(ctx, blobstore.NewMemoryStore(), celldb.WithDimension(3))
	defer db.Close()

	_ = db.PutAll(ctx, []*sample.Sample{
		sample.MustNew("a", 3, []int32{0, 2}, []float64{1, 1}),
		sample.MustNew("b", 3, []int32{1}, []float64{0}),
		sample.MustNew("c", 3, []int32{0, 1}, []float64{5, 0}),
	})

	cov, _ := db.Coverage(ctx)
	all, _ := cov.MeasuredAll(0, 1)
	either, _ := cov.MeasuredAny(1, 2)

	fmt.Println(all)
	fmt.Println(either)
	// Output:
	// [c]
	// [a b c]
}
