package celldb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement it to integrate with a monitoring system.
type MetricsCollector interface {
	// RecordPut is called after each Put or PutAll. count is the number of
	// samples in the call.
	RecordPut(count int, duration time.Duration, err error)

	// RecordPersist is called after each Commit.
	RecordPersist(rows int, bytes int64, duration time.Duration, err error)

	// RecordLoad is called after a committed version was loaded.
	RecordLoad(rows int, duration time.Duration, err error)

	// RecordQuery is called after each dataset query.
	RecordQuery(op string, duration time.Duration, err error)

	// RecordReduce is called after each PCA computation or projection.
	RecordReduce(k int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPut(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordPersist(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordQuery(string, time.Duration, error)       {}
func (NoopMetricsCollector) RecordReduce(int, time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	PutCount          atomic.Int64
	PutSamples        atomic.Int64
	PutErrors         atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
	PersistRows       atomic.Int64
	PersistBytes      atomic.Int64
	PersistTotalNanos atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadRows          atomic.Int64
	QueryCount        atomic.Int64
	QueryErrors       atomic.Int64
	QueryTotalNanos   atomic.Int64
	ReduceCount       atomic.Int64
	ReduceErrors      atomic.Int64
	ReduceTotalNanos  atomic.Int64
}

// RecordPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPut(count int, _ time.Duration, err error) {
	b.PutCount.Add(1)
	if err != nil {
		b.PutErrors.Add(1)
		return
	}
	b.PutSamples.Add(int64(count))
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(rows int, bytes int64, duration time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
		return
	}
	b.PersistRows.Add(int64(rows))
	b.PersistBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(rows int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadRows.Add(int64(rows))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ string, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordReduce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduce(_ int, duration time.Duration, err error) {
	b.ReduceCount.Add(1)
	b.ReduceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReduceErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PutCount:        b.PutCount.Load(),
		PutSamples:      b.PutSamples.Load(),
		PutErrors:       b.PutErrors.Load(),
		PersistCount:    b.PersistCount.Load(),
		PersistErrors:   b.PersistErrors.Load(),
		PersistRows:     b.PersistRows.Load(),
		PersistBytes:    b.PersistBytes.Load(),
		PersistAvgNanos: avg(b.PersistTotalNanos.Load(), b.PersistCount.Load()),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadRows:        b.LoadRows.Load(),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryAvgNanos:   avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		ReduceCount:     b.ReduceCount.Load(),
		ReduceErrors:    b.ReduceErrors.Load(),
		ReduceAvgNanos:  avg(b.ReduceTotalNanos.Load(), b.ReduceCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PutCount        int64
	PutSamples      int64
	PutErrors       int64
	PersistCount    int64
	PersistErrors   int64
	PersistRows     int64
	PersistBytes    int64
	PersistAvgNanos int64
	LoadCount       int64
	LoadErrors      int64
	LoadRows        int64
	QueryCount      int64
	QueryErrors     int64
	QueryAvgNanos   int64
	ReduceCount     int64
	ReduceErrors    int64
	ReduceAvgNanos  int64
}
