package celldb

import (
	"log/slog"

	"github.com/hupe1980/celldb/codec"
	"github.com/hupe1980/celldb/pca"
	"github.com/hupe1980/celldb/resource"
	"github.com/hupe1980/celldb/store"
	"github.com/hupe1980/celldb/table"
)

type options struct {
	dimension        int
	codec            codec.Codec
	compression      table.Compression
	blockSize        int
	partitions       int
	rc               *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		compression:      table.CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

func (o options) storeOptions() []store.Option {
	opts := []store.Option{
		store.WithCodec(o.codec),
		store.WithCompression(o.compression),
		store.WithResourceController(o.rc),
	}
	if o.blockSize > 0 {
		opts = append(opts, store.WithBlockSize(o.blockSize))
	}
	return opts
}

func (o options) projectOptions() []pca.ProjectOption {
	opts := []pca.ProjectOption{pca.WithResourceController(o.rc)}
	if o.partitions > 0 {
		opts = append(opts, pca.WithPartitions(o.partitions))
	}
	return opts
}

// Option configures Open.
type Option func(*options)

// WithDimension sets the dimension of a new dataset. When the dataset already
// has a committed version, the committed dimension must match.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithCodec configures the codec used for manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the table block compression used by Commit.
func WithCompression(c table.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlockSize sets the uncompressed size of a table column block.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithPartitions sets how many partitions a projection is split into.
// Defaults to GOMAXPROCS.
func WithPartitions(n int) Option {
	return func(o *options) {
		o.partitions = n
	}
}

// WithResourceController bounds projection workers, accounts dense matrix
// memory and rate limits table I/O.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	    MemoryLimitBytes:     1 << 30,
//	})
//	db, _ := celldb.Open(ctx, store, celldb.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &celldb.BasicMetricsCollector{}
//	db, _ := celldb.Open(ctx, store, celldb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Commits: %d, Avg latency: %dns\n", stats.PersistCount, stats.PersistAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(nil, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(nil, level)
	}
}
