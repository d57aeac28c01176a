package store

import (
	"github.com/hupe1980/celldb/codec"
	"github.com/hupe1980/celldb/resource"
	"github.com/hupe1980/celldb/table"
)

// Option configures Persist, Load, Commit and Open.
type Option func(*options)

type options struct {
	compression table.Compression
	blockSize   int
	rc          *resource.Controller
	codec       codec.Codec
}

func applyOptions(opts []Option) options {
	o := options{
		compression: table.CompressionZSTD,
		codec:       codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCompression sets the column compression of written tables.
func WithCompression(c table.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithBlockSize sets the uncompressed column block size.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithResourceController rate limits table reads and writes.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithCodec sets the manifest codec.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}
