package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync/atomic"
)

// byteBlob serves a blob whose full content is addressable: a MemoryStore
// entry or a memory-mapped LocalStore file. release runs once on Close.
type byteBlob struct {
	data    []byte
	release func() error
	closed  atomic.Bool
}

func (b *byteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if b.closed.Load() {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *byteBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, os.ErrClosed
	}
	if off < 0 || off >= int64(len(b.data)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b.data)))
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

func (b *byteBlob) Size() int64 { return int64(len(b.data)) }

// Bytes implements Mappable.
func (b *byteBlob) Bytes() ([]byte, error) {
	if b.closed.Load() {
		return nil, os.ErrClosed
	}
	return b.data, nil
}

func (b *byteBlob) Close() error {
	if b.closed.Swap(true) || b.release == nil {
		return nil
	}
	return b.release()
}
