package mmap

import (
	"errors"
	"os"
	"sync"
)

// ErrTooLarge is returned for files that do not fit the address space.
var ErrTooLarge = errors.New("mmap: file too large")

// Hint tells the kernel how a mapping will be read.
type Hint int

const (
	Normal Hint = iota
	// Sequential suits whole-table loads, which scan front to back.
	Sequential
	Random
)

// Mapping is a read-only view of a file.
type Mapping struct {
	data  []byte
	unmap func([]byte) error
	once  sync.Once
	err   error
}

// Open maps the file at path and applies hint. An empty file yields an empty
// mapping. Hints that the kernel rejects are ignored.
func Open(path string, hint Hint) (*Mapping, error) {
	f, err := os.Open(path) //nolint:gosec // callers pass store-relative paths
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return nil, ErrTooLarge
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	if hint != Normal {
		_ = osAdvise(data, hint)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped file. The slice must not be used after Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Close unmaps the file. Later calls return the first result.
func (m *Mapping) Close() error {
	m.once.Do(func() {
		if m.unmap != nil {
			m.err = m.unmap(m.data)
		}
		m.data = nil
	})
	return m.err
}
