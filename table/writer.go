package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the column block compression.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) { w.compression = c }
}

// WithDimension records the sample dimension in the header.
func WithDimension(dim int) WriterOption {
	return func(w *Writer) { w.dimension = uint32(dim) } //nolint:gosec
}

// WithBlockSize sets the uncompressed size of column blocks, capped at
// MaxBlockSize.
func WithBlockSize(n int) WriterOption {
	return func(w *Writer) { w.blockSize = n }
}

// Stats describes a written table.
type Stats struct {
	Rows         int
	Entries      int
	RawBytes     int64 // column bytes before compression
	BytesWritten int64 // total file size
}

// Writer encodes rows into a table.
//
// Columns are buffered in memory and the file is emitted on Close, so w only
// needs to support sequential writes (a blob upload, a pipe).
type Writer struct {
	w           io.Writer
	compression Compression
	dimension   uint32
	blockSize   int
	schema      Schema

	ids   *blockWriter
	idx   *blockWriter
	quant *blockWriter

	scratch []byte
	stats   Stats
	closed  bool
}

// NewWriter returns a writer that emits a table to w on Close.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	tw := &Writer{
		w:      w,
		schema: CellSchema,
	}
	for _, opt := range opts {
		opt(tw)
	}
	tw.ids = newBlockWriter(tw.compression, tw.blockSize)
	tw.idx = newBlockWriter(tw.compression, tw.blockSize)
	tw.quant = newBlockWriter(tw.compression, tw.blockSize)
	return tw
}

// Append adds a row. Idx and Quant are written exactly as given.
func (w *Writer) Append(row Row) error {
	if w.closed {
		return errors.New("table: writer closed")
	}

	w.scratch = binary.AppendUvarint(w.scratch[:0], uint64(len(row.ID)))
	w.scratch = append(w.scratch, row.ID...)
	_, _ = w.ids.Write(w.scratch)

	w.scratch = binary.AppendUvarint(w.scratch[:0], uint64(len(row.Idx)))
	for _, v := range row.Idx {
		w.scratch = binary.LittleEndian.AppendUint32(w.scratch, uint32(v)) //nolint:gosec
	}
	_, _ = w.idx.Write(w.scratch)

	w.scratch = binary.AppendUvarint(w.scratch[:0], uint64(len(row.Quant)))
	for _, v := range row.Quant {
		w.scratch = binary.LittleEndian.AppendUint64(w.scratch, math.Float64bits(v))
	}
	_, _ = w.quant.Write(w.scratch)

	w.stats.Rows++
	w.stats.Entries += len(row.Idx)
	return nil
}

// Close writes the table and returns its stats. It does not close the
// underlying writer.
func (w *Writer) Close() (Stats, error) {
	if w.closed {
		return w.stats, errors.New("table: writer closed")
	}
	w.closed = true

	schema := w.schema.encode()
	sections := make([][]byte, 0, 4)
	sections = append(sections, schema)
	for _, col := range []*blockWriter{w.ids, w.idx, w.quant} {
		data, err := col.finish()
		if err != nil {
			return w.stats, fmt.Errorf("table: compress column: %w", err)
		}
		w.stats.RawBytes += col.raw
		sections = append(sections, data)
	}

	h := Header{
		Magic:       FormatMagic,
		Version:     FormatVersion,
		Compression: w.compression,
		Dimension:   w.dimension,
		RowCount:    uint64(w.stats.Rows), //nolint:gosec
	}
	offsets := []*uint64{&h.SchemaOffset, &h.IDOffset, &h.IdxOffset, &h.QuantOffset}
	off := uint64(HeaderSize)
	for i, s := range sections {
		*offsets[i] = off
		off += uint64(len(s))
	}

	n, err := w.w.Write(h.encode())
	w.stats.BytesWritten += int64(n)
	if err != nil {
		return w.stats, err
	}

	crc := crc32.NewIEEE()
	body := io.MultiWriter(w.w, crc)
	for _, s := range sections {
		n, err := body.Write(s)
		w.stats.BytesWritten += int64(n)
		if err != nil {
			return w.stats, err
		}
	}

	n, err = w.w.Write(binary.LittleEndian.AppendUint32(nil, crc.Sum32()))
	w.stats.BytesWritten += int64(n)
	return w.stats, err
}

// WriteRows is a convenience wrapper that writes rows to w in one call.
func WriteRows(w io.Writer, rows []Row, opts ...WriterOption) (Stats, error) {
	tw := NewWriter(w, opts...)
	for _, r := range rows {
		if err := tw.Append(r); err != nil {
			return Stats{}, err
		}
	}
	return tw.Close()
}
