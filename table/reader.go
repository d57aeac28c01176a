package table

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// Reader decodes a table held fully in memory.
type Reader struct {
	header *Header
	schema Schema

	ids   []byte
	idx   []byte
	quant []byte
	row   uint64
}

// NewReader validates the header, trailing checksum and schema of data and
// decompresses the column sections. Decoded rows do not alias data.
func NewReader(data []byte) (*Reader, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderSize+trailerSize {
		return nil, fmt.Errorf("%w: missing trailer", ErrCorrupted)
	}

	end := uint64(len(data) - trailerSize)
	body := data[HeaderSize:end]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[end:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}

	bounds := []uint64{h.SchemaOffset, h.IDOffset, h.IdxOffset, h.QuantOffset, end}
	if bounds[0] != HeaderSize {
		return nil, fmt.Errorf("%w: schema offset %d", ErrCorrupted, bounds[0])
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] < bounds[i-1] || bounds[i] > end {
			return nil, fmt.Errorf("%w: section offsets out of order", ErrCorrupted)
		}
	}
	section := func(i int) []byte { return data[bounds[i]:bounds[i+1]] }

	schema, err := decodeSchema(section(0))
	if err != nil {
		return nil, err
	}
	if !schema.Equal(CellSchema) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrSchemaMismatch, schema, CellSchema)
	}

	r := &Reader{header: h, schema: schema}
	for i, dst := range []*[]byte{&r.ids, &r.idx, &r.quant} {
		col, err := decodeBlocks(section(i+1), h.Compression)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", CellSchema[i].Name, err)
		}
		*dst = col
	}
	return r, nil
}

// Header returns the decoded file header.
func (r *Reader) Header() Header { return *r.header }

// Schema returns the stored schema.
func (r *Reader) Schema() Schema { return r.schema }

// Dimension returns the recorded dimension, 0 if none was written.
func (r *Reader) Dimension() int { return int(r.header.Dimension) }

// NumRows returns the row count from the header.
func (r *Reader) NumRows() int { return int(r.header.RowCount) } //nolint:gosec

// Next decodes the next row. It returns io.EOF after the last row.
func (r *Reader) Next() (Row, error) {
	if r.row >= r.header.RowCount {
		if len(r.ids) != 0 || len(r.idx) != 0 || len(r.quant) != 0 {
			return Row{}, fmt.Errorf("%w: trailing column data after %d rows", ErrCorrupted, r.row)
		}
		return Row{}, io.EOF
	}

	id, err := r.nextID()
	if err != nil {
		return Row{}, err
	}
	n, err := r.nextLen(&r.idx, 4)
	if err != nil {
		return Row{}, err
	}
	m, err := r.nextLen(&r.quant, 8)
	if err != nil {
		return Row{}, err
	}
	if n != m {
		return Row{}, fmt.Errorf("%w: row %q has %d idx and %d quant entries", ErrSchemaMismatch, id, n, m)
	}

	row := Row{ID: id, Idx: make([]int32, n), Quant: make([]float64, n)}
	for i := range row.Idx {
		row.Idx[i] = int32(binary.LittleEndian.Uint32(r.idx[i*4:])) //nolint:gosec
	}
	for i := range row.Quant {
		row.Quant[i] = math.Float64frombits(binary.LittleEndian.Uint64(r.quant[i*8:]))
	}
	r.idx = r.idx[n*4:]
	r.quant = r.quant[m*8:]
	r.row++
	return row, nil
}

func (r *Reader) nextID() (string, error) {
	l, k := binary.Uvarint(r.ids)
	if k <= 0 || uint64(len(r.ids)-k) < l {
		return "", fmt.Errorf("%w: id column truncated at row %d", ErrCorrupted, r.row)
	}
	id := string(r.ids[k : k+int(l)])
	r.ids = r.ids[k+int(l):]
	return id, nil
}

// nextLen consumes a list length prefix and checks the list fits.
func (r *Reader) nextLen(col *[]byte, width int) (int, error) {
	l, k := binary.Uvarint(*col)
	if k <= 0 || uint64(len(*col)-k)/uint64(width) < l {
		return 0, fmt.Errorf("%w: list column truncated at row %d", ErrCorrupted, r.row)
	}
	*col = (*col)[k:]
	return int(l), nil
}

// ReadAll decodes the remaining rows.
func (r *Reader) ReadAll() ([]Row, error) {
	rows := make([]Row, 0, min(r.header.RowCount-r.row, uint64(len(r.ids))))
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// ReadRows decodes a complete table.
func ReadRows(data []byte) (*Header, []Row, error) {
	r, err := NewReader(data)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	h := r.Header()
	return &h, rows, nil
}
