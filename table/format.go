package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	// FormatMagic identifies celldb table files (ASCII: "CDB1").
	FormatMagic = 0x43444231

	// FormatVersion is the current table format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64

	trailerSize = 4
)

var (
	// ErrInvalidMagic is returned when a file has an invalid magic number.
	ErrInvalidMagic = errors.New("table: invalid magic number")

	// ErrInvalidVersion is returned when a file has an unsupported version.
	ErrInvalidVersion = errors.New("table: unsupported format version")

	// ErrCorrupted is returned when a file fails checksum or bounds validation.
	ErrCorrupted = errors.New("table: file corrupted")

	// ErrSchemaMismatch is returned when the stored schema or a row's shape
	// does not match {id: string, idx: list<int32>, quant: list<float64>}.
	ErrSchemaMismatch = errors.New("table: schema mismatch")
)

// Header is the 64-byte header at the start of every table.
//
// All multi-byte fields are little-endian.
type Header struct {
	Magic        uint32
	Version      uint32
	Flags        uint16
	Compression  Compression
	Dimension    uint32 // 0 when the writer recorded no dimension
	RowCount     uint64
	SchemaOffset uint64
	IDOffset     uint64
	IdxOffset    uint64
	QuantOffset  uint64
	Checksum     uint32 // CRC32 of bytes [0, 56)
}

// Validate checks magic and version.
func (h *Header) Validate() error {
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	return nil
}

func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint16(buf[8:10], h.Flags)
	buf[10] = byte(h.Compression)
	binary.LittleEndian.PutUint32(buf[12:16], h.Dimension)
	binary.LittleEndian.PutUint64(buf[16:24], h.RowCount)
	binary.LittleEndian.PutUint64(buf[24:32], h.SchemaOffset)
	binary.LittleEndian.PutUint64(buf[32:40], h.IDOffset)
	binary.LittleEndian.PutUint64(buf[40:48], h.IdxOffset)
	binary.LittleEndian.PutUint64(buf[48:56], h.QuantOffset)

	h.Checksum = crc32.ChecksumIEEE(buf[:56])
	binary.LittleEndian.PutUint32(buf[56:60], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupted, len(buf))
	}

	h := &Header{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		Version:      binary.LittleEndian.Uint32(buf[4:8]),
		Flags:        binary.LittleEndian.Uint16(buf[8:10]),
		Compression:  Compression(buf[10]),
		Dimension:    binary.LittleEndian.Uint32(buf[12:16]),
		RowCount:     binary.LittleEndian.Uint64(buf[16:24]),
		SchemaOffset: binary.LittleEndian.Uint64(buf[24:32]),
		IDOffset:     binary.LittleEndian.Uint64(buf[32:40]),
		IdxOffset:    binary.LittleEndian.Uint64(buf[40:48]),
		QuantOffset:  binary.LittleEndian.Uint64(buf[48:56]),
		Checksum:     binary.LittleEndian.Uint32(buf[56:60]),
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(buf[:56]) != h.Checksum {
		return nil, fmt.Errorf("%w: header checksum mismatch", ErrCorrupted)
	}
	if h.Compression > CompressionZSTD {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupted, h.Compression)
	}
	return h, nil
}

// DataType is the element type of a schema field.
type DataType uint8

const (
	TypeString  DataType = 1
	TypeInt32   DataType = 2
	TypeFloat64 DataType = 3
)

func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt32:
		return "int32"
	case TypeFloat64:
		return "float64"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Field is one column of the schema descriptor.
type Field struct {
	Name string
	Type DataType
	List bool
}

func (f Field) String() string {
	if f.List {
		return f.Name + ": list<" + f.Type.String() + ">"
	}
	return f.Name + ": " + f.Type.String()
}

// Schema is the ordered list of fields stored in a table.
type Schema []Field

// CellSchema is the only schema this package reads and writes.
var CellSchema = Schema{
	{Name: "id", Type: TypeString},
	{Name: "idx", Type: TypeInt32, List: true},
	{Name: "quant", Type: TypeFloat64, List: true},
}

// Equal reports whether both schemas have the same fields in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Schema descriptor: [fieldCount uint16] then per field
// [nameLen uint16][name][type uint8][list uint8].
func (s Schema) encode() []byte {
	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(s)))
	for _, f := range s {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Name)))
		buf = append(buf, f.Name...)
		list := byte(0)
		if f.List {
			list = 1
		}
		buf = append(buf, byte(f.Type), list)
	}
	return buf
}

func decodeSchema(buf []byte) (Schema, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: truncated schema descriptor", ErrCorrupted)
	}
	n := int(binary.LittleEndian.Uint16(buf))
	buf = buf[2:]

	s := make(Schema, 0, n)
	for range n {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: truncated schema field", ErrCorrupted)
		}
		nameLen := int(binary.LittleEndian.Uint16(buf))
		buf = buf[2:]
		if len(buf) < nameLen+2 {
			return nil, fmt.Errorf("%w: truncated schema field", ErrCorrupted)
		}
		s = append(s, Field{
			Name: string(buf[:nameLen]),
			Type: DataType(buf[nameLen]),
			List: buf[nameLen+1] == 1,
		})
		buf = buf[nameLen+2:]
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after schema", ErrCorrupted, len(buf))
	}
	return s, nil
}

// Row is one table row: a sample id and its parallel idx/quant lists.
type Row struct {
	ID    string
	Idx   []int32
	Quant []float64
}
