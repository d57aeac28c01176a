package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		m := i % 7
		row := Row{ID: fmt.Sprintf("cell-%05d", i), Idx: make([]int32, m), Quant: make([]float64, m)}
		for j := range m {
			row.Idx[j] = int32((i*31 + j*17) % 1000)
			row.Quant[j] = float64(j%3) * 0.5 // every third value is an explicit zero
		}
		rows[i] = row
	}
	return rows
}

func encode(t *testing.T, rows []Row, opts ...WriterOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	stats, err := WriteRows(&buf, rows, opts...)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), stats.BytesWritten)
	require.Equal(t, len(rows), stats.Rows)
	return buf.Bytes()
}

func TestRoundTrip_Compression(t *testing.T) {
	rows := testRows(2000)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data := encode(t, rows, WithCompression(c), WithDimension(1000), WithBlockSize(4096))

			r, err := NewReader(data)
			require.NoError(t, err)
			assert.Equal(t, len(rows), r.NumRows())

			h, got, err := ReadRows(data)
			require.NoError(t, err)
			assert.Equal(t, c, h.Compression)
			assert.Equal(t, uint32(1000), h.Dimension)
			assert.Equal(t, rows, got)
		})
	}
}

func TestRoundTrip_CompressionShrinksRepetitiveData(t *testing.T) {
	rows := testRows(5000)
	raw := encode(t, rows)
	packed := encode(t, rows, WithCompression(CompressionZSTD))
	assert.Less(t, len(packed), len(raw))
}

func TestRoundTrip_PreservesBits(t *testing.T) {
	rows := []Row{
		{ID: "s1", Idx: []int32{3, 1, 2}, Quant: []float64{7.0, 1.0, 0.0}},
		{ID: "neg-zero", Idx: []int32{0}, Quant: []float64{math.Copysign(0, -1)}},
		{ID: "nan", Idx: []int32{4}, Quant: []float64{math.NaN()}},
		{ID: "empty"},
	}

	_, got, err := ReadRows(encode(t, rows, WithCompression(CompressionLZ4)))
	require.NoError(t, err)
	require.Len(t, got, len(rows))

	assert.Equal(t, []int32{3, 1, 2}, got[0].Idx, "entry order must be kept")
	assert.Equal(t, []float64{7.0, 1.0, 0.0}, got[0].Quant)
	assert.True(t, math.Signbit(got[1].Quant[0]))
	assert.True(t, math.IsNaN(got[2].Quant[0]))
	assert.Empty(t, got[3].Idx)
	assert.Empty(t, got[3].Quant)
}

func TestRoundTrip_Empty(t *testing.T) {
	h, rows, err := ReadRows(encode(t, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), h.RowCount)
	assert.Equal(t, uint32(0), h.Dimension)
	assert.Empty(t, rows)
}

func TestReader_SchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.schema = Schema{
		{Name: "id", Type: TypeString},
		{Name: "idx", Type: TypeInt32, List: true},
		{Name: "quant", Type: TypeFloat64, List: false},
	}
	require.NoError(t, w.Append(Row{ID: "a"}))
	_, err := w.Close()
	require.NoError(t, err)

	_, err = NewReader(buf.Bytes())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReader_UnequalListLengths(t *testing.T) {
	data := encode(t, []Row{
		{ID: "ok", Idx: []int32{1}, Quant: []float64{1}},
		{ID: "bad", Idx: []int32{1, 2}, Quant: []float64{1}},
	})

	r, err := NewReader(data)
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReader_Corruption(t *testing.T) {
	data := encode(t, testRows(10), WithCompression(CompressionZSTD))

	t.Run("body", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[HeaderSize+3] ^= 0xFF
		_, err := NewReader(bad)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("header", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[20] ^= 0xFF
		_, err := NewReader(bad)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := NewReader(data[:len(data)-10])
		assert.ErrorIs(t, err, ErrCorrupted)

		_, err = NewReader(data[:10])
		assert.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestReader_OversizedBlock(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			bad := bytes.Clone(encode(t, testRows(200), WithCompression(c)))

			// Claim a 4 GiB first id block and re-seal the file.
			idOff := binary.LittleEndian.Uint64(bad[32:40])
			binary.LittleEndian.PutUint32(bad[idOff:], math.MaxUint32)
			end := len(bad) - 4
			binary.LittleEndian.PutUint32(bad[end:], crc32.ChecksumIEEE(bad[HeaderSize:end]))

			_, err := NewReader(bad)
			require.ErrorIs(t, err, ErrCorrupted)
			assert.ErrorContains(t, err, "exceeds")
		})
	}
}

func TestBlockWriter_CapsBlockSize(t *testing.T) {
	b := newBlockWriter(CompressionNone, 1<<30)
	assert.Equal(t, MaxBlockSize, b.blockSize)

	_, err := b.Write(make([]byte, MaxBlockSize+10))
	require.NoError(t, err)
	section, err := b.finish()
	require.NoError(t, err)

	raw, err := decodeBlocks(section, CompressionNone)
	require.NoError(t, err)
	assert.Len(t, raw, MaxBlockSize+10)
}

func TestReader_MagicAndVersion(t *testing.T) {
	data := encode(t, testRows(3))

	bad := bytes.Clone(data)
	copy(bad, "XXXX")
	_, err := NewReader(bad)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	h, err := decodeHeader(data)
	require.NoError(t, err)
	h.Version = FormatVersion + 1
	bad = append(h.encode(), data[HeaderSize:]...)
	_, err = NewReader(bad)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestWriter_ClosedTwice(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	_, err := w.Close()
	require.NoError(t, err)

	_, err = w.Close()
	require.Error(t, err)
	require.Error(t, w.Append(Row{ID: "x"}))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, "zstd": CompressionZSTD} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
