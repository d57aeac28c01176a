package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression of column sections.
type Compression uint8

const (
	// CompressionNone stores blocks as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("table: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means the data is stored uncompressed.
const (
	blockHeaderSize  = 8
	defaultBlockSize = 256 * 1024

	// MaxBlockSize bounds the uncompressed size of one block. Readers reject
	// larger blocks before allocating.
	MaxBlockSize = 16 << 20
)

// appendBlock appends data as one block to dst. Blocks that compress to more
// than 90% of their input are stored raw.
func appendBlock(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}

	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// decodeBlocks decompresses a whole column section.
func decodeBlocks(section []byte, c Compression) ([]byte, error) {
	var out []byte
	for off := 0; off < len(section); {
		if off+blockHeaderSize > len(section) {
			return nil, fmt.Errorf("%w: truncated block header", ErrCorrupted)
		}
		rawSize := int(binary.LittleEndian.Uint32(section[off:]))
		packedSize := int(binary.LittleEndian.Uint32(section[off+4:]))
		off += blockHeaderSize
		if rawSize > MaxBlockSize {
			return nil, fmt.Errorf("%w: block of %d bytes exceeds %d", ErrCorrupted, rawSize, MaxBlockSize)
		}

		if packedSize == 0 {
			if off+rawSize > len(section) {
				return nil, fmt.Errorf("%w: block extends beyond section", ErrCorrupted)
			}
			out = append(out, section[off:off+rawSize]...)
			off += rawSize
			continue
		}

		if off+packedSize > len(section) {
			return nil, fmt.Errorf("%w: compressed block extends beyond section", ErrCorrupted)
		}
		packed := section[off : off+packedSize]
		off += packedSize

		start := len(out)
		out = append(out, make([]byte, rawSize)...)
		dst := out[start:]

		switch c {
		case CompressionLZ4:
			n, err := lz4.UncompressBlock(packed, dst)
			if err != nil {
				return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupted, err)
			}
			if n != rawSize {
				return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupted)
			}
		case CompressionZSTD:
			dec := getZstdDecoder()
			decoded, err := dec.DecodeAll(packed, dst[:0])
			zstdDecoderPool.Put(dec)
			if err != nil {
				return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupted, err)
			}
			if len(decoded) != rawSize {
				return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupted)
			}
		default:
			return nil, fmt.Errorf("%w: compressed block in %s table", ErrCorrupted, c)
		}
	}
	return out, nil
}

// blockWriter buffers column bytes and cuts them into compressed blocks.
type blockWriter struct {
	compression Compression
	blockSize   int
	pending     bytes.Buffer
	out         []byte
	raw         int64
}

func newBlockWriter(c Compression, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	blockSize = min(blockSize, MaxBlockSize)
	return &blockWriter{compression: c, blockSize: blockSize}
}

func (b *blockWriter) Write(p []byte) (int, error) {
	b.raw += int64(len(p))
	n, _ := b.pending.Write(p)
	for b.pending.Len() >= b.blockSize {
		if err := b.flushN(b.blockSize); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *blockWriter) flushN(n int) error {
	out, err := appendBlock(b.out, b.pending.Next(n), b.compression)
	if err != nil {
		return err
	}
	b.out = out
	return nil
}

// finish flushes the tail block and returns the encoded section.
func (b *blockWriter) finish() ([]byte, error) {
	if b.pending.Len() > 0 {
		if err := b.flushN(b.pending.Len()); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}
