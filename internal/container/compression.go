package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how the table of contents is stored.
type Compression uint8

const (
	// CompressionNone stores the TOC as is.
	CompressionNone Compression = 0
	// CompressionLZ4 stores the TOC as an LZ4 block.
	CompressionLZ4 Compression = 1
	// CompressionZSTD stores the TOC as a zstd frame.
	CompressionZSTD Compression = 2
)

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	return c <= CompressionZSTD
}

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

// ParseCompression maps a name to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("container: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxTOCSize))
}

// Block layout: [u32 uncompressedSize][u32 compressedSize][data].
// compressedSize 0 means data is stored raw.
const blockHeaderSize = 8

// compressBlock wraps data in a block. Data that does not shrink is stored raw.
func compressBlock(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}

	var (
		compressed []byte
		err        error
	)
	switch c {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	default:
		return nil, fmt.Errorf("container: unknown compression %d", c)
	}
	if err != nil {
		return nil, err
	}

	stored := uint32(len(compressed))
	if len(compressed) == 0 || len(compressed) >= len(data) {
		compressed, stored = data, 0
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], stored)
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	// n == 0 means incompressible.
	return dst[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}
	if len(data) < blockHeaderSize {
		return nil, errors.New("block too small for header")
	}

	rawSize := binary.LittleEndian.Uint32(data[0:])
	storedSize := binary.LittleEndian.Uint32(data[4:])
	body := data[blockHeaderSize:]

	if rawSize > maxTOCSize {
		return nil, fmt.Errorf("block of %d bytes exceeds limit", rawSize)
	}

	if storedSize == 0 {
		if uint64(len(body)) < uint64(rawSize) {
			return nil, errors.New("block data too small")
		}
		return body[:rawSize], nil
	}
	if uint64(len(body)) < uint64(storedSize) {
		return nil, errors.New("compressed block data too small")
	}
	body = body[:storedSize]

	switch c {
	case CompressionLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil

	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(body, make([]byte, 0, rawSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != rawSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}
