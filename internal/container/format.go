package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic is "PCS1" in little-endian byte order.
	Magic uint32 = 0x31534350
	// FooterSize is the fixed size of the trailing footer.
	FooterSize = 8 + 8 + 1 + 4

	// maxTOCSize bounds the decompressed table of contents.
	maxTOCSize = 64 << 20
)

var (
	// ErrCorrupt is returned when the container structure is invalid.
	ErrCorrupt = errors.New("corrupt container")
	// ErrInvalidMagic is returned when the footer magic does not match.
	ErrInvalidMagic = errors.New("container: invalid magic number")
	// ErrSectionNotFound is returned when the container lacks a tag.
	ErrSectionNotFound = errors.New("section not found")
	// ErrDuplicateSection is returned when a tag is written twice.
	ErrDuplicateSection = errors.New("container: duplicate section")
	// ErrDigestMismatch is returned when a section fails verification.
	ErrDigestMismatch = errors.New("section digest mismatch")
	// ErrWriterClosed is returned when writing to a finished container.
	ErrWriterClosed = errors.New("container: writer closed")
)

// Footer locates the table of contents.
type Footer struct {
	TOCOffset   uint64
	TOCSize     uint64
	Compression Compression
}

// Encode serializes the footer.
func (f Footer) Encode() []byte {
	buf := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(buf[0:], f.TOCOffset)
	binary.LittleEndian.PutUint64(buf[8:], f.TOCSize)
	buf[16] = byte(f.Compression)
	binary.LittleEndian.PutUint32(buf[17:], Magic)
	return buf
}

// DecodeFooter parses a footer.
func DecodeFooter(buf []byte) (Footer, error) {
	if len(buf) < FooterSize {
		return Footer{}, fmt.Errorf("%w: footer is %d bytes", ErrCorrupt, len(buf))
	}
	if m := binary.LittleEndian.Uint32(buf[17:]); m != Magic {
		return Footer{}, fmt.Errorf("%w: %#x", ErrInvalidMagic, m)
	}
	f := Footer{
		TOCOffset:   binary.LittleEndian.Uint64(buf[0:]),
		TOCSize:     binary.LittleEndian.Uint64(buf[8:]),
		Compression: Compression(buf[16]),
	}
	if !f.Compression.Valid() {
		return Footer{}, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, buf[16])
	}
	return f, nil
}
