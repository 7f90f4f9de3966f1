package section

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version identifies the section layout.
type Version uint8

const (
	// V0 is the only defined layout.
	V0 Version = 0
	// LatestVersion is written by default.
	LatestVersion = V0
)

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 1 + 4*4

// Header locates the trie and the point table inside a section.
type Header struct {
	Version      Version
	TrieOffset   uint32
	TrieSize     uint32
	PointsOffset uint32
	PointsSize   uint32
}

// String returns a compact description for logs.
func (h Header) String() string {
	return fmt.Sprintf("v%d trie=[%d,+%d) points=[%d,+%d)",
		h.Version, h.TrieOffset, h.TrieSize, h.PointsOffset, h.PointsSize)
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h Header) ([]byte, error) {
	if h.Version != V0 {
		return dst, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	dst = append(dst, byte(h.Version))
	dst = binary.LittleEndian.AppendUint32(dst, h.TrieOffset)
	dst = binary.LittleEndian.AppendUint32(dst, h.TrieSize)
	dst = binary.LittleEndian.AppendUint32(dst, h.PointsOffset)
	dst = binary.LittleEndian.AppendUint32(dst, h.PointsSize)
	return dst, nil
}

// WriteHeader writes the encoded header to w.
func WriteHeader(w io.Writer, h Header) error {
	buf, err := AppendHeader(make([]byte, 0, HeaderSize), h)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// DecodeHeader parses a header from the start of buf.
// Ranges are not validated; see Resolve.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrCorruptIndex, HeaderSize, len(buf))
	}
	h := Header{Version: Version(buf[0])}
	if h.Version != V0 {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	h.TrieOffset = binary.LittleEndian.Uint32(buf[1:])
	h.TrieSize = binary.LittleEndian.Uint32(buf[5:])
	h.PointsOffset = binary.LittleEndian.Uint32(buf[9:])
	h.PointsSize = binary.LittleEndian.Uint32(buf[13:])
	return h, nil
}

// ReadHeader reads the header at the start of the section.
func ReadHeader(ctx context.Context, r *Reader) (Header, error) {
	buf, err := r.ReadFull(ctx, 0, HeaderSize)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrOutOfBounds) {
			return Header{}, fmt.Errorf("%w: section of %d bytes is shorter than its header", ErrCorruptIndex, r.Size())
		}
		return Header{}, err
	}
	return DecodeHeader(buf)
}
