package blobstore

import (
	"bytes"
	"context"
	"io"
)

// BytesBlob is a Blob over an in-memory byte slice.
// It implements Mappable without copying.
type BytesBlob struct {
	data []byte
}

var (
	_ Blob     = (*BytesBlob)(nil)
	_ Mappable = (*BytesBlob)(nil)
)

// NewBytesBlob wraps data. The caller must not modify data afterwards.
func NewBytesBlob(data []byte) *BytesBlob {
	return &BytesBlob{data: data}
}

// ReadAt implements Blob.
func (b *BytesBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return readAtBytes(b.data, p, off)
}

// ReadRange implements Blob.
func (b *BytesBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if err := checkRange(off, b.Size()); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(clip(b.data, off, length))), nil
}

// Size implements Blob.
func (b *BytesBlob) Size() int64 {
	return int64(len(b.data))
}

// Bytes implements Mappable.
func (b *BytesBlob) Bytes() ([]byte, error) {
	return b.data, nil
}

// Close implements Blob.
func (b *BytesBlob) Close() error {
	return nil
}

func readAtBytes(data, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func clip(data []byte, off, length int64) []byte {
	size := int64(len(data))
	if off < 0 || length <= 0 || off >= size {
		return nil
	}
	end := off + length
	if end > size || end < off {
		end = size
	}
	return data[off:end]
}

// checkRange rejects ranges starting before 0 or after the end of the blob.
func checkRange(off, size int64) error {
	if off < 0 {
		return ErrInvalidOffset
	}
	if off > size {
		return io.EOF
	}
	return nil
}
