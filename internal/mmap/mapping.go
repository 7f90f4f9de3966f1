package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

// Mapping represents a memory-mapped file.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	data   []byte
	size   int
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	data, unmapFunc, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data:  data,
		size:  int(size),
		unmap: unmapFunc,
	}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped bytes, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	return readAt(m.data, p, off)
}

func readAt(data, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
