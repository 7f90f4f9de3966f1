package section

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/postcodes/blobstore"
)

// Reader is a read-only view of [off, off+size) of a blob.
//
// When the blob is Mappable the view aliases the mapped bytes and reads
// never copy; otherwise reads are forwarded as ranged ReadAt calls.
// A Reader never closes the blob it borrows.
type Reader struct {
	blob   blobstore.Blob
	data   []byte // set when mapped
	mapped bool
	off    int64
	size   int64
}

// NewReader returns a view of the whole blob.
func NewReader(blob blobstore.Blob) *Reader {
	r := &Reader{blob: blob, size: blob.Size()}
	if m, ok := blob.(blobstore.Mappable); ok {
		if data, err := m.Bytes(); err == nil && int64(len(data)) == r.size {
			r.data = data
			r.mapped = true
		}
	}
	return r
}

// FromBytes returns a view over an in-memory buffer.
func FromBytes(b []byte) *Reader {
	return &Reader{data: b, mapped: true, size: int64(len(b))}
}

// Size returns the length of the view.
func (r *Reader) Size() int64 {
	return r.size
}

// Offset returns the absolute position of the view within its blob.
func (r *Reader) Offset() int64 {
	return r.off
}

// Mapped reports whether the view aliases memory.
func (r *Reader) Mapped() bool {
	return r.mapped
}

// Bytes returns the aliased bytes of a mapped view.
func (r *Reader) Bytes() ([]byte, bool) {
	if !r.mapped {
		return nil, false
	}
	return r.data[r.off : r.off+r.size], true
}

// Sub returns the view [off, off+size) relative to r.
func (r *Reader) Sub(off, size int64) (*Reader, error) {
	if off < 0 || size < 0 || off > r.size-size {
		return nil, fmt.Errorf("%w: [%d,+%d) of %d", ErrOutOfBounds, off, size, r.size)
	}
	return &Reader{
		blob:   r.blob,
		data:   r.data,
		mapped: r.mapped,
		off:    r.off + off,
		size:   size,
	}, nil
}

// ReadAt implements io.ReaderAt semantics relative to the view, with a context.
func (r *Reader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOutOfBounds, off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= r.size {
		return 0, io.EOF
	}

	want := p
	if rem := r.size - off; int64(len(want)) > rem {
		want = want[:rem]
	}

	var (
		n   int
		err error
	)
	if r.mapped {
		n = copy(want, r.data[r.off+off:])
	} else {
		n, err = r.blob.ReadAt(ctx, want, r.off+off)
		if errors.Is(err, io.EOF) && n == len(want) {
			err = nil
		}
		if err != nil {
			return n, err
		}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadFull returns exactly n bytes at off. For mapped views the result
// aliases the mapping and must not be modified.
func (r *Reader) ReadFull(ctx context.Context, off int64, n int) ([]byte, error) {
	if n < 0 || off < 0 || off > r.size {
		return nil, fmt.Errorf("%w: [%d,+%d) of %d", ErrOutOfBounds, off, n, r.size)
	}
	if int64(n) > r.size-off {
		return nil, io.ErrUnexpectedEOF
	}
	if r.mapped {
		start := r.off + off
		return r.data[start : start+int64(n)], nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	got, err := r.blob.ReadAt(ctx, buf, r.off+off)
	if got == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

// NewStream returns a sequential reader over the whole view.
func (r *Reader) NewStream(ctx context.Context) io.Reader {
	return &stream{ctx: ctx, r: r}
}

type stream struct {
	ctx context.Context
	r   *Reader
	pos int64
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.r.ReadAt(s.ctx, p, s.pos)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
