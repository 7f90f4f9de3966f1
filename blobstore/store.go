package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for immutable data blobs (index files).
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off. It follows io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams [off, off+length), clipped to the blob size.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob under construction.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// Versioned is an optional interface for Blobs that can tell rewrites of
// the same name apart, such as by ETag or modification time.
type Versioned interface {
	Version() string
}

// ReaderAt adapts a Blob to io.ReaderAt using a fixed context.
func ReaderAt(ctx context.Context, b Blob) io.ReaderAt {
	return &readerAt{ctx: ctx, b: b}
}

type readerAt struct {
	ctx context.Context
	b   Blob
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}
