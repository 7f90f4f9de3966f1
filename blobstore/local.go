package blobstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/postcodes/internal/mmap"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Root returns the directory the store is rooted at.
func (s *LocalStore) Root() string {
	return s.root
}

// Open maps the blob read-only. Index lookups touch scattered pages, so the
// mapping is advised for random access.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(name)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)

	return &localBlob{m: m, modTime: fi.ModTime().UnixNano()}, nil
}

// Create creates a blob that is written to a temporary file and renamed into
// place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{f: f, path: path}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blobs below the root whose slash-separated name has the prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

type localBlob struct {
	m       *mmap.Mapping
	modTime int64
}

// Version is the modification time; rewrites replace the file by rename.
func (b *localBlob) Version() string {
	return strconv.FormatInt(b.modTime, 36)
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return b.m.ReadAt(p, off)
}

// ReadRange streams a region of the mapping. Reads from the stream fail
// with mmap.ErrClosed once the blob is closed.
func (b *localBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := int64(b.m.Size())
	if err := checkRange(off, size); err != nil {
		return nil, err
	}
	length = min(max(length, 0), size-off)

	r, err := b.m.Region(int(off), int(length))
	if err != nil {
		return nil, err
	}
	_ = r.Advise(mmap.AccessSequential)
	return io.NopCloser(io.NewSectionReader(r, 0, length)), nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

type localWritableBlob struct {
	f      *os.File
	path   string
	closed bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	if w.closed {
		return ErrClosed
	}
	return w.f.Sync()
}

func (w *localWritableBlob) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.path); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *localWritableBlob) abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}
