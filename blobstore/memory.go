package blobstore

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory BlobStore implementation for testing.
// It stores blobs in memory without any filesystem dependency.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open opens a blob for reading. Stored slices are never mutated, so the
// returned blob shares them.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	return NewBytesBlob(data), nil
}

// Create creates a new writable blob.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryWritableBlob{
		store: m,
		name:  name,
	}, nil
}

// Put writes a blob atomically.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	copied := bytes.Clone(data)
	if copied == nil {
		copied = []byte{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = copied
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix, sorted by name.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// memoryWritableBlob implements WritableBlob for in-memory writes.
type memoryWritableBlob struct {
	store  *MemoryStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *memoryWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memoryWritableBlob) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.store.Put(context.Background(), w.name, w.buf.Bytes())
}

func (w *memoryWritableBlob) Sync() error {
	return nil
}
