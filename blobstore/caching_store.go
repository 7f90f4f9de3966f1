package blobstore

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/hupe1980/postcodes/cache"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBlockSize = 4096
	maxFetchParallel = 16
)

// IOLimiter throttles bytes fetched from the wrapped store.
type IOLimiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// CachingOption configures a CachingStore.
type CachingOption func(*CachingStore)

// WithIOLimiter throttles backend fetches.
func WithIOLimiter(l IOLimiter) CachingOption {
	return func(s *CachingStore) { s.limiter = l }
}

// CachingStore wraps a BlobStore and adds block-level caching.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
	limiter   IOLimiter
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 4KB if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64, opts ...CachingOption) *CachingStore {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	s := &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		version:   blobVersion(b),
		blockSize: s.blockSize,
		limiter:   s.limiter,
	}, nil
}

// Create passes through; the cache is invalidated once the blob is complete.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingWriter{WritableBlob: w, invalidate: func() { s.invalidate(name) }}, nil
}

// Put writes through and drops cached blocks of the old version.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob and its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Kind == cache.CacheKindBlob && key.Path == name
	})
}

type invalidatingWriter struct {
	WritableBlob
	invalidate func()
}

func (w *invalidatingWriter) Close() error {
	err := w.WritableBlob.Close()
	w.invalidate()
	return err
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	version   string
	blockSize int64
	limiter   IOLimiter
}

// blobVersion keys cached blocks to one generation of a blob, so a cache
// shared between processes never serves blocks of a rewritten blob.
func blobVersion(b Blob) string {
	v := strconv.FormatInt(b.Size(), 10)
	if vb, ok := b.(Versioned); ok {
		if s := vb.Version(); s != "" {
			v += "-" + s
		}
	}
	return v
}

// Close closes the wrapped blob.
func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

// Size returns the size of the wrapped blob.
func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

// ReadAt assembles the request from cached blocks, fetching missing runs
// from the wrapped blob.
func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := p
	if rem := size - off; int64(len(want)) > rem {
		want = want[:rem]
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(want)) - 1) / b.blockSize

	blocks, err := b.load(ctx, startBlock, endBlock)
	if err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize
		data := blocks[blk]

		from := max(blkStart, off)
		to := min(blkStart+int64(len(data)), off+int64(len(want)))
		if to <= from {
			return total, io.ErrUnexpectedEOF
		}
		total += copy(want[from-off:to-off], data[from-blkStart:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// load returns blocks [startBlock, endBlock], fetching contiguous runs of
// missing blocks in single backend requests.
func (b *CachingBlob) load(ctx context.Context, startBlock, endBlock int64) (map[int64][]byte, error) {
	type run struct{ start, count int64 }

	blocks := make(map[int64][]byte, endBlock-startBlock+1)
	var missing []run

	for blk := startBlock; blk <= endBlock; blk++ {
		if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
			blocks[blk] = data
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	if len(missing) == 0 {
		return blocks, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchParallel)

	for _, r := range missing {
		g.Go(func() error {
			fetched, err := b.fetch(gctx, r.start, r.count)
			if err != nil {
				return err
			}
			mu.Lock()
			for blk, data := range fetched {
				blocks[blk] = data
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (b *CachingBlob) fetch(ctx context.Context, start, count int64) (map[int64][]byte, error) {
	byteStart := start * b.blockSize
	byteSize := min(count*b.blockSize, b.Size()-byteStart)
	if byteSize <= 0 {
		return nil, nil
	}

	if b.limiter != nil {
		if err := b.limiter.AcquireIO(ctx, int(byteSize)); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, byteSize)
	n, err := b.inner.ReadAt(ctx, buf, byteStart)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	buf = buf[:n]

	out := make(map[int64][]byte, count)
	for i := int64(0); i < count; i++ {
		lo := i * b.blockSize
		if lo >= int64(len(buf)) {
			break
		}
		hi := min(lo+b.blockSize, int64(len(buf)))

		// Copy so a cached block does not pin the whole run.
		block := make([]byte, hi-lo)
		copy(block, buf[lo:hi])

		out[start+i] = block
		b.cache.Set(ctx, b.key(start+i), block)
	}
	return out, nil
}

func (b *CachingBlob) key(blk int64) cache.CacheKey {
	return cache.CacheKey{
		Kind:    cache.CacheKindBlob,
		Path:    b.name,
		Version: b.version,
		Offset:  uint64(blk * b.blockSize),
	}
}

// ReadRange streams the range through the block cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 {
		return nil, ErrInvalidOffset
	}
	limit := min(off+max(length, 0), b.Size())
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

// contextSectionReader adapts a Blob to io.Reader with a fixed context.
type contextSectionReader struct {
	blob  Blob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
