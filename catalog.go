package postcodes

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/postcodes/blobstore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Catalog opens region indexes from a BlobStore on demand.
//
// Concurrent requests for the same region share a single open. Opened
// indexes are cached until Evict or Close; the Catalog owns and closes the
// blobs it opened. An evicted index rejects new operations with ErrClosed
// and its blob is closed when the last running operation returns. A Catalog
// is safe for concurrent use.
type Catalog struct {
	store blobstore.BlobStore
	opts  []Option
	o     options

	group singleflight.Group

	mu      sync.RWMutex
	regions map[string]*region
	closed  bool
}

type region struct {
	blob  blobstore.Blob
	index *Index
}

// NewCatalog returns a Catalog over store. opts apply to every opened index.
func NewCatalog(store blobstore.BlobStore, opts ...Option) *Catalog {
	return &Catalog{
		store:   store,
		opts:    opts,
		o:       applyOptions(opts),
		regions: make(map[string]*region),
	}
}

// Index returns the opened index of the named region file.
func (c *Catalog) Index(ctx context.Context, name string) (*Index, error) {
	c.mu.RLock()
	closed := c.closed
	r, ok := c.regions[name]
	c.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return r.index, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		return c.open(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

func (c *Catalog) open(ctx context.Context, name string) (*Index, error) {
	c.mu.RLock()
	if r, ok := c.regions[name]; ok {
		c.mu.RUnlock()
		return r.index, nil
	}
	c.mu.RUnlock()

	blob, err := c.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	opts := append(slices.Clone(c.opts), WithName(name))
	idx, err := Open(ctx, blob, opts...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = blob.Close()
		return nil, ErrClosed
	}
	c.regions[name] = &region{blob: blob, index: idx}
	return idx, nil
}

// Regions lists the region files in the store.
func (c *Catalog) Regions(ctx context.Context) ([]string, error) {
	names, err := c.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, c.o.regionSuffix) {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Lookup queries a single region. A region evicted between opening and
// querying is opened again.
func (c *Catalog) Lookup(ctx context.Context, name string, tokens TokenSlice) ([]Point, error) {
	for {
		idx, err := c.Index(ctx, name)
		if err != nil {
			return nil, &RegionError{Region: name, cause: err}
		}
		pts, err := idx.Lookup(ctx, tokens)
		if errors.Is(err, ErrClosed) && !c.isClosed() {
			if err := ctx.Err(); err != nil {
				return nil, &RegionError{Region: name, cause: err}
			}
			continue
		}
		if err != nil {
			return nil, &RegionError{Region: name, cause: err}
		}
		return pts, nil
	}
}

func (c *Catalog) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// LookupAll queries the named regions concurrently and concatenates the
// results in region order. Without names every region of the store is
// queried. The first failing region aborts the lookup.
func (c *Catalog) LookupAll(ctx context.Context, tokens TokenSlice, names ...string) ([]Point, error) {
	if len(names) == 0 {
		var err error
		if names, err = c.Regions(ctx); err != nil {
			return nil, err
		}
	}

	results := make([][]Point, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if c.o.lookupParallel > 0 {
		g.SetLimit(c.o.lookupParallel)
	}
	for i, name := range names {
		g.Go(func() error {
			pts, err := c.Lookup(gctx, name, tokens)
			if err != nil {
				return err
			}
			results[i] = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Point
	for _, pts := range results {
		out = append(out, pts...)
	}
	return out, nil
}

// Search tokenizes query and runs LookupAll.
func (c *Catalog) Search(ctx context.Context, query string, names ...string) ([]Point, error) {
	return c.LookupAll(ctx, c.o.tokenizer(query), names...)
}

// Evict drops a cached region. Its blob is closed once no operation on the
// evicted index is running; a close error is returned only when that
// happens immediately.
func (c *Catalog) Evict(name string) error {
	c.mu.Lock()
	r, ok := c.regions[name]
	delete(c.regions, name)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return r.index.retire(r.blob.Close)
}

// Len returns the number of opened regions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regions)
}

// Close retires every opened index as Evict does. Further use fails with
// ErrClosed.
func (c *Catalog) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	regions := c.regions
	c.regions = nil
	c.mu.Unlock()

	var errs []error
	for _, r := range regions {
		if err := r.index.retire(r.blob.Close); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
