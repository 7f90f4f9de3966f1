package postcodes

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/container"
	"github.com/hupe1980/postcodes/internal/lookup"
	"github.com/hupe1980/postcodes/internal/points"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/hupe1980/postcodes/internal/trie"
	"github.com/hupe1980/postcodes/model"
)

const (
	// SectionTag is the container tag of the postcode section.
	SectionTag = "postcode_points"
	// RegionSuffix is the default file suffix of region containers.
	RegionSuffix = ".pcs"
)

type (
	// Point is a WGS84 coordinate.
	Point = model.Point
	// PointID indexes the point table.
	PointID = model.PointID
	// TokenSlice is a normalized query.
	TokenSlice = model.TokenSlice
	// Header locates the trie and point table inside the section.
	Header = section.Header
	// Compression selects the container TOC compression.
	Compression = container.Compression
)

const (
	CompressionNone = container.CompressionNone
	CompressionLZ4  = container.CompressionLZ4
	CompressionZSTD = container.CompressionZSTD
)

// NewTokenSlice creates a query from already normalized tokens.
func NewTokenSlice(tokens []string, lastIsPrefix bool) TokenSlice {
	return model.NewTokenSlice(tokens, lastIsPrefix)
}

// Index answers postcode queries against one postcode section.
//
// The header, trie and point table are resolved once, on first use. The
// context of the first caller provides values for that work but its
// cancellation is ignored, so a cancelled caller cannot poison the index.
// A failed construction is permanent.
//
// Index borrows the blob and never closes it. An Index handed out by a
// Catalog fails with ErrClosed once the Catalog evicts it; the blob is
// released after the operations still running on it return. It is safe for
// concurrent use.
type Index struct {
	blob blobstore.Blob
	opts options

	once  sync.Once
	state *state
	err   error

	// refs counts in-flight operations. retiredBit is set once the owner of
	// the blob has released it; release is then run by the last operation.
	refs    atomic.Int64
	release func() error
}

const retiredBit = int64(1) << 62

type state struct {
	header section.Header
	root   *trie.Node
	table  *points.Table
}

// New returns an Index over blob without reading it.
func New(blob blobstore.Blob, opts ...Option) *Index {
	o := applyOptions(opts)
	if o.name != "" {
		o.logger = o.logger.WithIndex(o.name)
	}
	return &Index{blob: blob, opts: o}
}

// Open returns an Index over blob and constructs it immediately.
func Open(ctx context.Context, blob blobstore.Blob, opts ...Option) (*Index, error) {
	x := New(blob, opts...)
	if _, err := x.init(ctx); err != nil {
		return nil, err
	}
	return x, nil
}

// HasIndex reports whether the container in blob holds a postcode section.
func HasIndex(ctx context.Context, blob blobstore.Blob) (bool, error) {
	c, err := container.Open(ctx, blob)
	if err != nil {
		return false, translateError(err)
	}
	return c.Has(SectionTag), nil
}

// acquire pins the blob for one operation.
func (x *Index) acquire() error {
	for {
		v := x.refs.Load()
		if v&retiredBit != 0 {
			return ErrClosed
		}
		if x.refs.CompareAndSwap(v, v+1) {
			return nil
		}
	}
}

func (x *Index) done() {
	if x.refs.Add(-1) == retiredBit {
		x.opts.logger.LogRelease(context.Background(), x.release())
	}
}

// retire rejects new operations with ErrClosed and runs release once the
// in-flight ones have finished. release runs at once, and its error is
// returned, when nothing is in flight. retire must be called at most once.
func (x *Index) retire(release func() error) error {
	x.release = release
	if x.refs.Or(retiredBit) != 0 {
		return nil
	}
	return release()
}

func (x *Index) init(ctx context.Context) (*state, error) {
	x.once.Do(func() {
		ctx := context.WithoutCancel(ctx)
		start := time.Now()

		x.state, x.err = x.load(ctx)

		elapsed := time.Since(start)
		x.opts.metricsCollector.RecordOpen(elapsed, x.err)
		if x.err != nil {
			x.opts.logger.LogOpen(ctx, "", 0, elapsed, x.err)
			return
		}
		x.opts.logger.LogOpen(ctx, x.state.header.String(), x.state.table.Len(), elapsed, nil)
	})
	return x.state, x.err
}

func (x *Index) load(ctx context.Context) (*state, error) {
	r, err := x.section(ctx)
	if err != nil {
		return nil, err
	}

	h, err := section.ReadHeader(ctx, r)
	if err != nil {
		return nil, err
	}
	trieView, pointsView, err := section.Resolve(r, h)
	if err != nil {
		return nil, err
	}
	root, err := trie.Open(ctx, trieView)
	if err != nil {
		return nil, err
	}
	table, err := points.Open(pointsView)
	if err != nil {
		return nil, err
	}
	return &state{header: h, root: root, table: table}, nil
}

func (x *Index) section(ctx context.Context) (*section.Reader, error) {
	if x.opts.rawSection {
		return section.NewReader(x.blob), nil
	}

	c, err := container.Open(ctx, x.blob)
	if err != nil {
		return nil, translateError(err)
	}
	r, err := c.Section(x.opts.sectionTag)
	if err != nil {
		return nil, err
	}
	if x.opts.verify {
		if err := c.Verify(ctx, x.opts.sectionTag); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Header returns the section header.
func (x *Index) Header(ctx context.Context) (Header, error) {
	if err := x.acquire(); err != nil {
		return Header{}, err
	}
	defer x.done()

	s, err := x.init(ctx)
	if err != nil {
		return Header{}, err
	}
	return s.header, nil
}

// Len returns the number of points in the table.
func (x *Index) Len(ctx context.Context) (int, error) {
	if err := x.acquire(); err != nil {
		return 0, err
	}
	defer x.done()

	s, err := x.init(ctx)
	if err != nil {
		return 0, err
	}
	return s.table.Len(), nil
}

// Lookup returns the points matched by tokens, unordered and possibly with
// duplicates. An empty query or no match yields an empty result.
func (x *Index) Lookup(ctx context.Context, tokens TokenSlice) ([]Point, error) {
	start := time.Now()
	pts, err := x.lookup(ctx, tokens)
	x.record(ctx, tokens, len(pts), start, err)
	return pts, err
}

func (x *Index) lookup(ctx context.Context, tokens TokenSlice) ([]Point, error) {
	if err := x.acquire(); err != nil {
		return nil, err
	}
	defer x.done()

	s, err := x.init(ctx)
	if err != nil {
		return nil, err
	}
	return lookup.Lookup(ctx, s.root, s.table, tokens)
}

// LookupIDs returns the point ids matched by tokens without resolving them.
func (x *Index) LookupIDs(ctx context.Context, tokens TokenSlice) ([]PointID, error) {
	if err := x.acquire(); err != nil {
		return nil, err
	}
	defer x.done()

	s, err := x.init(ctx)
	if err != nil {
		return nil, err
	}
	return lookup.Match(ctx, s.root, tokens)
}

// LookupUnique is Lookup with duplicate point ids removed. Points are
// returned in ascending id order.
func (x *Index) LookupUnique(ctx context.Context, tokens TokenSlice) ([]Point, error) {
	start := time.Now()
	pts, err := x.lookupUnique(ctx, tokens)
	x.record(ctx, tokens, len(pts), start, err)
	return pts, err
}

func (x *Index) lookupUnique(ctx context.Context, tokens TokenSlice) ([]Point, error) {
	if err := x.acquire(); err != nil {
		return nil, err
	}
	defer x.done()

	s, err := x.init(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := lookup.Match(ctx, s.root, tokens)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	bm := roaring.New()
	for _, id := range ids {
		bm.Add(uint32(id))
	}
	unique := make([]PointID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		unique = append(unique, PointID(it.Next()))
	}
	return lookup.Resolve(ctx, s.table, unique)
}

// Search tokenizes query and looks it up.
func (x *Index) Search(ctx context.Context, query string) ([]Point, error) {
	return x.Lookup(ctx, x.opts.tokenizer(query))
}

func (x *Index) record(ctx context.Context, tokens TokenSlice, results int, start time.Time, err error) {
	x.opts.metricsCollector.RecordLookup(tokens.Len(), results, time.Since(start), err)
	x.opts.logger.LogLookup(ctx, tokens.String(), results, err)
}

// String describes the index for logs.
func (x *Index) String() string {
	if x.opts.name != "" {
		return fmt.Sprintf("postcodes.Index(%s)", x.opts.name)
	}
	return "postcodes.Index"
}
