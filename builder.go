package postcodes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/coding"
	"github.com/hupe1980/postcodes/internal/container"
	"github.com/hupe1980/postcodes/internal/points"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/hupe1980/postcodes/internal/trie"
	"github.com/hupe1980/postcodes/tokenize"
)

// ErrEmptyPostcode is returned when a postcode has no tokens.
var ErrEmptyPostcode = errors.New("postcode has no tokens")

// Builder assembles a region file from postcodes and their points.
// It is not safe for concurrent use.
type Builder struct {
	trie   *trie.Builder
	points []Point
	opts   options
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		trie: trie.NewBuilder(),
		opts: applyOptions(opts),
	}
}

// Add stores p under the already normalized token key and returns its id.
func (b *Builder) Add(key []string, p Point) (PointID, error) {
	if uint64(len(b.points)) >= math.MaxUint32 {
		return 0, errors.New("postcodes: point table is full")
	}
	if _, _, err := coding.EncodePoint(p); err != nil {
		return 0, fmt.Errorf("%s: %w", p, err)
	}

	id := PointID(len(b.points))
	if err := b.trie.Insert(key, uint32(id)); err != nil {
		return 0, err
	}
	b.points = append(b.points, p)
	return id, nil
}

// AddPostcode normalizes and splits postcode, then stores p under it.
func (b *Builder) AddPostcode(postcode string, p Point) (PointID, error) {
	key := tokenize.Tokens(postcode)
	if len(key) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrEmptyPostcode, postcode)
	}
	return b.Add(key, p)
}

// Len returns the number of stored points.
func (b *Builder) Len() int {
	return len(b.points)
}

// EncodeSection serializes the bare postcode section: header, trie, then
// the point table.
func (b *Builder) EncodeSection() ([]byte, error) {
	rawTrie, err := b.trie.Encode()
	if err != nil {
		return nil, err
	}
	rawPoints, err := points.Encode(b.points)
	if err != nil {
		return nil, err
	}

	total := uint64(section.HeaderSize) + uint64(len(rawTrie)) + uint64(len(rawPoints))
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("postcodes: section of %d bytes exceeds 4 GiB", total)
	}

	h := section.Header{
		Version:      section.LatestVersion,
		TrieOffset:   section.HeaderSize,
		TrieSize:     uint32(len(rawTrie)),
		PointsOffset: section.HeaderSize + uint32(len(rawTrie)),
		PointsSize:   uint32(len(rawPoints)),
	}
	buf, err := section.AppendHeader(make([]byte, 0, total), h)
	if err != nil {
		return nil, err
	}
	buf = append(buf, rawTrie...)
	buf = append(buf, rawPoints...)
	return buf, nil
}

// WriteTo writes a container holding the postcode section to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := b.EncodeSection()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	c := container.NewWriter(cw, container.WithCompression(b.opts.compression))
	if err := c.AddSection(b.opts.sectionTag, data); err != nil {
		return cw.n, err
	}
	if err := c.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Bytes returns the encoded container.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save streams the container into store under name. The blob becomes
// visible only when the write completes.
func (b *Builder) Save(ctx context.Context, store blobstore.BlobStore, name string) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(w); err != nil {
		_ = w.Close()
		_ = store.Delete(ctx, name)
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
