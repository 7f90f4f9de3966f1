package container

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/opencontainers/go-digest"
)

// Container is an opened compound file. It borrows the blob and never
// closes it. A Container is safe for concurrent use.
type Container struct {
	root    *section.Reader
	footer  Footer
	entries map[string]entry
	order   []string
}

// Open reads the footer and table of contents of blob.
func Open(ctx context.Context, blob blobstore.Blob) (*Container, error) {
	root := section.NewReader(blob)
	size := root.Size()
	if size < FooterSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the footer", ErrCorrupt, size)
	}

	buf, err := root.ReadFull(ctx, size-FooterSize, FooterSize)
	if err != nil {
		return nil, fmt.Errorf("container: read footer: %w", err)
	}
	footer, err := DecodeFooter(buf)
	if err != nil {
		return nil, err
	}

	body := uint64(size - FooterSize)
	if footer.TOCOffset > body || footer.TOCSize > body-footer.TOCOffset {
		return nil, fmt.Errorf("%w: toc [%d,+%d) exceeds %d", ErrCorrupt, footer.TOCOffset, footer.TOCSize, body)
	}
	if footer.TOCSize > maxTOCSize {
		return nil, fmt.Errorf("%w: toc of %d bytes", ErrCorrupt, footer.TOCSize)
	}

	raw, err := root.ReadFull(ctx, int64(footer.TOCOffset), int(footer.TOCSize))
	if err != nil {
		return nil, fmt.Errorf("container: read toc: %w", err)
	}
	toc, err := decompressBlock(raw, footer.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: toc: %v", ErrCorrupt, err)
	}

	entries, err := decodeTOC(toc, footer.TOCOffset)
	if err != nil {
		return nil, err
	}

	c := &Container{
		root:    root,
		footer:  footer,
		entries: make(map[string]entry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if _, ok := c.entries[e.tag]; ok {
			return nil, fmt.Errorf("%w: duplicate tag %q", ErrCorrupt, e.tag)
		}
		c.entries[e.tag] = e
		c.order = append(c.order, e.tag)
	}
	return c, nil
}

func decodeTOC(toc []byte, limit uint64) ([]entry, error) {
	r := bytes.NewReader(toc)
	corrupt := func(what string) error {
		return fmt.Errorf("%w: toc: bad %s", ErrCorrupt, what)
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, corrupt("entry count")
	}
	// Each entry needs at least five bytes.
	if count > uint64(r.Len())/5 {
		return nil, corrupt("entry count")
	}

	readBytes := func(what string) ([]byte, error) {
		n, err := binary.ReadUvarint(r)
		if err != nil || n > uint64(r.Len()) {
			return nil, corrupt(what)
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, corrupt(what)
		}
		return b, nil
	}

	entries := make([]entry, 0, count)
	for range count {
		tag, err := readBytes("tag")
		if err != nil {
			return nil, err
		}
		if len(tag) == 0 {
			return nil, corrupt("tag")
		}
		off, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, corrupt("offset")
		}
		size, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, corrupt("size")
		}
		if off > limit || size > limit-off {
			return nil, fmt.Errorf("%w: section %q [%d,+%d) exceeds %d", ErrCorrupt, tag, off, size, limit)
		}
		rawDigest, err := readBytes("digest")
		if err != nil {
			return nil, err
		}
		d, err := digest.Parse(string(rawDigest))
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", ErrCorrupt, tag, err)
		}
		entries = append(entries, entry{tag: string(tag), offset: off, size: size, digest: d})
	}
	if r.Len() != 0 {
		return nil, corrupt("trailing data")
	}
	return entries, nil
}

// Has reports whether the container holds tag.
func (c *Container) Has(tag string) bool {
	_, ok := c.entries[tag]
	return ok
}

// Tags returns the section tags in file order.
func (c *Container) Tags() []string {
	return slices.Clone(c.order)
}

// Compression returns the TOC compression.
func (c *Container) Compression() Compression {
	return c.footer.Compression
}

// Digest returns the recorded digest of tag.
func (c *Container) Digest(tag string) (digest.Digest, error) {
	e, ok := c.entries[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSectionNotFound, tag)
	}
	return e.digest, nil
}

// Section returns a view of the section payload.
func (c *Container) Section(tag string) (*section.Reader, error) {
	e, ok := c.entries[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, tag)
	}
	return c.root.Sub(int64(e.offset), int64(e.size))
}

// Verify streams the section through its recorded digest.
func (c *Container) Verify(ctx context.Context, tag string) error {
	e, ok := c.entries[tag]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, tag)
	}
	r, err := c.Section(tag)
	if err != nil {
		return err
	}

	v := e.digest.Verifier()
	if _, err := io.Copy(v, r.NewStream(ctx)); err != nil {
		return fmt.Errorf("container: verify %q: %w", tag, err)
	}
	if !v.Verified() {
		return fmt.Errorf("%w: %q", ErrDigestMismatch, tag)
	}
	return nil
}

// VerifyAll verifies every section in file order.
func (c *Container) VerifyAll(ctx context.Context) error {
	for _, tag := range c.order {
		if err := c.Verify(ctx, tag); err != nil {
			return err
		}
	}
	return nil
}
