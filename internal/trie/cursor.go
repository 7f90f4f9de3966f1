package trie

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/postcodes/internal/section"
)

const cursorChunk = 64

// cursor is a buffered io.ByteReader over a section.Reader.
type cursor struct {
	ctx context.Context
	r   *section.Reader
	pos int64 // position after buf
	buf []byte
	err error // first reader error, reported instead of corruption
}

func newCursor(ctx context.Context, r *section.Reader, off int64) *cursor {
	return &cursor{ctx: ctx, r: r, pos: off}
}

func (c *cursor) ReadByte() (byte, error) {
	if len(c.buf) == 0 {
		n := min(int64(cursorChunk), c.r.Size()-c.pos)
		if n <= 0 {
			return 0, errTruncated
		}
		buf, err := c.r.ReadFull(c.ctx, c.pos, int(n))
		if err != nil {
			c.err = err
			return 0, err
		}
		c.buf = buf
		c.pos += n
	}
	b := c.buf[0]
	c.buf = c.buf[1:]
	return b, nil
}

// offset returns the position of the next unread byte.
func (c *cursor) offset() int64 {
	return c.pos - int64(len(c.buf))
}

func (c *cursor) uvarint(what string) (uint64, error) {
	v, err := binary.ReadUvarint(c)
	if err != nil {
		if c.err != nil {
			return 0, c.err
		}
		return 0, fmt.Errorf("%w: trie %s at %d: %v", section.ErrCorruptIndex, what, c.offset(), err)
	}
	return v, nil
}
