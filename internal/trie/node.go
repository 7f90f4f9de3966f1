package trie

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/postcodes/internal/section"
)

const (
	rootOffsetSize = 4
	entrySize      = 8
)

var errTruncated = errors.New("truncated")

// Node is a parsed trie node. It is immutable and safe for concurrent use.
type Node struct {
	r          *section.Reader
	off        int64
	childCount int
	block      []byte // child entries followed by labels
	labelsLen  int
	valuesOff  int64 // -1 for the empty trie
}

// Open parses the root node of the trie stored in r.
// An empty view yields an empty root.
func Open(ctx context.Context, r *section.Reader) (*Node, error) {
	if r.Size() == 0 {
		return &Node{r: r, valuesOff: -1}, nil
	}
	if r.Size() < rootOffsetSize {
		return nil, fmt.Errorf("%w: trie of %d bytes", section.ErrCorruptIndex, r.Size())
	}

	buf, err := r.ReadFull(ctx, 0, rootOffsetSize)
	if err != nil {
		return nil, err
	}
	root := int64(binary.LittleEndian.Uint32(buf))
	if root < rootOffsetSize || root >= r.Size() {
		return nil, fmt.Errorf("%w: trie root offset %d outside [%d,%d)", section.ErrCorruptIndex, root, rootOffsetSize, r.Size())
	}

	return parseNode(ctx, r, root)
}

func parseNode(ctx context.Context, r *section.Reader, off int64) (*Node, error) {
	c := newCursor(ctx, r, off)

	count, err := c.uvarint("child count")
	if err != nil {
		return nil, err
	}

	n := &Node{r: r, off: off}
	if count == 0 {
		n.valuesOff = c.offset()
		return n, nil
	}

	labelsLen, err := c.uvarint("labels length")
	if err != nil {
		return nil, err
	}

	start := c.offset()
	remaining := uint64(r.Size() - start)
	if count > remaining/entrySize || labelsLen > remaining-count*entrySize {
		return nil, fmt.Errorf("%w: trie node at %d: %d children with %d label bytes exceed %d bytes", section.ErrCorruptIndex, off, count, labelsLen, remaining)
	}

	size := count*entrySize + labelsLen
	block, err := r.ReadFull(ctx, start, int(size))
	if err != nil {
		return nil, err
	}

	n.childCount = int(count)
	n.labelsLen = int(labelsLen)
	n.block = block
	n.valuesOff = start + int64(size)
	return n, nil
}

// HasChildren reports whether the node has outgoing edges.
func (n *Node) HasChildren() bool {
	return n.childCount > 0
}

// Offset returns the position of the node within the trie.
func (n *Node) Offset() int64 {
	return n.off
}

// ChildCount returns the number of outgoing edges.
func (n *Node) ChildCount() int {
	return n.childCount
}

func (n *Node) label(i int) ([]byte, error) {
	start := int(binary.LittleEndian.Uint32(n.block[i*entrySize:]))
	end := n.labelsLen
	if i+1 < n.childCount {
		end = int(binary.LittleEndian.Uint32(n.block[(i+1)*entrySize:]))
	}
	if start > end || end > n.labelsLen {
		return nil, fmt.Errorf("%w: trie node at %d: label %d spans [%d,%d) of %d", section.ErrCorruptIndex, n.off, i, start, end, n.labelsLen)
	}
	base := n.childCount * entrySize
	return n.block[base+start : base+end], nil
}

func (n *Node) child(ctx context.Context, i int) (*Node, error) {
	off := int64(binary.LittleEndian.Uint32(n.block[i*entrySize+4:]))
	if off < rootOffsetSize || off >= n.off {
		return nil, fmt.Errorf("%w: trie node at %d: child %d at %d is not below its parent", section.ErrCorruptIndex, n.off, i, off)
	}
	return parseNode(ctx, n.r, off)
}

// lowerBound returns the first edge whose label is >= key.
func (n *Node) lowerBound(key string) (int, error) {
	lo, hi := 0, n.childCount
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		lbl, err := n.label(mid)
		if err != nil {
			return 0, err
		}
		if compare(lbl, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// Child follows the edge labelled exactly token.
func (n *Node) Child(ctx context.Context, token string) (*Node, bool, error) {
	i, err := n.lowerBound(token)
	if err != nil || i == n.childCount {
		return nil, false, err
	}
	lbl, err := n.label(i)
	if err != nil {
		return nil, false, err
	}
	if compare(lbl, token) != 0 {
		return nil, false, nil
	}
	c, err := n.child(ctx, i)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ForEachChildWithPrefix calls fn for every edge whose label starts with
// prefix, in label order. An empty prefix visits all edges. Iteration stops
// at the first error.
func (n *Node) ForEachChildWithPrefix(ctx context.Context, prefix string, fn func(label string, child *Node) error) error {
	i, err := n.lowerBound(prefix)
	if err != nil {
		return err
	}
	for ; i < n.childCount; i++ {
		lbl, err := n.label(i)
		if err != nil {
			return err
		}
		if !hasPrefix(lbl, prefix) {
			return nil
		}
		c, err := n.child(ctx, i)
		if err != nil {
			return err
		}
		if err := fn(string(lbl), c); err != nil {
			return err
		}
	}
	return nil
}

// Values decodes the node's point ids. A node without values returns nil.
func (n *Node) Values(ctx context.Context) ([]uint32, error) {
	if n.valuesOff < 0 {
		return nil, nil
	}

	c := newCursor(ctx, n.r, n.valuesOff)
	count, err := c.uvarint("value count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if count > uint64(n.r.Size()-c.offset()) {
		return nil, fmt.Errorf("%w: trie node at %d: %d values exceed remaining bytes", section.ErrCorruptIndex, n.off, count)
	}

	out := make([]uint32, 0, count)
	var cur uint64
	for i := uint64(0); i < count; i++ {
		d, err := c.uvarint("value")
		if err != nil {
			return nil, err
		}
		if d > math.MaxUint32 {
			return nil, fmt.Errorf("%w: trie node at %d: value delta %d overflows", section.ErrCorruptIndex, n.off, d)
		}
		cur += d
		if cur > math.MaxUint32 || (i > 0 && d == 0) {
			return nil, fmt.Errorf("%w: trie node at %d: values not strictly ascending uint32", section.ErrCorruptIndex, n.off)
		}
		out = append(out, uint32(cur))
	}
	return out, nil
}

func compare(b []byte, s string) int {
	m := min(len(b), len(s))
	for i := 0; i < m; i++ {
		switch {
		case b[i] < s[i]:
			return -1
		case b[i] > s[i]:
			return 1
		}
	}
	switch {
	case len(b) < len(s):
		return -1
	case len(b) > len(s):
		return 1
	}
	return 0
}

func hasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && compare(b[:len(prefix)], prefix) == 0
}
