package trie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
)

var (
	// ErrEmptyKey is returned when inserting a key without tokens.
	ErrEmptyKey = errors.New("trie: empty key")
	// ErrEmptyToken is returned when a key contains an empty token.
	ErrEmptyToken = errors.New("trie: empty token")
	// ErrTooLarge is returned when the encoded trie exceeds 4 GiB.
	ErrTooLarge = errors.New("trie: encoded size exceeds uint32 offsets")
)

type buildNode struct {
	children map[string]*buildNode
	values   []uint32
}

// Builder accumulates token keys and encodes them as a trie.
// It is not safe for concurrent use.
type Builder struct {
	root  buildNode
	nodes int
	keys  int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: 1}
}

// Insert adds id to the value list of the node reached by key.
func (b *Builder) Insert(key []string, id uint32) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	n := &b.root
	for _, tok := range key {
		if tok == "" {
			return ErrEmptyToken
		}
		if n.children == nil {
			n.children = make(map[string]*buildNode)
		}
		c, ok := n.children[tok]
		if !ok {
			c = &buildNode{}
			n.children[tok] = c
			b.nodes++
		}
		n = c
	}

	n.values = append(n.values, id)
	b.keys++
	return nil
}

// Nodes returns the number of nodes, including the root.
func (b *Builder) Nodes() int {
	return b.nodes
}

// Encode serializes the trie.
func (b *Builder) Encode() ([]byte, error) {
	buf := make([]byte, rootOffsetSize, 64+b.nodes*16)

	buf, root, err := encodeNode(buf, &b.root)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(buf, root)
	return buf, nil
}

// WriteTo writes the encoded trie to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	buf, err := b.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// encodeNode appends n's subtree in post-order and returns n's offset.
func encodeNode(buf []byte, n *buildNode) ([]byte, uint32, error) {
	labels := make([]string, 0, len(n.children))
	for l := range n.children {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	offsets := make([]uint32, len(labels))
	for i, l := range labels {
		var err error
		if buf, offsets[i], err = encodeNode(buf, n.children[l]); err != nil {
			return nil, 0, err
		}
	}

	off := len(buf)
	if uint64(off) > math.MaxUint32 {
		return nil, 0, ErrTooLarge
	}

	buf = binary.AppendUvarint(buf, uint64(len(labels)))
	if len(labels) > 0 {
		labelsLen := 0
		for _, l := range labels {
			labelsLen += len(l)
		}
		if uint64(labelsLen) > math.MaxUint32 {
			return nil, 0, ErrTooLarge
		}

		buf = binary.AppendUvarint(buf, uint64(labelsLen))
		start := 0
		for i, l := range labels {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(start))
			buf = binary.LittleEndian.AppendUint32(buf, offsets[i])
			start += len(l)
		}
		for _, l := range labels {
			buf = append(buf, l...)
		}
	}

	values := slices.Clone(n.values)
	slices.Sort(values)
	values = slices.Compact(values)

	buf = binary.AppendUvarint(buf, uint64(len(values)))
	var prev uint32
	for i, v := range values {
		if i == 0 {
			buf = binary.AppendUvarint(buf, uint64(v))
		} else {
			buf = binary.AppendUvarint(buf, uint64(v-prev))
		}
		prev = v
	}

	if uint64(len(buf)) > math.MaxUint32 {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(buf))
	}
	return buf, uint32(off), nil
}
