// Package lookup implements postcode token matching over a trie and the
// resolution of matched point ids through a point table.
//
// The engine depends only on the Node and PointTable capabilities, so any
// trie or table implementation can be plugged in.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/postcodes/internal/points"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/hupe1980/postcodes/model"
)

// Node is a read-only trie node whose edges are labelled with whole tokens.
type Node[N any] interface {
	// Child follows the edge labelled exactly token.
	Child(ctx context.Context, token string) (N, bool, error)
	// ForEachChildWithPrefix visits every edge whose label starts with prefix.
	ForEachChildWithPrefix(ctx context.Context, prefix string, fn func(label string, child N) error) error
	// Values returns the point ids stored at the node.
	Values(ctx context.Context) ([]uint32, error)
	// HasChildren reports whether the node has outgoing edges.
	HasChildren() bool
	// Offset identifies the node within its trie.
	Offset() int64
}

// PointTable resolves point ids. Ids beyond the table fail with
// points.ErrOutOfRange.
type PointTable interface {
	Get(ctx context.Context, id model.PointID) (model.Point, error)
}

// Match returns the ids of every point matched by tokens.
//
// All tokens but the last follow exact edges. The last token follows its
// exact edge, or every edge it prefixes when it is a prefix token. The value
// lists of the reached nodes are collected; a single-token query collects
// the whole subtree below each reached node instead, so an outward code alone
// finds all of its postcodes. The result is unordered and keeps duplicates.
func Match[N Node[N]](ctx context.Context, root N, tokens model.TokenSlice) ([]model.PointID, error) {
	if tokens.Empty() {
		return nil, nil
	}

	last := tokens.Len() - 1
	cur := root
	for i := range last {
		next, ok, err := cur.Child(ctx, tokens.Token(i))
		if err != nil || !ok {
			return nil, err
		}
		cur = next
	}

	var reached []N
	if tokens.IsPrefix(last) {
		err := cur.ForEachChildWithPrefix(ctx, tokens.Token(last), func(_ string, child N) error {
			reached = append(reached, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		next, ok, err := cur.Child(ctx, tokens.Token(last))
		if err != nil || !ok {
			return nil, err
		}
		reached = append(reached, next)
	}

	var (
		ids     []model.PointID
		err     error
		visited map[int64]struct{}
	)
	if tokens.Len() == 1 {
		visited = make(map[int64]struct{})
	}
	for _, n := range reached {
		if visited != nil {
			ids, err = appendSubtree(ctx, ids, n, visited)
		} else {
			ids, err = appendValues(ctx, ids, n)
		}
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func appendValues[N Node[N]](ctx context.Context, ids []model.PointID, n N) ([]model.PointID, error) {
	vals, err := n.Values(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		ids = append(ids, model.PointID(v))
	}
	return ids, nil
}

// appendSubtree collects the values of n and all of its descendants. A node
// reached twice means the trie is not a tree.
func appendSubtree[N Node[N]](ctx context.Context, ids []model.PointID, n N, visited map[int64]struct{}) ([]model.PointID, error) {
	stack := []N{n}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		off := top.Offset()
		if _, ok := visited[off]; ok {
			return nil, fmt.Errorf("%w: trie node at %d is shared by several parents", section.ErrCorruptIndex, off)
		}
		visited[off] = struct{}{}

		var err error
		if ids, err = appendValues(ctx, ids, top); err != nil {
			return nil, err
		}
		if !top.HasChildren() {
			continue
		}
		err = top.ForEachChildWithPrefix(ctx, "", func(_ string, child N) error {
			stack = append(stack, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Resolve maps ids to points. An id outside the table means the index is
// corrupt and aborts the whole resolution.
func Resolve(ctx context.Context, table PointTable, ids []model.PointID) ([]model.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]model.Point, 0, len(ids))
	for _, id := range ids {
		p, err := table.Get(ctx, id)
		if err != nil {
			if errors.Is(err, points.ErrOutOfRange) {
				return nil, fmt.Errorf("%w: %v", section.ErrCorruptIndex, err)
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Lookup matches tokens and resolves the matched ids.
func Lookup[N Node[N]](ctx context.Context, root N, table PointTable, tokens model.TokenSlice) ([]model.Point, error) {
	ids, err := Match(ctx, root, tokens)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, table, ids)
}
