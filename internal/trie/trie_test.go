package trie

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamOnly struct {
	blobstore.Blob
}

func build(t *testing.T, keys map[string][]uint32) []byte {
	t.Helper()
	b := NewBuilder()
	for k, ids := range keys {
		key := splitKey(k)
		for _, id := range ids {
			require.NoError(t, b.Insert(key, id))
		}
	}
	raw, err := b.Encode()
	require.NoError(t, err)
	return raw
}

func splitKey(k string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(k); i++ {
		if i == len(k) || k[i] == ' ' {
			out = append(out, k[start:i])
			start = i + 1
		}
	}
	return out
}

// openBoth opens the trie through a mapped and a streamed reader.
func openBoth(t *testing.T, raw []byte) map[string]*Node {
	t.Helper()
	ctx := context.Background()
	out := map[string]*Node{}
	for name, r := range map[string]*section.Reader{
		"mapped":   section.FromBytes(raw),
		"streamed": section.NewReader(streamOnly{blobstore.NewBytesBlob(raw)}),
	} {
		root, err := Open(ctx, r)
		require.NoError(t, err)
		out[name] = root
	}
	return out
}

func TestTrie_ChildAndValues(t *testing.T) {
	raw := build(t, map[string][]uint32{
		"aa11 0": {0},
		"aa11 1": {1},
		"aa11 2": {2},
		"ab1 9":  {7, 3, 3},
		"b":      {42},
	})
	ctx := context.Background()

	for name, root := range openBoth(t, raw) {
		t.Run(name, func(t *testing.T) {
			assert.True(t, root.HasChildren())
			assert.Equal(t, 3, root.ChildCount())

			aa11, ok, err := root.Child(ctx, "aa11")
			require.NoError(t, err)
			require.True(t, ok)

			vals, err := aa11.Values(ctx)
			require.NoError(t, err)
			assert.Empty(t, vals)

			leaf, ok, err := aa11.Child(ctx, "1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, leaf.HasChildren())
			vals, err = leaf.Values(ctx)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1}, vals)

			ab1, ok, err := root.Child(ctx, "ab1")
			require.NoError(t, err)
			require.True(t, ok)
			nine, ok, err := ab1.Child(ctx, "9")
			require.NoError(t, err)
			require.True(t, ok)
			vals, err = nine.Values(ctx)
			require.NoError(t, err)
			assert.Equal(t, []uint32{3, 7}, vals, "values are sorted and de-duplicated")

			for _, miss := range []string{"aa1", "aa111", "a", "c", ""} {
				_, ok, err = root.Child(ctx, miss)
				require.NoError(t, err)
				assert.False(t, ok, miss)
			}
		})
	}
}

func TestTrie_ForEachChildWithPrefix(t *testing.T) {
	raw := build(t, map[string][]uint32{
		"aa1 x":  {1},
		"aa11 x": {2},
		"aa2 x":  {3},
		"ab1 x":  {4},
		"b x":    {5},
	})
	ctx := context.Background()

	for name, root := range openBoth(t, raw) {
		t.Run(name, func(t *testing.T) {
			collect := func(prefix string) []string {
				var labels []string
				err := root.ForEachChildWithPrefix(ctx, prefix, func(label string, child *Node) error {
					labels = append(labels, label)
					assert.True(t, child.HasChildren())
					return nil
				})
				require.NoError(t, err)
				return labels
			}

			assert.Equal(t, []string{"aa1", "aa11", "aa2", "ab1", "b"}, collect(""))
			assert.Equal(t, []string{"aa1", "aa11", "aa2", "ab1"}, collect("a"))
			assert.Equal(t, []string{"aa1", "aa11"}, collect("aa1"))
			assert.Equal(t, []string{"aa11"}, collect("aa11"))
			assert.Empty(t, collect("aa111"))
			assert.Empty(t, collect("c"))

			stop := errors.New("stop")
			calls := 0
			err := root.ForEachChildWithPrefix(ctx, "", func(string, *Node) error {
				calls++
				return stop
			})
			assert.ErrorIs(t, err, stop)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestTrie_Empty(t *testing.T) {
	ctx := context.Background()

	root, err := Open(ctx, section.FromBytes(nil))
	require.NoError(t, err)
	assert.False(t, root.HasChildren())
	vals, err := root.Values(ctx)
	require.NoError(t, err)
	assert.Nil(t, vals)

	raw, err := NewBuilder().Encode()
	require.NoError(t, err)
	root, err = Open(ctx, section.FromBytes(raw))
	require.NoError(t, err)
	assert.False(t, root.HasChildren())
	_, ok, err := root.Child(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder()
	assert.ErrorIs(t, b.Insert(nil, 1), ErrEmptyKey)
	assert.ErrorIs(t, b.Insert([]string{"a", ""}, 1), ErrEmptyToken)

	require.NoError(t, b.Insert([]string{"a", "b"}, 1))
	require.NoError(t, b.Insert([]string{"a", "c"}, 2))
	assert.Equal(t, 4, b.Nodes())
}

func TestTrie_Corruption(t *testing.T) {
	ctx := context.Background()
	valid := build(t, map[string][]uint32{"aa11 0": {0}, "aa11 1": {1}})

	t.Run("short", func(t *testing.T) {
		_, err := Open(ctx, section.FromBytes([]byte{1, 0}))
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("root offset out of range", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(raw, uint32(len(raw)))
		_, err := Open(ctx, section.FromBytes(raw))
		assert.ErrorIs(t, err, section.ErrCorruptIndex)

		binary.LittleEndian.PutUint32(raw, 2)
		_, err = Open(ctx, section.FromBytes(raw))
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("truncated node", func(t *testing.T) {
		// root offset 4, node claims 1 child, labels length missing.
		raw := []byte{4, 0, 0, 0, 1}
		_, err := Open(ctx, section.FromBytes(raw))
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("child count exceeds data", func(t *testing.T) {
		raw := []byte{4, 0, 0, 0, 100, 0}
		_, err := Open(ctx, section.FromBytes(raw))
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("child not below parent", func(t *testing.T) {
		// root at 4: one child "a" pointing at itself.
		raw := []byte{4, 0, 0, 0}
		raw = append(raw, 1, 1)
		raw = binary.LittleEndian.AppendUint32(raw, 0)
		raw = binary.LittleEndian.AppendUint32(raw, 4)
		raw = append(raw, 'a', 0)

		root, err := Open(ctx, section.FromBytes(raw))
		require.NoError(t, err)
		_, _, err = root.Child(ctx, "a")
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("label out of range", func(t *testing.T) {
		raw := []byte{8, 0, 0, 0, 0, 0, 0, 0}
		raw = append(raw, 1, 1)
		raw = binary.LittleEndian.AppendUint32(raw, 5)
		raw = binary.LittleEndian.AppendUint32(raw, 4)
		raw = append(raw, 'a', 0)

		root, err := Open(ctx, section.FromBytes(raw))
		require.NoError(t, err)
		_, _, err = root.Child(ctx, "a")
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("value count exceeds data", func(t *testing.T) {
		raw := []byte{4, 0, 0, 0, 0, 50, 1}
		root, err := Open(ctx, section.FromBytes(raw))
		require.NoError(t, err)
		_, err = root.Values(ctx)
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("duplicate values", func(t *testing.T) {
		raw := []byte{4, 0, 0, 0, 0, 2, 5, 0}
		root, err := Open(ctx, section.FromBytes(raw))
		require.NoError(t, err)
		_, err = root.Values(ctx)
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})

	t.Run("value overflow", func(t *testing.T) {
		raw := []byte{4, 0, 0, 0, 0, 2}
		raw = binary.AppendUvarint(raw, 0xFFFFFFFF)
		raw = binary.AppendUvarint(raw, 1)
		root, err := Open(ctx, section.FromBytes(raw))
		require.NoError(t, err)
		_, err = root.Values(ctx)
		assert.ErrorIs(t, err, section.ErrCorruptIndex)
	})
}

func TestTrie_CancelledStream(t *testing.T) {
	raw := build(t, map[string][]uint32{"aa11 0": {0}})
	r := section.NewReader(streamOnly{blobstore.NewBytesBlob(raw)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}
