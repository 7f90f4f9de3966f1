package postcodes

import (
	"context"
	"testing"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/coding"
	"github.com/hupe1980/postcodes/internal/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_AddPostcode(t *testing.T) {
	b := NewBuilder()

	id, err := b.AddPostcode("  AA11-0AB ", Point{Lon: 1, Lat: 2})
	require.NoError(t, err)
	assert.Equal(t, PointID(0), id)

	id, err = b.AddPostcode("aa11 0ab", Point{Lon: 1.5, Lat: 2.5})
	require.NoError(t, err)
	assert.Equal(t, PointID(1), id)
	assert.Equal(t, 2, b.Len())

	_, err = b.AddPostcode(" - ", Point{})
	assert.ErrorIs(t, err, ErrEmptyPostcode)

	_, err = b.AddPostcode("AA11 0AB", Point{Lon: 200, Lat: 0})
	assert.ErrorIs(t, err, coding.ErrOutOfBounds)

	_, err = b.Add([]string{"aa11", ""}, Point{})
	assert.ErrorIs(t, err, trie.ErrEmptyToken)
	assert.Equal(t, 2, b.Len())
}

func TestBuilder_Empty(t *testing.T) {
	ctx := context.Background()
	data, err := NewBuilder().Bytes()
	require.NoError(t, err)

	idx, err := Open(ctx, blobstore.NewBytesBlob(data))
	require.NoError(t, err)

	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	pts, err := idx.Search(ctx, "aa11")
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestBuilder_WriteToCountsBytes(t *testing.T) {
	b := newBuilder(t)
	data, err := b.Bytes()
	require.NoError(t, err)

	var sink countingWriter
	sink.w = discard{}
	n, err := b.WriteTo(&sink)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
}

func TestBuilder_Save(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			name := "wonderland-" + c.String() + RegionSuffix
			require.NoError(t, newBuilder(t, WithCompression(c)).Save(ctx, store, name))

			blob, err := store.Open(ctx, name)
			require.NoError(t, err)
			defer blob.Close()

			idx, err := Open(ctx, blob, WithVerify(true))
			require.NoError(t, err)
			pts, err := idx.Search(ctx, "AA11 0")
			require.NoError(t, err)
			assertPoints(t, []Point{wonderland[0].point}, pts)
		})
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
