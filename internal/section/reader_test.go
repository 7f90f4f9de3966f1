package section

import (
	"context"
	"io"
	"testing"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamOnly hides Mappable so reads go through ReadAt.
type streamOnly struct {
	blobstore.Blob
}

func readers(data []byte) map[string]*Reader {
	return map[string]*Reader{
		"mapped":   NewReader(blobstore.NewBytesBlob(data)),
		"streamed": NewReader(streamOnly{blobstore.NewBytesBlob(data)}),
	}
}

func TestReader_Views(t *testing.T) {
	ctx := context.Background()

	for name, r := range readers([]byte("0123456789")) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name == "mapped", r.Mapped())
			assert.Equal(t, int64(10), r.Size())

			sub, err := r.Sub(2, 5)
			require.NoError(t, err)
			assert.Equal(t, int64(2), sub.Offset())

			got, err := sub.ReadFull(ctx, 1, 3)
			require.NoError(t, err)
			assert.Equal(t, "345", string(got))

			nested, err := sub.Sub(1, 4)
			require.NoError(t, err)
			got, err = nested.ReadFull(ctx, 0, 4)
			require.NoError(t, err)
			assert.Equal(t, "3456", string(got))

			_, err = sub.ReadFull(ctx, 3, 3)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

			_, err = sub.ReadFull(ctx, 6, 0)
			assert.ErrorIs(t, err, ErrOutOfBounds)

			_, err = sub.Sub(4, 2)
			assert.ErrorIs(t, err, ErrOutOfBounds)

			buf := make([]byte, 4)
			n, err := sub.ReadAt(ctx, buf, 3)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 2, n)
			assert.Equal(t, "56", string(buf[:n]))

			all, err := io.ReadAll(sub.NewStream(ctx))
			require.NoError(t, err)
			assert.Equal(t, "23456", string(all))
		})
	}
}

func TestReader_BytesAliases(t *testing.T) {
	data := []byte("abcdef")
	r := FromBytes(data)

	sub, err := r.Sub(1, 3)
	require.NoError(t, err)

	b, ok := sub.Bytes()
	require.True(t, ok)
	assert.Equal(t, "bcd", string(b))
	assert.Same(t, &data[1], &b[0])

	streamed := NewReader(streamOnly{blobstore.NewBytesBlob(data)})
	_, ok = streamed.Bytes()
	assert.False(t, ok)
}

func TestReader_Empty(t *testing.T) {
	r := FromBytes(nil)
	sub, err := r.Sub(0, 0)
	require.NoError(t, err)

	got, err := sub.ReadFull(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
