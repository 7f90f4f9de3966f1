package minio

import (
	"errors"
	"testing"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(minio.ErrorResponse{Code: "NoSuchKey"}), blobstore.ErrNotFound)
	assert.ErrorIs(t, translateError(minio.ErrorResponse{Code: "NotFound"}), blobstore.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))
}

func TestStore_KeyLayout(t *testing.T) {
	s := NewStore(nil, "bucket", "postcodes/")

	assert.Equal(t, "postcodes/gb.pcs", s.key("gb.pcs"))
	assert.Equal(t, "gb/wonderland.pcs", s.relative("postcodes/gb/wonderland.pcs"))
	assert.Equal(t, "", s.relative("postcodes-old/gb.pcs"))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "gb.pcs", bare.key("gb.pcs"))
	assert.Equal(t, "gb.pcs", bare.relative("gb.pcs"))
}

func TestNew(t *testing.T) {
	s, err := New("localhost:9000", "bucket", WithCredentials("a", "b"), WithPrefix("p/"), WithRegion("eu"))
	require.NoError(t, err)
	assert.Equal(t, "p/x", s.key("x"))
}
