package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "section.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestMapping_OpenReadClose(t *testing.T) {
	content := []byte("postcode_points section")
	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))

	buf := make([]byte, 6)
	n, err := m.ReadAt(buf, 9)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "points", string(buf))

	n, err = m.ReadAt(make([]byte, 10), int64(len(content))-3)
	assert.Equal(t, 3, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrInvalidOffset, err)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessSequential))
}

func TestRegion(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("0123456789")))
	require.NoError(t, err)

	r, err := m.Region(2, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Size())
	assert.Equal(t, "23456", string(r.Bytes()))
	require.NoError(t, r.Advise(AccessWillNeed))

	buf := make([]byte, 3)
	n, err := r.ReadAt(buf, 3)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "56", string(buf[:n]))

	_, err = m.Region(8, 5)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Region(-1, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, r.Bytes())
	assert.ErrorIs(t, r.Advise(AccessDefault), ErrClosed)
	_, err = r.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Region(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
}
