//go:build integration

package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	minioOnce sync.Once
	minioAddr string
	minioErr  error
)

// getMinio returns the shared MinIO address, starting the container if needed.
func getMinio(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	minioOnce.Do(func() {
		minioAddr, minioErr = startMinioContainer(context.Background())
	})

	if minioErr != nil {
		tb.Fatalf("start minio container: %v", minioErr)
	}
	return minioAddr
}

func startMinioContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve minio host: %w", err)
	}
	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve minio port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func TestStore_Integration(t *testing.T) {
	addr := getMinio(t)
	ctx := context.Background()

	store, err := New(addr, "postcodes-test", WithCredentials("minioadmin", "minioadmin"), WithPrefix("it/"))
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "put.bin", data))

	blob, err := store.Open(ctx, "put.bin")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "minio", string(part))

	w, err := store.Create(ctx, "gb/streamed.pcs")
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("x"), 1<<20)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"gb/streamed.pcs", "put.bin"}, names)

	require.NoError(t, store.Delete(ctx, "put.bin"))
	require.NoError(t, store.Delete(ctx, "put.bin"))

	_, err = store.Open(ctx, "put.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
