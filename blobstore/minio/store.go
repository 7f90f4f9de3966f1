package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type options struct {
	accessKey string
	secretKey string
	secure    bool
	region    string
	prefix    string
}

// Option configures New.
type Option func(*options)

// WithCredentials sets static access credentials.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithSecure enables HTTPS.
func WithSecure(v bool) Option {
	return func(o *options) { o.secure = v }
}

// WithRegion sets the bucket region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithPrefix prepends prefix to all keys.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// New connects to endpoint and returns a Store for bucket.
func New(endpoint, bucket string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.accessKey, o.secretKey, ""),
		Secure: o.secure,
		Region: o.region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	return NewStore(client, bucket, o.prefix), nil
}

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a new MinIO blob store.
// rootPrefix is prepended to all keys (e.g. "postcodes/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Open opens an existing blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}

	return &minioBlob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
		etag:   strings.Trim(info.ETag, `"`),
	}, nil
}

// Put writes a blob atomically.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Create creates a new blob for streaming writes.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	blob := &minioWritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !errors.Is(translateError(err), blobstore.ErrNotFound) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.relative(obj.Key); name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

func (s *Store) relative(key string) string {
	root := strings.TrimSuffix(s.prefix, "/")
	if root == "" {
		return key
	}
	name, ok := strings.CutPrefix(key, root+"/")
	if !ok {
		return ""
	}
	return name
}

func translateError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return blobstore.ErrNotFound
	}
	return err
}

// minioBlob implements blobstore.Blob for MinIO.
type minioBlob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
	etag   string
}

func (b *minioBlob) Version() string {
	return b.etag
}

func (b *minioBlob) Size() int64 {
	return b.size
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, blobstore.ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= b.size {
		return 0, io.EOF
	}

	end := min(off+int64(len(p)), b.size) - 1
	obj, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *minioBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 {
		return nil, blobstore.ErrInvalidOffset
	}
	if off > b.size {
		return nil, io.EOF
	}
	if off == b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.get(ctx, off, min(off+length, b.size)-1)
}

func (b *minioBlob) get(ctx context.Context, off, end int64) (*minio.Object, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return nil, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, translateError(err)
	}
	return obj, nil
}

func (b *minioBlob) Close() error {
	return nil
}

// minioWritableBlob implements blobstore.WritableBlob for MinIO.
type minioWritableBlob struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (b *minioWritableBlob) Write(p []byte) (int, error) {
	if b.finished.Load() {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *minioWritableBlob) Close() error {
	if !b.finished.CompareAndSwap(false, true) {
		return nil
	}
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

// Abort cancels the upload; nothing becomes visible.
func (b *minioWritableBlob) Abort() error {
	if !b.finished.CompareAndSwap(false, true) {
		return nil
	}
	err := b.pw.CloseWithError(errors.New("upload aborted"))
	<-b.done
	return err
}

func (b *minioWritableBlob) Sync() error {
	return nil
}
