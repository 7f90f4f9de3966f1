package s3

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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/postcodes/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client Client
	bucket string
	prefix string
	upload UploadConfig
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "postcodes/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		upload: DefaultUploadConfig(),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open issues a HEAD request to learn the object size.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
		etag:   strings.Trim(aws.ToString(head.ETag), `"`),
	}, nil
}

// Create starts a streaming upload. The object becomes visible when Close
// returns without error. ctx bounds the whole upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()

	blob := &s3WritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	uploader := newUploader(s.client, s.upload)
	key := s.key(name)

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		// Unblock a writer still waiting on the pipe.
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Delete removes an object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns the names below the store prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	root := strings.TrimSuffix(s.prefix, "/")
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := aws.ToString(obj.Key)
			if root != "" {
				trimmed, ok := strings.CutPrefix(rel, root+"/")
				if !ok {
					continue
				}
				rel = trimmed
			}
			keys = append(keys, rel)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func translateError(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	return err
}

// s3Blob implements blobstore.Blob with ranged GETs.
type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
	etag   string
}

func (b *s3Blob) Version() string {
	return b.etag
}

func (b *s3Blob) Close() error {
	return nil
}

func (b *s3Blob) Size() int64 {
	return b.size
}

func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, blobstore.ErrInvalidOffset
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= b.size {
		return 0, io.EOF
	}

	body, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	want := min(int64(len(p)), b.size-off)
	n, err := io.ReadFull(body, p[:want])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 {
		return nil, blobstore.ErrInvalidOffset
	}
	if off > b.size {
		return nil, io.EOF
	}
	if off == b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return b.get(ctx, off, length)
}

func (b *s3Blob) get(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	end := min(off+length, b.size) - 1

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return resp.Body, nil
}

// s3WritableBlob pipes writes into a running transfer-manager upload.
type s3WritableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (b *s3WritableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *s3WritableBlob) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

// Sync is a no-op; the upload is finalized by Close.
func (b *s3WritableBlob) Sync() error {
	return nil
}
