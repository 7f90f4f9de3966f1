package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/postcodes/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/foo"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "foo")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/gb.pcs"
		})).Return(&s3.HeadObjectOutput{
			ContentLength: aws.Int64(100),
			ETag:          aws.String(`"9e3779b97f4a"`),
		}, nil).Once()

		blob, err := store.Open(context.Background(), "gb.pcs")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
		v, ok := blob.(blobstore.Versioned)
		require.True(t, ok)
		assert.Equal(t, "9e3779b97f4a", v.Version())
		assert.NoError(t, blob.Close())
	})

	t.Run("OtherError", func(t *testing.T) {
		boom := errors.New("access denied")
		mockClient.On("HeadObject", mock.Anything, mock.Anything).Return(nil, boom).Once()

		_, err := store.Open(context.Background(), "x")
		assert.ErrorIs(t, err, boom)
	})

	mockClient.AssertExpectations(t)
}

func TestStore_PutDelete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Key == "prefix/put" && aws.ToInt64(input.ContentLength) == 4
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/del"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "put", []byte("data")))
	require.NoError(t, store.Delete(context.Background(), "del"))
	mockClient.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "test-bucket" && *input.Prefix == "prefix"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/oz.pcs")},
			{Key: aws.String("prefix/gb/wonderland.pcs")},
			{Key: aws.String("prefixed-elsewhere")},
		},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"gb/wonderland.pcs", "oz.pcs"}, keys)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("prefix/1")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("prefix/2")}},
	}, nil).Once()

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, keys)
}

func TestBlob_ReadAt(t *testing.T) {
	mockClient := new(MockS3Client)
	blob := &s3Blob{client: mockClient, bucket: "b", key: "k", size: 10}
	ctx := context.Background()

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("hello")),
	}, nil).Once()

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	// Tail read is clipped to the object size.
	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("ld")),
	}, nil).Once()

	n, err = blob.ReadAt(ctx, buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ld", string(buf[:n]))

	_, err = blob.ReadAt(ctx, buf, 10)
	assert.ErrorIs(t, err, io.EOF)

	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt_ShortBody(t *testing.T) {
	mockClient := new(MockS3Client)
	blob := &s3Blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("he")),
	}, nil).Once()

	n, err := blob.ReadAt(context.Background(), make([]byte, 5), 0)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBlob_ReadRange(t *testing.T) {
	mockClient := new(MockS3Client)
	blob := &s3Blob{client: mockClient, bucket: "b", key: "k", size: 10}
	ctx := context.Background()

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=2-6"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("llo W")),
	}, nil).Once()

	r, err := blob.ReadRange(ctx, 2, 5)
	require.NoError(t, err)
	defer r.Close()

	buf, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "llo W", string(buf))

	_, err = blob.ReadRange(ctx, 11, 1)
	assert.ErrorIs(t, err, io.EOF)

	r, err = blob.ReadRange(ctx, 10, 1)
	require.NoError(t, err)
	buf, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, buf)
}

func TestStore_Create(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	var uploaded []byte
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/new.pcs"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	wb, err := store.Create(context.Background(), "new.pcs")
	require.NoError(t, err)

	_, err = wb.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, wb.Sync())
	require.NoError(t, wb.Close())
	assert.Equal(t, "content", string(uploaded))

	_, err = wb.Write([]byte("late"))
	assert.ErrorIs(t, err, blobstore.ErrClosed)
}
