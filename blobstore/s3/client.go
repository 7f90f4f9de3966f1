package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the subset of the S3 API the store uses.
// *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

type options struct {
	prefix       string
	region       string
	endpoint     string
	usePathStyle bool
	upload       UploadConfig
}

// Option configures New.
type Option func(*options)

// WithPrefix prepends prefix to all keys (e.g. "postcodes/").
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at an S3-compatible endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithUsePathStyle enables path-style addressing.
func WithUsePathStyle(v bool) Option {
	return func(o *options) { o.usePathStyle = v }
}

// WithUploadConfig tunes multipart uploads.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) { o.upload = cfg }
}

// UploadConfig configures the S3 transfer manager.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	PartSize int64
	// Concurrency is the number of concurrent part uploads.
	Concurrency int
	// LeavePartsOnError keeps uploaded parts when an upload fails.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the upload settings used by New.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: manager.DefaultUploadConcurrency,
	}
}

// New loads the default AWS configuration and creates a Store for bucket.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		so.UsePathStyle = o.usePathStyle
	})

	s := NewStore(client, bucket, o.prefix)
	s.upload = o.upload
	return s, nil
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}
