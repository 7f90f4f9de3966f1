package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/postcodes"
	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/blobstore/minio"
	"github.com/hupe1980/postcodes/blobstore/s3"
	"github.com/hupe1980/postcodes/cache"
	"github.com/hupe1980/postcodes/cache/redis"
	"github.com/hupe1980/postcodes/internal/container"
	"github.com/hupe1980/postcodes/internal/resource"
	"github.com/hupe1980/postcodes/metrics"
)

// Stack is the storage stack described by a Config.
type Stack struct {
	// Store serves region files, through the block cache when one is configured.
	Store blobstore.BlobStore
	// Backend is the uncached store.
	Backend blobstore.BlobStore
	// Cache is the block cache, or nil.
	Cache cache.BlockCache

	resources *resource.Controller
}

// MemoryUsage returns the bytes currently held by the block cache.
func (s *Stack) MemoryUsage() int64 {
	return s.resources.MemoryUsage()
}

// Close releases the block cache.
func (s *Stack) Close() error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

// OpenStore assembles the backend, block cache and resource limits.
func (c *Config) OpenStore(ctx context.Context) (*Stack, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	backend, err := c.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   c.Resources.MemoryLimitBytes,
		IOLimitBytesPerSec: c.Resources.IOLimitBytesPerSec,
	})

	var bc cache.BlockCache
	switch c.Cache.Type {
	case "", CacheNone:
		return &Stack{Store: backend, Backend: backend, resources: rc}, nil
	case CacheLRU:
		bc = cache.NewLRUBlockCache(c.Cache.CapacityBytes, rc)
	case CacheSharded:
		bc = cache.NewShardedLRUBlockCache(c.Cache.CapacityBytes, rc)
	case CacheRedis:
		r := c.Cache.Redis
		opts := []redis.Option{redis.WithPrefix(r.Prefix)}
		if r.TTL > 0 {
			opts = append(opts, redis.WithTTL(r.TTL))
		}
		rbc, err := redis.Dial(ctx, r.Addr, r.Password, r.DB, opts...)
		if err != nil {
			return nil, fmt.Errorf("config: redis cache: %w", err)
		}
		bc = rbc
	}

	store := blobstore.NewCachingStore(backend, bc, c.Cache.BlockSize, blobstore.WithIOLimiter(rc))
	return &Stack{Store: store, Backend: backend, Cache: bc, resources: rc}, nil
}

func (c *Config) openBackend(ctx context.Context) (blobstore.BlobStore, error) {
	switch c.Store.Backend {
	case BackendLocal:
		if err := os.MkdirAll(c.Store.Local.Root, 0o755); err != nil {
			return nil, fmt.Errorf("config: local store: %w", err)
		}
		return blobstore.NewLocalStore(c.Store.Local.Root), nil

	case BackendMemory:
		return blobstore.NewMemoryStore(), nil

	case BackendS3:
		cfg := c.Store.S3
		opts := []s3.Option{
			s3.WithPrefix(cfg.Prefix),
			s3.WithUsePathStyle(cfg.UsePathStyle),
		}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		if cfg.UploadPartSize > 0 || cfg.UploadConcurrency > 0 {
			up := s3.DefaultUploadConfig()
			if cfg.UploadPartSize > 0 {
				up.PartSize = cfg.UploadPartSize
			}
			if cfg.UploadConcurrency > 0 {
				up.Concurrency = cfg.UploadConcurrency
			}
			opts = append(opts, s3.WithUploadConfig(up))
		}
		return s3.New(ctx, cfg.Bucket, opts...)

	case BackendMinIO:
		cfg := c.Store.MinIO
		opts := []minio.Option{
			minio.WithSecure(cfg.Secure),
			minio.WithPrefix(cfg.Prefix),
		}
		if cfg.AccessKey != "" {
			opts = append(opts, minio.WithCredentials(cfg.AccessKey, cfg.SecretKey))
		}
		if cfg.Region != "" {
			opts = append(opts, minio.WithRegion(cfg.Region))
		}
		return minio.New(cfg.Endpoint, cfg.Bucket, opts...)

	default:
		return nil, fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger() *postcodes.Logger {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Logging.Format == "text" {
		return postcodes.NewTextLogger(level)
	}
	return postcodes.NewJSONLogger(level)
}

// Collector returns an unregistered Prometheus collector, or nil when
// metrics are disabled.
func (c *Config) Collector() *metrics.PrometheusCollector {
	if !c.Metrics.Enabled {
		return nil
	}
	return metrics.NewPrometheusCollector(c.Metrics.Namespace)
}

// Options translates the index section into catalog and builder options.
// A non-nil collector is attached as the metrics collector.
func (c *Config) Options(mc *metrics.PrometheusCollector) ([]postcodes.Option, error) {
	compression, err := container.ParseCompression(c.Index.Compression)
	if err != nil {
		return nil, err
	}

	opts := []postcodes.Option{
		postcodes.WithLogger(c.Logger()),
		postcodes.WithVerify(c.Index.Verify),
		postcodes.WithCompression(compression),
		postcodes.WithLookupParallelism(c.Index.LookupParallelism),
	}
	if c.Index.SectionTag != "" {
		opts = append(opts, postcodes.WithSectionTag(c.Index.SectionTag))
	}
	if c.Index.RegionSuffix != "" {
		opts = append(opts, postcodes.WithRegionSuffix(c.Index.RegionSuffix))
	}
	if mc != nil {
		opts = append(opts, postcodes.WithMetricsCollector(mc))
	}
	return opts, nil
}

// OpenCatalog assembles the store and returns a Catalog over it. Closing the
// returned Catalog does not close the stack.
func (c *Config) OpenCatalog(ctx context.Context, mc *metrics.PrometheusCollector) (*postcodes.Catalog, *Stack, error) {
	opts, err := c.Options(mc)
	if err != nil {
		return nil, nil, err
	}
	stack, err := c.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return postcodes.NewCatalog(stack.Store, opts...), stack, nil
}
