// Package config loads postcode service configuration from YAML files with
// environment-variable overrides and assembles the storage stack it
// describes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinIO  = "minio"
)

// Cache types.
const (
	CacheNone    = "none"
	CacheLRU     = "lru"
	CacheSharded = "sharded"
	CacheRedis   = "redis"
)

// Config is the top-level configuration.
type Config struct {
	Store     StoreConfig    `yaml:"store"`
	Cache     CacheConfig    `yaml:"cache"`
	Resources ResourceConfig `yaml:"resources"`
	Index     IndexConfig    `yaml:"index"`
	Logging   LoggingConfig  `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

// StoreConfig selects where region files live.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Local   LocalConfig `yaml:"local"`
	S3      S3Config    `yaml:"s3"`
	MinIO   MinIOConfig `yaml:"minio"`
}

// LocalConfig holds the directory of a local store.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// S3Config holds AWS S3 settings. Credentials come from the default AWS
// provider chain.
type S3Config struct {
	Bucket            string `yaml:"bucket"`
	Prefix            string `yaml:"prefix"`
	Region            string `yaml:"region"`
	Endpoint          string `yaml:"endpoint"`
	UsePathStyle      bool   `yaml:"usePathStyle"`
	UploadPartSize    int64  `yaml:"uploadPartSize"`
	UploadConcurrency int    `yaml:"uploadConcurrency"`
}

// MinIOConfig holds S3-compatible endpoint settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Secure    bool   `yaml:"secure"`
}

// CacheConfig controls the block cache in front of the store.
type CacheConfig struct {
	Type          string      `yaml:"type"`
	CapacityBytes int64       `yaml:"capacityBytes"`
	BlockSize     int64       `yaml:"blockSize"`
	Redis         RedisConfig `yaml:"redis"`
}

// RedisConfig holds the shared Redis block cache settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// ResourceConfig bounds cache memory and backend bandwidth.
type ResourceConfig struct {
	MemoryLimitBytes   int64 `yaml:"memoryLimitBytes"`
	IOLimitBytesPerSec int64 `yaml:"ioLimitBytesPerSec"`
}

// IndexConfig controls how region files are opened and written.
type IndexConfig struct {
	SectionTag        string `yaml:"sectionTag"`
	Verify            bool   `yaml:"verify"`
	Compression       string `yaml:"compression"`
	RegionSuffix      string `yaml:"regionSuffix"`
	LookupParallelism int    `yaml:"lookupParallelism"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config for local development.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendLocal,
			Local:   LocalConfig{Root: "./data"},
			S3:      S3Config{Region: "eu-west-2"},
			MinIO:   MinIOConfig{Endpoint: "localhost:9000"},
		},
		Cache: CacheConfig{
			Type:          CacheNone,
			CapacityBytes: 64 << 20,
			BlockSize:     64 << 10,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "postcodes",
				TTL:    time.Hour,
			},
		},
		Index: IndexConfig{
			SectionTag:        "postcode_points",
			Compression:       "zstd",
			RegionSuffix:      ".pcs",
			LookupParallelism: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "postcodes",
		},
	}
}

// Validate checks that the selected backend and cache are fully described.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendLocal:
		if c.Store.Local.Root == "" {
			return errors.New("config: store.local.root is required")
		}
	case BackendMemory:
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("config: store.s3.bucket is required")
		}
	case BackendMinIO:
		if c.Store.MinIO.Endpoint == "" || c.Store.MinIO.Bucket == "" {
			return errors.New("config: store.minio.endpoint and store.minio.bucket are required")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	switch c.Cache.Type {
	case "", CacheNone:
	case CacheLRU, CacheSharded:
		if c.Cache.CapacityBytes <= 0 {
			return errors.New("config: cache.capacityBytes must be positive")
		}
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("config: cache.redis.addr is required")
		}
	default:
		return fmt.Errorf("config: unknown cache type %q", c.Cache.Type)
	}
	if c.Cache.Type != "" && c.Cache.Type != CacheNone && c.Cache.BlockSize <= 0 {
		return errors.New("config: cache.blockSize must be positive")
	}

	if c.Resources.MemoryLimitBytes < 0 || c.Resources.IOLimitBytesPerSec < 0 {
		return errors.New("config: resource limits must not be negative")
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: unknown logging format %q", c.Logging.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: logging level: %w", err)
	}
	return l, nil
}

// applyEnvOverrides reads POSTCODES_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	var errs []string
	integer := func(name string, dst *int64) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, name)
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, name)
				return
			}
			*dst = b
		}
	}

	str("POSTCODES_STORE_BACKEND", &cfg.Store.Backend)
	str("POSTCODES_LOCAL_ROOT", &cfg.Store.Local.Root)
	str("POSTCODES_S3_BUCKET", &cfg.Store.S3.Bucket)
	str("POSTCODES_S3_PREFIX", &cfg.Store.S3.Prefix)
	str("POSTCODES_S3_REGION", &cfg.Store.S3.Region)
	str("POSTCODES_S3_ENDPOINT", &cfg.Store.S3.Endpoint)
	str("POSTCODES_MINIO_ENDPOINT", &cfg.Store.MinIO.Endpoint)
	str("POSTCODES_MINIO_BUCKET", &cfg.Store.MinIO.Bucket)
	str("POSTCODES_MINIO_PREFIX", &cfg.Store.MinIO.Prefix)
	str("POSTCODES_MINIO_ACCESS_KEY", &cfg.Store.MinIO.AccessKey)
	str("POSTCODES_MINIO_SECRET_KEY", &cfg.Store.MinIO.SecretKey)
	boolean("POSTCODES_MINIO_SECURE", &cfg.Store.MinIO.Secure)

	str("POSTCODES_CACHE_TYPE", &cfg.Cache.Type)
	integer("POSTCODES_CACHE_CAPACITY_BYTES", &cfg.Cache.CapacityBytes)
	integer("POSTCODES_CACHE_BLOCK_SIZE", &cfg.Cache.BlockSize)
	str("POSTCODES_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	str("POSTCODES_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	if v := os.Getenv("POSTCODES_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Redis.DB = db
		} else {
			errs = append(errs, "POSTCODES_REDIS_DB")
		}
	}

	integer("POSTCODES_MEMORY_LIMIT_BYTES", &cfg.Resources.MemoryLimitBytes)
	integer("POSTCODES_IO_LIMIT_BYTES_PER_SEC", &cfg.Resources.IOLimitBytesPerSec)

	boolean("POSTCODES_INDEX_VERIFY", &cfg.Index.Verify)
	str("POSTCODES_INDEX_COMPRESSION", &cfg.Index.Compression)

	str("POSTCODES_LOGGING_LEVEL", &cfg.Logging.Level)
	str("POSTCODES_LOGGING_FORMAT", &cfg.Logging.Format)
	boolean("POSTCODES_METRICS_ENABLED", &cfg.Metrics.Enabled)

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid environment overrides: %s", strings.Join(errs, ", "))
	}
	return nil
}
