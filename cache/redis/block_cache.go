package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/postcodes/cache"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "pcs"
	scanCount     = 100
	invalidateTTL = 30 * time.Second
)

// Client is the subset of go-redis commands the cache uses.
// *redis.Client and *redis.ClusterClient satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Option configures a BlockCache.
type Option func(*BlockCache)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(c *BlockCache) { c.prefix = prefix }
}

// WithTTL sets the expiration of cached blocks (0 keeps them forever).
func WithTTL(ttl time.Duration) Option {
	return func(c *BlockCache) { c.ttl = ttl }
}

// BlockCache stores immutable blocks in Redis.
type BlockCache struct {
	client Client
	owned  io.Closer
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

var _ cache.BlockCache = (*BlockCache)(nil)

// New wraps an existing client. The caller keeps ownership of it.
func New(client Client, opts ...Option) *BlockCache {
	c := &BlockCache{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a Redis server and verifies the connection with a PING.
// The returned cache owns the connection and closes it on Close.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*BlockCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	c := New(rdb, opts...)
	c.owned = rdb
	return c, nil
}

// Get returns a cached block.
func (c *BlockCache) Get(ctx context.Context, key cache.CacheKey) ([]byte, bool) {
	b, err := c.client.Get(ctx, c.encodeKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.errs.Add(1)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return b, true
}

// Set caches a block. Failures are counted, not reported.
func (c *BlockCache) Set(ctx context.Context, key cache.CacheKey, b []byte) {
	if err := c.client.Set(ctx, c.encodeKey(key), b, c.ttl).Err(); err != nil {
		c.errs.Add(1)
	}
}

// Invalidate scans the cache namespace and deletes matching keys.
func (c *BlockCache) Invalidate(predicate func(key cache.CacheKey) bool) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTTL)
	defer cancel()

	if _, err := c.invalidate(ctx, predicate); err != nil {
		c.errs.Add(1)
	}
}

func (c *BlockCache) invalidate(ctx context.Context, predicate func(key cache.CacheKey) bool) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+":*", scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("scanning %s: %w", c.prefix, err)
		}

		var victims []string
		for _, k := range keys {
			ck, ok := c.decodeKey(k)
			if ok && predicate(ck) {
				victims = append(victims, k)
			}
		}

		if len(victims) > 0 {
			n, err := c.client.Del(ctx, victims...).Result()
			if err != nil {
				return deleted, fmt.Errorf("deleting keys: %w", err)
			}
			deleted += n
		}

		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Close closes the connection if the cache owns it.
func (c *BlockCache) Close() error {
	if c.owned != nil {
		return c.owned.Close()
	}
	return nil
}

// Stats returns hit/miss counters.
func (c *BlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Errors returns how many Redis operations failed.
func (c *BlockCache) Errors() int64 {
	return c.errs.Load()
}

func (c *BlockCache) encodeKey(k cache.CacheKey) string {
	var sb strings.Builder
	sb.Grow(len(c.prefix) + len(k.Version) + len(k.Path) + 25)
	sb.WriteString(c.prefix)
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(uint64(k.Kind), 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(k.Offset, 10))
	sb.WriteByte(':')
	sb.WriteString(strings.ReplaceAll(k.Version, ":", "_"))
	sb.WriteByte(':')
	sb.WriteString(k.Path)
	return sb.String()
}

func (c *BlockCache) decodeKey(s string) (cache.CacheKey, bool) {
	rest, ok := strings.CutPrefix(s, c.prefix+":")
	if !ok {
		return cache.CacheKey{}, false
	}

	parts := strings.SplitN(rest, ":", 4)
	if len(parts) != 4 {
		return cache.CacheKey{}, false
	}

	kind, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return cache.CacheKey{}, false
	}
	off, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return cache.CacheKey{}, false
	}

	return cache.CacheKey{Kind: cache.CacheKind(kind), Offset: off, Version: parts[2], Path: parts[3]}, true
}
