package cache

import (
	"context"
	"encoding/binary"
	"hash/maphash"
)

const numShards = 16

// ShardedLRUBlockCache spreads entries across LRU shards to reduce lock
// contention when many lookups run in parallel.
type ShardedLRUBlockCache struct {
	shards [numShards]*LRUBlockCache
	seed   maphash.Seed
}

// NewShardedLRUBlockCache creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRUBlockCache(capacity int64, budget MemoryBudget) *ShardedLRUBlockCache {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRUBlockCache{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRUBlockCache(shardCapacity, budget)
	}
	return s
}

func (s *ShardedLRUBlockCache) shard(key CacheKey) *LRUBlockCache {
	var h maphash.Hash
	h.SetSeed(s.seed)

	var buf [9]byte
	buf[0] = byte(key.Kind)
	binary.LittleEndian.PutUint64(buf[1:], key.Offset)
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(key.Path)
	_, _ = h.WriteString(key.Version)

	return s.shards[h.Sum64()%numShards]
}

// Get returns a cached block.
func (s *ShardedLRUBlockCache) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a block.
func (s *ShardedLRUBlockCache) Set(ctx context.Context, key CacheKey, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate from every shard.
func (s *ShardedLRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	for _, shard := range s.shards {
		shard.Invalidate(predicate)
	}
}

// Close closes all shards.
func (s *ShardedLRUBlockCache) Close() error {
	for _, shard := range s.shards {
		if err := shard.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRUBlockCache) Stats() (hits, misses int64) {
	for _, shard := range s.shards {
		h, m := shard.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRUBlockCache) Size() int64 {
	var total int64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}
