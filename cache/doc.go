// Package cache provides byte-oriented block caches for immutable index data.
//
// Blocks are keyed by the blob they came from and their block-aligned offset.
// Index files never change once written, so entries never go stale; they are
// only evicted when the byte budget is exhausted or a blob is invalidated.
//
// Implementations:
//
//   - LRUBlockCache: a single-mutex LRU bounded by a byte capacity.
//   - ShardedLRUBlockCache: LRU shards selected by key hash for
//     many concurrent readers.
//   - redis.BlockCache (subpackage): a cache shared between processes.
//
// An optional MemoryBudget lets several caches share one global limit.
package cache
