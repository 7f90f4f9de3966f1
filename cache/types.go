package cache

import (
	"context"
)

// CacheKind is used to separate key spaces and tuning.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // raw blob store blocks
	CacheKindTOC               // decoded container tables of contents
)

// String returns a short name for the kind.
func (k CacheKind) String() string {
	switch k {
	case CacheKindBlob:
		return "blob"
	case CacheKindTOC:
		return "toc"
	default:
		return "unknown"
	}
}

// CacheKey identifies an immutable block.
type CacheKey struct {
	Kind CacheKind
	// Path identifies the source blob.
	Path string
	// Version tells rewrites of the same Path apart.
	Version string
	// Offset is the block-aligned byte offset within the blob.
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must treat b as immutable.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

// MemoryBudget is a global byte budget shared by several caches.
// *resource.Controller from this module implements it.
type MemoryBudget interface {
	TryAcquireMemory(bytes int64) bool
	ReleaseMemory(bytes int64)
}
