// Package redis provides a cache.BlockCache shared between processes,
// backed by go-redis/v9.
//
// Blocks are stored under "<prefix>:<kind>:<offset>:<version>:<path>" with an optional
// TTL. Lookups that fail because Redis is unreachable count as misses, so a
// flaky cache degrades to backend reads instead of failing queries.
package redis
