// Package resource bounds the memory held by block caches and the byte rate
// of backend fetches.
//
// A Controller tracks two budgets:
//
//   - Memory: a weighted semaphore caps the bytes cached blocks may retain.
//     TryAcquireMemory fails fast, AcquireMemory waits for a release.
//   - IO: a token bucket throttles bytes fetched from remote blob stores.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   256 << 20,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if rc.TryAcquireMemory(int64(len(block))) {
//	    defer rc.ReleaseMemory(int64(len(block)))
//	}
//
// All methods are safe for concurrent use and treat a nil *Controller as
// unlimited, so callers can pass one around optionally.
package resource
