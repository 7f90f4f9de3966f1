// Package blobstore provides the storage abstraction for immutable index files.
//
// BlobStore is the interface for reading and writing data blobs (compound
// region files). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, read through read-only mmap
//   - MemoryStore: in-memory store for tests and tooling
//   - CachingStore: block cache in front of any store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO / S3-compatible object storage
//
// # Zero-copy access
//
// Blobs that implement Mappable expose their bytes directly. Index readers
// alias those bytes instead of issuing ReadAt calls:
//
//	if m, ok := blob.(blobstore.Mappable); ok {
//	    data, err := m.Bytes()
//	    ...
//	}
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Remote backends should implement ReadRange with a single ranged request.
package blobstore
