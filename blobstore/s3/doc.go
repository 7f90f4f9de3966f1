// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "map-data",
//	    s3.WithPrefix("postcodes/"),
//	    s3.WithRegion("eu-west-1"),
//	)
//
//	cat := postcodes.NewCatalog(store)
//
// # Features
//
//   - Range reads, so only the touched parts of an index file are fetched
//   - Multipart uploads through the transfer manager for built files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
