// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client, so it also works against Ceph, SeaweedFS and
// Garage without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "map-data",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("postcodes/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cat := postcodes.NewCatalog(store)
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
