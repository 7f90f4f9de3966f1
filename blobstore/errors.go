package blobstore

import "errors"

var (
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("blobstore: invalid offset")
	// ErrClosed is returned when writing to a closed blob.
	ErrClosed = errors.New("blobstore: blob is closed")
)
