package mmap

import "errors"

// AccessPattern is an madvise hint for a mapping or region.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits streamed ranges such as digest verification.
	AccessSequential
	// AccessRandom suits trie and point table lookups.
	AccessRandom
	AccessWillNeed
	AccessDontNeed
)

var (
	// ErrClosed is returned by reads on an unmapped file.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files too large to map.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned by Region for a window outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
