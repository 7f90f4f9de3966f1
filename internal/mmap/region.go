package mmap

// Region is a window into a Mapping.
// It does not own the memory; the parent Mapping does.
type Region struct {
	parent *Mapping
	offset int
	size   int
}

// Region creates a new view of [offset, offset+size) into the mapping.
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset > m.size-size {
		return nil, ErrOutOfBounds
	}
	return &Region{
		parent: m,
		offset: offset,
		size:   size,
	}, nil
}

// Bytes returns the bytes of this region, or nil once the parent is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset : r.offset+r.size]
}

// Size returns the region length in bytes.
func (r *Region) Size() int {
	return r.size
}

// ReadAt implements io.ReaderAt relative to the start of the region.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if r.parent.closed.Load() {
		return 0, ErrClosed
	}
	return readAt(r.parent.data[r.offset:r.offset+r.size], p, off)
}

// Advise provides hints to the kernel about how this region will be accessed.
func (r *Region) Advise(pattern AccessPattern) error {
	if r.parent.closed.Load() {
		return ErrClosed
	}
	if r.size == 0 {
		return nil
	}
	return osAdvise(r.parent.data[r.offset:r.offset+r.size], pattern)
}
