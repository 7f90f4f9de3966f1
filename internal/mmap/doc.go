// Package mmap provides read-only memory-mapped file access for zero-copy I/O.
//
// Container files are mapped once and sections are exposed as Regions that
// alias the mapping, so a lookup touches only the pages it reads.
//
//	m, err := mmap.Open("wonderland.pcs")
//	if err != nil { ... }
//	defer m.Close()
//
//	region, _ := m.Region(offset, size)
//	_ = region.Advise(mmap.AccessRandom)
//
// Mapping and Region are safe for concurrent reads. Close is idempotent;
// callers must not use slices returned by Bytes after Close.
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping/MapViewOfFile
// and ignores access hints.
package mmap
