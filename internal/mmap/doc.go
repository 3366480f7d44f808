// Package mmap provides memory-mapped file access for zero-copy reads of
// page blobs and exported index snapshots.
//
// # Overview
//
// Memory mapping lets a page store or a snapshot importer read directly
// from a file's backing pages without a buffered copy through the kernel
// page cache, useful once a local index's page blobs or a portable
// snapshot file grows past a few hundred megabytes.
//
// # Usage
//
//	m, err := mmap.Open("pages.blob")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy access to file contents
//	data := m.Bytes()
//
//	// Create a view into a specific region
//	region, _ := m.Region(offset, size)
//
//	// Provide kernel hints for access patterns
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): Uses mmap(2) with madvise(2) for access hints
//   - Windows: Uses CreateFileMapping/MapViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. The Close() method
// is idempotent and protected by atomic operations. However, callers must
// ensure no goroutines access Bytes() after Close() returns.
package mmap
