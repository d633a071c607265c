//go:build !linux

package platform

// On non-Linux platforms CLER falls back to a plain padded ring buffer
// and never attempts a doubly-mapped region: darwin/freebsd support
// mmap(2) equally well, but the memfd_create + MAP_FIXED double-aliasing
// sequence wired here targets Linux specifically (matching the teacher
// repo and the rest of the scheduler/affinity code, which are also
// Linux-only). Windows gets its own VirtualAlloc2/MapViewOfFile3 path in
// spec.md §4.2 that this pass does not implement (see DESIGN.md, Open
// Question 1) and falls back here too.

func queryPageSize() int {
	return 4096
}

func probeDoublyMappedSupport() bool {
	return false
}
