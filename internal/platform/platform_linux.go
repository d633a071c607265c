//go:build linux

package platform

import (
	"golang.org/x/sys/unix"
)

func queryPageSize() int {
	ps := unix.Getpagesize()
	if ps <= 0 {
		return 4096
	}
	return ps
}

// probeDoublyMappedSupport performs the same real allocate/map/verify/
// teardown sequence as the original `supports_doubly_mapped_buffers()`:
// create an anonymous shared-memory object, reserve a PROT_NONE region of
// twice its size, map the object at the start and the midpoint of that
// reservation, and confirm a write through the first mapping is visible
// through the second. Any failure at any step means "unsupported"; it
// never panics and never leaves mappings behind.
func probeDoublyMappedSupport() bool {
	size := PageSize()

	fd, err := unix.MemfdCreate("cler_dbuf_probe", unix.MFD_CLOEXEC)
	if err != nil {
		return false
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return false
	}

	reservation, err := unix.Mmap(-1, 0, size*2, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return false
	}
	base := uintptr(unsafePointer(reservation))
	defer unix.Munmap(reservation)

	m1, err := mmapFixed(base, uintptr(size), fd)
	if err != nil {
		return false
	}
	defer unix.Munmap(m1)

	m2, err := mmapFixed(base+uintptr(size), uintptr(size), fd)
	if err != nil {
		return false
	}
	defer unix.Munmap(m2)

	m1[0] = 0x78
	m1[1] = 0x56
	m1[2] = 0x34
	m1[3] = 0x12
	return m2[0] == 0x78 && m2[1] == 0x56 && m2[2] == 0x34 && m2[3] == 0x12
}
