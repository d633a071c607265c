//go:build linux

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unsafePointer returns the address backing a byte slice produced by
// unix.Mmap. golang.org/x/sys/unix's high-level Mmap wrapper never
// accepts a caller-supplied address, so placing a second mapping at a
// fixed offset from the first requires the raw mmap(2) syscall; this is
// the same escape hatch the teacher repo reaches for in
// internal/uring/minimal.go when the high-level wrapper doesn't expose a
// needed flag.
func unsafePointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// mmapFixed maps fd at the given fixed virtual address using MAP_FIXED,
// returning a byte slice over the mapped region. Used only to place the
// two aliases of a doubly-mapped probe/allocation back to back.
func mmapFixed(addr, length uintptr, fd int) ([]byte, error) {
	ret, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr, length,
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
		uintptr(fd), 0,
	)
	if errno != 0 {
		return nil, fmt.Errorf("mmap fixed: %w", errno)
	}
	if ret != addr {
		unix.Syscall(unix.SYS_MUNMAP, ret, length, 0)
		return nil, fmt.Errorf("mmap fixed: kernel placed mapping at %#x, wanted %#x", ret, addr)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ret)), int(length)), nil
}
