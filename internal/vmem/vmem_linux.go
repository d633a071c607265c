//go:build linux

package vmem

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/caribou-labs/cler-go/internal/platform"
)

func create(size int) (*DoublyMappedAllocation, error) {
	aligned := alignUp(size, platform.PageSize())

	fd, err := createSharedMemory()
	if err != nil {
		return invalid(), nil
	}

	if err := unix.Ftruncate(fd, int64(aligned)); err != nil {
		unix.Close(fd)
		return invalid(), nil
	}

	reservation, err := unix.Mmap(-1, 0, aligned*2, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		unix.Close(fd)
		return invalid(), nil
	}
	base := uintptr(unsafe.Pointer(&reservation[0]))

	m1, err := mmapFixedHuge(base, uintptr(aligned), fd)
	if err != nil {
		unix.Munmap(reservation)
		unix.Close(fd)
		return invalid(), nil
	}

	m2, err := mmapFixedHuge(base+uintptr(aligned), uintptr(aligned), fd)
	if err != nil {
		unix.Syscall(unix.SYS_MUNMAP, base, uintptr(aligned), 0)
		unix.Munmap(reservation[aligned:])
		unix.Close(fd)
		return invalid(), nil
	}

	// Sentinel verification, same as the process-wide capability probe:
	// a write through the first alias must be visible through the second.
	m1[0] = 0xA5
	ok := m2[0] == 0xA5
	m1[0] = 0
	if !ok {
		unix.Syscall(unix.SYS_MUNMAP, base, uintptr(aligned*2), 0)
		unix.Close(fd)
		return invalid(), nil
	}

	alloc := &DoublyMappedAllocation{
		first:  m1,
		second: m2,
		size:   aligned,
		valid:  true,
	}
	alloc.closer = func() error {
		unix.Syscall(unix.SYS_MUNMAP, base, uintptr(aligned*2), 0)
		return unix.Close(fd)
	}
	return alloc, nil
}

// createSharedMemory tries memfd_create first and falls back to a
// uniquely-named, immediately-unlinked POSIX shm object, matching
// cler_vmem_posix.hpp's create_shared_memory().
func createSharedMemory() (int, error) {
	fd, err := unix.MemfdCreate("cler_dbuf", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		return fd, nil
	}

	// golang.org/x/sys/unix has no shm_open binding (it is a libc
	// wrapper, not a syscall); /dev/shm is POSIX shm's actual backing
	// tmpfs on Linux, so opening a uniquely-named file there directly
	// and unlinking it immediately reproduces shm_open's semantics.
	pid := os.Getpid()
	for attempt := 0; attempt < 8; attempt++ {
		path := fmt.Sprintf("/dev/shm/cler_dbuf_%d_%d", pid, attempt)
		fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_EXCL, 0600)
		if err == nil {
			unix.Unlink(path)
			return fd, nil
		}
		if err != unix.EEXIST {
			return -1, err
		}
	}
	return -1, fmt.Errorf("vmem: could not create a uniquely named shm object")
}

// mmapFixedHuge attempts a MAP_FIXED|MAP_SHARED mapping with MAP_HUGETLB
// first when the region is large enough to benefit, retrying without the
// flag on any failure -- huge pages are an opportunistic optimization,
// never a requirement.
func mmapFixedHuge(addr, length uintptr, fd int) ([]byte, error) {
	if hp := hugePageSize(); hp > 0 && length >= uintptr(hp) {
		if b, err := rawMmapFixed(addr, length, fd, unix.MAP_SHARED|unix.MAP_FIXED|unix.MAP_HUGETLB); err == nil {
			return b, nil
		}
	}
	return rawMmapFixed(addr, length, fd, unix.MAP_SHARED|unix.MAP_FIXED)
}

func rawMmapFixed(addr, length uintptr, fd int, flags int) ([]byte, error) {
	ret, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr, length,
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(flags),
		uintptr(fd), 0,
	)
	if errno != 0 {
		return nil, errno
	}
	if ret != addr {
		unix.Syscall(unix.SYS_MUNMAP, ret, length, 0)
		return nil, fmt.Errorf("vmem: kernel placed mapping at %#x, wanted %#x", ret, addr)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ret)), int(length)), nil
}

// hugePageSize reads /proc/meminfo's Hugepagesize line, in bytes, or 0 if
// unavailable. Go has no sysconf(_SC_LARGE_PAGESIZE) binding, so this
// mirrors only the fallback branch of the original's get_huge_page_size().
func hugePageSize() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Hugepagesize:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

func alignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) / align * align
}
