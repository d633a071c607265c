// Package platform exposes the small set of hardware and OS facts the
// channel and scheduler packages need: cache line size, page size, and
// whether the process can actually construct a doubly-mapped memory
// region. All three are compile-time-ish constants in the C origin of
// this design; here they are cheap, cached functions instead, since Go
// has no portable compile-time CPU-architecture dispatch.
package platform

import (
	"runtime"
	"sync"
)

// CacheLineSize is the assumed destructive-interference size for the
// current GOARCH. Go does not expose hardware_destructive_interference_size,
// so this mirrors the same architecture table the original C++ platform
// header used: 64 bytes on the architectures that dominate desktop and
// server deployments, 32 bytes on the 32-bit ARM microcontroller targets
// where CLER also runs.
var CacheLineSize = func() int {
	switch runtime.GOARCH {
	case "arm":
		// Generic 32-bit ARM (including Cortex-M parts); conservative.
		return 32
	default:
		// amd64, arm64, riscv64, 386, and anything else: 64 bytes.
		return 64
	}
}()

var pageSizeOnce sync.Once
var pageSize int

// PageSize returns the OS page size, cached for the life of the process.
// Falls back to 4096 if the query fails, which matches the original's
// behavior when sysconf is unavailable.
func PageSize() int {
	pageSizeOnce.Do(func() {
		pageSize = queryPageSize()
	})
	return pageSize
}

var dbfOnce sync.Once
var dbfSupported bool

// SupportsDoublyMappedBuffers runs a one-time real probe (allocate,
// double-map, verify, tear down) and caches the result for the process
// lifetime, mirroring the original's `supports_doubly_mapped_buffers()`.
// A doubly-mapped region places the same physical pages at two
// contiguous virtual addresses so a channel can hand out a
// contiguous slice spanning a wraparound without copying.
func SupportsDoublyMappedBuffers() bool {
	dbfOnce.Do(func() {
		dbfSupported = probeDoublyMappedSupport()
	})
	return dbfSupported
}

// SpinWait busy-waits for a small number of iterations before a caller
// falls back to a blocking wait or sleep. Go has no portable inline PAUSE
// without cgo; runtime.Gosched yields the P without parking the goroutine,
// which is the closest portable equivalent and keeps other runnable
// goroutines progressing during the spin.
func SpinWait(iterations int) {
	for i := 0; i < iterations; i++ {
		if i%16 == 15 {
			runtime.Gosched()
		}
	}
}
