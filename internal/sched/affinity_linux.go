//go:build linux

package sched

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorker locks the calling goroutine to its OS thread and pins that
// thread to the CPU assigned via Config.CPUAffinity, round-robin over
// the configured list. Grounded on ehrlich-b-go-ublk's
// internal/queue/runner.go ioLoop, which does the same
// LockOSThread+SchedSetaffinity pairing per I/O worker.
func pinWorker(cfg Config, workerID int) {
	if len(cfg.CPUAffinity) == 0 {
		return
	}
	runtime.LockOSThread()
	cpu := cfg.CPUAffinity[workerID%len(cfg.CPUAffinity)]
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
