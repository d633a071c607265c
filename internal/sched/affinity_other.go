//go:build !linux

package sched

// pinWorker is a no-op outside Linux; CPU affinity control is not
// portably available without platform-specific syscalls this module
// does not implement for non-Linux targets.
func pinWorker(cfg Config, workerID int) {}
