package interfaces

import (
	"sync/atomic"
	"time"
)

// Stats is the per-block counter block the scheduler updates after every
// procedure call and the FlowGraph exposes (as a snapshot) to callers.
// All fields are lock-free atomics so a ThreadPerBlock worker can update
// them without contending with a concurrent Stats() snapshot call.
// Grounded on ehrlich-b-go-ublk's metrics.go Metrics struct.
type Stats struct {
	Name string

	successfulProcedures atomic.Uint64
	failedProcedures     atomic.Uint64
	totalRuntimeNs       atomic.Uint64
	deadTimeNs           atomic.Uint64
	terminated           atomic.Bool
}

// NewStats returns a Stats block for the named block.
func NewStats(name string) *Stats {
	return &Stats{Name: name}
}

// RecordSuccess marks one successful procedure call of the given duration.
func (s *Stats) RecordSuccess(d time.Duration) {
	s.successfulProcedures.Add(1)
	s.totalRuntimeNs.Add(uint64(d.Nanoseconds()))
}

// RecordFailure marks one recoverable-error procedure call.
func (s *Stats) RecordFailure(d time.Duration) {
	s.failedProcedures.Add(1)
	s.totalRuntimeNs.Add(uint64(d.Nanoseconds()))
}

// RecordDead accumulates time the worker spent sleeping or yielding
// because this block made no progress, used to derive CPU utilization.
func (s *Stats) RecordDead(d time.Duration) {
	s.deadTimeNs.Add(uint64(d.Nanoseconds()))
}

// MarkTerminated records that the block returned a terminal error and
// will not be invoked again.
func (s *Stats) MarkTerminated() {
	s.terminated.Store(true)
}

// Terminated reports whether MarkTerminated has been called.
func (s *Stats) Terminated() bool {
	return s.terminated.Load()
}

// Snapshot captures a point-in-time, race-free copy of Stats.
type Snapshot struct {
	Name                 string
	SuccessfulProcedures uint64
	FailedProcedures     uint64
	TotalRuntimeSeconds  float64
	DeadTimeSeconds      float64
	Terminated           bool
	CPUUtilization       float64
}

// Snapshot computes a Snapshot. CPUUtilization is
// runtime / (runtime + dead_time): the share of this block's own
// accounted-for time that was spent actually running its procedure,
// rather than asleep waiting on adaptive backoff. Unlike a wall-clock
// ratio, this is unaffected by time the graph spent before this block
// was first driven, or by another block's slow procedure under
// SingleThreaded.
func (s *Stats) Snapshot() Snapshot {
	runtimeNs := s.totalRuntimeNs.Load()
	deadNs := s.deadTimeNs.Load()
	util := 0.0
	if total := runtimeNs + deadNs; total > 0 {
		util = float64(runtimeNs) / float64(total)
	}
	return Snapshot{
		Name:                 s.Name,
		SuccessfulProcedures: s.successfulProcedures.Load(),
		FailedProcedures:     s.failedProcedures.Load(),
		TotalRuntimeSeconds:  float64(runtimeNs) / 1e9,
		DeadTimeSeconds:      float64(s.deadTimeNs.Load()) / 1e9,
		Terminated:           s.terminated.Load(),
		CPUUtilization:       util,
	}
}
