package sched

import (
	"sync/atomic"

	"github.com/caribou-labs/cler-go/internal/interfaces"
)

// Job is one schedulable graph node plus the mutable scheduling state
// the engine needs around it: which worker currently owns it (used by
// FixedThreadPool and AdaptiveLoadBalancing, where the balancer may
// reassign it).
type Job struct {
	Runner interfaces.Runner
	Stats  *interfaces.Stats

	owner atomic.Int32
}

// NewJob wraps a runner and its stats block into a schedulable Job,
// initially owned by worker 0.
func NewJob(runner interfaces.Runner, stats *interfaces.Stats) *Job {
	return &Job{Runner: runner, Stats: stats}
}

func (j *Job) ownedBy(workerID int32) bool {
	return j.owner.Load() == workerID
}
