package cler

import "github.com/caribou-labs/cler-go/internal/interfaces"

// Stats accumulates lock-free counters for one block runner: successful
// and failed procedure calls, runtime spent in the procedure, dead time
// spent sleeping or yielding, and whether the block has terminated.
// Grounded on ehrlich-b-go-ublk's metrics.go Metrics type.
type Stats = interfaces.Stats

// StatsSnapshot is a point-in-time, race-free copy of Stats, including
// the derived CPUUtilization metric.
type StatsSnapshot = interfaces.Snapshot
