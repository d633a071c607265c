package cler

import (
	"time"

	"github.com/caribou-labs/cler-go/internal/logging"
	"github.com/caribou-labs/cler-go/internal/sched"
)

// SchedulerPolicy selects one of the four flow graph scheduling
// strategies described in spec.md §4.6.
type SchedulerPolicy int

const (
	ThreadPerBlock SchedulerPolicy = SchedulerPolicy(sched.ThreadPerBlock)
	FixedThreadPool SchedulerPolicy = SchedulerPolicy(sched.FixedThreadPool)
	AdaptiveLoadBalancing SchedulerPolicy = SchedulerPolicy(sched.AdaptiveLoadBalancing)
	SingleThreaded SchedulerPolicy = SchedulerPolicy(sched.SingleThreaded)
)

// FlowGraphConfig tunes how a FlowGraph runs its blocks. Every tunable
// has a documented zero value, following the teacher's DeviceParams/
// DefaultParams pattern.
type FlowGraphConfig struct {
	Policy SchedulerPolicy

	// NumWorkers is the pool size for FixedThreadPool/AdaptiveLoadBalancing.
	// 0 means runtime.GOMAXPROCS(0).
	NumWorkers int

	AdaptiveSleep   bool
	SleepInitial    time.Duration
	SleepMultiplier float64
	SleepMax        time.Duration

	MinWorkThreshold       int
	LoadBalancingInterval  time.Duration
	LoadBalancingThreshold float64
	ReduceErrorChecks      bool
	CPUAffinity            []int

	Logger   *Logger
	Observer Observer
}

// DefaultFlowGraphConfig returns the "desktop performance" preset:
// ThreadPerBlock with adaptive sleep escalating from 1us to 5ms.
func DefaultFlowGraphConfig() FlowGraphConfig {
	d := sched.DefaultConfig()
	return FlowGraphConfig{
		Policy:                 SchedulerPolicy(d.Policy),
		AdaptiveSleep:          d.AdaptiveSleep,
		SleepInitial:           d.SleepInitial,
		SleepMultiplier:        d.SleepMultiplier,
		SleepMax:               d.SleepMax,
		MinWorkThreshold:       d.MinWorkThreshold,
		LoadBalancingInterval:  d.LoadBalancingInterval,
		LoadBalancingThreshold: d.LoadBalancingThreshold,
	}
}

// EmbeddedOptimizedConfig favors a single cooperative loop with no
// adaptive sleep, matching the resource profile of the original's
// embedded desktop task policy running on a constrained core.
func EmbeddedOptimizedConfig() FlowGraphConfig {
	cfg := DefaultFlowGraphConfig()
	cfg.Policy = SingleThreaded
	cfg.AdaptiveSleep = false
	return cfg
}

// ThreadPerBlockAdaptiveSleepConfig is ThreadPerBlock with a wider sleep
// ceiling, suited to graphs with bursty, widely varying block rates.
func ThreadPerBlockAdaptiveSleepConfig() FlowGraphConfig {
	cfg := DefaultFlowGraphConfig()
	cfg.Policy = ThreadPerBlock
	cfg.AdaptiveSleep = true
	cfg.SleepInitial = time.Microsecond
	cfg.SleepMultiplier = 2.0
	cfg.SleepMax = 20 * time.Millisecond
	return cfg
}

// AdaptiveLoadBalancingConfig spreads blocks across a worker pool sized
// to GOMAXPROCS, migrating ownership when load across workers diverges
// by more than 25%.
func AdaptiveLoadBalancingConfig() FlowGraphConfig {
	cfg := DefaultFlowGraphConfig()
	cfg.Policy = AdaptiveLoadBalancing
	cfg.LoadBalancingInterval = 50 * time.Millisecond
	cfg.LoadBalancingThreshold = 0.25
	cfg.MinWorkThreshold = 64
	return cfg
}

func (c FlowGraphConfig) toSchedConfig() sched.Config {
	return sched.Config{
		Policy:                 sched.Policy(c.Policy),
		NumWorkers:             c.NumWorkers,
		AdaptiveSleep:          c.AdaptiveSleep,
		SleepInitial:           c.SleepInitial,
		SleepMultiplier:        c.SleepMultiplier,
		SleepMax:               c.SleepMax,
		MinWorkThreshold:       c.MinWorkThreshold,
		LoadBalancingInterval:  c.LoadBalancingInterval,
		LoadBalancingThreshold: c.LoadBalancingThreshold,
		ReduceErrorChecks:      c.ReduceErrorChecks,
		CPUAffinity:            c.CPUAffinity,
	}
}

// Logger is the logging surface a FlowGraph writes lifecycle and
// per-iteration events to.
type Logger = logging.Logger

// DefaultLogger returns the process-wide default logger.
func DefaultLogger() *Logger { return logging.Default() }
