package sched

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caribou-labs/cler-go/internal/interfaces"
)

// Engine drives a fixed set of Jobs according to a Config's Policy.
// Start returns immediately once workers are spawned; Stop requests
// cooperative shutdown and Wait blocks for every worker to notice.
type Engine struct {
	cfg    Config
	jobs   []*Job
	logger interfaces.Logger
	observer interfaces.Observer

	stopped atomic.Bool
	cancel  context.CancelFunc
	g       *errgroup.Group
}

// NewEngine builds an Engine for the given jobs and config. logger and
// observer may be nil, in which case they are replaced with no-ops.
func NewEngine(cfg Config, jobs []*Job, logger interfaces.Logger, observer interfaces.Observer) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Engine{cfg: cfg, jobs: jobs, logger: logger, observer: observer}
}

// Start spawns the worker goroutines appropriate for e.cfg.Policy and
// returns immediately; call Wait to block until they exit.
func (e *Engine) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	e.g = g

	switch e.cfg.Policy {
	case ThreadPerBlock:
		e.startThreadPerBlock(gctx)
	case FixedThreadPool:
		e.startFixedPool(gctx, false)
	case AdaptiveLoadBalancing:
		e.startFixedPool(gctx, true)
	case SingleThreaded:
		e.startSingleThreaded(gctx)
	default:
		e.startThreadPerBlock(gctx)
	}
}

// Stop requests every worker to exit at its next procedure-call boundary.
func (e *Engine) Stop() {
	if e.stopped.CompareAndSwap(false, true) {
		if e.cancel != nil {
			e.cancel()
		}
	}
}

// Wait blocks until all worker goroutines have exited. Workers never
// return a non-nil error (a recoverable procedure error is scheduling
// state, not a goroutine failure), so the returned error is always nil;
// it is kept for symmetry with errgroup's own signature.
func (e *Engine) Wait() error {
	if e.g == nil {
		return nil
	}
	err := e.g.Wait()
	e.observer.ObserveGraphStopped()
	return err
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool { return e.stopped.Load() }

func (e *Engine) startThreadPerBlock(ctx context.Context) {
	for i, job := range e.jobs {
		job := job
		workerID := i
		e.g.Go(func() error {
			pinWorker(e.cfg, workerID)
			e.runLoop(ctx, []*Job{job}, 0, false)
			return nil
		})
	}
}

func (e *Engine) startSingleThreaded(ctx context.Context) {
	e.g.Go(func() error {
		e.runLoop(ctx, e.jobs, 0, false)
		return nil
	})
}

func (e *Engine) startFixedPool(ctx context.Context, adaptive bool) {
	n := e.cfg.NumWorkers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}
	for i, job := range e.jobs {
		job.owner.Store(int32(i % n))
	}

	for w := 0; w < n; w++ {
		workerID := w
		e.g.Go(func() error {
			pinWorker(e.cfg, workerID)
			e.runLoop(ctx, e.jobs, int32(workerID), true)
			return nil
		})
	}

	if adaptive && n > 1 {
		e.g.Go(func() error {
			e.runBalancer(ctx, n)
			return nil
		})
	}
}

// runLoop repeatedly sweeps jobs (filtering by ownership when
// filterByOwner is set), invoking each live job's procedure once per
// pass. Adaptive sleep is applied per worker -- once per pass that made
// no progress across the whole set of owned jobs -- not per block.
func (e *Engine) runLoop(ctx context.Context, jobs []*Job, workerID int32, filterByOwner bool) {
	active := append([]*Job(nil), jobs...)
	sleeper := newAdaptiveSleeper(e.cfg, nil)
	processedSinceYield := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		progressed := false
		remaining := active[:0]
		var invoked []*Job
		for _, job := range active {
			if job.Stats.Terminated() {
				continue
			}
			if filterByOwner && !job.ownedBy(workerID) {
				remaining = append(remaining, job)
				continue
			}

			start := time.Now()
			err := job.Runner.Invoke(ctx)
			d := time.Since(start)
			e.observer.ObserveProcedure(job.Runner.Name(), err, d.Seconds())

			kind, isErr := interfaces.KindOf(err)
			switch {
			case !isErr:
				job.Stats.RecordSuccess(d)
				progressed = true
				sleeper.Reset()
			case kind.Terminal():
				job.Stats.RecordFailure(d)
				job.Stats.MarkTerminated()
				e.observer.ObserveBlockTerminated(job.Runner.Name(), err)
				e.logger.Infof("block %q terminated: %v", job.Runner.Name(), err)
				continue
			default:
				job.Stats.RecordFailure(d)
			}
			remaining = append(remaining, job)
			invoked = append(invoked, job)

			processedSinceYield++
			if e.cfg.MinWorkThreshold > 0 && processedSinceYield >= e.cfg.MinWorkThreshold {
				processedSinceYield = 0
				runtime.Gosched()
			}

			if !e.cfg.ReduceErrorChecks {
				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}
		active = remaining

		if len(active) == 0 {
			return
		}
		if !progressed {
			d := sleeper.NoProgress()
			for _, job := range invoked {
				job.Stats.RecordDead(d)
			}
		}
	}
}

// runBalancer periodically migrates one job's ownership from the
// most-loaded worker to the least-loaded worker when the relative
// imbalance exceeds LoadBalancingThreshold. Load is each worker's recent
// CPU utilization -- runtime/(runtime+dead_time) aggregated across its
// owned jobs since the previous tick -- not throughput, so a worker
// running one slow, CPU-heavy block is correctly seen as more loaded than
// one running many cheap blocks, even if the cheap-block worker completes
// more procedure calls per tick. Migration only ever changes Job.owner,
// which runLoop observes via atomic Load -- an acquire/release handoff
// with no other synchronization needed, since ownership is the only
// piece of state being transferred.
func (e *Engine) runBalancer(ctx context.Context, numWorkers int) {
	interval := e.cfg.LoadBalancingInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	threshold := e.cfg.LoadBalancingThreshold
	if threshold <= 0 {
		threshold = 0.25
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastRuntime := make([]float64, numWorkers)
	lastDead := make([]float64, numWorkers)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runtimeSec := make([]float64, numWorkers)
		deadSec := make([]float64, numWorkers)
		live := 0
		for _, job := range e.jobs {
			if job.Stats.Terminated() {
				continue
			}
			live++
			w := job.owner.Load()
			if w >= 0 && int(w) < numWorkers {
				snap := job.Stats.Snapshot()
				runtimeSec[w] += snap.TotalRuntimeSeconds
				deadSec[w] += snap.DeadTimeSeconds
			}
		}
		if live == 0 {
			return
		}

		load := make([]float64, numWorkers)
		for i := range load {
			dRuntime := runtimeSec[i] - lastRuntime[i]
			if dRuntime < 0 {
				dRuntime = 0
			}
			dDead := deadSec[i] - lastDead[i]
			if dDead < 0 {
				dDead = 0
			}
			if total := dRuntime + dDead; total > 0 {
				load[i] = dRuntime / total
			}
		}
		lastRuntime = runtimeSec
		lastDead = deadSec

		maxW, minW := 0, 0
		for i := 1; i < numWorkers; i++ {
			if load[i] > load[maxW] {
				maxW = i
			}
			if load[i] < load[minW] {
				minW = i
			}
		}
		if load[maxW] == 0 || maxW == minW {
			continue
		}
		imbalance := (load[maxW] - load[minW]) / load[maxW]
		if imbalance <= threshold {
			continue
		}

		for _, job := range e.jobs {
			if job.Stats.Terminated() {
				continue
			}
			if job.owner.Load() == int32(maxW) {
				job.owner.Store(int32(minW))
				e.logger.Debugf("migrated block %q from worker %d to worker %d", job.Runner.Name(), maxW, minW)
				break
			}
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

type noopObserver struct{}

func (noopObserver) ObserveProcedure(string, error, float64)    {}
func (noopObserver) ObserveBlockTerminated(string, error) {}
func (noopObserver) ObserveGraphStopped()                 {}
