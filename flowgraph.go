package cler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caribou-labs/cler-go/internal/interfaces"
	"github.com/caribou-labs/cler-go/internal/sched"
)

// FlowGraph owns a fixed set of Runners and their Stats, and drives them
// to completion under one scheduler policy. Grounded on
// ehrlich-b-go-ublk's backend.go Device: a value built once from a
// config, started, and stopped -- the graph does not support adding or
// removing blocks after construction, matching spec.md's explicit
// non-goal of dynamic graph mutation while running.
type FlowGraph struct {
	mu      sync.Mutex
	runners []Runner
	jobs    []*sched.Job
	stats   []*Stats
	engine  *sched.Engine
	running bool
	timer   *time.Timer
}

// NewFlowGraph builds a FlowGraph over the given runners. Runner/output
// arity is checked statically by the Go compiler through the Block1..
// Block4 generic interfaces at NewRunner* call sites; FlowGraph itself
// only needs the reduced Runner contract.
func NewFlowGraph(runners ...Runner) (*FlowGraph, error) {
	if len(runners) == 0 {
		return nil, NewError("NewFlowGraph", ErrProcedureError)
	}
	g := &FlowGraph{runners: runners}
	for _, r := range runners {
		st := interfaces.NewStats(r.Name())
		g.stats = append(g.stats, st)
		g.jobs = append(g.jobs, sched.NewJob(r, st))
	}
	return g, nil
}

// Run starts the flow graph under the given config and returns
// immediately; the blocks run on goroutines the FlowGraph owns until
// Stop is called or ctx is canceled.
func (g *FlowGraph) Run(ctx context.Context, cfg FlowGraphConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return fmt.Errorf("cler: flow graph is already running")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = DefaultLogger()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}

	g.engine = sched.NewEngine(cfg.toSchedConfig(), g.jobs, logger, observer)
	g.engine.Start(ctx)
	g.running = true
	logger.Infof("flow graph started: %d blocks, policy=%d", len(g.runners), cfg.Policy)
	return nil
}

// RunFor starts the flow graph like Run, and additionally stops it after
// d elapses if it is still running.
func (g *FlowGraph) RunFor(ctx context.Context, d time.Duration, cfg FlowGraphConfig) error {
	if err := g.Run(ctx, cfg); err != nil {
		return err
	}
	g.mu.Lock()
	g.timer = time.AfterFunc(d, g.Stop)
	g.mu.Unlock()
	return nil
}

// Stop requests cooperative shutdown of every worker and blocks until
// all of them have joined, matching the graph's documented stop
// contract: callers do not need a separate Wait just to observe
// shutdown completion.
func (g *FlowGraph) Stop() {
	g.mu.Lock()
	engine := g.engine
	timer := g.timer
	g.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	if engine != nil {
		engine.Stop()
	}
	g.Wait()
}

// Wait blocks until every block's worker goroutine has exited, which
// happens once Stop is called, the run context is canceled, or every
// block has terminated on its own.
func (g *FlowGraph) Wait() error {
	g.mu.Lock()
	engine := g.engine
	g.mu.Unlock()
	if engine == nil {
		return nil
	}
	err := engine.Wait()
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
	return err
}

// IsStopped reports whether Stop has been called on a running graph.
func (g *FlowGraph) IsStopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine != nil && g.engine.Stopped()
}

// Stats returns a snapshot of every block's counters, in graph build
// order.
func (g *FlowGraph) Stats() []StatsSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]StatsSnapshot, len(g.stats))
	for i, s := range g.stats {
		out[i] = s.Snapshot()
	}
	return out
}
