package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribou-labs/cler-go/internal/interfaces"
)

// countingRunner succeeds n times then returns a terminal EOF error.
type countingRunner struct {
	name  string
	limit int
	calls atomic.Int64
}

func (r *countingRunner) Name() string { return r.name }

func (r *countingRunner) Invoke(ctx context.Context) error {
	n := r.calls.Add(1)
	if int(n) > r.limit {
		return interfaces.New("countingRunner.Invoke", interfaces.KindTermEOFReached)
	}
	return nil
}

func newJob(name string, limit int) (*Job, *countingRunner) {
	r := &countingRunner{name: name, limit: limit}
	return NewJob(r, interfaces.NewStats(name)), r
}

func TestEngineThreadPerBlockRunsToTermination(t *testing.T) {
	job, _ := newJob("a", 50)
	cfg := Config{Policy: ThreadPerBlock, AdaptiveSleep: true, SleepInitial: time.Microsecond, SleepMultiplier: 1.5, SleepMax: time.Millisecond}
	e := NewEngine(cfg, []*Job{job}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Start(ctx)
	require.NoError(t, e.Wait())

	snap := job.Stats.Snapshot()
	assert.Equal(t, uint64(50), snap.SuccessfulProcedures)
	assert.True(t, snap.Terminated)
}

func TestEngineSingleThreadedRunsAllJobs(t *testing.T) {
	jobA, _ := newJob("a", 20)
	jobB, _ := newJob("b", 30)
	cfg := Config{Policy: SingleThreaded}
	e := NewEngine(cfg, []*Job{jobA, jobB}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Start(ctx)
	require.NoError(t, e.Wait())

	assert.Equal(t, uint64(20), jobA.Stats.Snapshot().SuccessfulProcedures)
	assert.Equal(t, uint64(30), jobB.Stats.Snapshot().SuccessfulProcedures)
}

// S6: three jobs fanned out across a fixed pool of two workers, all
// reaching termination with their exact success counts intact.
func TestEngineFixedThreadPoolThreeJobsTwoWorkers(t *testing.T) {
	jobs := make([]*Job, 3)
	limits := []int{10, 15, 7}
	for i, limit := range limits {
		job, _ := newJob(string(rune('a'+i)), limit)
		jobs[i] = job
	}
	cfg := Config{Policy: FixedThreadPool, NumWorkers: 2}
	e := NewEngine(cfg, jobs, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Start(ctx)
	require.NoError(t, e.Wait())

	for i, job := range jobs {
		assert.Equal(t, uint64(limits[i]), job.Stats.Snapshot().SuccessfulProcedures)
		assert.True(t, job.Stats.Terminated())
	}
}

func TestEngineAdaptiveLoadBalancingRunsToTermination(t *testing.T) {
	jobs := make([]*Job, 4)
	limits := []int{5, 5, 5, 5}
	for i, limit := range limits {
		job, _ := newJob(string(rune('a'+i)), limit)
		jobs[i] = job
	}
	cfg := Config{
		Policy:                 AdaptiveLoadBalancing,
		NumWorkers:             2,
		LoadBalancingInterval:  time.Millisecond,
		LoadBalancingThreshold: 0.1,
	}
	e := NewEngine(cfg, jobs, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Start(ctx)
	require.NoError(t, e.Wait())

	for i, job := range jobs {
		assert.Equal(t, uint64(limits[i]), job.Stats.Snapshot().SuccessfulProcedures)
	}
}

func TestEngineStopCancelsBeforeTermination(t *testing.T) {
	job, _ := newJob("never-ending", 1<<30)
	cfg := Config{Policy: ThreadPerBlock, AdaptiveSleep: false}
	e := NewEngine(cfg, []*Job{job}, nil, nil)

	ctx := context.Background()
	e.Start(ctx)
	time.Sleep(5 * time.Millisecond)
	e.Stop()

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop in time")
	}
	assert.True(t, e.Stopped())
	assert.False(t, job.Stats.Terminated())
}

// S7: a job that never progresses should drive the adaptive sleeper to
// its ceiling rather than spinning the CPU indefinitely; verified
// indirectly by checking the backoff escalates monotonically up to Max.
func TestAdaptiveSleeperEscalatesAndResets(t *testing.T) {
	var slept []time.Duration
	cfg := Config{
		AdaptiveSleep:   true,
		SleepInitial:    time.Millisecond,
		SleepMultiplier: 2,
		SleepMax:        8 * time.Millisecond,
	}
	s := newAdaptiveSleeper(cfg, func(d time.Duration) { slept = append(slept, d) })

	for i := 0; i < 6; i++ {
		s.NoProgress()
	}
	require.Len(t, slept, 6)
	for i := 1; i < len(slept); i++ {
		assert.GreaterOrEqual(t, slept[i], slept[i-1])
	}
	assert.LessOrEqual(t, slept[len(slept)-1], 8*time.Millisecond)

	s.Reset()
	slept = nil
	s.NoProgress()
	require.Len(t, slept, 1)
	assert.LessOrEqual(t, slept[0], 2*time.Millisecond)
}

func TestAdaptiveSleeperDisabledIsNoop(t *testing.T) {
	called := false
	s := newAdaptiveSleeper(Config{AdaptiveSleep: false}, func(time.Duration) { called = true })
	d := s.NoProgress()
	assert.Equal(t, time.Duration(0), d)
	assert.False(t, called)
}

func TestJobOwnedBy(t *testing.T) {
	job, _ := newJob("a", 1)
	assert.True(t, job.ownedBy(0))
	job.owner.Store(3)
	assert.False(t, job.ownedBy(0))
	assert.True(t, job.ownedBy(3))
}
