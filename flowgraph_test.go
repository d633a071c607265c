package cler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribou-labs/cler-go/clertest"
)

func TestFlowGraphRejectsEmptyRunnerList(t *testing.T) {
	_, err := NewFlowGraph()
	assert.Error(t, err)
}

func TestFlowGraphSourceToSinkDrainsCompletely(t *testing.T) {
	const n = 500
	ch, err := NewChannel[int](16)
	require.NoError(t, err)
	defer ch.Close()

	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	src := clertest.NewRecordingSource[int]("source", values)
	sink := clertest.NewRecordingSink[int]("sink", ch)

	graph, err := NewFlowGraph(
		NewRunner1[int](src, ch),
		NewRunner0(sink),
	)
	require.NoError(t, err)

	cfg := ThreadPerBlockAdaptiveSleepConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, graph.Run(ctx, cfg))

	done := make(chan struct{})
	go func() {
		graph.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("graph should not terminate on its own: sink never returns a terminal error")
	case <-time.After(200 * time.Millisecond):
	}

	assert.Eventually(t, func() bool {
		return len(sink.Received()) == n
	}, 2*time.Second, time.Millisecond)

	graph.Stop()

	assert.Equal(t, values, sink.Received())
	assert.True(t, graph.IsStopped())
}

func TestFlowGraphRunTwiceReturnsError(t *testing.T) {
	ch, err := NewChannel[int](4)
	require.NoError(t, err)
	defer ch.Close()

	src := clertest.NewRecordingSource[int]("source", []int{1, 2, 3})
	sink := clertest.NewRecordingSink[int]("sink", ch)
	graph, err := NewFlowGraph(NewRunner1[int](src, ch), NewRunner0(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, graph.Run(ctx, DefaultFlowGraphConfig()))
	assert.Error(t, graph.Run(ctx, DefaultFlowGraphConfig()))
	graph.Stop()
}

func TestFlowGraphStatsReflectTermination(t *testing.T) {
	ch, err := NewChannel[int](8)
	require.NoError(t, err)
	defer ch.Close()

	src := clertest.NewRecordingSource[int]("source", []int{1, 2, 3, 4})
	sink := clertest.NewRecordingSink[int]("sink", ch)
	graph, err := NewFlowGraph(NewRunner1[int](src, ch), NewRunner0(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, graph.Run(ctx, EmbeddedOptimizedConfig()))

	assert.Eventually(t, func() bool {
		return src.Exhausted()
	}, time.Second, time.Millisecond)

	graph.Stop()

	snaps := graph.Stats()
	require.Len(t, snaps, 2)
	assert.Equal(t, "source", snaps[0].Name)
	assert.Equal(t, "sink", snaps[1].Name)
	assert.True(t, snaps[0].Terminated)
}

// P7: stop() returns only after every worker has joined, so a caller
// needs no separate Wait to observe shutdown completion.
func TestFlowGraphStopJoinsAllWorkersBeforeReturning(t *testing.T) {
	ch, err := NewChannel[int](8)
	require.NoError(t, err)
	defer ch.Close()

	values := make([]int, 2000)
	for i := range values {
		values[i] = i
	}
	src := clertest.NewRecordingSource[int]("source", values)
	sink := clertest.NewRecordingSink[int]("sink", ch)
	graph, err := NewFlowGraph(NewRunner1[int](src, ch), NewRunner0(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, graph.Run(ctx, ThreadPerBlockAdaptiveSleepConfig()))

	time.Sleep(5 * time.Millisecond) // let both workers actually start looping

	graph.Stop()

	// Stop already blocked until every worker goroutine exited; a second,
	// independent Wait call must return immediately rather than hang.
	waitReturned := make(chan struct{})
	go func() {
		graph.Wait()
		close(waitReturned)
	}()
	select {
	case <-waitReturned:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return promptly after Stop had already joined all workers")
	}

	assert.True(t, graph.IsStopped())
}
