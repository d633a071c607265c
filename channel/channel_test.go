package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribou-labs/cler-go/internal/platform"
)

func TestCapacityAndEmpty(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Capacity())
	assert.True(t, c.Empty())
	assert.Equal(t, 8, c.Space())
	assert.Equal(t, 0, c.Size())
}

// S1 from the property suite: push 8 values into a capacity-8 channel,
// pop all 8 back out in order, with no loss and no corruption.
func TestCapacity8RoundTrip(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		assert.True(t, c.TryPush(i))
	}
	assert.False(t, c.TryPush(99), "channel should report full at capacity")
	assert.Equal(t, 0, c.Space())

	for i := 0; i < 8; i++ {
		v, ok := c.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := c.TryPop()
	assert.False(t, ok)
}

// S2: capacity-6 channel pushed and popped repeatedly so the internal
// index wraps several times, verifying wraparound never corrupts data.
func TestCapacity6Wraparound(t *testing.T) {
	c, err := New[int](6)
	require.NoError(t, err)

	next := 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 5; i++ {
			require.True(t, c.TryPush(next))
			next++
		}
		for i := 0; i < 5; i++ {
			v, ok := c.TryPop()
			require.True(t, ok)
			assert.Equal(t, next-5+i, v)
		}
	}
}

// S3 (force overwrite): capacity-4 channel, ForcePush past full always
// keeps the most recent Capacity() elements.
func TestCapacity4ForceOverwrite(t *testing.T) {
	c, err := New[int](4)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.True(t, c.TryPush(i))
	}
	c.ForcePush(100)
	c.ForcePush(101)

	got := make([]int, 0, 4)
	for {
		v, ok := c.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 3, 100, 101}, got)
}

func TestForceWriteNLastNSurvive(t *testing.T) {
	c, err := New[int](4)
	require.NoError(t, err)

	n := c.ForceWriteN([]int{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, 4, n)

	got := make([]int, 0, 4)
	for {
		v, ok := c.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{5, 6, 7, 8}, got)
}

func TestWriteNReadN(t *testing.T) {
	c, err := New[int](16)
	require.NoError(t, err)

	src := make([]int, 10)
	for i := range src {
		src[i] = i * 2
	}
	n := c.WriteN(src)
	assert.Equal(t, 10, n)

	dst := make([]int, 10)
	m := c.ReadN(dst)
	assert.Equal(t, 10, m)
	assert.Equal(t, src, dst)
}

func TestWriteNClampsToSpace(t *testing.T) {
	c, err := New[int](4)
	require.NoError(t, err)
	n := c.WriteN([]int{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, c.Space())
}

func TestPeekWriteCommitWrite(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.True(t, c.TryPush(i))
	}
	for i := 0; i < 4; i++ {
		_, ok := c.TryPop()
		require.True(t, ok)
	}
	// size=2, space=6; writeIndex is near the end, so free space wraps.
	first, second := c.PeekWrite()
	total := len(first) + len(second)
	assert.Equal(t, c.Space(), total)

	written := 0
	for i := range first {
		first[i] = 1000 + written
		written++
	}
	for i := range second {
		second[i] = 1000 + written
		written++
	}
	c.CommitWrite(written)

	// The 2 elements already queued before PeekWrite (values 4 and 5) are
	// still ahead of the freshly written ones in FIFO order.
	for _, want := range []int{4, 5} {
		v, ok := c.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	for i := 0; i < written; i++ {
		v, ok := c.TryPop()
		require.True(t, ok)
		assert.Equal(t, 1000+i, v)
	}
}

func TestPeekReadCommitRead(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)
	src := []int{10, 20, 30, 40, 50}
	require.Equal(t, len(src), c.WriteN(src))

	first, second := c.PeekRead()
	got := append(append([]int{}, first...), second...)
	assert.Equal(t, src, got)
	c.CommitRead(len(got))
	assert.True(t, c.Empty())
}

// S5-lite: a producer and consumer goroutine moving a large number of
// samples through a small channel with no loss and no duplication.
func TestConcurrentProducerConsumerNoLoss(t *testing.T) {
	const n = 200_000
	c, err := New[int](64)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			require.NoError(t, c.Push(ctx, i))
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			v, err := c.Pop(ctx)
			require.NoError(t, err)
			received = append(received, v)
		}
	}()

	wg.Wait()
	require.Len(t, received, n)
	for i, v := range received {
		assert.Equal(t, i, v)
	}
}

func TestPushRespectsContextCancellation(t *testing.T) {
	c, err := New[int](1)
	require.NoError(t, err)
	require.True(t, c.TryPush(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Push(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.Error(t, err)
}

// S4: a doubly-mapped channel whose requested capacity does not land on
// an exact page multiple must still use the whole page-rounded region as
// its ring modulus, so a DBF span that wraps past the originally
// requested element count reads the correctly-aliased data at logical
// index 0 rather than unused filler physical memory.
func TestDBFSpanCrossesNonPageMultipleWrapBoundary(t *testing.T) {
	if !platform.SupportsDoublyMappedBuffers() {
		t.Skip("platform does not support doubly-mapped buffers in this environment")
	}

	elemsPerPage := platform.PageSize() / 4 // sizeof(float32)
	capacity := elemsPerPage + 1            // slots*elemSize lands just past one page, not an exact multiple
	c, err := New[float32](capacity)
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.IsDoublyMapped())

	// The channel must have grown its own modulus to the page-rounded
	// region, not stayed at the originally requested (smaller) capacity.
	assert.Greater(t, c.Capacity(), capacity)

	n := capacity + 5 // crosses the originally requested slots boundary
	require.LessOrEqual(t, n, c.Capacity())
	for i := 0; i < n; i++ {
		require.True(t, c.TryPush(float32(i)))
	}

	span, ok := c.ReadDBF()
	require.True(t, ok)
	require.Len(t, span, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, float32(i), span[i], "logical index %d", i)
	}

	for i := 0; i < n; i++ {
		v, ok := c.TryPop()
		require.True(t, ok)
		assert.Equal(t, float32(i), v)
	}

	wspan, ok := c.WriteDBF()
	require.True(t, ok)
	assert.Equal(t, c.Space(), len(wspan))
}
