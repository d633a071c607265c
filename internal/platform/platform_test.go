package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageSizeIsPositiveAndCached(t *testing.T) {
	p1 := PageSize()
	p2 := PageSize()
	assert.Positive(t, p1)
	assert.Equal(t, p1, p2)
}

func TestCacheLineSizeIsPowerOfTwo(t *testing.T) {
	assert.True(t, CacheLineSize == 32 || CacheLineSize == 64)
}

func TestSupportsDoublyMappedBuffersDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		SupportsDoublyMappedBuffers()
	})
	// Must be stable across repeated calls within one process.
	assert.Equal(t, SupportsDoublyMappedBuffers(), SupportsDoublyMappedBuffers())
}

func TestSpinWaitReturns(t *testing.T) {
	assert.NotPanics(t, func() {
		SpinWait(100)
	})
}
