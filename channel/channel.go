// Package channel implements the bounded, lock-free single-producer/
// single-consumer ring buffer blocks in a flow graph communicate
// through. One reserved slot disambiguates full from empty; the writer
// and reader each cache the peer's index and only re-read the peer's
// atomic when the cached value would otherwise report full or empty.
//
// Grounded on original_source/include/cler_spsc-queue.hpp, transcribed
// from C++ atomics (relaxed/acquire/release) to Go's sync/atomic, whose
// typed Load/Store already provide the acquire/release pairing this
// algorithm needs without any additional fence.
package channel

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/caribou-labs/cler-go/internal/platform"
	"github.com/caribou-labs/cler-go/internal/vmem"
)

// Span is a contiguous, zero-copy view into a Channel's backing storage,
// valid only until the matching CommitWrite/CommitRead call.
type Span[T any] []T

// writerCacheLine and readerCacheLine are each padded to their own cache
// line so the writer's hot fields and the reader's hot fields never
// false-share, mirroring the original's alignas(cacheLineSize) structs.
type writerCacheLine struct {
	writeIndex     atomic.Uint64
	readIndexCache uint64
	_              [64]byte
}

type readerCacheLine struct {
	readIndex       atomic.Uint64
	writeIndexCache uint64
	_               [64]byte
}

// Channel is a generic bounded SPSC ring buffer for type T. A Channel
// must be used by exactly one writer goroutine and one reader goroutine
// at a time; it is not safe for multiple writers or multiple readers.
type Channel[T any] struct {
	data    []T
	padding int
	slots   int // internal slot count == usable capacity + 1

	dbf *vmem.DoublyMappedAllocation

	writer writerCacheLine
	reader readerCacheLine
}

// New constructs a Channel able to hold `capacity` elements of T at
// once. It picks a doubly-mapped backing region when the region is at
// least one page, the platform supports doubly-mapped buffers, and the
// allocation actually succeeds; otherwise it falls back to a standard
// padded linear buffer, per spec.md §4.3's storage-selection rule.
func New[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("channel: capacity must be >= 1, got %d", capacity)
	}
	slots := capacity + 1

	var zero T
	elemSize := int(unsafe.Sizeof(zero))

	c := &Channel[T]{slots: slots}

	if elemSize > 0 && platform.SupportsDoublyMappedBuffers() {
		regionBytes := slots * elemSize
		if regionBytes >= platform.PageSize() {
			if alloc, err := vmem.Create(regionBytes); err == nil && alloc.Valid() {
				// vmem rounds regionBytes up to a whole page; the ring's
				// own modulus must be the *actual* mapped element count; a
				// wrapping WriteDBF/ReadDBF span indexes into the second
				// mapping modulo c.slots; if slots stayed at the originally
				// requested (smaller) value, that wrap would land on
				// unused filler bytes past c.slots instead of the
				// correctly-aliased data at logical index 0. So the whole
				// page-rounded region becomes the ring's capacity.
				c.dbf = alloc
				c.data = castBytes[T](alloc.Data())
				c.slots = len(c.data)
				return c, nil
			}
		}
	}

	// Standard layout: pad both ends by ceil(cacheLine/elemSize) elements
	// so the queue's own storage never shares a cache line with whatever
	// the allocator places immediately before or after it.
	padding := 0
	if elemSize > 0 {
		padding = (platform.CacheLineSize + elemSize - 1) / elemSize
	}
	c.padding = padding
	c.data = make([]T, slots+2*padding)
	return c, nil
}

// castBytes reinterprets a byte slice produced by vmem as a []T. Callers
// are responsible for only using this with fixed-size, pointer-free
// sample types (float32, complex64, fixed structs of such), which is the
// entire domain of signal-processing samples this channel carries.
func castBytes[T any](b []byte) []T {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 || len(b) < elemSize {
		return nil
	}
	n := len(b) / elemSize
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// Close releases any doubly-mapped backing storage. Safe to call on a
// Channel built with the standard layout (a no-op in that case).
func (c *Channel[T]) Close() error {
	if c.dbf != nil {
		return c.dbf.Close()
	}
	return nil
}

// Capacity returns the number of elements the channel can hold at once.
func (c *Channel[T]) Capacity() int { return c.slots - 1 }

// Size returns the number of elements currently queued.
func (c *Channel[T]) Size() int {
	w := c.writer.writeIndex.Load()
	r := c.reader.readIndex.Load()
	if w >= r {
		return int(w - r)
	}
	return int(uint64(c.slots) - r + w)
}

// Space returns the number of additional elements that can be written
// before the channel is full.
func (c *Channel[T]) Space() int {
	return c.Capacity() - c.Size()
}

// Empty reports whether the channel currently holds no elements.
func (c *Channel[T]) Empty() bool {
	return c.writer.writeIndex.Load() == c.reader.readIndex.Load()
}

// IsDoublyMapped reports whether this channel uses a doubly-mapped
// backing region, which is the precondition for ReadDBF/WriteDBF.
func (c *Channel[T]) IsDoublyMapped() bool { return c.dbf != nil }

func (c *Channel[T]) nextIndex(i uint64) uint64 {
	if i == uint64(c.slots-1) {
		return 0
	}
	return i + 1
}

// Push blocks until there is room to enqueue val, or ctx is done.
func (c *Channel[T]) Push(ctx context.Context, val T) error {
	writeIndex := c.writer.writeIndex.Load()
	next := c.nextIndex(writeIndex)
	for next == c.writer.readIndexCache {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		platform.SpinWait(64)
		c.writer.readIndexCache = c.reader.readIndex.Load()
	}
	c.data[writeIndex+uint64(c.padding)] = val
	c.writer.writeIndex.Store(next)
	return nil
}

// TryPush attempts to enqueue val without blocking, returning false if
// the channel is full. This is the call procedures should use on their
// hot path, surfacing backpressure as a recoverable condition instead of
// stalling the scheduler.
func (c *Channel[T]) TryPush(val T) bool {
	writeIndex := c.writer.writeIndex.Load()
	next := c.nextIndex(writeIndex)
	if next == c.writer.readIndexCache {
		c.writer.readIndexCache = c.reader.readIndex.Load()
		if next == c.writer.readIndexCache {
			return false
		}
	}
	c.data[writeIndex+uint64(c.padding)] = val
	c.writer.writeIndex.Store(next)
	return true
}

// ForcePush always enqueues val, overwriting the oldest unread element
// (advancing the reader) if the channel is full.
func (c *Channel[T]) ForcePush(val T) {
	writeIndex := c.writer.writeIndex.Load()
	next := c.nextIndex(writeIndex)
	if next == c.reader.readIndex.Load() {
		c.reader.readIndex.Store(c.nextIndex(next))
	}
	c.data[writeIndex+uint64(c.padding)] = val
	c.writer.writeIndex.Store(next)
}

// Pop blocks until an element is available, or ctx is done.
func (c *Channel[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	readIndex := c.reader.readIndex.Load()
	for readIndex == c.reader.writeIndexCache {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}
		platform.SpinWait(64)
		c.reader.writeIndexCache = c.writer.writeIndex.Load()
	}
	val := c.data[readIndex+uint64(c.padding)]
	c.reader.readIndex.Store(c.nextIndex(readIndex))
	return val, nil
}

// TryPop attempts to dequeue one element without blocking.
func (c *Channel[T]) TryPop() (T, bool) {
	var zero T
	readIndex := c.reader.readIndex.Load()
	if readIndex == c.reader.writeIndexCache {
		c.reader.writeIndexCache = c.writer.writeIndex.Load()
		if readIndex == c.reader.writeIndexCache {
			return zero, false
		}
	}
	val := c.data[readIndex+uint64(c.padding)]
	c.reader.readIndex.Store(c.nextIndex(readIndex))
	return val, true
}

// WriteN copies as many elements of src as fit, returning the count
// actually written. It never blocks and never overwrites unread data.
func (c *Channel[T]) WriteN(src []T) int {
	capacity := uint64(c.slots)
	writeIndex := c.writer.writeIndex.Load()
	readIndexCache := c.reader.readIndex.Load()
	c.writer.readIndexCache = readIndexCache

	var space uint64
	if readIndexCache > writeIndex {
		space = readIndexCache - writeIndex - 1
	} else {
		space = capacity - writeIndex + readIndexCache - 1
	}

	toWrite := uint64(len(src))
	if toWrite > space {
		toWrite = space
	}
	if toWrite == 0 {
		return 0
	}

	firstChunk := capacity - writeIndex
	if firstChunk > toWrite {
		firstChunk = toWrite
	}
	copy(c.data[writeIndex+uint64(c.padding):], src[:firstChunk])
	if firstChunk < toWrite {
		copy(c.data[c.padding:], src[firstChunk:toWrite])
	}

	c.writer.writeIndex.Store((writeIndex + toWrite) % capacity)
	return int(toWrite)
}

// ForceWriteN copies count elements of src, advancing the reader past
// unread data if necessary so all of src is written. Count is clamped to
// capacity-1 first; if that still exceeds free space, the reader is
// advanced by the deficit before copying, so the *last* Capacity()
// elements of src survive. Grounded on cler_spsc-queue.hpp's
// force_writeN, which resolves spec.md's stated clamp-order ambiguity.
func (c *Channel[T]) ForceWriteN(src []T) int {
	capacity := uint64(c.slots)
	writeIndex := c.writer.writeIndex.Load()
	readIndex := c.reader.readIndex.Load()

	var usedSpace uint64
	if readIndex > writeIndex {
		usedSpace = writeIndex + (capacity - readIndex)
	} else {
		usedSpace = writeIndex - readIndex
	}

	count := uint64(len(src))
	if count > capacity-1 {
		count = capacity - 1
		src = src[uint64(len(src))-count:]
	}

	if count > capacity-1-usedSpace {
		advance := count - (capacity - 1 - usedSpace)
		newReadIndex := (readIndex + advance) % capacity
		c.reader.readIndex.Store(newReadIndex)
	}

	firstChunk := capacity - writeIndex
	if firstChunk > count {
		firstChunk = count
	}
	copy(c.data[writeIndex+uint64(c.padding):], src[:firstChunk])
	if firstChunk < count {
		copy(c.data[c.padding:], src[firstChunk:count])
	}

	c.writer.writeIndex.Store((writeIndex + count) % capacity)
	return int(count)
}

// ReadN copies as many queued elements as fit into dst, returning the
// count actually read.
func (c *Channel[T]) ReadN(dst []T) int {
	capacity := uint64(c.slots)
	readIndex := c.reader.readIndex.Load()
	writeIndex := c.writer.writeIndex.Load()
	c.reader.writeIndexCache = writeIndex

	var available uint64
	if writeIndex >= readIndex {
		available = writeIndex - readIndex
	} else {
		available = capacity - readIndex + writeIndex
	}

	toRead := uint64(len(dst))
	if toRead > available {
		toRead = available
	}
	if toRead == 0 {
		return 0
	}

	firstChunk := capacity - readIndex
	if firstChunk > toRead {
		firstChunk = toRead
	}
	copy(dst[:firstChunk], c.data[readIndex+uint64(c.padding):])
	if firstChunk < toRead {
		copy(dst[firstChunk:toRead], c.data[c.padding:])
	}

	c.reader.readIndex.Store((readIndex + toRead) % capacity)
	return int(toRead)
}

// PeekWrite returns up to two contiguous spans into free buffer space,
// without reserving them: no reader/writer state changes until
// CommitWrite is called. The second span is non-empty only when free
// space wraps around the end of the buffer.
func (c *Channel[T]) PeekWrite() (first, second Span[T]) {
	capacity := uint64(c.slots)
	writeIndex := c.writer.writeIndex.Load()
	readIndexCache := c.reader.readIndex.Load()
	c.writer.readIndexCache = readIndexCache

	var space uint64
	if readIndexCache > writeIndex {
		space = readIndexCache - writeIndex - 1
	} else {
		space = capacity - writeIndex + readIndexCache - 1
	}
	if space == 0 {
		return nil, nil
	}

	var firstChunk uint64
	if readIndexCache > writeIndex {
		firstChunk = space
	} else if readIndexCache == 0 {
		// The last slot is the reserved one; free space does not wrap.
		firstChunk = capacity - writeIndex - 1
	} else {
		firstChunk = capacity - writeIndex
	}
	first = Span[T](c.data[writeIndex+uint64(c.padding) : writeIndex+uint64(c.padding)+firstChunk])

	if readIndexCache <= writeIndex && readIndexCache > 0 {
		secondLen := readIndexCache - 1
		second = Span[T](c.data[c.padding : uint64(c.padding)+secondLen])
	}
	return first, second
}

// CommitWrite advances the write index by count after a PeekWrite caller
// has filled that many elements into the returned spans, in order.
func (c *Channel[T]) CommitWrite(count int) {
	capacity := uint64(c.slots)
	writeIndex := c.writer.writeIndex.Load()
	c.writer.writeIndex.Store((writeIndex + uint64(count)) % capacity)
}

// PeekRead returns up to two contiguous spans over queued data, without
// advancing the reader until CommitRead is called.
func (c *Channel[T]) PeekRead() (first, second Span[T]) {
	capacity := uint64(c.slots)
	readIndex := c.reader.readIndex.Load()
	writeIndexCache := c.writer.writeIndex.Load()
	c.reader.writeIndexCache = writeIndexCache

	var available uint64
	if writeIndexCache >= readIndex {
		available = writeIndexCache - readIndex
	} else {
		available = capacity - readIndex + writeIndexCache
	}
	if available == 0 {
		return nil, nil
	}

	var firstChunk uint64
	if writeIndexCache >= readIndex {
		firstChunk = available
	} else {
		firstChunk = capacity - readIndex
	}
	first = Span[T](c.data[readIndex+uint64(c.padding) : readIndex+uint64(c.padding)+firstChunk])

	if writeIndexCache < readIndex {
		second = Span[T](c.data[c.padding : uint64(c.padding)+writeIndexCache])
	}
	return first, second
}

// CommitRead advances the read index by count after a PeekRead caller
// has consumed that many elements from the returned spans, in order.
func (c *Channel[T]) CommitRead(count int) {
	capacity := uint64(c.slots)
	readIndex := c.reader.readIndex.Load()
	c.reader.readIndex.Store((readIndex + uint64(count)) % capacity)
}

// WriteDBF returns a single contiguous span over all free space and the
// count it represents, valid only on a doubly-mapped channel: the second
// mapping lets any wraparound window be addressed as one linear slice.
// ok is false on a standard-layout channel.
func (c *Channel[T]) WriteDBF() (span Span[T], ok bool) {
	if c.dbf == nil {
		return nil, false
	}
	space := c.Space()
	if space == 0 {
		return nil, true
	}
	writeIndex := c.writer.writeIndex.Load()
	// The second alias directly follows the first, so both together form
	// one linear window of 2*slots elements starting at the first alias.
	window := unsafe.Slice(&c.data[0], 2*c.slots)
	return Span[T](window[writeIndex : writeIndex+uint64(space)]), true
}

// ReadDBF returns a single contiguous span over all queued data. ok is
// false on a standard-layout channel.
func (c *Channel[T]) ReadDBF() (span Span[T], ok bool) {
	if c.dbf == nil {
		return nil, false
	}
	size := c.Size()
	if size == 0 {
		return nil, true
	}
	readIndex := c.reader.readIndex.Load()
	window := unsafe.Slice(&c.data[0], 2*c.slots)
	return Span[T](window[readIndex : readIndex+uint64(size)]), true
}
