// Package clertest provides test doubles for cler blocks, mirroring
// ehrlich-b-go-ublk's testing.go MockBackend: a hand-rolled recording
// stand-in rather than a generated mock, with plain call counters and a
// mutex instead of an assertion framework baked in (testify lives in the
// _test.go files that use these doubles, not in the double itself, the
// same split the teacher uses).
package clertest

import (
	"context"
	"sync"

	"github.com/caribou-labs/cler-go/channel"
	"github.com/caribou-labs/cler-go/internal/interfaces"
)

// RecordingSource is a cler.Block1-shaped test double that emits values
// from a fixed slice, one TryPush per Procedure call, then returns a
// terminal EOF error once exhausted.
type RecordingSource[T any] struct {
	name   string
	values []T

	mu       sync.Mutex
	index    int
	calls    int
	pushFails int
}

// NewRecordingSource builds a RecordingSource that replays values in order.
func NewRecordingSource[T any](name string, values []T) *RecordingSource[T] {
	return &RecordingSource[T]{name: name, values: values}
}

func (s *RecordingSource[T]) Name() string { return s.name }

// Procedure pushes the next value into out, recording call counts. This
// signature makes RecordingSource[T] satisfy cler.Block1[T] directly.
func (s *RecordingSource[T]) Procedure(ctx context.Context, out *channel.Channel[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.index >= len(s.values) {
		return interfaces.New("RecordingSource.Procedure", interfaces.KindTermEOFReached)
	}
	if !out.TryPush(s.values[s.index]) {
		s.pushFails++
		return interfaces.New("RecordingSource.Procedure", interfaces.KindNotEnoughSpace)
	}
	s.index++
	return nil
}

// CallCount returns how many times Procedure has been invoked.
func (s *RecordingSource[T]) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// PushFailures returns how many Procedure calls found the output full.
func (s *RecordingSource[T]) PushFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushFails
}

// Exhausted reports whether every value has been pushed.
func (s *RecordingSource[T]) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.values)
}

// RecordingSink is a cler.Block0-shaped test double with no outputs that
// records every value its Procedure pops from its input channel -- used by tests that
// drive a channel directly rather than through a generic input-binding
// block (spec.md intentionally leaves input binding to the block
// implementation, so a generic sink test double drains its channel
// itself).
type RecordingSink[T any] struct {
	name string
	in   *channel.Channel[T]

	mu       sync.Mutex
	received []T
	calls    int
}

// NewRecordingSink builds a RecordingSink draining the given channel.
// This signature makes RecordingSink[T] satisfy cler.Block0 directly.
func NewRecordingSink[T any](name string, in *channel.Channel[T]) *RecordingSink[T] {
	return &RecordingSink[T]{name: name, in: in}
}

func (s *RecordingSink[T]) Name() string { return s.name }

func (s *RecordingSink[T]) Procedure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	v, ok := s.in.TryPop()
	if !ok {
		return interfaces.New("RecordingSink.Procedure", interfaces.KindNotEnoughSamples)
	}
	s.received = append(s.received, v)
	return nil
}

// Received returns a copy of every value collected so far.
func (s *RecordingSink[T]) Received() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.received))
	copy(out, s.received)
	return out
}

// CallCount returns how many times Procedure has been invoked.
func (s *RecordingSink[T]) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
