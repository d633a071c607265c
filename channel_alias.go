package cler

import "github.com/caribou-labs/cler-go/channel"

// Channel is the SPSC queue type blocks exchange samples over. It is a
// direct alias of channel.Channel so graph code can write cler.Channel[T]
// without a second import.
type Channel[T any] = channel.Channel[T]

// Span is a zero-copy view returned by a channel's peek/DBF accessors.
type Span[T any] = channel.Span[T]

// NewChannel constructs a Channel able to hold `capacity` elements.
func NewChannel[T any](capacity int) (*Channel[T], error) {
	return channel.New[T](capacity)
}
