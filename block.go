// Package cler is a streaming dataflow runtime: a directed graph of
// blocks exchanging typed samples over bounded SPSC channels (package
// channel), coordinated by one of four scheduler policies (internal
// package sched).
package cler

import "context"

// Block0 is a block with no outputs -- typically a terminal sink that
// only reads from its inputs (inputs are bound by the block
// implementation itself, since only arity of *outputs* needs static
// checking at graph-build time; spec.md's Design Notes call out fixed
// arity per block type as the idiomatic substitute for the original's
// variadic-template procedure(outs...)).
type Block0 interface {
	Name() string
	Procedure(ctx context.Context) error
}

// Block1 is a block with exactly one output channel.
type Block1[O1 any] interface {
	Name() string
	Procedure(ctx context.Context, out1 *Channel[O1]) error
}

// Block2 is a block with exactly two output channels.
type Block2[O1, O2 any] interface {
	Name() string
	Procedure(ctx context.Context, out1 *Channel[O1], out2 *Channel[O2]) error
}

// Block3 is a block with exactly three output channels.
type Block3[O1, O2, O3 any] interface {
	Name() string
	Procedure(ctx context.Context, out1 *Channel[O1], out2 *Channel[O2], out3 *Channel[O3]) error
}

// Block4 is a block with exactly four output channels.
type Block4[O1, O2, O3, O4 any] interface {
	Name() string
	Procedure(ctx context.Context, out1 *Channel[O1], out2 *Channel[O2], out3 *Channel[O3], out4 *Channel[O4]) error
}
