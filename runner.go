package cler

import (
	"context"

	"github.com/caribou-labs/cler-go/internal/interfaces"
)

// Runner is one schedulable graph node: a block bound to its output
// channels, reduced to a single Invoke call the scheduler drives.
type Runner = interfaces.Runner

type runner0 struct {
	block Block0
}

func (r *runner0) Name() string                        { return r.block.Name() }
func (r *runner0) Invoke(ctx context.Context) error { return r.block.Procedure(ctx) }

// NewRunner0 binds a Block0 into a schedulable Runner.
func NewRunner0(block Block0) Runner {
	return &runner0{block: block}
}

type runner1[O1 any] struct {
	block Block1[O1]
	out1  *Channel[O1]
}

func (r *runner1[O1]) Name() string { return r.block.Name() }
func (r *runner1[O1]) Invoke(ctx context.Context) error {
	return r.block.Procedure(ctx, r.out1)
}

// NewRunner1 binds a Block1 and its single output channel into a
// schedulable Runner.
func NewRunner1[O1 any](block Block1[O1], out1 *Channel[O1]) Runner {
	return &runner1[O1]{block: block, out1: out1}
}

type runner2[O1, O2 any] struct {
	block Block2[O1, O2]
	out1  *Channel[O1]
	out2  *Channel[O2]
}

func (r *runner2[O1, O2]) Name() string { return r.block.Name() }
func (r *runner2[O1, O2]) Invoke(ctx context.Context) error {
	return r.block.Procedure(ctx, r.out1, r.out2)
}

// NewRunner2 binds a Block2 and its two output channels into a
// schedulable Runner.
func NewRunner2[O1, O2 any](block Block2[O1, O2], out1 *Channel[O1], out2 *Channel[O2]) Runner {
	return &runner2[O1, O2]{block: block, out1: out1, out2: out2}
}

type runner3[O1, O2, O3 any] struct {
	block Block3[O1, O2, O3]
	out1  *Channel[O1]
	out2  *Channel[O2]
	out3  *Channel[O3]
}

func (r *runner3[O1, O2, O3]) Name() string { return r.block.Name() }
func (r *runner3[O1, O2, O3]) Invoke(ctx context.Context) error {
	return r.block.Procedure(ctx, r.out1, r.out2, r.out3)
}

// NewRunner3 binds a Block3 and its three output channels into a
// schedulable Runner.
func NewRunner3[O1, O2, O3 any](block Block3[O1, O2, O3], out1 *Channel[O1], out2 *Channel[O2], out3 *Channel[O3]) Runner {
	return &runner3[O1, O2, O3]{block: block, out1: out1, out2: out2, out3: out3}
}

type runner4[O1, O2, O3, O4 any] struct {
	block Block4[O1, O2, O3, O4]
	out1  *Channel[O1]
	out2  *Channel[O2]
	out3  *Channel[O3]
	out4  *Channel[O4]
}

func (r *runner4[O1, O2, O3, O4]) Name() string { return r.block.Name() }
func (r *runner4[O1, O2, O3, O4]) Invoke(ctx context.Context) error {
	return r.block.Procedure(ctx, r.out1, r.out2, r.out3, r.out4)
}

// NewRunner4 binds a Block4 and its four output channels into a
// schedulable Runner.
func NewRunner4[O1, O2, O3, O4 any](block Block4[O1, O2, O3, O4], out1 *Channel[O1], out2 *Channel[O2], out3 *Channel[O3], out4 *Channel[O4]) Runner {
	return &runner4[O1, O2, O3, O4]{block: block, out1: out1, out2: out2, out3: out3, out4: out4}
}
