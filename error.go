package cler

import "github.com/caribou-labs/cler-go/internal/interfaces"

// Error is the structured error type returned by a block's Procedure and
// raised during flow graph construction. Grounded on
// ehrlich-b-go-ublk's errors.go: an Op, a Kind, and errors.Is/Unwrap
// support.
type Error = interfaces.Error

// ErrorKind classifies an Error as recoverable (the block should simply
// be invoked again) or terminal (the block will not run again).
type ErrorKind = interfaces.ErrorKind

const (
	ErrNotEnoughSamples        = interfaces.KindNotEnoughSamples
	ErrNotEnoughSpace          = interfaces.KindNotEnoughSpace
	ErrNotEnoughSpaceOrSamples = interfaces.KindNotEnoughSpaceOrSamples
	ErrBadData                 = interfaces.KindBadData
	ErrProcedureError          = interfaces.KindProcedureError

	ErrTermEOFReached       = interfaces.KindTermEOFReached
	ErrTermProcedureError   = interfaces.KindTermProcedureError
	ErrTermFlowgraphStopped = interfaces.KindTermFlowgraphStopped
)

// NewError builds an Error for the given operation and kind.
func NewError(op string, kind ErrorKind) *Error {
	return interfaces.New(op, kind)
}

// WrapError builds an Error that carries an underlying cause.
func WrapError(op string, kind ErrorKind, inner error) *Error {
	return interfaces.Wrap(op, kind, inner)
}
