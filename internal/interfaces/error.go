package interfaces

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a procedure error along the two axes the
// scheduler cares about: whether the block can be called again
// (recoverable), and if not, why the graph is shutting it down
// (terminal). String-keyed, mirroring ehrlich-b-go-ublk's UblkErrorCode.
type ErrorKind string

const (
	// Recoverable: the block made no (or partial) progress this call and
	// should simply be invoked again later.
	KindNotEnoughSamples        ErrorKind = "not_enough_samples"
	KindNotEnoughSpace          ErrorKind = "not_enough_space"
	KindNotEnoughSpaceOrSamples ErrorKind = "not_enough_space_or_samples"
	KindBadData                 ErrorKind = "bad_data"
	KindProcedureError          ErrorKind = "procedure_error"

	// Terminal: the block will not be invoked again once this is returned.
	KindTermEOFReached      ErrorKind = "term_eof_reached"
	KindTermProcedureError  ErrorKind = "term_procedure_error"
	KindTermFlowgraphStopped ErrorKind = "term_flowgraph_stopped"
)

// Terminal reports whether this kind ends the block's scheduling
// permanently rather than simply deferring the next call.
func (k ErrorKind) Terminal() bool {
	switch k {
	case KindTermEOFReached, KindTermProcedureError, KindTermFlowgraphStopped:
		return true
	default:
		return false
	}
}

// Error is the structured error type returned by procedures and raised
// during flow graph construction. Grounded on ehrlich-b-go-ublk's
// errors.go *Error type: an Op, a Kind, an optional wrapped cause, and
// Is/Unwrap support so callers can use the standard errors package.
type Error struct {
	Op    string
	Kind  ErrorKind
	Block string
	Inner error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cler: %s: %s", e.Op, e.Kind)
	if e.Block != "" {
		msg = fmt.Sprintf("%s (block %q)", msg, e.Block)
	}
	if e.Inner != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Inner)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is(err, &Error{Kind: KindX}) comparisons by Kind,
// ignoring Op/Block/Inner, the same convention the teacher's *Error.Is
// uses to compare by Code alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an Error for the given operation and kind.
func New(op string, kind ErrorKind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(op string, kind ErrorKind, inner error) *Error {
	return &Error{Op: op, Kind: kind, Inner: inner}
}

// KindOf extracts the ErrorKind from err if it is (or wraps) an *Error,
// defaulting to KindProcedureError for an opaque non-nil error and "" for
// nil -- a plain Go error returned by a careless Procedure implementation
// is treated as a recoverable procedure error rather than crashing the
// scheduler.
func KindOf(err error) (kind ErrorKind, ok bool) {
	if err == nil {
		return "", false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindProcedureError, true
}
