package dp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented marks a direction or enumeration a DP cannot compute.
// Callers should skip the computation rather than abort.
var ErrNotImplemented = errors.New("not implemented")

// ErrNotConverged is returned when a Loop fixed-point search exhausts its
// iteration bound.
var ErrNotConverged = errors.New("fixed-point iteration did not converge")

// ModelError reports a problem with the model being built or solved, such as
// mismatched spaces or a value outside its space. Where locates the problem
// when known.
type ModelError struct {
	Where string
	Err   error
}

// NewModelError formats a ModelError.
func NewModelError(where, format string, args ...any) *ModelError {
	return &ModelError{Where: where, Err: fmt.Errorf(format, args...)}
}

func (e *ModelError) Error() string {
	if e.Where == "" {
		return e.Err.Error()
	}
	return e.Where + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error { return e.Err }

// InternalError reports a broken invariant inside the engine: a rewrite that
// changed a signature, a solve result that is not an antichain, or a panic in
// a primitive. It always indicates a bug, never bad input.
type InternalError struct {
	Op       string
	Rule     string
	Operands []string
	Err      error
}

func (e *InternalError) Error() string {
	var sb strings.Builder
	sb.WriteString("internal error in ")
	sb.WriteString(e.Op)
	if e.Rule != "" {
		sb.WriteString(" (rule " + e.Rule + ")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *InternalError) Unwrap() error { return e.Err }

// Detail returns the message followed by the long representation of every
// operand.
func (e *InternalError) Detail() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	for i, op := range e.Operands {
		fmt.Fprintf(&sb, "\n--- operand %d ---\n%s", i+1, op)
	}
	return sb.String()
}

// IsModelError reports whether err is or wraps a *ModelError.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

// IsInternalError reports whether err is or wraps an *InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

func notImplemented(d PrimitiveDP, what string) error {
	return fmt.Errorf("%s: %s: %w", d, what, ErrNotImplemented)
}
