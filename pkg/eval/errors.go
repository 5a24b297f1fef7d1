// Package eval implements the tree-walking evaluator of spec.md §4.F:
// special-form dispatch, lexical/dynamic variable resolution, closure
// and macro application, and condition handling.
package eval

import (
	"fmt"
	"strings"

	"github.com/corelisp/corelisp/pkg/env"
	"github.com/corelisp/corelisp/pkg/value"
)

// ArgError reports a call with the wrong number of arguments.
type ArgError struct {
	Expected, Actual int
	Name             string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s: wrong number of arguments: expected %d, got %d", e.Name, e.Expected, e.Actual)
}

// TypeError reports a value of the wrong kind reaching an operation that
// required a specific tag.
type TypeError struct {
	Expected string
	Actual   value.Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("wrong type: expected %s, got %s", e.Expected, e.Actual.Tag())
}

// VoidVariableError reports a symbol reference with no lexical or
// dynamic binding.
type VoidVariableError struct{ Name string }

func (e *VoidVariableError) Error() string { return fmt.Sprintf("void-variable: %s", e.Name) }

// VoidFunctionError reports a call to a symbol with no function binding.
type VoidFunctionError struct{ Name string }

func (e *VoidFunctionError) Error() string { return fmt.Sprintf("void-function: %s", e.Name) }

// InvalidFunctionError reports a call through a non-callable value.
type InvalidFunctionError struct{ V value.Value }

func (e *InvalidFunctionError) Error() string {
	return fmt.Sprintf("invalid-function: %s", e.V.Tag())
}

// InvalidConditionHandlerError reports a condition-case handler whose
// condition pattern is not `error`, `debug`, or a list containing them.
type InvalidConditionHandlerError struct{ Detail string }

func (e *InvalidConditionHandlerError) Error() string {
	return fmt.Sprintf("invalid-condition-handler: %s", e.Detail)
}

// UserError is a value paired with the error tag (typically the `error`
// symbol) raised by user code, propagated through condition-case.
type UserError struct {
	TagName string
	Message string
}

func (e *UserError) Error() string { return fmt.Sprintf("%s: %s", e.TagName, e.Message) }

// EvalError accumulates a backtrace as it propagates up through nested
// calls (spec.md §7): every call site that may error appends a frame.
type EvalError struct {
	Err    error
	Frames []env.Frame
}

func (e *EvalError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if len(e.Frames) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(env.FormatBacktrace(e.Frames, nil))
	}
	return sb.String()
}

// Unwrap exposes the underlying structural/user error for errors.As.
func (e *EvalError) Unwrap() error { return e.Err }

// withTrace wraps err in an EvalError carrying one backtrace frame,
// merging frames if err is already an EvalError (so backtraces
// accumulate across nested calls rather than nesting wrappers).
func withTrace(err error, name string, args []value.Value) *EvalError {
	if ee, ok := err.(*EvalError); ok {
		ee.Frames = append(ee.Frames, env.Frame{Name: name, Args: args})
		return ee
	}
	return &EvalError{Err: err, Frames: []env.Frame{{Name: name, Args: args}}}
}
