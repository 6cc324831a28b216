// Package errors provides an error wrapper that records the callers at the
// time of creation. It is used for faults (resolver outages, misconfiguration),
// never for the verdicts returned when an address is rejected.
package errors

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/samber/lo"
)

// MaxStackDepth the maximum number of frames collected when creating a new Error.
var MaxStackDepth = 50

// Error wraps one or more reasons and the callers collected when it was created.
type Error struct {
	reasons []error
	callers []uintptr
}

// New creates a new `*Error`, collecting the function callers.
//
// A `nil` reason returns `nil`. A reason that already is an `*Error` is returned
// as is. Slices of errors (`[]error`, `[]*Error`, `[]any`) are flattened and their
// `nil` elements ignored. Any other value is wrapped in a `Reason`.
func New(reason any) error {
	return NewSkip(reason, 3)
}

// NewSkip same as `New` but skips the given amount of frames when
// collecting the callers. A skip of 3 starts at the caller of `NewSkip`.
func NewSkip(reason any, skip int) error {
	if reason == nil {
		return nil
	}
	if r, ok := reason.(*Error); ok {
		return r
	}
	callers := make([]uintptr, MaxStackDepth)
	n := runtime.Callers(skip, callers)

	return &Error{
		reasons: toErr(reason),
		callers: callers[:n],
	}
}

// Errorf shortcut for `errors.New(fmt.Errorf(format, args...))`.
func Errorf(format string, args ...any) error {
	return NewSkip(fmt.Errorf(format, args...), 3)
}

func toErr(reason any) []error {
	switch r := reason.(type) {
	case error:
		return []error{r}
	case []error:
		return lo.Filter(r, func(e error, _ int) bool { return e != nil })
	case []*Error:
		return lo.FilterMap(r, func(e *Error, _ int) (error, bool) { return e, e != nil })
	case []any:
		errs := make([]error, 0, len(r))
		for _, e := range r {
			if e == nil {
				continue
			}
			errs = append(errs, toErr(e)...)
		}
		return errs
	default:
		return []error{Reason{reason: r}}
	}
}

func (e *Error) Error() string {
	if len(e.reasons) == 0 {
		return "goyave.dev/mailcheck/util/errors.Error: no reason"
	}
	return strings.Join(lo.Map(e.reasons, func(r error, _ int) string {
		return r.Error()
	}), "\n")
}

// String returns the error message followed by the stack trace.
func (e *Error) String() string {
	return e.Error() + "\n" + e.StackFrames().String()
}

// Unwrap returns the underlying reasons so `errors.Is` and `errors.As`
// can inspect them.
func (e *Error) Unwrap() []error {
	return e.reasons
}

// Len returns the number of underlying reasons.
func (e *Error) Len() int {
	return len(e.reasons)
}

// Callers returns the program counters collected at creation.
func (e *Error) Callers() []uintptr {
	return e.callers
}

// StackFrames returns the resolved frames of the collected callers.
func (e *Error) StackFrames() FrameStack {
	frames := runtime.CallersFrames(e.callers)
	stack := make(FrameStack, 0, len(e.callers))
	for {
		frame, more := frames.Next()
		if frame.PC != 0 {
			stack = append(stack, frame)
		}
		if !more {
			break
		}
	}
	return stack
}

// FileLine returns "file:line" of the innermost frame.
func (e *Error) FileLine() string {
	frames := e.StackFrames()
	if len(frames) == 0 {
		return "[unknown file line]"
	}
	return fmt.Sprintf("%s:%d", frames[0].File, frames[0].Line)
}

// MarshalJSON marshals a single reason as itself and several reasons as an array.
func (e *Error) MarshalJSON() ([]byte, error) {
	switch len(e.reasons) {
	case 0:
		return json.Marshal(e.Error())
	case 1:
		return marshalReason(e.reasons[0])
	}
	parts := make([]json.RawMessage, 0, len(e.reasons))
	for _, r := range e.reasons {
		b, err := marshalReason(r)
		if err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}
	return json.Marshal(parts)
}

func marshalReason(err error) ([]byte, error) {
	if m, ok := err.(json.Marshaler); ok {
		return m.MarshalJSON()
	}
	return json.Marshal(err.Error())
}

// FrameStack resolved stack frames.
type FrameStack []runtime.Frame

func (s FrameStack) String() string {
	return strings.Join(lo.Map(s, func(f runtime.Frame, _ int) string {
		return fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line)
	}), "\n")
}

// Reason wraps a non-error value used as the reason of an `Error`,
// preserving its JSON representation.
type Reason struct {
	reason any
}

// Value returns the wrapped value.
func (r Reason) Value() any {
	return r.reason
}

func (r Reason) Error() string {
	return fmt.Sprintf("%v", r.reason)
}

// MarshalJSON marshals the wrapped value.
func (r Reason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.reason)
}
