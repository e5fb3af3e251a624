// Package apperr classifies failures so the CLI can report them consistently.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure category.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUserInput covers invalid arguments; nothing was mutated.
	KindUserInput
	// KindNotFound covers unknown stacks and missing directories.
	KindNotFound
	// KindExternalTool covers non-zero exits of git or the container engine.
	KindExternalTool
	// KindCorruptState covers an unparsable registry on a write path.
	KindCorruptState
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindExternalTool:
		return "external tool failed"
	case KindCorruptState:
		return "corrupt state"
	default:
		return "error"
	}
}

// Error is a classified error.
type Error struct {
	Kind   Kind
	Msg    string
	Output string // captured tool output, printed verbatim
	Hint   string // next steps for the operator
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// UserInput returns a KindUserInput error.
func UserInput(format string, args ...any) error {
	return &Error{Kind: KindUserInput, Msg: fmt.Sprintf(format, args...)}
}

// Cancelled is returned when the user declines a confirmation.
func Cancelled() error {
	return &Error{Kind: KindUserInput, Msg: "cancelled"}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// ExternalTool returns a KindExternalTool error carrying the tool's output.
func ExternalTool(msg, output string, err error) error {
	return &Error{Kind: KindExternalTool, Msg: msg, Output: output, Err: err}
}

// CorruptState returns a KindCorruptState error.
func CorruptState(msg string, err error) error {
	return &Error{Kind: KindCorruptState, Msg: msg, Err: err}
}

// WithHint attaches operator instructions to err, keeping its kind and output.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Output: OutputOf(err), Hint: hint, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// OutputOf returns the captured tool output in err's chain, if any.
func OutputOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Output
	}
	return ""
}

// HintOf returns the operator hint in err's chain, if any.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
