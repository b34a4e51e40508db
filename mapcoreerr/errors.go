// Package mapcoreerr defines the error kinds raised by the expression
// compiler and the connection processor (spec.md §7).
package mapcoreerr

import (
	"fmt"
	"strings"
)

// Kind categorizes the kind of error the core can raise.
type Kind int

const (
	// CompileError covers lex, parse, type, length, range and stack
	// overflow failures in the expression compiler.
	CompileError Kind = iota
	// TypeMismatch is raised against a caller supplying a sample of
	// incompatible type against a signal.
	TypeMismatch
	// LengthMismatch is raised when an array update's width does not
	// match the signal's declared length.
	LengthMismatch
	// RangeIllFormed is raised when a range component is supplied with
	// the wrong vector length.
	RangeIllFormed
	// Truncation is raised, caller-visible only, for a floating-point
	// write into an integer-typed signal.
	Truncation
	// EvaluationSuppressed is not an error: it records that a
	// conditional short-circuit suppressed the sample (spec.md §4.3,
	// §7). It is exposed here so callers can distinguish it from real
	// failures with errors.Is / a type switch if they choose to.
	EvaluationSuppressed
)

func (k Kind) String() string {
	switch k {
	case CompileError:
		return "compile-error"
	case TypeMismatch:
		return "type-mismatch"
	case LengthMismatch:
		return "length-mismatch"
	case RangeIllFormed:
		return "range-ill-formed"
	case Truncation:
		return "truncation"
	case EvaluationSuppressed:
		return "evaluation-suppressed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Position locates a compile error within an expression source string.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is the error type returned by the compiler and the processor.
type Error struct {
	Kind    Kind
	Message string
	Pos     Position  // zero value when not applicable
	Context string    // the expression substring involved, if any
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Context))
	} else {
		sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	}
	if e.Pos != (Position{}) {
		sb.WriteString(fmt.Sprintf(" (at %s)", e.Pos))
	}
	return sb.String()
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewAt constructs a compile Error with a source position.
func NewAt(kind Kind, pos Position, message string) *Error {
	return &Error{Kind: kind, Message: message, Pos: pos}
}

// Is reports whether err is a mapcoreerr.Error of the given kind, so
// callers can use errors.Is-style checks without importing this package's
// concrete type.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
