// Package value implements the scalar and history data model shared by the
// expression engine and connection processor (spec.md §3).
package value

import "fmt"

// Type is the element datatype carried by a signal, a history, or a token.
type Type int

const (
	// I32 is a 32-bit signed integer.
	I32 Type = iota
	// F32 is a single-precision float.
	F32
	// F64 is a double-precision float.
	F64
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Widest returns the wider of two datatypes, ranked d > f > i as spec.md
// §4.2 requires for the type-promotion pass.
func Widest(a, b Type) Type {
	if a == F64 || b == F64 {
		return F64
	}
	if a == F32 || b == F32 {
		return F32
	}
	return I32
}
