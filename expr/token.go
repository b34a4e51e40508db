package expr

import (
	"fmt"

	"github.com/IDMIL/mapcore/value"
)

// Kind discriminates a Token's role, mirroring spec.md §3's description of
// the compiled token: a single tagged record rather than a raw union, so
// the evaluator can exhaustively switch over it.
type Kind int

const (
	// KindConst is a literal scalar constant. A vector literal compiles to
	// one KindConst per element followed by a KindVectorize.
	KindConst Kind = iota
	// KindVariable is a reference to x (input) or y (output history).
	KindVariable
	// KindOperator is a binary or unary arithmetic/logical/bitwise op.
	KindOperator
	// KindFunction is a scalar math function call.
	KindFunction
	// KindVectorFunction is a reducer (any, all).
	KindVectorFunction
	// KindVectorize concatenates its operand entries into one wider entry.
	KindVectorize
	// KindAssignment writes the top-of-stack value into the destination
	// history.
	KindAssignment
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindVariable:
		return "variable"
	case KindOperator:
		return "operator"
	case KindFunction:
		return "function"
	case KindVectorFunction:
		return "vector-function"
	case KindVectorize:
		return "vectorize"
	case KindAssignment:
		return "assignment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is the compiled unit of the reverse-Polish token sequence
// (spec.md §3 "Token").
type Token struct {
	Kind Kind

	// Const / promoted operand payload.
	ConstValue value.Scalar

	// Variable name ("x" or "y") for KindVariable.
	VarName string

	// Operator or function name ("+", "sin", "any", ...).
	OpName string

	// Datatype is the element datatype this token operates/produces in.
	Datatype value.Type
	// CastType is set when a preceding promotion pass requires this
	// token's on-stack value to be converted before it is consumed by
	// its successor; nil when no cast is needed.
	CastType *value.Type

	// VecWidth is this token's active vector width; WidthLocked marks a
	// width fixed by a vectorizer close or a vector-literal comma, which
	// may never be silently promoted afterward (spec.md §4.2).
	VecWidth    int
	WidthLocked bool

	// HistoryIndex is the {k} suffix: <= 0 for x, <= -1 for y. On an
	// assignment token it is the y{k} target's index (0 for plain y).
	// Zero (or unset) for all other tokens.
	HistoryIndex int

	// VecStart is the starting lane index for a [i] / [i:j] suffix, or
	// the destination lane offset for an assignment target.
	VecStart int

	// Arity is the number of preceding output-stack entries this
	// operator/function/vectorize/vector-function token consumes.
	Arity int
}
