// Package connection implements the per-connection data path that turns
// each incoming sample into an outgoing one: type coercion, mode
// selection, range bookkeeping, and boundary enforcement (spec.md §4.4).
// Grounded on vm/state.go + vm/cpu.go's "one struct owns the mutable
// machine state, a stepper function advances it one unit at a time"
// shape, and on vm/symbol_resolver.go's pattern of a typed record plus a
// side map for anything unrecognized.
package connection

import (
	"math/rand"

	"github.com/IDMIL/mapcore/expr"
	"github.com/IDMIL/mapcore/mapcoreerr"
	"github.com/IDMIL/mapcore/value"
)

// maxStackDepth bounds the expression compiler's operand stack
// (spec.md §3 "An expression's stack depth never exceeds a fixed
// bound (128)").
const maxStackDepth = 128

// Connection owns one mapping's mode, range, expression, mute/boundary
// policy, and output history (spec.md §3 "Connection").
type Connection struct {
	SrcType  value.Type
	SrcLen   int
	DestType value.Type
	DestLen  int

	Mode Mode
	Rng  Range

	Muted              bool
	BoundMin, BoundMax BoundaryAction

	ExprSource string
	Compiled   *expr.Compiled

	// Dest is the destination (output) history this connection owns
	// exclusively. It is resized to the compiled expression's required
	// depth every time the expression is replaced (spec.md §4.7).
	Dest *value.History

	CalibratingStarted bool
	SendAsInstance     bool

	// DestIsOutputSignal and DestPublishedMin/Max model the libmapper
	// case where the local (destination) signal is itself an output:
	// its own published range can seed this connection's source bounds
	// when nothing else has (spec.md §4.5, last range-source rule).
	DestIsOutputSignal                bool
	DestPublishedMin, DestPublishedMax []value.Scalar

	Extra map[string]interface{}

	evaluator *expr.Evaluator
}

// NewConnection creates a connection in undefined mode with an empty
// range and no expression (spec.md §3 "Lifecycles"). rng seeds the
// expression evaluator's uniform() function; pass nil to get a fresh
// source seeded with 1.
func NewConnection(srcType value.Type, srcLen int, destType value.Type, destLen int, rng *rand.Rand) *Connection {
	return &Connection{
		SrcType:   srcType,
		SrcLen:    srcLen,
		DestType:  destType,
		DestLen:   destLen,
		Mode:      Undefined,
		BoundMin:  BoundaryNone,
		BoundMax:  BoundaryNone,
		Dest:      value.NewHistory(destType, destLen, 1, true),
		evaluator: expr.NewEvaluator(rng),
	}
}

func isValidType(t value.Type) bool {
	return t == value.I32 || t == value.F32 || t == value.F64
}

// Perform is the processor's entry point: `perform(conn, from, to) →
// bool_emit` (spec.md §4.4). from is the read-only input history
// supplying the current sample; to is this connection's destination
// history (ordinarily c.Dest).
func Perform(c *Connection, from, to *value.History, timestamp float64) (bool, error) {
	if c.Muted {
		return false, nil
	}
	if !isValidType(c.DestType) {
		return false, nil
	}

	var (
		updated bool
		err     error
	)
	switch c.Mode {
	case Undefined, Bypass, Reverse:
		updated, err = c.bypassCopy(from, to, timestamp)
	case Expression, Linear:
		updated, err = c.evaluate(from, to, timestamp)
	case Calibrate:
		updated, err = c.calibrate(from, to, timestamp)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !updated {
		return false, nil
	}

	if !ApplyBoundary(c, to) {
		return false, nil
	}
	return true, nil
}

// bypassCopy advances to's position and copies from's current sample
// across with per-element type conversion (spec.md §4.4 "Undefined or
// bypass", "Reverse").
func (c *Connection) bypassCopy(from, to *value.History, timestamp float64) (bool, error) {
	if c.SrcLen != c.DestLen {
		return false, mapcoreerr.New(mapcoreerr.LengthMismatch, "bypass requires matching source and destination length")
	}
	vec, _ := from.At(0)
	out := make([]value.Scalar, len(vec))
	for i, s := range vec {
		out[i] = s.Convert(c.DestType)
	}
	to.Write(out, timestamp)
	return true, nil
}

// evaluate runs the compiled expression over from/to via the stack
// machine of spec.md §4.3.
func (c *Connection) evaluate(from, to *value.History, timestamp float64) (bool, error) {
	if c.Compiled == nil {
		return false, mapcoreerr.New(mapcoreerr.CompileError, "no compiled expression for mode "+c.Mode.String())
	}
	return c.evaluator.Eval(c.Compiled, from, to, timestamp)
}

// calibrate widens the observed source range (or seeds it, on the first
// sample), re-synthesizes the linear mapping when the range changed, and
// then evaluates the (possibly just-replaced) expression on the current
// sample (spec.md §4.4 "Calibrate"). Unlike the source's literal
// "advance to.position" wording, position advancement here is left
// entirely to the evaluator's single-advancement assignment step
// (spec.md §9, resolved open question) rather than performed twice.
func (c *Connection) calibrate(from, to *value.History, timestamp float64) (bool, error) {
	vec, _ := from.At(0)
	changed := false

	if !c.CalibratingStarted {
		mins := make([]value.Scalar, len(vec))
		maxs := make([]value.Scalar, len(vec))
		copy(mins, vec)
		copy(maxs, vec)
		c.Rng.SrcMin = mins
		c.Rng.SrcMax = maxs
		c.Rng.known |= bitSrcMin | bitSrcMax
		c.CalibratingStarted = true
		changed = true
	} else {
		for i, s := range vec {
			v := s.Float64()
			if i < len(c.Rng.SrcMin) && v < c.Rng.SrcMin[i].Float64() {
				c.Rng.SrcMin[i] = s.Convert(c.Rng.SrcMin[i].Typ)
				changed = true
			}
			if i < len(c.Rng.SrcMax) && v > c.Rng.SrcMax[i].Float64() {
				c.Rng.SrcMax[i] = s.Convert(c.Rng.SrcMax[i].Typ)
				changed = true
			}
		}
	}

	if changed {
		if err := c.setLinear(); err != nil {
			return false, err
		}
		c.Mode = Calibrate // setLinear leaves Mode=Linear; calibrate stays calibrate
	}

	return c.evaluate(from, to, timestamp)
}
