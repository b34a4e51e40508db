package expr

import (
	"math/rand"

	"github.com/IDMIL/mapcore/mapcoreerr"
	"github.com/IDMIL/mapcore/value"
)

// entry is one value on the evaluator's operand stack: a lane-indexed
// vector of scalars sharing a datatype (spec.md §4.3 "Entry"). suppressed
// marks the result of a two-armed ternary whose condition was false: it
// carries no value and, if it reaches an assignment token, causes that
// assignment to be skipped entirely (spec.md §4.3 "Conditional
// short-circuit").
type entry struct {
	typ        value.Type
	vals       []value.Scalar
	suppressed bool
}

func entryFromScalar(s value.Scalar, width int) entry {
	vals := make([]value.Scalar, width)
	for i := range vals {
		vals[i] = s
	}
	return entry{typ: s.Typ, vals: vals}
}

func castEntry(e entry, typ value.Type) entry {
	vals := make([]value.Scalar, len(e.vals))
	for i, s := range e.vals {
		vals[i] = s.Convert(typ)
	}
	return entry{typ: typ, vals: vals}
}

func entryAllTruthy(e entry) bool {
	for _, s := range e.vals {
		if s.Float64() == 0 {
			return false
		}
	}
	return true
}

// Evaluator runs a Compiled expression's token sequence against the
// current input/output histories for one invocation (spec.md §4.3).
type Evaluator struct {
	rng *rand.Rand
}

// NewEvaluator constructs an Evaluator with the given deterministic random
// source, used only by non-deterministic functions such as uniform().
func NewEvaluator(rng *rand.Rand) *Evaluator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Evaluator{rng: rng}
}

// Eval runs c against xHist (nil if the expression never references x)
// and yHist, writing results into yHist. It reports whether y was
// actually updated: false if a conditional short-circuit suppressed any
// assignment statement, in which case the whole sample is rejected and
// any position advance already made by an earlier statement in this same
// call is rolled back (spec.md §4.3, §9 "Conditional short-circuit
// semantics").
func (ev *Evaluator) Eval(c *Compiled, xHist, yHist *value.History, timestamp float64) (bool, error) {
	var stack []entry
	updated := false
	advanced := false
	// atFrontier stays true across a leading run of one-shot history
	// initializer statements ("y{-1}=1, y{-2}=2, y = ..."), so each of
	// them can advance c.Start in turn; it clears the moment a statement
	// that isn't a history initializer runs, since only the still-unread
	// leading run is eligible for skipping on later calls.
	atFrontier := true

	push := func(e entry) { stack = append(stack, e) }
	pop := func() (entry, error) {
		if len(stack) == 0 {
			return entry{}, mapcoreerr.New(mapcoreerr.CompileError, "stack underflow")
		}
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return e, nil
	}
	popN := func(n int) ([]entry, error) {
		if len(stack) < n {
			return nil, mapcoreerr.New(mapcoreerr.CompileError, "stack underflow")
		}
		es := append([]entry(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return es, nil
	}

	for i := c.Start; i < len(c.Tokens); i++ {
		t := c.Tokens[i]
		pushCast := func(e entry) {
			if t.CastType != nil {
				e = castEntry(e, *t.CastType)
			}
			push(e)
		}

		switch t.Kind {
		case KindConst:
			pushCast(entryFromScalar(t.ConstValue, 1))

		case KindVariable:
			e, err := ev.readVariable(t, xHist, yHist)
			if err != nil {
				return false, err
			}
			pushCast(e)

		case KindVectorize:
			args, err := popN(t.Arity)
			if err != nil {
				return false, err
			}
			var vals []value.Scalar
			for _, a := range args {
				vals = append(vals, a.vals...)
			}
			pushCast(entry{typ: t.Datatype, vals: vals})

		case KindOperator:
			if err := ev.applyOperator(t, pushCast, pop, popN); err != nil {
				return false, err
			}

		case KindFunction:
			args, err := popN(t.Arity)
			if err != nil {
				return false, err
			}
			fn, ok := lookupFunction(t.OpName)
			if !ok {
				return false, mapcoreerr.New(mapcoreerr.CompileError, "unknown function "+t.OpName)
			}
			width := 1
			for _, a := range args {
				if len(a.vals) > width {
					width = len(a.vals)
				}
			}
			vals := make([]value.Scalar, width)
			for lane := 0; lane < width; lane++ {
				floats := make([]float64, len(args))
				for i, a := range args {
					floats[i] = laneOf(a, lane).Float64()
				}
				vals[lane] = value.F64Scalar(fn.apply(floats, ev.rng)).Convert(t.Datatype)
			}
			pushCast(entry{typ: t.Datatype, vals: vals})

		case KindVectorFunction:
			args, err := popN(t.Arity)
			if err != nil {
				return false, err
			}
			vf, ok := lookupVectorFunction(t.OpName)
			if !ok {
				return false, mapcoreerr.New(mapcoreerr.CompileError, "unknown vector function "+t.OpName)
			}
			lanes := make([]float64, len(args[0].vals))
			for i, s := range args[0].vals {
				lanes[i] = s.Float64()
			}
			r := value.F64Scalar(vf(lanes)).Convert(t.Datatype)
			pushCast(entryFromScalar(r, 1))

		case KindAssignment:
			rhs, err := pop()
			if err != nil {
				return false, err
			}
			if yHist == nil {
				return false, mapcoreerr.New(mapcoreerr.CompileError, "assignment with no output history")
			}
			if rhs.suppressed {
				if advanced {
					yHist.RollbackPosition()
				}
				return false, nil
			}
			if err := writeAssignment(t, rhs, yHist, timestamp, &advanced); err != nil {
				return false, err
			}
			updated = true
			// A history-targeted assignment still sitting at the skip
			// frontier is a one-shot initializer (e.g. "y{-1}=1, ..."):
			// it has now run, so advance Start past it and never
			// evaluate it again (spec.md §9's third open question). Any
			// other statement ends the leading run.
			if atFrontier && t.HistoryIndex != 0 {
				c.Start = i + 1
			} else {
				atFrontier = false
			}
		}
	}
	return updated, nil
}

// applyOperator handles unary/binary arithmetic, comparison, logical and
// bitwise operators plus the ternary conditional (spec.md §4.3).
func (ev *Evaluator) applyOperator(
	t Token,
	push func(entry),
	pop func() (entry, error),
	popN func(int) ([]entry, error),
) error {
	if t.OpName == "?:" {
		args, err := popN(t.Arity)
		if err != nil {
			return err
		}
		cond, then := args[0], args[1]

		if t.Arity == 3 {
			// three-armed: per-lane selection, no suppression.
			els := args[2]
			width := len(then.vals)
			vals := make([]value.Scalar, width)
			for lane := 0; lane < width; lane++ {
				if laneOf(cond, lane).Float64() != 0 {
					vals[lane] = laneOf(then, lane).Convert(t.Datatype)
				} else {
					vals[lane] = laneOf(els, lane).Convert(t.Datatype)
				}
			}
			push(entry{typ: t.Datatype, vals: vals})
			return nil
		}

		// two-armed: every lane of cond must be truthy or the whole
		// sample is suppressed (spec.md §4.3 "Operator" / §9 "Conditional
		// short-circuit semantics").
		if entryAllTruthy(cond) {
			push(castEntry(then, t.Datatype))
		} else {
			push(entry{suppressed: true})
		}
		return nil
	}

	if t.Arity == 1 {
		a, err := pop()
		if err != nil {
			return err
		}
		vals := make([]value.Scalar, len(a.vals))
		for i, s := range a.vals {
			vals[i] = applyUnary(t.OpName, s, t.Datatype)
		}
		push(entry{typ: t.Datatype, vals: vals})
		return nil
	}

	args, err := popN(2)
	if err != nil {
		return err
	}
	left, right := args[0], args[1]
	width := len(left.vals)
	if len(right.vals) > width {
		width = len(right.vals)
	}
	vals := make([]value.Scalar, width)
	for lane := 0; lane < width; lane++ {
		vals[lane] = applyBinary(t.OpName, laneOf(left, lane), laneOf(right, lane), t.Datatype)
	}
	push(entry{typ: t.Datatype, vals: vals})
	return nil
}

func applyUnary(op string, s value.Scalar, typ value.Type) value.Scalar {
	a := s.Float64()
	var r float64
	switch op {
	case "neg":
		r = -a
	case "!":
		r = boolToF(a == 0)
	}
	return value.F64Scalar(r).Convert(typ)
}

func applyBinary(op string, l, r value.Scalar, typ value.Type) value.Scalar {
	a, b := l.Float64(), r.Float64()
	var out float64
	switch op {
	case "+":
		out = a + b
	case "-":
		out = a - b
	case "*":
		out = a * b
	case "/":
		out = a / b
	case "%":
		ai, bi := int64(a), int64(b)
		if bi == 0 {
			out = 0
		} else {
			out = float64(ai % bi)
		}
	case "<<":
		out = float64(int64(a) << uint(int64(b)))
	case ">>":
		out = float64(int64(a) >> uint(int64(b)))
	case "&":
		out = float64(int64(a) & int64(b))
	case "|":
		out = float64(int64(a) | int64(b))
	case "^":
		out = float64(int64(a) ^ int64(b))
	case "<":
		out = boolToF(a < b)
	case "<=":
		out = boolToF(a <= b)
	case ">":
		out = boolToF(a > b)
	case ">=":
		out = boolToF(a >= b)
	case "==":
		out = boolToF(a == b)
	case "!=":
		out = boolToF(a != b)
	case "&&":
		out = boolToF(a != 0 && b != 0)
	case "||":
		out = boolToF(a != 0 || b != 0)
	}
	return value.F64Scalar(out).Convert(typ)
}

// yHistoryK converts an expression-level y history index (<= -1) to
// History's own "samples in the past" convention (k >= 0, 0 = the most
// recently committed sample).
func yHistoryK(exprIndex int) int {
	return -exprIndex - 1
}

func laneOf(e entry, lane int) value.Scalar {
	if lane < len(e.vals) {
		return e.vals[lane]
	}
	return e.vals[0]
}

// writeAssignment applies one assignment token's result to yHist.
// *advanced tracks, across the statements of a single Eval call, whether
// the write position has already moved to "now": the first history_index
// == 0 assignment in an expression advances it, any further ones in the
// same expression (partial-vector multi-statement assignments) write into
// that same slot (spec.md §9's single-advancement redesign). Whether a
// history_index != 0 statement runs only this once or on every call is
// decided by its caller, Eval, via the Compiled.Start skip frontier; this
// function always performs the write it's asked to.
func writeAssignment(t Token, rhs entry, yHist *value.History, timestamp float64, advanced *bool) error {
	if t.HistoryIndex != 0 {
		// A history-targeted assignment (y{k} = ...) seeds a historical
		// slot directly and does not advance the write position
		// (spec.md §4.3 "one-shot history initializer"). y's expression
		// index range is <= -1 ("y" with no suffix already names the
		// slot being written this call), so y{-1} names the most
		// recently committed sample: History.SlotAt(0).
		histK := yHistoryK(t.HistoryIndex)
		for lane := 0; lane < t.VecWidth; lane++ {
			yHist.WriteSlotAt(histK, t.VecStart+lane, laneOf(rhs, lane).Convert(yHist.Typ))
		}
		return nil
	}

	if !*advanced {
		prev := yHist.SlotAt(0)
		vec := make([]value.Scalar, len(prev))
		copy(vec, prev)
		for lane := 0; lane < t.VecWidth; lane++ {
			vec[t.VecStart+lane] = laneOf(rhs, lane).Convert(yHist.Typ)
		}
		yHist.Write(vec, timestamp)
		*advanced = true
		return nil
	}

	for lane := 0; lane < t.VecWidth; lane++ {
		yHist.WriteSlotAt(0, t.VecStart+lane, laneOf(rhs, lane).Convert(yHist.Typ))
	}
	return nil
}

func (ev *Evaluator) readVariable(t Token, xHist, yHist *value.History) (entry, error) {
	var h *value.History
	if t.VarName == "x" {
		h = xHist
	} else {
		h = yHist
	}
	if h == nil {
		return entry{}, mapcoreerr.New(mapcoreerr.CompileError, "reference to "+t.VarName+" with no history bound")
	}
	// x{0} is the current incoming sample (History.SlotAt(0)); x{-1} is
	// one before that (SlotAt(1)), and so on. y carries no "{0}": "y"
	// alone already names the slot being computed this call, so y{-1}
	// names the most recently committed sample (SlotAt(0)), y{-2} the
	// one before that (SlotAt(1)), and so on.
	var histK int
	if t.VarName == "x" {
		histK = -t.HistoryIndex
	} else {
		histK = yHistoryK(t.HistoryIndex)
	}
	full := h.SlotAt(histK)
	vals := make([]value.Scalar, t.VecWidth)
	for lane := 0; lane < t.VecWidth; lane++ {
		idx := t.VecStart + lane
		if idx < len(full) {
			vals[lane] = full[idx].Convert(t.Datatype)
		} else {
			vals[lane] = value.ZeroScalar(t.Datatype)
		}
	}
	return entry{typ: t.Datatype, vals: vals}, nil
}
