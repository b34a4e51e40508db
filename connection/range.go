package connection

import (
	"strconv"

	"github.com/IDMIL/mapcore/expr"
	"github.com/IDMIL/mapcore/mapcoreerr"
	"github.com/IDMIL/mapcore/value"
)

const (
	bitSrcMin uint8 = 1 << iota
	bitSrcMax
	bitDestMin
	bitDestMax
)

const bitAllKnown = bitSrcMin | bitSrcMax | bitDestMin | bitDestMax

// Range is the four-vector range record of spec.md §3: source and
// destination min/max, plus a bitmask of which are currently populated.
type Range struct {
	SrcMin, SrcMax, DestMin, DestMax []value.Scalar

	known uint8
}

// FullyKnown reports whether all four range vectors are populated.
func (r *Range) FullyKnown() bool { return r.known&bitAllKnown == bitAllKnown }

// DestKnown reports whether both destination bounds are populated.
func (r *Range) DestKnown() bool {
	return r.known&(bitDestMin|bitDestMax) == bitDestMin|bitDestMax
}

func laneAt(vec []value.Scalar, i int) (float64, bool) {
	if i < 0 || i >= len(vec) {
		return 0, false
	}
	return vec[i].Float64(), true
}

func (r *Range) destMinLane(i int) (float64, bool) {
	if r.known&bitDestMin == 0 {
		return 0, false
	}
	return laneAt(r.DestMin, i)
}

func (r *Range) destMaxLane(i int) (float64, bool) {
	if r.known&bitDestMax == 0 {
		return 0, false
	}
	return laneAt(r.DestMax, i)
}

func firstLane(vec []value.Scalar) float64 {
	if len(vec) == 0 {
		return 0
	}
	return vec[0].Float64()
}

// Message is a property-message payload (spec.md §6 "Property message
// interface"). Recognized fields are nil/empty when absent from the
// message; Extra carries everything unrecognized.
type Message struct {
	SrcMin, SrcMax, DestMin, DestMax []value.Scalar
	Min, Max                         []value.Scalar
	Mute                             *bool
	BoundMin, BoundMax               *string
	Expression                       *string
	SendAsInstance                   *bool
	Mode                             *string
	Extra                            map[string]interface{}
}

// ApplyMessage applies a property message's recognized keys to c, in the
// range-source priority order and mode-selection rules of spec.md §4.5.
// Property application is best-effort: it returns an error only for an
// unrecognized @mode or @boundMin/@boundMax value, or when the supplied or
// synthesized expression fails to compile.
func (c *Connection) ApplyMessage(msg Message) error {
	r := &c.Rng

	if len(msg.SrcMin) > 0 {
		r.SrcMin = msg.SrcMin
		r.known |= bitSrcMin
	}
	if len(msg.SrcMax) > 0 {
		r.SrcMax = msg.SrcMax
		r.known |= bitSrcMax
	}
	if len(msg.DestMin) > 0 {
		r.DestMin = msg.DestMin
		r.known |= bitDestMin
	}
	if len(msg.DestMax) > 0 {
		r.DestMax = msg.DestMax
		r.known |= bitDestMax
	}

	// Generic @min/@max are taken as destination bounds, but only if the
	// message itself hasn't already set them explicitly above.
	if len(msg.Min) > 0 && len(msg.DestMin) == 0 {
		r.DestMin = msg.Min
		r.known |= bitDestMin
	}
	if len(msg.Max) > 0 && len(msg.DestMax) == 0 {
		r.DestMax = msg.Max
		r.known |= bitDestMax
	}

	// If the local (destination) signal is itself an output signal, its
	// own published range seeds whatever source bounds are still
	// missing after everything above.
	if c.DestIsOutputSignal {
		if len(c.DestPublishedMin) > 0 && r.known&bitSrcMin == 0 {
			r.SrcMin = c.DestPublishedMin
			r.known |= bitSrcMin
		}
		if len(c.DestPublishedMax) > 0 && r.known&bitSrcMax == 0 {
			r.SrcMax = c.DestPublishedMax
			r.known |= bitSrcMax
		}
	}

	if msg.Mute != nil {
		c.Muted = *msg.Mute
	}
	if msg.BoundMin != nil {
		a, ok := ParseBoundaryAction(*msg.BoundMin)
		if !ok {
			return mapcoreerr.New(mapcoreerr.CompileError, "unrecognized boundMin action "+*msg.BoundMin)
		}
		c.BoundMin = a
	}
	if msg.BoundMax != nil {
		a, ok := ParseBoundaryAction(*msg.BoundMax)
		if !ok {
			return mapcoreerr.New(mapcoreerr.CompileError, "unrecognized boundMax action "+*msg.BoundMax)
		}
		c.BoundMax = a
	}
	if msg.SendAsInstance != nil {
		c.SendAsInstance = *msg.SendAsInstance
	}
	for k, v := range msg.Extra {
		if c.Extra == nil {
			c.Extra = make(map[string]interface{})
		}
		c.Extra[k] = v
	}

	return c.selectMode(msg.Mode, msg.Expression)
}

// selectMode implements spec.md §4.5's mode-selection rules, run after
// the range update above.
func (c *Connection) selectMode(modeStr, exprStr *string) error {
	if modeStr == nil {
		if c.Mode == Undefined {
			if c.Rng.FullyKnown() {
				return c.setLinear()
			}
			c.Mode = Bypass
		}
		return nil
	}

	m, ok := ParseMode(*modeStr)
	if !ok {
		return mapcoreerr.New(mapcoreerr.CompileError, "unrecognized mode "+*modeStr)
	}
	switch m {
	case Linear:
		if c.Rng.FullyKnown() {
			return c.setLinear()
		}
		return nil
	case Calibrate:
		if c.Rng.DestKnown() {
			c.Mode = Calibrate
		}
		return nil
	case Expression:
		src := "y = x"
		if exprStr != nil && *exprStr != "" {
			src = *exprStr
		}
		if err := c.setExpression(src); err != nil {
			return err
		}
		c.Mode = Expression
		return nil
	case Bypass, Reverse:
		c.Mode = m
		return nil
	}
	return nil
}

// setLinear synthesizes a linear expression string from the current
// range (spec.md §4.5 "Linear-expression synthesis") and compiles it.
func (c *Connection) setLinear() error {
	src := synthesizeLinearExpr(firstLane(c.Rng.SrcMin), firstLane(c.Rng.SrcMax), firstLane(c.Rng.DestMin), firstLane(c.Rng.DestMax))
	if err := c.setExpression(src); err != nil {
		return err
	}
	c.Mode = Linear
	return nil
}

func synthesizeLinearExpr(sMin, sMax, dMin, dMax float64) string {
	switch {
	case sMin == sMax:
		return "y = " + formatConst(dMin)
	case sMin == dMin && sMax == dMax:
		return "y = x"
	default:
		scale := (dMin - dMax) / (sMin - sMax)
		offset := (dMax*sMin - dMin*sMax) / (sMin - sMax)
		return "y = x*" + formatConst(scale) + " + " + formatConst(offset)
	}
}

func formatConst(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// setExpression compiles src and, only on success, atomically replaces
// c's prior compiled expression and source string — the old compiled
// expression is never torn down until the new one is known to parse
// (spec.md §3 "Lifecycles", §4.5 "Expression replacement").
func (c *Connection) setExpression(src string) error {
	compiled, err := expr.Compile(src, c.SrcType, c.SrcLen, c.DestType, c.DestLen, maxStackDepth)
	if err != nil {
		return err
	}
	c.ExprSource = src
	c.Compiled = compiled
	c.Dest.Resize(compiled.OutputHistorySize)
	return nil
}
