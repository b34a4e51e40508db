package connection

import (
	"math"

	"github.com/IDMIL/mapcore/value"
)

func boundaryRange(dMin, dMax float64) float64 { return math.Abs(dMax - dMin) }

// foldValue implements spec.md §4.6's fold action: a single reflection
// off the violated bound, and — if that reflection still lands outside
// the opposite bound — the max/min action applied "recursively, one
// level, via modular reduction". Both steps collapse to one closed form:
// a triangle wave over [dMin, dMax]. Verified against spec.md §8
// scenario 5 (13→7, 23→3, -5→5 for dMin=0, dMax=10).
func foldValue(v, dMin, dMax float64) float64 {
	rng := boundaryRange(dMin, dMax)
	if rng == 0 {
		return dMin
	}
	period := 2 * rng
	m := math.Mod(v-dMin, period)
	if m < 0 {
		m += period
	}
	if m <= rng {
		return dMin + m
	}
	return dMax - (m - rng)
}

func wrapLow(v, dMin, dMax float64) float64 {
	rng := boundaryRange(dMin, dMax)
	if rng == 0 {
		return dMin
	}
	return dMax - math.Mod(math.Abs(v-dMin), rng)
}

func wrapHigh(v, dMin, dMax float64) float64 {
	rng := boundaryRange(dMin, dMax)
	if rng == 0 {
		return dMax
	}
	return dMin + math.Mod(math.Abs(v-dMax), rng)
}

// applyLane applies the min/max boundary actions to a single lane value,
// swapping bounds and actions if dMin > dMax (spec.md §4.6 "if dMin > dMax
// the two actions are swapped"). Returns the resulting value and whether
// the lane was muted.
func applyLane(v, dMin, dMax float64, minAction, maxAction BoundaryAction) (float64, bool) {
	lo, hi := dMin, dMax
	if lo > hi {
		lo, hi = hi, lo
		minAction, maxAction = maxAction, minAction
	}
	switch {
	case v < lo:
		switch minAction {
		case BoundaryMute:
			return v, true
		case BoundaryClamp:
			return lo, false
		case BoundaryFold:
			return foldValue(v, lo, hi), false
		case BoundaryWrap:
			return wrapLow(v, lo, hi), false
		default:
			return v, false
		}
	case v > hi:
		switch maxAction {
		case BoundaryMute:
			return v, true
		case BoundaryClamp:
			return hi, false
		case BoundaryFold:
			return foldValue(v, lo, hi), false
		case BoundaryWrap:
			return wrapHigh(v, lo, hi), false
		default:
			return v, false
		}
	}
	return v, false
}

// ApplyBoundary enforces c's min/max boundary actions on h's
// just-written sample (spec.md §4.6). Lanes whose destination bounds are
// not both known are left untouched. Returns false ("suppress the whole
// emit") if any lane was muted.
func ApplyBoundary(c *Connection, h *value.History) bool {
	if h.Position() < 0 {
		return true
	}
	lanes := h.SlotAt(0)
	muted := false
	for i := range lanes {
		dMin, okMin := c.Rng.destMinLane(i)
		dMax, okMax := c.Rng.destMaxLane(i)
		if !okMin || !okMax {
			continue
		}
		v := lanes[i].Float64()
		nv, m := applyLane(v, dMin, dMax, c.BoundMin, c.BoundMax)
		if m {
			muted = true
			continue
		}
		lanes[i] = value.F64Scalar(nv).Convert(h.Typ)
	}
	return !muted
}
