package connection

import "fmt"

// Mode selects the per-sample transformation a connection applies
// (spec.md §3 "Connection", §4.4).
type Mode int

const (
	// Undefined is the mode a connection starts in before any property
	// message has chosen one.
	Undefined Mode = iota
	// Bypass copies the sample across with per-element type conversion.
	Bypass
	// Linear applies an auto-synthesized scale/offset expression.
	Linear
	// Expression evaluates a user-supplied expression string.
	Expression
	// Calibrate widens the observed source range each sample and
	// continuously re-synthesizes the linear mapping.
	Calibrate
	// Reverse is structurally identical to bypass; source/destination
	// roles are swapped by the transport, not by the processor.
	Reverse
)

func (m Mode) String() string {
	switch m {
	case Undefined:
		return "undefined"
	case Bypass:
		return "bypass"
	case Linear:
		return "linear"
	case Expression:
		return "expression"
	case Calibrate:
		return "calibrate"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode resolves one of the @mode property strings (spec.md §6).
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "bypass":
		return Bypass, true
	case "linear":
		return Linear, true
	case "expression":
		return Expression, true
	case "calibrate":
		return Calibrate, true
	case "reverse":
		return Reverse, true
	default:
		return Undefined, false
	}
}

// BoundaryAction is the policy applied to an out-of-range destination lane
// (spec.md §4.6).
type BoundaryAction int

const (
	// BoundaryNone leaves an out-of-range value untouched.
	BoundaryNone BoundaryAction = iota
	// BoundaryMute marks the lane (and so the whole sample) suppressed.
	BoundaryMute
	// BoundaryClamp pins the value to the violated bound.
	BoundaryClamp
	// BoundaryFold reflects the value back into range.
	BoundaryFold
	// BoundaryWrap wraps the value modulo the range width.
	BoundaryWrap
)

func (b BoundaryAction) String() string {
	switch b {
	case BoundaryNone:
		return "none"
	case BoundaryMute:
		return "mute"
	case BoundaryClamp:
		return "clamp"
	case BoundaryFold:
		return "fold"
	case BoundaryWrap:
		return "wrap"
	default:
		return fmt.Sprintf("BoundaryAction(%d)", int(b))
	}
}

// ParseBoundaryAction resolves one of the @boundMin/@boundMax property
// strings (spec.md §6).
func ParseBoundaryAction(s string) (BoundaryAction, bool) {
	switch s {
	case "none":
		return BoundaryNone, true
	case "mute":
		return BoundaryMute, true
	case "clamp":
		return BoundaryClamp, true
	case "fold":
		return BoundaryFold, true
	case "wrap":
		return BoundaryWrap, true
	default:
		return BoundaryNone, false
	}
}
