package value

// Scalar is a tagged union over {i32, f32, f64}. Conversion is explicit:
// lossy from f* to i32 (truncation), lossless widening otherwise.
type Scalar struct {
	Typ Type
	I   int32
	F   float32
	D   float64
}

// I32Scalar constructs an i32-typed scalar.
func I32Scalar(v int32) Scalar { return Scalar{Typ: I32, I: v} }

// F32Scalar constructs an f32-typed scalar.
func F32Scalar(v float32) Scalar { return Scalar{Typ: F32, F: v} }

// F64Scalar constructs an f64-typed scalar.
func F64Scalar(v float64) Scalar { return Scalar{Typ: F64, D: v} }

// Float64 widens the scalar to a float64 regardless of its tag.
func (s Scalar) Float64() float64 {
	switch s.Typ {
	case I32:
		return float64(s.I)
	case F32:
		return float64(s.F)
	default:
		return s.D
	}
}

// Int32 narrows the scalar to an int32, truncating any fractional part.
func (s Scalar) Int32() int32 {
	switch s.Typ {
	case I32:
		return s.I
	case F32:
		return int32(s.F)
	default:
		return int32(s.D)
	}
}

// Convert returns the scalar re-tagged as typ, applying spec.md §3's
// explicit lossy-narrowing / lossless-widening conversion rule.
func (s Scalar) Convert(typ Type) Scalar {
	if s.Typ == typ {
		return s
	}
	switch typ {
	case I32:
		return I32Scalar(s.Int32())
	case F32:
		return F32Scalar(float32(s.Float64()))
	default:
		return F64Scalar(s.Float64())
	}
}

// ZeroScalar returns the zero value for typ.
func ZeroScalar(typ Type) Scalar {
	switch typ {
	case I32:
		return I32Scalar(0)
	case F32:
		return F32Scalar(0)
	default:
		return F64Scalar(0)
	}
}
