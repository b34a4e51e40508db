package value

import (
	"math"

	"github.com/IDMIL/mapcore/mapcoreerr"
)

// SafeFloatToInt32 converts a float64 to int32 only when it fits losslessly
// as a truncation target; spec.md §6 requires writing an f/d sample into an
// i-typed signal to fail outright rather than silently truncate a caller's
// array update. A fractional value is never lossless, regardless of range.
func SafeFloatToInt32(v float64) (int32, error) {
	if v != v { // NaN
		return 0, mapcoreerr.New(mapcoreerr.Truncation, "cannot convert NaN to i32")
	}
	if v > 2147483647 || v < -2147483648 {
		return 0, mapcoreerr.New(mapcoreerr.Truncation, "float value exceeds i32 range")
	}
	if v != math.Trunc(v) {
		return 0, mapcoreerr.New(mapcoreerr.Truncation, "fractional value cannot be written losslessly to i32")
	}
	return int32(v), nil
}

// SafeVectorLength validates that an incoming vector matches the signal's
// declared length exactly (spec.md §6 "length error").
func SafeVectorLength(got, want int) error {
	if got != want {
		return mapcoreerr.New(mapcoreerr.LengthMismatch, "vector length does not match signal length")
	}
	return nil
}

// IngestUpdate validates and converts a raw signal update against h's
// declared length and element type, modelling the external signal-update
// interface's enforcement at the transport/core boundary (spec.md §6):
// the update is rejected outright, rather than silently reshaped, on a
// length mismatch or on an f/d-to-i32 write that would truncate. Widening
// conversions (i32/f32 into f64, i32 into f32) are always permitted.
func IngestUpdate(h *History, raw []float64) ([]Scalar, error) {
	if err := SafeVectorLength(len(raw), h.Length); err != nil {
		return nil, err
	}
	out := make([]Scalar, len(raw))
	for i, v := range raw {
		if h.Typ == I32 {
			iv, err := SafeFloatToInt32(v)
			if err != nil {
				return nil, err
			}
			out[i] = I32Scalar(iv)
			continue
		}
		out[i] = F64Scalar(v).Convert(h.Typ)
	}
	return out, nil
}
