package value

import (
	"testing"

	"github.com/IDMIL/mapcore/mapcoreerr"
)

func TestSafeFloatToInt32Lossless(t *testing.T) {
	v, err := SafeFloatToInt32(42)
	if err != nil || v != 42 {
		t.Errorf("SafeFloatToInt32(42) = %v, %v, want 42, nil", v, err)
	}
}

func TestSafeFloatToInt32RejectsNaN(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	_, err := SafeFloatToInt32(nan)
	if !mapcoreerr.Is(err, mapcoreerr.Truncation) {
		t.Errorf("SafeFloatToInt32(NaN) = %v, want a Truncation error", err)
	}
}

func TestSafeFloatToInt32RejectsOutOfRange(t *testing.T) {
	_, err := SafeFloatToInt32(1e20)
	if !mapcoreerr.Is(err, mapcoreerr.Truncation) {
		t.Errorf("SafeFloatToInt32(1e20) = %v, want a Truncation error", err)
	}
}

func TestSafeVectorLength(t *testing.T) {
	if err := SafeVectorLength(3, 3); err != nil {
		t.Errorf("SafeVectorLength(3,3) = %v, want nil", err)
	}
	err := SafeVectorLength(2, 3)
	if !mapcoreerr.Is(err, mapcoreerr.LengthMismatch) {
		t.Errorf("SafeVectorLength(2,3) = %v, want a LengthMismatch error", err)
	}
}

func TestIngestUpdateRejectsLengthMismatch(t *testing.T) {
	h := NewHistory(F32, 2, 4, false)
	_, err := IngestUpdate(h, []float64{1})
	if !mapcoreerr.Is(err, mapcoreerr.LengthMismatch) {
		t.Errorf("IngestUpdate with wrong length = %v, want a LengthMismatch error", err)
	}
}

func TestIngestUpdateRejectsFloatTruncationIntoI32Signal(t *testing.T) {
	h := NewHistory(I32, 1, 4, false)
	_, err := IngestUpdate(h, []float64{1.5})
	if !mapcoreerr.Is(err, mapcoreerr.Truncation) {
		t.Errorf("IngestUpdate(1.5 into i32) = %v, want a Truncation error", err)
	}
}

func TestIngestUpdateWidensIntoFloatSignal(t *testing.T) {
	h := NewHistory(F64, 2, 4, false)
	out, err := IngestUpdate(h, []float64{1, 2.5})
	if err != nil {
		t.Fatalf("IngestUpdate = %v, want nil error", err)
	}
	if out[0].Float64() != 1 || out[1].Float64() != 2.5 {
		t.Errorf("IngestUpdate vals = %v, want [1, 2.5]", out)
	}
}
