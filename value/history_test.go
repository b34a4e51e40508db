package value

import "testing"

func TestHistoryWriteAndAt(t *testing.T) {
	h := NewHistory(I32, 1, 4, false)

	h.Write([]Scalar{I32Scalar(1)}, 1.0)
	h.Write([]Scalar{I32Scalar(2)}, 2.0)
	h.Write([]Scalar{I32Scalar(3)}, 3.0)

	vec, ts := h.At(0)
	if vec[0].Int32() != 3 || ts != 3.0 {
		t.Errorf("At(0) = %v @ %v, want 3 @ 3.0", vec, ts)
	}

	vec, ts = h.At(1)
	if vec[0].Int32() != 2 || ts != 2.0 {
		t.Errorf("At(1) = %v @ %v, want 2 @ 2.0", vec, ts)
	}

	vec, ts = h.At(2)
	if vec[0].Int32() != 1 || ts != 1.0 {
		t.Errorf("At(2) = %v @ %v, want 1 @ 1.0", vec, ts)
	}
}

func TestHistoryBeforeFirstWriteReadsZero(t *testing.T) {
	h := NewHistory(I32, 1, 4, false)
	vec, ts := h.At(0)
	if vec[0].Int32() != 0 || ts != 0 {
		t.Errorf("expected zero sample before first write, got %v @ %v", vec, ts)
	}
}

func TestHistoryRollback(t *testing.T) {
	h := NewHistory(I32, 1, 4, false)
	h.Write([]Scalar{I32Scalar(1)}, 1.0)
	h.Write([]Scalar{I32Scalar(2)}, 2.0)
	h.RollbackPosition()

	vec, _ := h.At(0)
	if vec[0].Int32() != 1 {
		t.Errorf("after rollback At(0) = %v, want 1", vec)
	}
}

func TestHistoryResizeGrowFromEmpty(t *testing.T) {
	h := NewHistory(I32, 1, 2, false)
	h.Write([]Scalar{I32Scalar(10)}, 1.0)

	h.Resize(5)
	if h.Size() != 5 {
		t.Fatalf("expected size 5, got %d", h.Size())
	}

	vec, ts := h.At(0)
	if vec[0].Int32() != 10 || ts != 1.0 {
		t.Errorf("At(0) after grow = %v @ %v, want 10 @ 1.0", vec, ts)
	}
}

func TestHistoryResizeShrinkContiguous(t *testing.T) {
	h := NewHistory(I32, 1, 8, false)
	for i := int32(1); i <= 5; i++ {
		h.Write([]Scalar{I32Scalar(i)}, float64(i))
	}
	// position is now 4 (0-indexed, 5th write), which meets position >= 2*newSize for newSize=2
	h.Resize(2)
	if h.Size() != 2 {
		t.Fatalf("expected size 2, got %d", h.Size())
	}

	vec, _ := h.At(0)
	if vec[0].Int32() != 5 {
		t.Errorf("At(0) after shrink = %v, want 5", vec)
	}
	vec, _ = h.At(1)
	if vec[0].Int32() != 4 {
		t.Errorf("At(1) after shrink = %v, want 4", vec)
	}
}

func TestHistoryResizeSameSizeIsNoOp(t *testing.T) {
	h := NewHistory(I32, 1, 3, false)
	for i := int32(1); i <= 7; i++ {
		h.Write([]Scalar{I32Scalar(i)}, float64(i))
	}
	// size=3, written 7 times: logical content is {5,6,7} (oldest..newest)
	before := make([]int32, 3)
	for k := 0; k < 3; k++ {
		vec, _ := h.At(k)
		before[k] = vec[0].Int32()
	}

	h.Resize(3) // no-op resize to same size must not disturb anything
	for k := 0; k < 3; k++ {
		vec, _ := h.At(k)
		if vec[0].Int32() != before[k] {
			t.Errorf("no-op resize changed At(%d): got %d want %d", k, vec[0].Int32(), before[k])
		}
	}
}

func TestHistoryOutputResizeResetsPosition(t *testing.T) {
	h := NewHistory(F32, 1, 4, true)
	h.Write([]Scalar{F32Scalar(1)}, 1.0)
	h.Resize(8)

	if h.Position() != -1 {
		t.Errorf("expected output-side resize to reset position to -1, got %d", h.Position())
	}
	vec, _ := h.At(0)
	if vec[0].Float64() != 0 {
		t.Errorf("expected zeroed output history after resize, got %v", vec)
	}
}

func TestScalarConvert(t *testing.T) {
	s := F32Scalar(3.7)
	i := s.Convert(I32)
	if i.Int32() != 3 {
		t.Errorf("truncating convert = %d, want 3", i.Int32())
	}

	d := I32Scalar(5).Convert(F64)
	if d.Float64() != 5.0 {
		t.Errorf("widening convert = %v, want 5.0", d.Float64())
	}
}

func TestWidest(t *testing.T) {
	if Widest(I32, F32) != F32 {
		t.Error("expected F32 to win over I32")
	}
	if Widest(F32, F64) != F64 {
		t.Error("expected F64 to win over F32")
	}
	if Widest(I32, I32) != I32 {
		t.Error("expected I32 to stay I32")
	}
}
