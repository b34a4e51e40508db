package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldValueScenario(t *testing.T) {
	// spec.md §8 scenario 5: dMin=0, dMax=10, both actions fold.
	assert.InDelta(t, 7.0, foldValue(13, 0, 10), 1e-9)
	assert.InDelta(t, 3.0, foldValue(23, 0, 10), 1e-9)
	assert.InDelta(t, 5.0, foldValue(-5, 0, 10), 1e-9)
}

func TestWrapIsIdempotent(t *testing.T) {
	// spec.md §8 round-trip law: wrap on [dMin,dMax] is idempotent.
	v := wrapHigh(27, 0, 10)
	v2 := applyWrapAgain(v, 0, 10)
	assert.InDelta(t, v, v2, 1e-9)
}

func applyWrapAgain(v, dMin, dMax float64) float64 {
	if v > dMax {
		return wrapHigh(v, dMin, dMax)
	}
	if v < dMin {
		return wrapLow(v, dMin, dMax)
	}
	return v
}

func TestApplyLaneSwapsBoundsAndActionsWhenInverted(t *testing.T) {
	// dMin > dMax: the two actions swap along with the bounds.
	v, muted := applyLane(15, 10, 0, BoundaryClamp, BoundaryNone)
	assert.False(t, muted)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestApplyLaneMuteSuppresses(t *testing.T) {
	_, muted := applyLane(-1, 0, 10, BoundaryMute, BoundaryNone)
	assert.True(t, muted)
}

func TestApplyLaneNoneLeavesValueAlone(t *testing.T) {
	v, muted := applyLane(123, 0, 10, BoundaryNone, BoundaryNone)
	assert.False(t, muted)
	assert.InDelta(t, 123.0, v, 1e-9)
}
