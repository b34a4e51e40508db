package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IDMIL/mapcore/value"
)

func TestSynthesizeLinearExprConstantCase(t *testing.T) {
	src := synthesizeLinearExpr(5, 5, 2, 8)
	assert.Equal(t, "y = 2", src)
}

func TestSynthesizeLinearExprIdentityCase(t *testing.T) {
	src := synthesizeLinearExpr(0, 10, 0, 10)
	assert.Equal(t, "y = x", src)
}

func TestSynthesizeLinearExprScaleCase(t *testing.T) {
	src := synthesizeLinearExpr(0, 10, -1, 1)
	assert.Equal(t, "y = x*0.2 + -1", src)
}

func TestApplyMessageUndefinedChoosesLinearWhenFullyKnown(t *testing.T) {
	c := NewConnection(value.I32, 1, value.F32, 1, nil)
	err := c.ApplyMessage(Message{
		SrcMin:  []value.Scalar{value.I32Scalar(0)},
		SrcMax:  []value.Scalar{value.I32Scalar(10)},
		DestMin: []value.Scalar{value.F32Scalar(0)},
		DestMax: []value.Scalar{value.F32Scalar(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, Linear, c.Mode)
	assert.NotNil(t, c.Compiled)
}

func TestApplyMessageUndefinedChoosesBypassWhenRangeIncomplete(t *testing.T) {
	c := NewConnection(value.I32, 1, value.F32, 1, nil)
	err := c.ApplyMessage(Message{SrcMin: []value.Scalar{value.I32Scalar(0)}})
	require.NoError(t, err)
	assert.Equal(t, Bypass, c.Mode)
}

func TestApplyMessageGenericMinMaxOnlyFillDestWhenMissing(t *testing.T) {
	c := NewConnection(value.I32, 1, value.F32, 1, nil)
	explicitDestMin := []value.Scalar{value.F32Scalar(-5)}
	err := c.ApplyMessage(Message{
		DestMin: explicitDestMin,
		Min:     []value.Scalar{value.F32Scalar(-99)},
	})
	require.NoError(t, err)
	got, ok := c.Rng.destMinLane(0)
	require.True(t, ok)
	assert.InDelta(t, -5.0, got, 1e-9)
}

func TestApplyMessageExpressionDefaultsToIdentity(t *testing.T) {
	c := NewConnection(value.I32, 1, value.I32, 1, nil)
	err := c.ApplyMessage(Message{Mode: strPtr("expression")})
	require.NoError(t, err)
	assert.Equal(t, Expression, c.Mode)
	assert.Equal(t, "y = x", c.ExprSource)
}

func TestApplyMessageCalibrateRequiresDestKnown(t *testing.T) {
	c := NewConnection(value.I32, 1, value.F32, 1, nil)
	err := c.ApplyMessage(Message{Mode: strPtr("calibrate")})
	require.NoError(t, err)
	assert.Equal(t, Undefined, c.Mode)
}

func TestApplyMessageUnrecognizedModeErrors(t *testing.T) {
	c := NewConnection(value.I32, 1, value.I32, 1, nil)
	err := c.ApplyMessage(Message{Mode: strPtr("bogus")})
	assert.Error(t, err)
}

func TestApplyMessageExtraKeysPreserved(t *testing.T) {
	c := NewConnection(value.I32, 1, value.I32, 1, nil)
	err := c.ApplyMessage(Message{Extra: map[string]interface{}{"@custom": "value"}})
	require.NoError(t, err)
	assert.Equal(t, "value", c.Extra["@custom"])
}
