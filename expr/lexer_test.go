package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IDMIL/mapcore/value"
)

func TestLexAllBasicTokens(t *testing.T) {
	toks, err := lexAll("y = x + 1")
	require.NoError(t, err)
	var kinds []lexKind
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	assert.Equal(t, []lexKind{lexIdent, lexOp, lexIdent, lexOp, lexNumber, lexEnd}, kinds)
}

func TestLexUnaryMinusAfterOperator(t *testing.T) {
	toks, err := lexAll("y = -x")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, "neg", toks[2].text)
}

func TestLexBinaryMinusAfterIdent(t *testing.T) {
	toks, err := lexAll("y = x - 1")
	require.NoError(t, err)
	var found bool
	for _, tok := range toks {
		if tok.kind == lexOp && tok.text == "-" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLexFloatConstant(t *testing.T) {
	toks, err := lexAll("y = 3.5")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, value.F32, toks[2].typ)
	assert.InDelta(t, 3.5, toks[2].numF, 1e-9)
}

func TestLexIntConstant(t *testing.T) {
	toks, err := lexAll("y = 42")
	require.NoError(t, err)
	assert.Equal(t, value.I32, toks[2].typ)
	assert.Equal(t, int32(42), toks[2].numI)
}

func TestLexUnknownIdentifierFails(t *testing.T) {
	_, err := lexAll("y = bogus(x)")
	require.Error(t, err)
}

func TestLexMultiCharOperators(t *testing.T) {
	toks, err := lexAll("y = x <= 1 && x >= 0")
	require.NoError(t, err)
	var ops []string
	for _, tok := range toks {
		if tok.kind == lexOp {
			ops = append(ops, tok.text)
		}
	}
	assert.Equal(t, []string{"=", "<=", "&&", ">="}, ops)
}

func TestLexHistoryAndVectorSuffixes(t *testing.T) {
	toks, err := lexAll("y{-1} = x[0:1]")
	require.NoError(t, err)
	var kinds []lexKind
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	assert.Contains(t, kinds, lexLBrace)
	assert.Contains(t, kinds, lexLBracket)
	assert.Contains(t, kinds, lexColon)
}
