// Package expr implements the expression compiler and evaluator of
// spec.md §4.1–4.3: a lexer, a shunting-yard-equivalent parser (written as
// precedence-climbing recursive descent, the same technique the teacher's
// own debugger expression parser uses) with interleaved type/vector-length
// inference and constant folding, and a stack-machine evaluator.
package expr

import (
	"fmt"

	"github.com/IDMIL/mapcore/mapcoreerr"
	"github.com/IDMIL/mapcore/value"
)

const (
	minXHistory = -100
	maxXHistory = 0
	minYHistory = -100
	maxYHistory = -1
)

// node carries the type/width/const metadata threaded through parsing so
// each operator can promote, width-check and fold as it completes
// (spec.md §4.2's "local type/vector check" pass, done here per recursive
// production instead of via a separate window scan over the output
// stack — an equivalent formulation of the same algorithm).
type node struct {
	typ      value.Type
	width    int
	locked   bool
	isConst  bool
	constVec []value.Scalar
}

type parseCtx struct {
	toks     []lexToken
	pos      int
	out      []Token
	src      string
	srcType  value.Type
	srcLen   int
	destType value.Type
	destLen  int
	maxStack int

	stackDepth   int
	maxDepthSeen int
	minXHistSeen int // most negative x{k} seen (<=0); 0 if none
	minYHistSeen int // most negative y{k} seen (<=-1 normally); 0 if none referenced
}

func (p *parseCtx) cur() lexToken {
	if p.pos >= len(p.toks) {
		return lexToken{kind: lexEnd}
	}
	return p.toks[p.pos]
}

func (p *parseCtx) advance() lexToken {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func compileErr(format string, args ...interface{}) error {
	return &mapcoreerr.Error{Kind: mapcoreerr.CompileError, Message: fmt.Sprintf(format, args...)}
}

// positionAt converts a byte offset into src to a line/column, for error
// messages raised mid-parse (spec.md §4.1's lexer tracks offsets for
// exactly this purpose).
func positionAt(src string, offset int) mapcoreerr.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return mapcoreerr.Position{Offset: offset, Line: line, Column: col}
}

// errf raises a compile error at the parser's current token position
// (spec.md §7 "compile errors carry a source position").
func (p *parseCtx) errf(format string, args ...interface{}) error {
	return mapcoreerr.NewAt(mapcoreerr.CompileError, positionAt(p.src, p.cur().offset), fmt.Sprintf(format, args...))
}

func (p *parseCtx) push() {
	p.stackDepth++
	if p.stackDepth > p.maxDepthSeen {
		p.maxDepthSeen = p.stackDepth
	}
}

func (p *parseCtx) popN(n int) error {
	p.stackDepth -= n
	if p.stackDepth < 0 {
		return p.errf("stack underflow")
	}
	return nil
}

// Compile parses source into a Compiled expression. srcType/srcLen and
// destType/destLen describe the signal types x and y resolve against.
func Compile(source string, srcType value.Type, srcLen int, destType value.Type, destLen int, maxStackDepth int) (*Compiled, error) {
	if maxStackDepth <= 0 {
		maxStackDepth = 128
	}
	segments, err := splitTopLevel(source)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, compileErr("empty expression")
	}

	var allTokens []Token
	maxVecSize := 1
	minXHist := 0
	minYHist := 0
	maxDepth := 0

	for _, seg := range segments {
		toks, err := lexAll(seg)
		if err != nil {
			return nil, err
		}
		p := &parseCtx{
			toks:     toks,
			src:      seg,
			srcType:  srcType,
			srcLen:   srcLen,
			destType: destType,
			destLen:  destLen,
			maxStack: maxStackDepth,
		}
		if err := p.parseStatement(); err != nil {
			return nil, err
		}
		if p.cur().kind != lexEnd {
			return nil, p.errf("unexpected trailing input near %q", p.cur().text)
		}
		allTokens = append(allTokens, p.out...)
		if p.maxDepthSeen > maxStackDepth {
			return nil, p.errf("expression exceeds maximum stack depth %d", maxStackDepth)
		}
		for _, t := range p.out {
			if t.VecWidth > maxVecSize {
				maxVecSize = t.VecWidth
			}
		}
		if p.minXHistSeen < minXHist {
			minXHist = p.minXHistSeen
		}
		if p.minYHistSeen < minYHist {
			minYHist = p.minYHistSeen
		}
		if p.maxDepthSeen > maxDepth {
			maxDepth = p.maxDepthSeen
		}
	}

	return &Compiled{
		Source:            source,
		Tokens:            allTokens,
		VectorSize:        maxVecSize,
		InputHistorySize:  1 - minXHist,
		OutputHistorySize: 1 - minYHist,
	}, nil
}

// parseStatement parses one "target = rhs" assignment, appending its RPN
// tokens (including the trailing assignment token) to p.out.
func (p *parseCtx) parseStatement() error {
	if p.cur().kind != lexIdent || p.cur().text != "y" {
		return p.errf("expression must begin with assignment target 'y', got %q", p.cur().text)
	}
	p.advance()

	vecStart := 0
	vecWidth := p.destLen
	if p.cur().kind == lexLBracket {
		p.advance()
		lo, err := p.parseIndexInt()
		if err != nil {
			return err
		}
		hi := lo
		if p.cur().kind == lexColon {
			p.advance()
			hi, err = p.parseIndexInt()
			if err != nil {
				return err
			}
		}
		if lo < 0 || hi < lo || hi >= p.destLen {
			return p.errf("vector index [%d:%d] out of range for length %d", lo, hi, p.destLen)
		}
		if p.cur().kind != lexRBracket {
			return p.errf("expected ']' in assignment target")
		}
		p.advance()
		vecStart = lo
		vecWidth = hi - lo + 1
	}

	histIndex := 0
	if p.cur().kind == lexLBrace {
		p.advance()
		k, err := p.parseIndexInt()
		if err != nil {
			return err
		}
		if k < minYHistory || k > maxYHistory {
			return p.errf("history index {%d} out of range [%d,%d] for y", k, minYHistory, maxYHistory)
		}
		if p.cur().kind != lexRBrace {
			return p.errf("expected '}' in assignment target")
		}
		p.advance()
		histIndex = k
	}

	if p.cur().kind != lexOp || p.cur().text != "=" {
		return p.errf("expected '=' in assignment statement")
	}
	p.advance()

	n, err := p.parseTernary()
	if err != nil {
		return err
	}
	if n.width != vecWidth {
		return p.errf("assignment target width %d does not match right-hand side width %d", vecWidth, n.width)
	}
	if histIndex != 0 {
		if histIndex < p.minYHistSeen {
			p.minYHistSeen = histIndex
		}
	}

	if err := p.popN(1); err != nil {
		return err
	}
	p.out = append(p.out, Token{
		Kind:         KindAssignment,
		Datatype:     n.typ,
		VecWidth:     vecWidth,
		VecStart:     vecStart,
		HistoryIndex: histIndex,
		Arity:        1,
	})
	return nil
}

func (p *parseCtx) parseIndexInt() (int, error) {
	neg := false
	if p.cur().kind == lexOp && p.cur().text == "neg" {
		neg = true
		p.advance()
	}
	t := p.cur()
	if t.kind != lexNumber || t.typ != value.I32 {
		return 0, p.errf("expected integer index, got %q", t.text)
	}
	p.advance()
	if neg {
		return -int(t.numI), nil
	}
	return int(t.numI), nil
}

// --- ternary / binary precedence climbing ---

func (p *parseCtx) parseTernary() (node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return node{}, err
	}
	if p.cur().kind != lexQuestion {
		return cond, nil
	}
	p.advance()

	thenN, err := p.parseTernary()
	if err != nil {
		return node{}, err
	}
	hasElse := false
	var elseN node
	if p.cur().kind == lexColon {
		p.advance()
		hasElse = true
		elseN, err = p.parseTernary()
		if err != nil {
			return node{}, err
		}
	}

	width := thenN.width
	if hasElse && elseN.width != thenN.width {
		return node{}, p.errf("conditional branches have mismatched vector lengths %d and %d", thenN.width, elseN.width)
	}
	typ := thenN.typ
	if hasElse {
		typ = value.Widest(thenN.typ, elseN.typ)
	}

	arity := 2
	if hasElse {
		arity = 3
	}
	if err := p.popN(arity); err != nil {
		return node{}, err
	}
	p.push()
	p.out = append(p.out, Token{
		Kind:     KindOperator,
		OpName:   "?:",
		Datatype: typ,
		VecWidth: width,
		Arity:    arity,
	})
	return node{typ: typ, width: width, locked: cond.locked || thenN.locked}, nil
}

var precedenceTable = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parseCtx) parseBinary(level int) (node, error) {
	if level >= len(precedenceTable) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return node{}, err
	}
	for {
		t := p.cur()
		if t.kind != lexOp || !containsOp(precedenceTable[level], t.text) {
			return left, nil
		}
		p.advance()
		leftRootIdx := len(p.out) - 1

		right, err := p.parseBinary(level + 1)
		if err != nil {
			return node{}, err
		}
		rightRootIdx := len(p.out) - 1

		left, err = p.combineBinary(t.text, left, right, leftRootIdx, rightRootIdx)
		if err != nil {
			return node{}, err
		}
	}
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func isComparisonOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "!=", "&&", "||":
		return true
	default:
		return false
	}
}

// combineBinary finalizes a binary operator node: promotes operand
// datatypes (casting the non-widest child's already-emitted root token),
// checks vector-length compatibility, folds if both operands are constant,
// and otherwise emits the operator token.
func (p *parseCtx) combineBinary(op string, left, right node, leftRootIdx, rightRootIdx int) (node, error) {
	width, err := combineWidth(left, right)
	if err != nil {
		return node{}, err
	}

	opTyp := value.Widest(left.typ, right.typ)
	typ := opTyp
	if isComparisonOp(op) {
		// comparisons and logical ops always yield i32 truth values
		typ = value.I32
	}
	if left.typ != opTyp && leftRootIdx >= 0 && leftRootIdx < len(p.out) {
		ct := opTyp
		p.out[leftRootIdx].CastType = &ct
	}
	if right.typ != opTyp && rightRootIdx >= 0 && rightRootIdx < len(p.out) {
		ct := opTyp
		p.out[rightRootIdx].CastType = &ct
	}

	if left.isConst && right.isConst && width == 1 {
		folded, err := foldBinary(op, typ, width, left, right)
		if err != nil {
			return node{}, err
		}
		p.out = p.out[:min(leftRootIdx, rightRootIdx)]
		if leftRootIdx > rightRootIdx {
			p.out = p.out[:rightRootIdx]
		} else {
			p.out = p.out[:leftRootIdx]
		}
		p.out = append(p.out, Token{Kind: KindConst, ConstValue: folded.constVec[0], Datatype: typ, VecWidth: width, WidthLocked: left.locked || right.locked})
		return folded, nil
	}

	if err := p.popN(2); err != nil {
		return node{}, err
	}
	p.push()
	p.out = append(p.out, Token{
		Kind:     KindOperator,
		OpName:   op,
		Datatype: typ,
		VecWidth: width,
		Arity:    2,
	})
	return node{typ: typ, width: width, locked: left.locked || right.locked}, nil
}

func combineWidth(left, right node) (int, error) {
	if left.width == right.width {
		return left.width, nil
	}
	if left.locked && right.locked {
		return 0, compileErr("mismatched locked vector lengths %d and %d", left.width, right.width)
	}
	if left.width == 1 {
		return right.width, nil
	}
	if right.width == 1 {
		return left.width, nil
	}
	return 0, compileErr("mismatched vector lengths %d and %d", left.width, right.width)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (p *parseCtx) parseUnary() (node, error) {
	t := p.cur()
	if t.kind == lexOp && (t.text == "neg" || t.text == "!") {
		p.advance()
		start := len(p.out)
		operand, err := p.parseUnary()
		if err != nil {
			return node{}, err
		}

		typ := operand.typ
		if t.text == "!" {
			typ = value.I32
		}

		if operand.isConst && operand.width == 1 {
			folded := foldUnary(t.text, typ, operand)
			p.out = p.out[:start]
			p.out = append(p.out, Token{Kind: KindConst, ConstValue: folded.constVec[0], Datatype: typ, VecWidth: operand.width})
			return folded, nil
		}

		if err := p.popN(1); err != nil {
			return node{}, err
		}
		p.push()
		opName := "neg"
		if t.text == "!" {
			opName = "!"
		}
		p.out = append(p.out, Token{Kind: KindOperator, OpName: opName, Datatype: typ, VecWidth: operand.width, Arity: 1})
		return node{typ: typ, width: operand.width, locked: operand.locked}, nil
	}
	return p.parsePrimary()
}
