package expr

import (
	"strings"

	"github.com/IDMIL/mapcore/mapcoreerr"
	"github.com/IDMIL/mapcore/value"
)

// splitTopLevel splits a full expression source into its comma-separated
// top-level assignment statements, respecting (), [], {} nesting so that
// function-call and vector-literal commas are not mistaken for statement
// separators. A vector literal is itself a bracketed "[...]", so its
// internal commas sit at depth > 0 and are never split here.
func splitTopLevel(src string) ([]string, error) {
	depth := 0
	start := 0
	var segs []string
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, compileErr("unbalanced brackets in expression")
			}
		case ',':
			if depth == 0 {
				segs = append(segs, src[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, compileErr("unbalanced brackets in expression")
	}
	last := strings.TrimSpace(src[start:])
	if last != "" {
		segs = append(segs, last)
	}
	return segs, nil
}

// parsePrimary handles literals, variables (with optional [idx]/{hist}
// suffixes), parenthesized subexpressions, function calls and vector
// literals "[a,b,c]" (spec.md §4.1's primary production).
func (p *parseCtx) parsePrimary() (node, error) {
	t := p.cur()
	switch t.kind {
	case lexNumber:
		p.advance()
		var s value.Scalar
		if t.typ == value.I32 {
			s = value.I32Scalar(t.numI)
		} else {
			s = value.F32Scalar(float32(t.numF))
		}
		p.push()
		p.out = append(p.out, Token{Kind: KindConst, ConstValue: s, Datatype: t.typ, VecWidth: 1})
		return node{typ: t.typ, width: 1, isConst: true, constVec: []value.Scalar{s}}, nil

	case lexLParen:
		p.advance()
		n, err := p.parseTernary()
		if err != nil {
			return node{}, err
		}
		if p.cur().kind != lexRParen {
			return node{}, compileErr("expected ')'")
		}
		p.advance()
		return n, nil

	case lexLBracket:
		return p.parseVectorLiteral()

	case lexIdent:
		switch {
		case t.text == "x" || t.text == "y":
			return p.parseVariable()
		default:
			return p.parseCall(t.text)
		}
	}
	return node{}, compileErr("unexpected token %q", t.text)
}

func (p *parseCtx) parseVariable() (node, error) {
	name := p.advance().text
	isDest := name == "y"

	start := 0
	width := p.srcLen
	typ := p.srcType
	if isDest {
		width = p.destLen
		typ = p.destType
	}
	locked := false

	if p.cur().kind == lexLBracket {
		p.advance()
		lo, err := p.parseIndexInt()
		if err != nil {
			return node{}, err
		}
		hi := lo
		if p.cur().kind == lexColon {
			p.advance()
			hi, err = p.parseIndexInt()
			if err != nil {
				return node{}, err
			}
		}
		bound := p.srcLen
		if isDest {
			bound = p.destLen
		}
		if lo < 0 || hi < lo || hi >= bound {
			return node{}, compileErr("vector index [%d:%d] out of range for length %d", lo, hi, bound)
		}
		if p.cur().kind != lexRBracket {
			return node{}, compileErr("expected ']'")
		}
		p.advance()
		start = lo
		width = hi - lo + 1
		locked = true
	}

	histIndex := 0
	if p.cur().kind == lexLBrace {
		p.advance()
		k, err := p.parseIndexInt()
		if err != nil {
			return node{}, err
		}
		lo, hi := minXHistory, maxXHistory
		if isDest {
			lo, hi = minYHistory, maxYHistory
		}
		if k < lo || k > hi {
			return node{}, compileErr("history index {%d} out of range [%d,%d]", k, lo, hi)
		}
		if p.cur().kind != lexRBrace {
			return node{}, compileErr("expected '}'")
		}
		p.advance()
		histIndex = k
		if isDest {
			if histIndex < p.minYHistSeen {
				p.minYHistSeen = histIndex
			}
		} else {
			if histIndex < p.minXHistSeen {
				p.minXHistSeen = histIndex
			}
		}
	}

	p.push()
	p.out = append(p.out, Token{
		Kind:         KindVariable,
		VarName:      name,
		Datatype:     typ,
		VecWidth:     width,
		VecStart:     start,
		HistoryIndex: histIndex,
	})
	return node{typ: typ, width: width, locked: locked}, nil
}

func (p *parseCtx) parseVectorLiteral() (node, error) {
	p.advance() // consume '['
	start := len(p.out)
	var elems []node
	for {
		n, err := p.parseTernary()
		if err != nil {
			return node{}, err
		}
		elems = append(elems, n)
		if p.cur().kind == lexComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().kind != lexRBracket {
		return node{}, compileErr("expected ']' to close vector literal")
	}
	p.advance()

	typ := elems[0].typ
	allConst := true
	for _, e := range elems {
		typ = value.Widest(typ, e.typ)
		if !e.isConst {
			allConst = false
		}
	}
	width := len(elems)

	if allConst {
		var vec []value.Scalar
		for _, e := range elems {
			vec = append(vec, e.constVec[0].Convert(typ))
		}
		p.out = p.out[:start]
		for _, s := range vec {
			p.out = append(p.out, Token{Kind: KindConst, ConstValue: s, Datatype: typ, VecWidth: 1})
		}
		if err := p.popN(len(elems)); err != nil {
			return node{}, err
		}
		p.push()
		p.out = append(p.out, Token{Kind: KindVectorize, Datatype: typ, VecWidth: width, WidthLocked: true, Arity: width})
		return node{typ: typ, width: width, locked: true, isConst: true, constVec: vec}, nil
	}

	if err := p.popN(len(elems)); err != nil {
		return node{}, err
	}
	p.push()
	p.out = append(p.out, Token{Kind: KindVectorize, Datatype: typ, VecWidth: width, WidthLocked: true, Arity: len(elems)})
	return node{typ: typ, width: width, locked: true}, nil
}

func (p *parseCtx) parseCall(name string) (node, error) {
	p.advance()
	if p.cur().kind != lexLParen {
		return node{}, compileErr("expected '(' after function name %q", name)
	}
	p.advance()

	var args []node
	start := len(p.out)
	if p.cur().kind != lexRParen {
		for {
			a, err := p.parseTernary()
			if err != nil {
				return node{}, err
			}
			args = append(args, a)
			if p.cur().kind == lexComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != lexRParen {
		return node{}, compileErr("expected ')' to close call to %q", name)
	}
	p.advance()

	if vf, ok := lookupVectorFunction(name); ok {
		if len(args) != 1 {
			return node{}, compileErr("%q takes exactly one vector argument", name)
		}
		arg := args[0]
		if arg.isConst {
			lanes := make([]float64, len(arg.constVec))
			for i, s := range arg.constVec {
				lanes[i] = s.Float64()
			}
			result := vf(lanes)
			p.out = p.out[:start]
			s := value.F64Scalar(result).Convert(value.F32)
			p.out = append(p.out, Token{Kind: KindConst, ConstValue: s, Datatype: value.F32, VecWidth: 1})
			return node{typ: value.F32, width: 1, isConst: true, constVec: []value.Scalar{s}}, nil
		}
		if err := p.popN(1); err != nil {
			return node{}, err
		}
		p.push()
		p.out = append(p.out, Token{Kind: KindVectorFunction, OpName: name, Datatype: value.F32, VecWidth: 1, Arity: 1})
		return node{typ: value.F32, width: 1}, nil
	}

	fn, ok := lookupFunction(name)
	if !ok {
		return node{}, compileErr("unknown function %q", name)
	}
	if len(args) != fn.arity {
		return node{}, compileErr("function %q expects %d argument(s), got %d", name, fn.arity, len(args))
	}

	width := 1
	allConst := fn.deterministic
	for _, a := range args {
		if a.width != 1 {
			if width != 1 && width != a.width {
				return node{}, compileErr("mismatched vector lengths in arguments to %q", name)
			}
			width = a.width
		}
		if !a.isConst {
			allConst = false
		}
	}
	if width != 1 {
		allConst = false
	}

	if allConst {
		lanes := make([]float64, len(args))
		for i, a := range args {
			lanes[i] = a.constVec[0].Float64()
		}
		result := fn.apply(lanes, nil)
		p.out = p.out[:start]
		s := value.F64Scalar(result).Convert(value.F32)
		p.out = append(p.out, Token{Kind: KindConst, ConstValue: s, Datatype: value.F32, VecWidth: 1})
		return node{typ: value.F32, width: 1, isConst: true, constVec: []value.Scalar{s}}, nil
	}

	if err := p.popN(len(args)); err != nil {
		return node{}, err
	}
	p.push()
	p.out = append(p.out, Token{Kind: KindFunction, OpName: name, Datatype: value.F32, VecWidth: width, Arity: len(args)})
	return node{typ: value.F32, width: width}, nil
}

// foldBinary and foldUnary evaluate a fully-constant subtree at compile
// time (spec.md §4.2 rule 4). Only scalar (width-1) folds are performed;
// wider constant subtrees are emitted as ordinary tokens and evaluated at
// run time.
func foldBinary(op string, typ value.Type, width int, left, right node) (node, error) {
	if width != 1 {
		return node{}, &mapcoreerr.Error{Kind: mapcoreerr.CompileError, Message: "cannot fold vector-width binary operator " + op}
	}
	a := left.constVec[0].Float64()
	b := right.constVec[0].Float64()
	var r float64
	switch op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		r = a / b
	case "%":
		ai, bi := int64(a), int64(b)
		if bi == 0 {
			r = 0
		} else {
			r = float64(ai % bi)
		}
	case "<<":
		r = float64(int64(a) << uint(int64(b)))
	case ">>":
		r = float64(int64(a) >> uint(int64(b)))
	case "&":
		r = float64(int64(a) & int64(b))
	case "|":
		r = float64(int64(a) | int64(b))
	case "^":
		r = float64(int64(a) ^ int64(b))
	case "<":
		r = boolToF(a < b)
	case "<=":
		r = boolToF(a <= b)
	case ">":
		r = boolToF(a > b)
	case ">=":
		r = boolToF(a >= b)
	case "==":
		r = boolToF(a == b)
	case "!=":
		r = boolToF(a != b)
	case "&&":
		r = boolToF(a != 0 && b != 0)
	case "||":
		r = boolToF(a != 0 || b != 0)
	case "?:":
		return node{}, &mapcoreerr.Error{Kind: mapcoreerr.CompileError, Message: "ternary folding handled separately"}
	default:
		return node{}, &mapcoreerr.Error{Kind: mapcoreerr.CompileError, Message: "unknown operator " + op}
	}
	s := value.F64Scalar(r).Convert(typ)
	return node{typ: typ, width: 1, isConst: true, constVec: []value.Scalar{s}}, nil
}

func foldUnary(op string, typ value.Type, operand node) node {
	a := operand.constVec[0].Float64()
	var r float64
	switch op {
	case "neg":
		r = -a
	case "!":
		r = boolToF(a == 0)
	}
	s := value.F64Scalar(r).Convert(typ)
	return node{typ: typ, width: operand.width, isConst: true, constVec: []value.Scalar{s}}
}

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
