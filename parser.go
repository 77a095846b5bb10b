package xlcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a formula body (the leading = already stripped by the
// caller) into an AST. Binding from loosest to tightest: comparisons
// (non-chaining), text concatenation &, additive + -, multiplicative * /,
// exponentiation ^ (right-associative), unary sign, percent postfix,
// primaries. Failure is a *SyntaxError or *UnsupportedConstructError.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		if err := intersectionErr(tok); err != nil {
			return nil, err
		}
		return nil, &SyntaxError{Pos: tok.pos, Expected: "end of formula", Got: tok.describe()}
	}
	return node, nil
}

// intersectionErr classifies a cell reference sitting directly after a
// complete operand: that is the intersection syntax (the space operator),
// not trailing garbage. Checked wherever the grammar expects a separator
// or terminator, so SUM(A1 B1) and (A1 B1) report the same construct as
// A1 B1 at top level.
func intersectionErr(tok token) error {
	if tok.kind != tokenName && tok.kind != tokenRef {
		return nil
	}
	if _, err := ParseCellRef(tok.text); err != nil {
		return nil
	}
	return &UnsupportedConstructError{Pos: tok.pos, Construct: "reference intersection (space operator)"}
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	p.i++
	return t
}

func comparisonOp(kind tokenKind) (string, bool) {
	switch kind {
	case tokenEq:
		return "=", true
	case tokenNe:
		return "<>", true
	case tokenLt:
		return "<", true
	case tokenLe:
		return "<=", true
	case tokenGt:
		return ">", true
	case tokenGe:
		return ">=", true
	}
	return "", false
}

// parseComparison handles the lowest-binding level. Comparisons do not
// chain: a second comparison operator at the same level is an error, so
// =1<2<3 is rejected while =(1<2)=(2<3) parses.
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOp(p.peek().kind)
	if !ok {
		return left, nil
	}
	tok := p.next()
	right, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if again := p.peek(); isComparison(again.kind) {
		return nil, &SyntaxError{Pos: again.pos, Expected: "end of comparison (comparisons do not chain)", Got: again.describe()}
	}
	return &Binary{Op: op, Left: left, Right: right, pos: tok.pos}, nil
}

func isComparison(kind tokenKind) bool {
	_, ok := comparisonOp(kind)
	return ok
}

func (p *parser) parseConcat() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAmp {
		tok := p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "&", Left: left, Right: right, pos: tok.pos}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokenPlus:
			op = "+"
		case tokenMinus:
			op = "-"
		default:
			return left, nil
		}
		tok := p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right, pos: tok.pos}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokenStar:
			op = "*"
		case tokenSlash:
			op = "/"
		default:
			return left, nil
		}
		tok := p.next()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right, pos: tok.pos}
	}
}

// parsePower is right-associative, so 2^3^2 parses as 2^(3^2). The unary
// sign binds tighter, matching the spreadsheet quirk that -2^2 is 4.
func (p *parser) parsePower() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenCaret {
		return left, nil
	}
	tok := p.next()
	right, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: "^", Left: left, Right: right, pos: tok.pos}, nil
}

func (p *parser) parseUnary() (Node, error) {
	var op string
	switch p.peek().kind {
	case tokenMinus:
		op = "-"
	case tokenPlus:
		op = "+"
	default:
		return p.parsePostfix()
	}
	tok := p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op, Operand: operand, pos: tok.pos}, nil
}

// parsePostfix wraps a primary in percent nodes, so 50%% is (50%)%.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenPercent {
		tok := p.next()
		node = &Unary{Op: "%", Operand: node, pos: tok.pos}
	}
	return node, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenNumber:
		p.next()
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Expected: "number", Got: tok.describe()}
		}
		return &Literal{Value: v, pos: tok.pos}, nil

	case tokenString:
		p.next()
		return &Literal{Value: tok.text, pos: tok.pos}, nil

	case tokenName:
		p.next()
		if p.peek().kind == tokenLParen {
			return p.parseCall(tok)
		}
		switch strings.ToUpper(tok.text) {
		case "TRUE":
			return &Literal{Value: true, pos: tok.pos}, nil
		case "FALSE":
			return &Literal{Value: false, pos: tok.pos}, nil
		}
		return p.parseRefOrRange(tok)

	case tokenRef:
		p.next()
		return p.parseRefOrRange(tok)

	case tokenLParen:
		p.next()
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		closing := p.peek()
		if closing.kind != tokenRParen {
			if err := intersectionErr(closing); err != nil {
				return nil, err
			}
			return nil, &SyntaxError{Pos: closing.pos, Expected: "closing ')'", Got: closing.describe()}
		}
		p.next()
		return node, nil

	case tokenLBrace:
		return nil, &UnsupportedConstructError{Pos: tok.pos, Construct: "array literal"}

	case tokenEOF:
		return nil, &SyntaxError{Pos: tok.pos, Expected: "operand", Got: "end of formula"}
	}
	return nil, &SyntaxError{Pos: tok.pos, Expected: "operand", Got: tok.describe()}
}

// parseCall parses the argument list after a function name. The opening
// parenthesis is still unconsumed.
func (p *parser) parseCall(name token) (Node, error) {
	p.next() // '('
	call := &Call{Name: strings.ToUpper(name.text), pos: name.pos}
	if p.peek().kind == tokenRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch tok := p.peek(); tok.kind {
		case tokenComma:
			p.next()
		case tokenRParen:
			p.next()
			return call, nil
		default:
			if err := intersectionErr(tok); err != nil {
				return nil, err
			}
			return nil, &SyntaxError{Pos: tok.pos, Expected: "',' or ')'", Got: tok.describe()}
		}
	}
}

// parseRefOrRange turns a reference-looking token into a Ref node, or a
// RangeRef when a ':' and second corner follow.
func (p *parser) parseRefOrRange(tok token) (Node, error) {
	first, err := p.refFromToken(tok)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenColon {
		return &Ref{Cell: first, pos: tok.pos}, nil
	}
	p.next() // ':'

	corner := p.peek()
	if corner.kind != tokenName && corner.kind != tokenRef {
		return nil, &SyntaxError{Pos: corner.pos, Expected: "cell reference after ':'", Got: corner.describe()}
	}
	p.next()
	last, err := p.refFromToken(corner)
	if err != nil {
		return nil, err
	}

	// Both corners must resolve to one sheet. A mixed qualified/unqualified
	// pair is rejected too: the unqualified corner's sheet is unknown until
	// graph resolution, so it cannot be proven to match.
	switch {
	case first.Sheet == last.Sheet:
	case last.Sheet == "" && first.Sheet != "":
		last.Sheet = first.Sheet
	default:
		return nil, &UnsupportedConstructError{Pos: tok.pos, Construct: "range spanning sheets"}
	}

	return &RangeRef{Area: NewAreaRef(first, last), pos: tok.pos}, nil
}

// refFromToken parses a name or qualified-ref token into a CellRef,
// classifying non-reference names as constructs this engine does not
// translate.
func (p *parser) refFromToken(tok token) (CellRef, error) {
	ref, err := ParseCellRef(tok.text)
	if err == nil {
		return ref, nil
	}
	if p.peek().kind == tokenColon && isColumnName(tok.text) {
		return CellRef{}, &UnsupportedConstructError{Pos: tok.pos, Construct: "whole-column range"}
	}
	return CellRef{}, &UnsupportedConstructError{Pos: tok.pos, Construct: fmt.Sprintf("named reference %q", tok.text)}
}

func isColumnName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlpha(s[i]) {
			return false
		}
	}
	return true
}
