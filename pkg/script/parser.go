package script

import (
	"fmt"
	"math"
	"strconv"
)

// MaxRepeat bounds a single repeat count.
const MaxRepeat = 100000

// maxDepth bounds repeat nesting.
const maxDepth = 32

var callNames = map[string]bool{
	CallMoveForward:  true,
	CallMoveBackward: true,
	CallTurnLeft:     true,
	CallTurnRight:    true,
	CallWait:         true,
}

// IsCall reports whether name is one of the five script calls.
func IsCall(name string) bool {
	return callNames[name]
}

// Parse parses src into a program. Errors are *ParseError.
func Parse(src string) (*Program, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	body, err := p.statements(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(ErrSyntax, "unexpected %s", p.tok.describe())
	}
	return &Program{Body: body}, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(sentinel error, format string, args ...any) error {
	return &ParseError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.errorf(ErrSyntax, "expected %s, found %s", kind, p.tok.describe())
	}
	tok := p.tok
	return tok, p.advance()
}

// statements parses until "}" or end of input.
func (p *parser) statements(depth int) ([]Node, error) {
	var body []Node
	for p.tok.kind != tokEOF && p.tok.kind != tokRBrace {
		if p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		node, err := p.statement(depth)
		if err != nil {
			return nil, err
		}
		body = append(body, node)
	}
	return body, nil
}

func (p *parser) statement(depth int) (Node, error) {
	if p.tok.kind != tokIdent {
		return nil, p.errorf(ErrSyntax, "expected a call, found %s", p.tok.describe())
	}

	switch p.tok.text {
	case "repeat":
		return p.repeat(depth)
	case "await":
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIdent || !IsCall(p.tok.text) {
			return nil, p.errorf(ErrSyntax, "expected a call after await, found %s", p.tok.describe())
		}
		call, err := p.call()
		if err != nil {
			return nil, err
		}
		call.At = at
		call.Await = true
		return call, nil
	}
	return p.call()
}

func (p *parser) call() (*Call, error) {
	name := p.tok
	if !IsCall(name.text) {
		return nil, p.errorf(ErrUnknownCall, "unknown call %q", name.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	arg, err := p.number()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &Call{At: name.pos, Name: name.text, Arg: arg}, nil
}

func (p *parser) repeat(depth int) (Node, error) {
	at := p.tok.pos
	if depth >= maxDepth {
		return nil, p.errorf(ErrBadRepeat, "repeat nested more than %d deep", maxDepth)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	countPos := p.tok.pos
	n, err := p.number()
	if err != nil {
		return nil, err
	}
	if n < 0 || n != math.Trunc(n) || n > MaxRepeat {
		return nil, &ParseError{
			Pos: countPos,
			Msg: fmt.Sprintf("repeat count must be a whole number between 0 and %d, got %g", MaxRepeat, n),
			Err: ErrBadRepeat,
		}
	}

	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	body, err := p.statements(depth + 1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	return &Repeat{At: at, Count: int(n), Body: body}, nil
}

// number parses an optionally signed numeric literal.
func (p *parser) number() (float64, error) {
	sign := 1.0
	for p.tok.kind == tokMinus || p.tok.kind == tokPlus {
		if p.tok.kind == tokMinus {
			sign = -sign
		}
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	if p.tok.kind != tokNumber {
		return 0, p.errorf(ErrSyntax, "expected a number, found %s", p.tok.describe())
	}
	v, err := strconv.ParseFloat(p.tok.text, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, p.errorf(ErrSyntax, "number %q out of range", p.tok.text)
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	return sign * v, nil
}
