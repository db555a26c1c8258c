package script

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokSemicolon
	tokMinus
	tokPlus
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of script"
	case tokIdent:
		return "name"
	case tokNumber:
		return "number"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokLBrace:
		return `"{"`
	case tokRBrace:
		return `"}"`
	case tokSemicolon:
		return `";"`
	case tokMinus:
		return `"-"`
	case tokPlus:
		return `"+"`
	}
	return "token"
}

var punctuation = map[rune]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
	';': tokSemicolon,
	'-': tokMinus,
	'+': tokPlus,
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

// lexer turns source text into tokens, skipping whitespace and comments.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekRune() (rune, int) {
	if l.off >= len(l.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(l.src[l.off:])
}

func (l *lexer) advance() rune {
	r, size := l.peekRune()
	if size == 0 {
		return utf8.RuneError
	}
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) pos() Pos {
	return Pos{Line: l.line, Column: l.col}
}

func (l *lexer) hasPrefix(s string) bool {
	return len(l.src)-l.off >= len(s) && l.src[l.off:l.off+len(s)] == s
}

// skip consumes whitespace and comments.
func (l *lexer) skip() error {
	for l.off < len(l.src) {
		r, _ := l.peekRune()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case l.hasPrefix("//") || r == '#':
			for l.off < len(l.src) {
				if c, _ := l.peekRune(); c == '\n' {
					break
				}
				l.advance()
			}
		case l.hasPrefix("/*"):
			start := l.pos()
			l.advance()
			l.advance()
			for {
				if l.off >= len(l.src) {
					return &ParseError{Pos: start, Msg: "unterminated comment", Err: ErrSyntax}
				}
				if l.hasPrefix("*/") {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

// next returns the next token.
func (l *lexer) next() (token, error) {
	if err := l.skip(); err != nil {
		return token{}, err
	}
	start := l.pos()
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	r, _ := l.peekRune()
	if kind, ok := punctuation[r]; ok {
		l.advance()
		return token{kind: kind, text: string(r), pos: start}, nil
	}

	switch {
	case isIdentStart(r):
		begin := l.off
		for l.off < len(l.src) {
			c, _ := l.peekRune()
			if !isIdentPart(c) {
				break
			}
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[begin:l.off], pos: start}, nil

	case isDigit(r) || r == '.':
		return l.number(start)
	}

	return token{}, &ParseError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r), Err: ErrSyntax}
}

// number scans digits with an optional fraction and exponent.
func (l *lexer) number(start Pos) (token, error) {
	begin := l.off
	digits := 0
	for l.off < len(l.src) {
		c, _ := l.peekRune()
		if !isDigit(c) {
			break
		}
		l.advance()
		digits++
	}
	if c, _ := l.peekRune(); c == '.' {
		l.advance()
		for l.off < len(l.src) {
			c, _ := l.peekRune()
			if !isDigit(c) {
				break
			}
			l.advance()
			digits++
		}
	}
	if digits == 0 {
		return token{}, &ParseError{Pos: start, Msg: "malformed number", Err: ErrSyntax}
	}
	if c, _ := l.peekRune(); c == 'e' || c == 'E' {
		l.advance()
		if c, _ := l.peekRune(); c == '+' || c == '-' {
			l.advance()
		}
		exp := 0
		for l.off < len(l.src) {
			c, _ := l.peekRune()
			if !isDigit(c) {
				break
			}
			l.advance()
			exp++
		}
		if exp == 0 {
			return token{}, &ParseError{Pos: start, Msg: "malformed number exponent", Err: ErrSyntax}
		}
	}
	if c, _ := l.peekRune(); isIdentStart(c) {
		return token{}, &ParseError{Pos: start, Msg: "malformed number", Err: ErrSyntax}
	}
	return token{kind: tokNumber, text: l.src[begin:l.off], pos: start}, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
