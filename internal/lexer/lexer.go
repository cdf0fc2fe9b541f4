// Package lexer turns Python source into the flat token stream consumed by the
// message scanner. It recognizes just enough of the grammar to find names,
// operators and string literals with their start positions: it never builds
// an expression tree.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Name
	Op
	String
	Number
	Comment
	Newline
	Other
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Name:
		return "NAME"
	case Op:
		return "OP"
	case String:
		return "STRING"
	case Number:
		return "NUMBER"
	case Comment:
		return "COMMENT"
	case Newline:
		return "NEWLINE"
	default:
		return "OTHER"
	}
}

// Token is one lexical unit. Line is 1-based, Col is a 0-based byte offset.
type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int
}

// Error reports a tokenization failure at a source position.
type Error struct {
	Msg  string
	Line int
	Col  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s, line %d, column %d", e.Msg, e.Line, e.Col)
}

// operators, longest first.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "->", ":=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~",
	"<", ">", "(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}

// Lexer produces tokens on demand so a caller can keep what it collected
// before a failure.
type Lexer struct {
	src   []byte
	pos   int
	line  int
	col   int
	depth int
	done  bool
}

// New returns a lexer over src.
func New(src []byte) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Next returns the next token. After EOF or an error it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return Token{Kind: EOF, Line: l.line, Col: l.col}, nil
	}
	for {
		l.skipBlanks()
		if l.pos >= len(l.src) {
			l.done = true
			if l.depth > 0 {
				return Token{}, &Error{Msg: "EOF in multi-line statement", Line: l.line, Col: l.col}
			}
			return Token{Kind: EOF, Line: l.line, Col: l.col}, nil
		}
		c := l.src[l.pos]
		if c == '\\' && l.peekNewline(1) {
			// explicit line continuation
			l.advance(1)
			l.newline()
			continue
		}
		break
	}

	line, col, start := l.line, l.col, l.pos
	c := l.src[l.pos]

	switch {
	case c == '\n' || c == '\r':
		l.newline()
		return Token{Kind: Newline, Text: string(l.src[start:l.pos]), Line: line, Col: col}, nil
	case c == '#':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
			l.advance(1)
		}
		return l.token(Comment, start, line, col), nil
	case c == '"' || c == '\'':
		return l.scanString(start, line, col)
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		l.scanNumber()
		return l.token(Number, start, line, col), nil
	}

	if r, size := utf8.DecodeRune(l.src[l.pos:]); isIdentStart(r) {
		l.advance(size)
		for l.pos < len(l.src) {
			r, size = utf8.DecodeRune(l.src[l.pos:])
			if !isIdentPart(r) {
				break
			}
			l.advance(size)
		}
		if l.pos < len(l.src) && (l.src[l.pos] == '"' || l.src[l.pos] == '\'') && isStringPrefix(string(l.src[start:l.pos])) {
			return l.scanString(start, line, col)
		}
		return l.token(Name, start, line, col), nil
	}

	for _, op := range operators {
		if l.hasPrefix(op) {
			l.advance(len(op))
			switch op {
			case "(", "[", "{":
				l.depth++
			case ")", "]", "}":
				if l.depth > 0 {
					l.depth--
				}
			}
			return l.token(Op, start, line, col), nil
		}
	}

	_, size := utf8.DecodeRune(l.src[l.pos:])
	l.advance(size)
	return l.token(Other, start, line, col), nil
}

// All drains the lexer. On error the tokens read so far are returned with it.
func (l *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

// scanString consumes a literal whose prefix (if any) starts at start.
func (l *Lexer) scanString(start, line, col int) (Token, error) {
	quote := l.src[l.pos]
	triple := l.hasPrefix(string([]byte{quote, quote, quote}))
	if triple {
		l.advance(3)
	} else {
		l.advance(1)
	}

	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\':
			l.advance(1)
			if l.pos >= len(l.src) {
				continue
			}
			if l.peekNewline(0) {
				l.newline()
			} else {
				l.advance(1)
			}
		case c == quote && triple:
			if l.hasPrefix(string([]byte{quote, quote, quote})) {
				l.advance(3)
				return l.token(String, start, line, col), nil
			}
			l.advance(1)
		case c == quote:
			l.advance(1)
			return l.token(String, start, line, col), nil
		case c == '\n' || c == '\r':
			if !triple {
				l.done = true
				return Token{}, &Error{Msg: "EOL while scanning string literal", Line: line, Col: col}
			}
			l.newline()
		default:
			l.advance(1)
		}
	}

	l.done = true
	if triple {
		return Token{}, &Error{Msg: "EOF in multi-line string", Line: line, Col: col}
	}
	return Token{}, &Error{Msg: "EOF while scanning string literal", Line: line, Col: col}
}

func (l *Lexer) scanNumber() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || isAlpha(c) || c == '_' || c == '.':
			l.advance(1)
			if (c == 'e' || c == 'E') && l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
				l.advance(1)
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipBlanks() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\f':
			l.advance(1)
		case '\n', '\r':
			// Newlines inside brackets are not logical line ends.
			if l.depth == 0 {
				return
			}
			l.newline()
		default:
			return
		}
	}
}

func (l *Lexer) token(k Kind, start, line, col int) Token {
	return Token{Kind: k, Text: string(l.src[start:l.pos]), Line: line, Col: col}
}

func (l *Lexer) advance(n int) {
	l.pos += n
	l.col += n
}

// newline consumes \n, \r or \r\n at the current position.
func (l *Lexer) newline() {
	if l.src[l.pos] == '\r' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
		l.pos++
	}
	l.pos++
	l.line++
	l.col = 0
}

func (l *Lexer) peekNewline(off int) bool {
	i := l.pos + off
	return i < len(l.src) && (l.src[i] == '\n' || l.src[i] == '\r')
}

func (l *Lexer) hasPrefix(s string) bool {
	return len(l.src)-l.pos >= len(s) && string(l.src[l.pos:l.pos+len(s)]) == s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isStringPrefix reports whether s is a valid literal prefix such as u, r, b,
// f, br or rb, in any case.
func isStringPrefix(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	seen := map[byte]bool{}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		switch c {
		case 'r', 'u', 'b', 'f':
		default:
			return false
		}
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return !(seen['u'] && len(s) == 2 && !seen['r']) && !(seen['b'] && seen['f'])
}
