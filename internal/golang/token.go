// # internal/golang/token.go
package golang

import "fmt"

type TokenKind uint8

const (
	TokenIdent TokenKind = iota
	TokenNumber
	TokenString
	TokenChar
	TokenSigil
	TokenComment
	TokenNewline
)

func (k TokenKind) String() string {
	switch k {
	case TokenIdent:
		return "ident"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenChar:
		return "char"
	case TokenSigil:
		return "sigil"
	case TokenComment:
		return "comment"
	case TokenNewline:
		return "newline"
	}
	return "unknown"
}

// Token is one lexical unit. String and char values are stored without their
// surrounding quotes. Line and Col are 1-based and mark where the token
// starts.
type Token struct {
	Kind  TokenKind
	Value string
	Line  int
	Col   int
}

// Longest match wins: three-character sigils before two-character ones
// before single characters.
var threeCharSigils = map[string]bool{
	"<<=": true, ">>=": true, "&^=": true, "...": true,
}

var twoCharSigils = map[string]bool{
	":=": true, "==": true, "!=": true, "<=": true, ">=": true,
	"&&": true, "||": true, "<-": true, "++": true, "--": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<": true, ">>": true, "&^": true,
}

// Tokenize converts source text into a flat token stream. Comments are
// stripped and collapsed into a single synthetic newline so statement
// boundaries survive. The stream always ends with a trailing newline
// sentinel so line-oriented statement splitting never runs off the end.
func Tokenize(src string) ([]Token, error) {
	t := &tokenizer{src: src, line: 1, col: 1}
	return t.run()
}

type tokenizer struct {
	src  string
	pos  int
	line int
	col  int
	toks []Token
}

func (t *tokenizer) run() ([]Token, error) {
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		switch {
		case ch == '\n':
			t.emit(TokenNewline, "\n", t.line, t.col)
			t.advance()
		case ch == ' ' || ch == '\t' || ch == '\r':
			t.advance()
		case ch == '/' && t.peekAt(1) == '/':
			t.lineComment()
		case ch == '/' && t.peekAt(1) == '*':
			if err := t.blockComment(); err != nil {
				return nil, err
			}
		case ch == '"' || ch == '`':
			if err := t.stringLit(ch); err != nil {
				return nil, err
			}
		case ch == '\'':
			if err := t.charLit(); err != nil {
				return nil, err
			}
		case isDigit(ch):
			t.number()
		case isIdentStart(ch):
			t.ident()
		default:
			t.sigil()
		}
	}
	t.emit(TokenNewline, "\n", t.line, t.col)
	return t.toks, nil
}

func (t *tokenizer) advance() {
	if t.src[t.pos] == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
	t.pos++
}

func (t *tokenizer) peekAt(off int) byte {
	if t.pos+off >= len(t.src) {
		return 0
	}
	return t.src[t.pos+off]
}

func (t *tokenizer) emit(kind TokenKind, value string, line, col int) {
	t.toks = append(t.toks, Token{Kind: kind, Value: value, Line: line, Col: col})
}

func (t *tokenizer) lineComment() {
	line, col := t.line, t.col
	for t.pos < len(t.src) && t.src[t.pos] != '\n' {
		t.advance()
	}
	if t.pos < len(t.src) {
		t.advance()
	}
	t.emit(TokenNewline, "\n", line, col)
}

func (t *tokenizer) blockComment() error {
	line := t.line
	col := t.col
	t.advance()
	t.advance()
	for t.pos < len(t.src) {
		if t.src[t.pos] == '*' && t.peekAt(1) == '/' {
			t.advance()
			t.advance()
			t.emit(TokenNewline, "\n", line, col)
			return nil
		}
		t.advance()
	}
	return fmt.Errorf("unexpected EOF in block comment starting at line %d", line)
}

func (t *tokenizer) stringLit(quote byte) error {
	line, col := t.line, t.col
	t.advance()
	start := t.pos
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		if ch == '\\' && quote == '"' {
			t.advance()
			if t.pos < len(t.src) {
				t.advance()
			}
			continue
		}
		if ch == quote {
			value := t.src[start:t.pos]
			t.advance()
			t.emit(TokenString, value, line, col)
			return nil
		}
		t.advance()
	}
	return fmt.Errorf("unexpected EOF in string literal starting at line %d", line)
}

func (t *tokenizer) charLit() error {
	line, col := t.line, t.col
	t.advance()
	start := t.pos
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		if ch == '\\' {
			t.advance()
			if t.pos < len(t.src) {
				t.advance()
			}
			continue
		}
		if ch == '\'' {
			value := t.src[start:t.pos]
			t.advance()
			t.emit(TokenChar, value, line, col)
			return nil
		}
		t.advance()
	}
	return fmt.Errorf("unexpected EOF in char literal starting at line %d", line)
}

// number consumes digits, letters (hex, exponent and size suffixes), dots,
// and underscores. A + or - joins the number only when the previous
// character is an e or E, which keeps 1e+8 whole without eating the
// operator in a-1.
func (t *tokenizer) number() {
	line, col := t.line, t.col
	start := t.pos
	for t.pos < len(t.src) {
		ch := t.src[t.pos]
		if isDigit(ch) || isIdentStart(ch) || ch == '.' {
			t.advance()
			continue
		}
		if (ch == '+' || ch == '-') && t.pos > start {
			prev := t.src[t.pos-1]
			if prev == 'e' || prev == 'E' {
				t.advance()
				continue
			}
		}
		break
	}
	t.emit(TokenNumber, t.src[start:t.pos], line, col)
}

func (t *tokenizer) ident() {
	line, col := t.line, t.col
	start := t.pos
	for t.pos < len(t.src) && isIdentChar(t.src[t.pos]) {
		t.advance()
	}
	t.emit(TokenIdent, t.src[start:t.pos], line, col)
}

func (t *tokenizer) sigil() {
	line, col := t.line, t.col
	if t.pos+3 <= len(t.src) && threeCharSigils[t.src[t.pos:t.pos+3]] {
		value := t.src[t.pos : t.pos+3]
		t.advance()
		t.advance()
		t.advance()
		t.emit(TokenSigil, value, line, col)
		return
	}
	if t.pos+2 <= len(t.src) && twoCharSigils[t.src[t.pos:t.pos+2]] {
		value := t.src[t.pos : t.pos+2]
		t.advance()
		t.advance()
		t.emit(TokenSigil, value, line, col)
		return
	}
	value := string(t.src[t.pos])
	t.advance()
	t.emit(TokenSigil, value, line, col)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
