// # internal/golang/cursor.go
package golang

import "fmt"

// parseBail aborts parsing of the current file. It is recovered at the
// Parse boundary: malformed input fails the whole file, there is no
// resynchronization.
type parseBail struct {
	msg string
}

func bail(format string, args ...any) {
	panic(parseBail{msg: fmt.Sprintf(format, args...)})
}

// cursor walks a token slice. Position only ever moves forward; reads past
// the end return the newline sentinel.
type cursor struct {
	toks []Token
	pos  int
}

func newCursor(toks []Token) *cursor {
	return &cursor{toks: toks}
}

func (c *cursor) done() bool {
	return c.pos >= len(c.toks)
}

func (c *cursor) peek() Token {
	return c.at(0)
}

func (c *cursor) at(off int) Token {
	i := c.pos + off
	if i < 0 || i >= len(c.toks) {
		return Token{Kind: TokenNewline, Value: "\n"}
	}
	return c.toks[i]
}

func (c *cursor) next() Token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

// isValue reports whether the current token is a sigil or keyword-like
// identifier with the given text.
func (c *cursor) isValue(value string) bool {
	t := c.peek()
	return (t.Kind == TokenSigil || t.Kind == TokenIdent) && t.Value == value
}

func (c *cursor) accept(value string) bool {
	if c.isValue(value) {
		c.pos++
		return true
	}
	return false
}

func (c *cursor) expect(value string) Token {
	if !c.isValue(value) {
		t := c.peek()
		bail("expected %q, found %q at line %d", value, t.Value, t.Line)
	}
	return c.next()
}

func (c *cursor) expectIdent() Token {
	t := c.peek()
	if t.Kind != TokenIdent {
		bail("expected identifier, found %q at line %d", t.Value, t.Line)
	}
	return c.next()
}

// scanBalanced consumes the opening bracket at the cursor and returns the
// tokens between it and its matching closer, leaving the cursor just past
// the closer. Nesting must return to zero before the stream ends.
func (c *cursor) scanBalanced(open, close string) []Token {
	opener := c.expect(open)
	depth := 1
	start := c.pos
	for !c.done() {
		t := c.next()
		if t.Kind != TokenSigil {
			continue
		}
		switch t.Value {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return c.toks[start : c.pos-1]
			}
		}
	}
	bail("unexpected EOF scanning for %q opened at line %d", close, opener.Line)
	return nil
}

func depthDelta(t Token) int {
	if t.Kind != TokenSigil {
		return 0
	}
	switch t.Value {
	case "(", "[", "{":
		return 1
	case ")", "]", "}":
		return -1
	}
	return 0
}

// indexTopLevel returns the index of the first sigil or identifier with the
// given text at bracket depth 0, or -1.
func indexTopLevel(toks []Token, value string) int {
	depth := 0
	for i, t := range toks {
		if d := depthDelta(t); d != 0 {
			depth += d
			continue
		}
		if depth == 0 && (t.Kind == TokenSigil || t.Kind == TokenIdent) && t.Value == value {
			return i
		}
	}
	return -1
}

// splitTopLevel splits a token slice on a separator sigil at bracket depth
// 0. The result always has at least one group; groups may be empty.
func splitTopLevel(toks []Token, sep string) [][]Token {
	var groups [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		if d := depthDelta(t); d != 0 {
			depth += d
			continue
		}
		if depth == 0 && t.Kind == TokenSigil && t.Value == sep {
			groups = append(groups, toks[start:i])
			start = i + 1
		}
	}
	return append(groups, toks[start:])
}

// matchBracket returns the index of the closer matching the opener at
// start, or -1. toks[start] must be the opening sigil.
func matchBracket(toks []Token, start int, open, close string) int {
	depth := 0
	for i := start; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != TokenSigil {
			continue
		}
		switch t.Value {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripNewlines(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != TokenNewline {
			out = append(out, t)
		}
	}
	return out
}
