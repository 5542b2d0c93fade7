package golang

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize("x := 1")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	want := []Token{
		{Kind: TokenIdent, Value: "x", Line: 1, Col: 1},
		{Kind: TokenSigil, Value: ":=", Line: 1, Col: 3},
		{Kind: TokenNumber, Value: "1", Line: 1, Col: 6},
		{Kind: TokenNewline, Value: "\n", Line: 1, Col: 7},
	}
	if !reflect.DeepEqual(toks, want) {
		t.Errorf("Tokenize() = %+v, want %+v", toks, want)
	}
}

func TestTokenizeSigilLongestMatch(t *testing.T) {
	toks, err := Tokenize("a <<= b &^ c ... <-d")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	var sigils []string
	for _, tok := range toks {
		if tok.Kind == TokenSigil {
			sigils = append(sigils, tok.Value)
		}
	}
	want := []string{"<<=", "&^", "...", "<-"}
	if !reflect.DeepEqual(sigils, want) {
		t.Errorf("sigils = %v, want %v", sigils, want)
	}
}

func TestTokenizeCommentsCollapseToNewline(t *testing.T) {
	toks, err := Tokenize("a = 1 // trailing\nb = 2")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	for _, tok := range toks {
		if tok.Kind == TokenComment {
			t.Fatalf("comment token leaked into stream: %+v", tok)
		}
	}
	// one synthetic newline for the comment, none doubled for the real one
	var newlines int
	for _, tok := range toks {
		if tok.Kind == TokenNewline {
			newlines++
		}
	}
	if newlines != 2 {
		t.Errorf("newline count = %d, want 2", newlines)
	}
}

func TestTokenizeBlockCommentKeepsLineCount(t *testing.T) {
	toks, err := Tokenize("a /* one\ntwo */ b")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	var b Token
	for _, tok := range toks {
		if tok.Kind == TokenIdent && tok.Value == "b" {
			b = tok
		}
	}
	if b.Line != 2 {
		t.Errorf("ident after block comment on line %d, want 2", b.Line)
	}
}

func TestTokenizeExponent(t *testing.T) {
	cases := []struct {
		src  string
		want []string
	}{
		{"x = 1e+8", []string{"1e+8"}},
		{"x = 1.5E-3", []string{"1.5E-3"}},
		{"x = a-1", []string{"1"}},
		{"x = 1-2", []string{"1", "2"}},
	}
	for _, tc := range cases {
		toks, err := Tokenize(tc.src)
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", tc.src, err)
		}
		var nums []string
		for _, tok := range toks {
			if tok.Kind == TokenNumber {
				nums = append(nums, tok.Value)
			}
		}
		if !reflect.DeepEqual(nums, tc.want) {
			t.Errorf("Tokenize(%q) numbers = %v, want %v", tc.src, nums, tc.want)
		}
	}
}

func TestTokenizeStringValues(t *testing.T) {
	toks, err := Tokenize("s := \"a \\\"b\\\" c\"\nr := `raw\nstring`\nc := 'x'")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	var strs []string
	var chars []string
	for _, tok := range toks {
		switch tok.Kind {
		case TokenString:
			strs = append(strs, tok.Value)
		case TokenChar:
			chars = append(chars, tok.Value)
		}
	}
	wantStrs := []string{"a \\\"b\\\" c", "raw\nstring"}
	if !reflect.DeepEqual(strs, wantStrs) {
		t.Errorf("strings = %q, want %q", strs, wantStrs)
	}
	if !reflect.DeepEqual(chars, []string{"x"}) {
		t.Errorf("chars = %q, want [x]", chars)
	}
}

func TestTokenizeTrailingSentinel(t *testing.T) {
	for _, src := range []string{"", "x", "x\n", "x := 1"} {
		toks, err := Tokenize(src)
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", src, err)
		}
		if len(toks) == 0 || toks[len(toks)-1].Kind != TokenNewline {
			t.Errorf("Tokenize(%q) does not end with newline sentinel: %+v", src, toks)
		}
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	cases := []string{"/* never closed", "s := \"open", "c := 'x"}
	for _, src := range cases {
		if _, err := Tokenize(src); err == nil {
			t.Errorf("Tokenize(%q) expected error, got nil", src)
		} else if !strings.Contains(err.Error(), "unexpected EOF") {
			t.Errorf("Tokenize(%q) error = %v, want unexpected EOF", src, err)
		}
	}
}

func TestTokenizeCoversSource(t *testing.T) {
	src := "func f(a int) {\n\treturn a + 1e+8\n}"
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	// every non-space, non-comment byte of the source must fall inside
	// exactly one token's span
	lines := strings.Split(src, "\n")
	for _, tok := range toks {
		if tok.Kind == TokenNewline {
			continue
		}
		line := lines[tok.Line-1]
		at := line[tok.Col-1:]
		if !strings.HasPrefix(at, tok.Value) {
			t.Errorf("token %+v does not match source at %d:%d (%q)", tok, tok.Line, tok.Col, at)
		}
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	src := "const (\n\tA = iota\n\tB\n)\nvar x = map[string]any{\"k\": 1}"
	a, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	b, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two tokenizations of the same source differ")
	}
}
