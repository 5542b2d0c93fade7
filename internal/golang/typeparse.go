// # internal/golang/typeparse.go
package golang

import "strings"

func typeKeyword(s string) bool {
	switch s {
	case "map", "func", "chan", "interface", "struct":
		return true
	}
	return false
}

func canStartType(t Token) bool {
	if t.Kind == TokenIdent {
		return true
	}
	if t.Kind != TokenSigil {
		return false
	}
	switch t.Value {
	case "*", "[", "...", "<-":
		return true
	}
	return false
}

// parseTypeRef consumes one type expression from the cursor, keyed on the
// first distinguishing token.
func parseTypeRef(c *cursor) *TypeRef {
	t := c.peek()
	switch {
	case t.Kind == TokenSigil && t.Value == "*":
		c.next()
		return &TypeRef{Kind: TypePointer, Elem: parseTypeRef(c)}
	case t.Kind == TokenSigil && t.Value == "...":
		c.next()
		return &TypeRef{Kind: TypeVariadic, Elem: parseTypeRef(c)}
	case t.Kind == TokenSigil && t.Value == "[":
		length := c.scanBalanced("[", "]")
		if len(length) == 0 {
			return &TypeRef{Kind: TypeSlice, Elem: parseTypeRef(c)}
		}
		return &TypeRef{Kind: TypeArray, Len: joinTokens(length), Elem: parseTypeRef(c)}
	case t.Kind == TokenSigil && t.Value == "<-":
		c.next()
		c.expect("chan")
		return &TypeRef{Kind: TypeChan, Dir: ChanRecv, Elem: parseTypeRef(c)}
	case t.Kind == TokenIdent && t.Value == "map":
		c.next()
		key := parseTypeTokens(c.scanBalanced("[", "]"))
		return &TypeRef{Kind: TypeMap, Key: key, Elem: parseTypeRef(c)}
	case t.Kind == TokenIdent && t.Value == "chan":
		c.next()
		if c.accept("<-") {
			return &TypeRef{Kind: TypeChan, Dir: ChanSend, Elem: parseTypeRef(c)}
		}
		return &TypeRef{Kind: TypeChan, Dir: ChanBoth, Elem: parseTypeRef(c)}
	case t.Kind == TokenIdent && t.Value == "func":
		c.next()
		return parseFuncType(c)
	case t.Kind == TokenIdent && t.Value == "interface":
		c.next()
		c.scanBalanced("{", "}")
		return &TypeRef{Kind: TypeInterface}
	case t.Kind == TokenIdent && t.Value == "struct":
		// Anonymous struct fields are never needed downstream.
		c.next()
		c.scanBalanced("{", "}")
		return &TypeRef{Kind: TypeName, Name: "struct"}
	case t.Kind == TokenIdent:
		c.next()
		name := t.Value
		if c.isValue(".") && c.at(1).Kind == TokenIdent {
			c.next()
			name += "." + c.next().Value
		}
		return &TypeRef{Kind: TypeName, Name: name}
	}
	bail("cannot parse type at line %d: unexpected %q", t.Line, t.Value)
	return nil
}

// parseTypeTokens parses a standalone token slice as a single type.
func parseTypeTokens(toks []Token) *TypeRef {
	toks = stripNewlines(toks)
	if len(toks) == 0 {
		return nil
	}
	return parseTypeRef(newCursor(toks))
}

func parseFuncType(c *cursor) *TypeRef {
	ref := &TypeRef{Kind: TypeFunc}
	for _, p := range parseParams(c.scanBalanced("(", ")")) {
		ref.Params = append(ref.Params, p.Type)
	}
	ref.Results = parseResults(c)
	return ref
}

// parseParams parses a comma-separated parameter, receiver, or struct field
// list. Go's trailing-type shorthand ("a, b int") is resolved by
// back-filling untyped names from the nearest following typed entry in a
// right-to-left pass; an untyped name with no typed entry to its right is
// itself an unnamed type ("func(int, string)").
func parseParams(toks []Token) []Param {
	type entry struct {
		name string
		typ  *TypeRef
		solo *Token
	}

	groups := splitTopLevel(stripNewlines(toks), ",")
	entries := make([]entry, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		first := g[0]
		named := first.Kind == TokenIdent && !typeKeyword(first.Value) &&
			len(g) > 1 && !(g[1].Kind == TokenSigil && g[1].Value == ".")
		switch {
		case len(g) == 1 && first.Kind == TokenIdent && !typeKeyword(first.Value):
			t := first
			entries = append(entries, entry{solo: &t})
		case named:
			entries = append(entries, entry{name: first.Value, typ: parseTypeTokens(g[1:])})
		default:
			entries = append(entries, entry{typ: parseTypeTokens(g)})
		}
	}

	var following *TypeRef
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].solo == nil {
			if entries[i].typ != nil {
				following = entries[i].typ
			}
			continue
		}
		if following != nil {
			entries[i].name = entries[i].solo.Value
			entries[i].typ = following
		} else {
			entries[i].typ = &TypeRef{Kind: TypeName, Name: entries[i].solo.Value}
		}
	}

	params := make([]Param, 0, len(entries))
	for _, e := range entries {
		params = append(params, Param{Name: e.name, Type: e.typ})
	}
	return params
}

// parseResults parses an optional result list after a closed parameter
// list: either a parenthesized (possibly named) list or one bare type.
func parseResults(c *cursor) []*TypeRef {
	if c.isValue("(") {
		params := parseParams(c.scanBalanced("(", ")"))
		out := make([]*TypeRef, 0, len(params))
		for _, p := range params {
			out = append(out, p.Type)
		}
		return out
	}
	if c.done() || c.isValue("{") || !canStartType(c.peek()) {
		return nil
	}
	return []*TypeRef{parseTypeRef(c)}
}

func joinTokens(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Value)
	}
	return b.String()
}
