// # internal/golang/expr.go
package golang

// Primitive type names, used to tell a conversion like int64(x) apart from
// an ordinary call.
var primitiveTypes = map[string]bool{
	"string": true, "bool": true, "byte": true, "rune": true, "error": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "float32": true, "float64": true,
	"complex64": true, "complex128": true, "any": true,
}

// parseExpr parses one expression. Precedence is structural: a top-level :=
// makes a declare, then a top-level = makes an assign, then top-level
// commas make a tuple, and whatever remains is reduced left to right.
func parseExpr(toks []Token) *Node {
	toks = stripNewlines(toks)
	if len(toks) == 0 {
		return nil
	}
	if i := indexTopLevel(toks, ":="); i >= 0 {
		return parseDeclareExpr(toks[:i], toks[i+1:], toks[0])
	}
	if i := indexTopLevel(toks, "="); i >= 0 {
		return &Node{
			Kind: NodeAssign,
			X:    parseExpr(toks[:i]),
			Y:    parseExpr(toks[i+1:]),
			Line: toks[0].Line,
			Col:  toks[0].Col,
		}
	}
	if groups := splitTopLevel(toks, ","); len(groups) > 1 {
		tup := &Node{Kind: NodeTuple, Line: toks[0].Line, Col: toks[0].Col}
		for _, g := range groups {
			if n := parseExpr(g); n != nil {
				tup.Args = append(tup.Args, n)
			}
		}
		return tup
	}
	return reduceExpr(toks)
}

func parseDeclareExpr(lhs, rhs []Token, at Token) *Node {
	n := &Node{Kind: NodeDeclare, Line: at.Line, Col: at.Col}
	for _, g := range splitTopLevel(lhs, ",") {
		g = stripNewlines(g)
		if len(g) == 1 && g[0].Kind == TokenIdent {
			n.Names = append(n.Names, g[0].Value)
		}
	}
	n.Y = parseExpr(rhs)
	return n
}

// reduceExpr folds a token run into a body list. A single-element body
// collapses to the element itself.
func reduceExpr(toks []Token) *Node {
	c := newCursor(toks)
	var body []*Node
	for !c.done() {
		t := c.peek()
		switch {
		case t.Kind == TokenNewline:
			c.next()
		case t.Kind == TokenString:
			c.next()
			body = append(body, &Node{Kind: NodeString, Value: t.Value, Line: t.Line, Col: t.Col})
		case t.Kind == TokenNumber:
			c.next()
			body = append(body, &Node{Kind: NodeNumber, Value: t.Value, Line: t.Line, Col: t.Col})
		case t.Kind == TokenChar:
			c.next()
			body = append(body, &Node{Kind: NodeChar, Value: t.Value, Line: t.Line, Col: t.Col})
		case t.Kind == TokenIdent:
			body = append(body, reducePrimary(c))
		case t.Kind == TokenSigil && t.Value == "(":
			inner := c.scanBalanced("(", ")")
			group := parseExpr(inner)
			if group == nil {
				group = &Node{Kind: NodeExpr, Line: t.Line, Col: t.Col}
			}
			body = append(body, reduceChain(c, group, t))
		case t.Kind == TokenSigil && t.Value == "[":
			body = append(body, reduceSliceLit(c))
		default:
			c.next()
			body = append(body, &Node{Kind: NodeOp, Value: t.Value, Line: t.Line, Col: t.Col})
		}
	}
	if len(body) == 1 {
		return body[0]
	}
	n := &Node{Kind: NodeExpr, Body: body}
	if len(body) > 0 {
		n.Line, n.Col = body[0].Line, body[0].Col
	} else if len(toks) > 0 {
		n.Line, n.Col = toks[0].Line, toks[0].Col
	}
	return n
}

// reducePrimary handles an identifier-led form: lambda, make allocation,
// map literal, or an ordinary primary with its postfix chain.
func reducePrimary(c *cursor) *Node {
	t := c.next()
	switch {
	case t.Value == "func":
		return reduceLambda(c, t)
	case t.Value == "make" && c.isValue("("):
		return reduceAlloc(c, t)
	case t.Value == "map" && c.isValue("["):
		return reduceMapLit(c, t)
	}
	node := &Node{Kind: NodeIdent, Value: t.Value, Line: t.Line, Col: t.Col}
	return reduceChain(c, node, t)
}

// reduceChain applies postfix forms to a primary: member access, call or
// cast, index or slice, and struct literal.
func reduceChain(c *cursor, node *Node, start Token) *Node {
	for {
		switch {
		case c.isValue(".") && c.at(1).Kind == TokenIdent:
			c.next()
			member := c.next()
			node = &Node{Kind: NodeAccess, X: node, Name: member.Value, Line: start.Line, Col: start.Col}
		case c.isValue(".") && c.at(1).Kind == TokenSigil && c.at(1).Value == "(":
			// type assertion x.(T), or x.(type) in a switch header
			c.next()
			inner := c.scanBalanced("(", ")")
			node = &Node{Kind: NodeCast, Name: joinTokens(inner), X: node, Line: start.Line, Col: start.Col}
		case c.isValue("("):
			args := c.scanBalanced("(", ")")
			if node.Kind == NodeIdent && primitiveTypes[node.Value] {
				node = &Node{Kind: NodeCast, Name: node.Value, X: parseExpr(args), Line: start.Line, Col: start.Col}
				continue
			}
			node = &Node{Kind: NodeCall, X: node, Args: splitArgs(args), Line: start.Line, Col: start.Col}
		case c.isValue("["):
			inner := c.scanBalanced("[", "]")
			if indexTopLevel(inner, ":") >= 0 {
				sl := &Node{Kind: NodeSlice, X: node, Line: start.Line, Col: start.Col}
				for _, g := range splitTopLevel(inner, ":") {
					if b := parseExpr(g); b != nil {
						sl.Args = append(sl.Args, b)
					}
				}
				node = sl
				continue
			}
			node = &Node{Kind: NodeIndex, X: node, Y: parseExpr(inner), Line: start.Line, Col: start.Col}
		case c.isValue("{") && accessPath(node) != "":
			fields := c.scanBalanced("{", "}")
			node = &Node{Kind: NodeStructLit, Name: accessPath(node), Args: parseFields(fields), Line: start.Line, Col: start.Col}
		default:
			return node
		}
	}
}

/// reduceSliceLit handles a leading bracket: a slice or array literal like
// []T{...} or [N]T{...}, or a conversion like []byte(s).
func reduceSliceLit(c *cursor) *Node {
	start := c.peek()
	length := c.scanBalanced("[", "]")
	elem := parseTypeRef(c)
	switch {
	case c.isValue("{"):
		items := c.scanBalanced("{", "}")
		return &Node{Kind: NodeArrayLit, Type: elem, Args: splitArgs(items), Line: start.Line, Col: start.Col}
	case c.isValue("("):
		args := c.scanBalanced("(", ")")
		name := "[" + joinTokens(length) + "]" + elem.String()
		return &Node{Kind: NodeCast, Name: name, X: parseExpr(args), Line: start.Line, Col: start.Col}
	}
	return &Node{Kind: NodeIdent, Value: "[" + joinTokens(length) + "]" + elem.String(), Line: start.Line, Col: start.Col}
}

// reduceMapLit handles map[K]V{...} literals and map-type conversions.
func reduceMapLit(c *cursor, start Token) *Node {
	key := parseTypeTokens(c.scanBalanced("[", "]"))
	typ := &TypeRef{Kind: TypeMap, Key: key, Elem: parseTypeRef(c)}
	switch {
	case c.isValue("{"):
		fields := c.scanBalanced("{", "}")
		return &Node{Kind: NodeStructLit, Type: typ, Args: parseFields(fields), Line: start.Line, Col: start.Col}
	case c.isValue("("):
		args := c.scanBalanced("(", ")")
		return &Node{Kind: NodeCast, Name: typ.String(), X: parseExpr(args), Line: start.Line, Col: start.Col}
	}
	return &Node{Kind: NodeIdent, Value: typ.String(), Line: start.Line, Col: start.Col}
}

func reduceAlloc(c *cursor, start Token) *Node {
	groups := splitTopLevel(c.scanBalanced("(", ")"), ",")
	n := &Node{Kind: NodeAlloc, Line: start.Line, Col: start.Col}
	if len(groups) > 0 {
		n.Type = parseTypeTokens(groups[0])
	}
	for _, g := range groups[1:] {
		if e := parseExpr(g); e != nil {
			n.Args = append(n.Args, e)
		}
	}
	return n
}

func reduceLambda(c *cursor, start Token) *Node {
	n := &Node{Kind: NodeLambda, Line: start.Line, Col: start.Col}
	n.Params = parseParams(c.scanBalanced("(", ")"))
	n.Results = parseResults(c)
	if c.isValue("{") {
		n.Body = parseStatements(c.scanBalanced("{", "}"))
	}
	return reduceChain(c, n, start)
}

// parseFields parses the comma-separated contents of a struct or map
// literal into field nodes. A field keyed by a single identifier, string,
// or number carries that key as Name; computed keys keep their expression
// in Y and leave Name empty.
func parseFields(toks []Token) []*Node {
	var fields []*Node
	for _, g := range splitTopLevel(toks, ",") {
		g = stripNewlines(g)
		if len(g) == 0 {
			continue
		}
		f := &Node{Kind: NodeField, Line: g[0].Line, Col: g[0].Col}
		if i := indexTopLevel(g, ":"); i >= 0 {
			key := stripNewlines(g[:i])
			if len(key) == 1 && (key[0].Kind == TokenIdent || key[0].Kind == TokenString || key[0].Kind == TokenNumber) {
				f.Name = key[0].Value
			} else {
				f.Y = parseExpr(key)
			}
			f.X = parseExpr(g[i+1:])
		} else {
			f.X = parseExpr(g)
		}
		fields = append(fields, f)
	}
	return fields
}

func splitArgs(toks []Token) []*Node {
	var args []*Node
	for _, g := range splitTopLevel(toks, ",") {
		if n := parseExpr(g); n != nil {
			args = append(args, n)
		}
	}
	return args
}
