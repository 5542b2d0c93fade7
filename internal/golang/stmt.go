// # internal/golang/stmt.go
package golang

import (
	"errors"
	"fmt"
	"strconv"
)

// Parse builds the statement-level AST for a whole file. Parser desync on
// unsupported or malformed syntax is recovered here and reported as an
// error; the caller falls back to zero events for the file.
func Parse(toks []Token) (nodes []*Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(parseBail); ok {
				err = errors.New(b.msg)
				return
			}
			err = fmt.Errorf("parse: %v", r)
		}
	}()
	return parseStatements(toks), nil
}

func parseStatements(toks []Token) []*Node {
	var nodes []*Node
	for _, stmt := range splitStatements(toks) {
		nodes = append(nodes, parseStatement(stmt)...)
	}
	return nodes
}

// splitStatements slices a token run into statements. A newline at bracket
// depth 0 ends the statement when the last significant token can end one
// (identifier, literal, closing bracket, ++, --, ;); after any other sigil
// the line continues.
func splitStatements(toks []Token) [][]Token {
	var stmts [][]Token
	depth := 0
	start := 0
	var last Token
	hasLast := false

	for i, t := range toks {
		if d := depthDelta(t); d != 0 {
			depth += d
			last = t
			hasLast = true
			continue
		}
		if t.Kind == TokenNewline {
			if depth != 0 {
				continue
			}
			if !hasLast {
				start = i + 1
				continue
			}
			if endsStatement(last) {
				stmts = append(stmts, toks[start:i])
				start = i + 1
				hasLast = false
			}
			continue
		}
		last = t
		hasLast = true
	}
	if seg := toks[start:]; len(stripNewlines(seg)) > 0 {
		stmts = append(stmts, seg)
	}
	return stmts
}

func endsStatement(t Token) bool {
	switch t.Kind {
	case TokenIdent, TokenNumber, TokenString, TokenChar:
		return true
	case TokenSigil:
		switch t.Value {
		case ")", "]", "}", "++", "--", ";":
			return true
		}
	}
	return false
}

func parseStatement(toks []Token) []*Node {
	toks = trimEdgeNewlines(toks)
	if len(toks) == 0 {
		return nil
	}
	t := toks[0]
	if t.Kind == TokenComment {
		return []*Node{{Kind: NodeComment, Value: t.Value, Line: t.Line, Col: t.Col}}
	}
	if t.Kind == TokenIdent {
		switch t.Value {
		case "package":
			return parsePackage(toks)
		case "import":
			return parseImport(toks)
		case "type":
			return parseTypeDecl(toks)
		case "func":
			return []*Node{parseFunc(toks)}
		case "if":
			return parseIfChain(toks)
		case "for":
			return []*Node{parseFor(toks)}
		case "switch":
			return []*Node{parseSwitch(toks)}
		case "var", "const":
			return parseVarConst(toks)
		case "return":
			n := &Node{Kind: NodeReturn, Line: t.Line, Col: t.Col}
			if v := parseExpr(toks[1:]); v != nil {
				if v.Kind == NodeTuple {
					n.Args = v.Args
				} else {
					n.Args = []*Node{v}
				}
			}
			return []*Node{n}
		case "go":
			return []*Node{{Kind: NodeInvoke, X: parseExpr(toks[1:]), Line: t.Line, Col: t.Col}}
		case "defer":
			return []*Node{{Kind: NodeDefer, X: parseExpr(toks[1:]), Line: t.Line, Col: t.Col}}
		}
	}
	expr := parseExpr(toks)
	if expr == nil {
		return nil
	}
	if expr.Kind == NodeDeclare || expr.Kind == NodeAssign {
		return []*Node{expr}
	}
	return []*Node{{Kind: NodeExec, X: expr, Line: t.Line, Col: t.Col}}
}

func parsePackage(toks []Token) []*Node {
	n := &Node{Kind: NodePackage, Line: toks[0].Line, Col: toks[0].Col}
	if len(toks) > 1 && toks[1].Kind == TokenIdent {
		n.Name = toks[1].Value
	}
	return []*Node{n}
}

func parseImport(toks []Token) []*Node {
	n := &Node{Kind: NodeImport, Line: toks[0].Line, Col: toks[0].Col}
	scan := toks[1:]
	c := newCursor(stripNewlines(scan))
	if c.isValue("(") {
		scan = c.scanBalanced("(", ")")
	}
	for _, t := range scan {
		if t.Kind == TokenString {
			n.Args = append(n.Args, &Node{Kind: NodeString, Value: t.Value, Line: t.Line, Col: t.Col})
		}
	}
	return []*Node{n}
}

func parseTypeDecl(toks []Token) []*Node {
	c := newCursor(toks)
	c.expect("type")
	if c.isValue("(") {
		inner := c.scanBalanced("(", ")")
		var nodes []*Node
		for _, line := range splitStatements(inner) {
			line = trimEdgeNewlines(line)
			if len(line) == 0 {
				continue
			}
			nodes = append(nodes, parseTypeSpec(newCursor(line))...)
		}
		return nodes
	}
	return parseTypeSpec(c)
}

func parseTypeSpec(c *cursor) []*Node {
	name := c.expectIdent()
	switch {
	case c.isValue("struct"):
		c.next()
		body := c.scanBalanced("{", "}")
		n := &Node{Kind: NodeTypedef, Name: name.Value, Line: name.Line, Col: name.Col}
		for _, line := range splitStatements(body) {
			line = trimEdgeNewlines(line)
			if len(line) == 0 {
				continue
			}
			if line[len(line)-1].Kind == TokenString {
				line = line[:len(line)-1] // field tag
			}
			n.Params = append(n.Params, parseParams(line)...)
		}
		return []*Node{n}
	case c.isValue("interface"):
		c.next()
		c.scanBalanced("{", "}")
		return []*Node{{Kind: NodeInterface, Name: name.Value, Line: name.Line, Col: name.Col}}
	case c.isValue("="):
		c.next()
		return []*Node{{Kind: NodeTypeAlias, Name: name.Value, Type: parseTypeRef(c), Line: name.Line, Col: name.Col}}
	default:
		n := &Node{Kind: NodeTypeAlias, Name: name.Value, Line: name.Line, Col: name.Col}
		if !c.done() {
			n.Type = parseTypeRef(c)
		}
		return []*Node{n}
	}
}

func parseFunc(toks []Token) *Node {
	c := newCursor(toks)
	kw := c.expect("func")
	n := &Node{Kind: NodeFunc, Line: kw.Line, Col: kw.Col}
	if c.isValue("(") {
		if recv := parseParams(c.scanBalanced("(", ")")); len(recv) > 0 {
			n.Recv = receiverTypeName(recv[0].Type)
		}
	}
	n.Name = c.expectIdent().Value
	n.Params = parseParams(c.scanBalanced("(", ")"))
	n.Results = parseResults(c)
	if c.isValue("{") {
		n.Body = parseStatements(c.scanBalanced("{", "}"))
	}
	return n
}

func receiverTypeName(t *TypeRef) string {
	for t != nil {
		if t.Kind == TypeName {
			return t.Name
		}
		t = t.Elem
	}
	return ""
}

func parseIfChain(toks []Token) []*Node {
	c := newCursor(toks)
	kw := c.expect("if")
	cond, body := parseCondBody(c)
	nodes := []*Node{{Kind: NodeIf, Cond: cond, Body: body, Line: kw.Line, Col: kw.Col}}
	for c.accept("else") {
		t := c.peek()
		if t.Kind == TokenIdent && t.Value == "if" {
			c.next()
			cond, body := parseCondBody(c)
			nodes = append(nodes, &Node{Kind: NodeElseIf, Cond: cond, Body: body, Line: t.Line, Col: t.Col})
			continue
		}
		nodes = append(nodes, &Node{Kind: NodeElse, Body: parseStatements(c.scanBalanced("{", "}")), Line: t.Line, Col: t.Col})
		break
	}
	return nodes
}

// parseCondBody collects header tokens up to the statement's opening brace
// at depth 0, then parses the braced body. Init clauses before a semicolon
// are real statements and are prepended to the body so declarations and
// calls inside them are still seen.
func parseCondBody(c *cursor) (*Node, []*Node) {
	header := stripNewlines(scanToBlock(c))
	body := parseStatements(c.scanBalanced("{", "}"))
	clauses := splitTopLevel(header, ";")
	cond := parseExpr(clauses[len(clauses)-1])
	for i := len(clauses) - 2; i >= 0; i-- {
		init := parseExpr(clauses[i])
		if init == nil {
			continue
		}
		if init.Kind != NodeDeclare && init.Kind != NodeAssign {
			init = &Node{Kind: NodeExec, X: init, Line: init.Line, Col: init.Col}
		}
		body = append([]*Node{init}, body...)
	}
	return cond, body
}

func scanToBlock(c *cursor) []Token {
	start := c.pos
	depth := 0
	for !c.done() {
		t := c.peek()
		if t.Kind == TokenSigil {
			if t.Value == "{" && depth == 0 {
				break
			}
			depth += depthDelta(t)
		}
		c.next()
	}
	return c.toks[start:c.pos]
}

func parseFor(toks []Token) *Node {
	c := newCursor(toks)
	kw := c.expect("for")
	header := stripNewlines(scanToBlock(c))
	body := parseStatements(c.scanBalanced("{", "}"))

	if i := indexTopLevel(header, "range"); i >= 0 {
		n := &Node{Kind: NodeForeach, Body: body, Line: kw.Line, Col: kw.Col}
		lhs := header[:i]
		if len(lhs) > 0 {
			if last := lhs[len(lhs)-1]; last.Kind == TokenSigil && (last.Value == ":=" || last.Value == "=") {
				lhs = lhs[:len(lhs)-1]
			}
		}
		for _, g := range splitTopLevel(lhs, ",") {
			if len(g) == 1 && g[0].Kind == TokenIdent {
				n.Names = append(n.Names, g[0].Value)
			}
		}
		n.X = parseExpr(header[i+1:])
		return n
	}

	n := &Node{Kind: NodeFor, Body: body, Line: kw.Line, Col: kw.Col}
	for _, clause := range splitTopLevel(header, ";") {
		if e := parseExpr(clause); e != nil {
			n.Args = append(n.Args, e)
		}
	}
	return n
}

func parseSwitch(toks []Token) *Node {
	c := newCursor(toks)
	kw := c.expect("switch")
	header := stripNewlines(scanToBlock(c))
	body := parseSwitchCases(c.scanBalanced("{", "}"))
	clauses := splitTopLevel(header, ";")
	subject := parseExpr(clauses[len(clauses)-1])
	for i := len(clauses) - 2; i >= 0; i-- {
		init := parseExpr(clauses[i])
		if init == nil {
			continue
		}
		if init.Kind != NodeDeclare && init.Kind != NodeAssign {
			init = &Node{Kind: NodeExec, X: init, Line: init.Line, Col: init.Col}
		}
		body = append([]*Node{init}, body...)
	}
	return &Node{Kind: NodeSwitch, Cond: subject, Body: body, Line: kw.Line, Col: kw.Col}
}

// parseSwitchCases slices case/default blocks by scanning literal case,
// default, and colon tokens at the switch's own depth; case bodies are not
// bracket-delimited, so recursive parsing cannot find their bounds.
func parseSwitchCases(toks []Token) []*Node {
	var cases []*Node
	var current *Node
	bodyStart := -1
	flush := func(end int) {
		if current != nil && bodyStart >= 0 {
			current.Body = parseStatements(toks[bodyStart:end])
			cases = append(cases, current)
		}
		current = nil
	}

	depth := 0
	i := 0
	for i < len(toks) {
		t := toks[i]
		if d := depthDelta(t); d != 0 {
			depth += d
			i++
			continue
		}
		if depth == 0 && t.Kind == TokenIdent && (t.Value == "case" || t.Value == "default") {
			flush(i)
			j := i + 1
			cd := 0
			for j < len(toks) {
				tj := toks[j]
				if d := depthDelta(tj); d != 0 {
					cd += d
					j++
					continue
				}
				if cd == 0 && tj.Kind == TokenSigil && tj.Value == ":" {
					break
				}
				j++
			}
			current = &Node{Line: t.Line, Col: t.Col}
			if t.Value == "case" {
				current.Kind = NodeCase
				current.Cond = parseExpr(toks[i+1 : j])
			} else {
				current.Kind = NodeDefault
			}
			bodyStart = j + 1
			i = j + 1
			continue
		}
		i++
	}
	flush(len(toks))
	return cases
}

func parseVarConst(toks []Token) []*Node {
	c := newCursor(toks)
	kw := c.next()
	isConst := kw.Value == "const"
	if c.isValue("(") {
		inner := c.scanBalanced("(", ")")
		group := &constGroup{}
		var nodes []*Node
		for _, line := range splitStatements(inner) {
			if n := parseDeclLine(trimEdgeNewlines(line), isConst, group); n != nil {
				nodes = append(nodes, n)
			}
		}
		return nodes
	}
	if n := parseDeclLine(trimEdgeNewlines(c.toks[c.pos:]), isConst, &constGroup{}); n != nil {
		return []*Node{n}
	}
	return nil
}

// constGroup carries iota substitution state across one const (...) block.
// The counter is the 0-based position within the group and increments only
// when iota is actually used; a line with no right-hand side inherits the
// previous right-hand-side tokens verbatim before substitution.
type constGroup struct {
	counter int
	lastRHS []Token
}

func (g *constGroup) substitute(rhs []Token) []Token {
	out := make([]Token, len(rhs))
	for i, t := range rhs {
		if t.Kind == TokenIdent && t.Value == "iota" {
			out[i] = Token{Kind: TokenNumber, Value: strconv.Itoa(g.counter), Line: t.Line, Col: t.Col}
			g.counter++
			continue
		}
		out[i] = t
	}
	return out
}

func parseDeclLine(toks []Token, isConst bool, group *constGroup) *Node {
	if len(toks) == 0 {
		return nil
	}
	n := &Node{Kind: NodeDeclare, Line: toks[0].Line, Col: toks[0].Col}

	lhs := toks
	var rhs []Token
	if eq := indexTopLevel(toks, "="); eq >= 0 {
		lhs = toks[:eq]
		rhs = toks[eq+1:]
	}

	i := 0
	for i < len(lhs) {
		if lhs[i].Kind != TokenIdent {
			break
		}
		n.Names = append(n.Names, lhs[i].Value)
		i++
		if i < len(lhs) && lhs[i].Kind == TokenSigil && lhs[i].Value == "," {
			i++
			continue
		}
		break
	}
	if i < len(lhs) {
		n.Type = parseTypeTokens(lhs[i:])
	}

	if isConst {
		if rhs == nil {
			rhs = group.lastRHS
		} else {
			group.lastRHS = rhs
		}
		rhs = group.substitute(rhs)
	}
	if len(rhs) > 0 {
		n.Y = parseExpr(rhs)
	}
	return n
}

func trimEdgeNewlines(toks []Token) []Token {
	start := 0
	for start < len(toks) && toks[start].Kind == TokenNewline {
		start++
	}
	end := len(toks)
	for end > start && toks[end-1].Kind == TokenNewline {
		end--
	}
	return toks[start:end]
}
