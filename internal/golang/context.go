// # internal/golang/context.go
package golang

// VarInfo records what is known about one declared name: its annotated
// type, if any, and the initializer expression it was last bound to.
type VarInfo struct {
	Type  string
	Value *Node
}

// FunctionScope holds the names visible inside one function body.
type FunctionScope struct {
	Params map[string]string
	Locals map[string]VarInfo
}

// TypeContext indexes a parsed file so extraction can resolve identifiers
// to their declared types and initializer values without re-walking the
// tree.
type TypeContext struct {
	Functions map[string]*FunctionScope
	Globals   map[string]VarInfo
	Typedefs  map[string][]Param
}

// BuildTypeContext collects function scopes, package globals, and struct
// definitions from a file's statement list.
func BuildTypeContext(nodes []*Node) *TypeContext {
	tc := &TypeContext{
		Functions: make(map[string]*FunctionScope),
		Globals:   make(map[string]VarInfo),
		Typedefs:  make(map[string][]Param),
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		switch n.Kind {
		case NodeFunc:
			scope := &FunctionScope{
				Params: make(map[string]string),
				Locals: make(map[string]VarInfo),
			}
			for _, p := range n.Params {
				if p.Name != "" {
					scope.Params[p.Name] = typeString(p.Type)
				}
			}
			collectLocals(n.Body, scope)
			tc.Functions[n.Name] = scope
		case NodeDeclare:
			recordDecl(n, tc.Globals)
		case NodeTypedef:
			tc.Typedefs[n.Name] = n.Params
		}
	}
	return tc
}

// collectLocals gathers declarations from a function body, descending into
// control-flow blocks and closure bodies. Closure locals land in the
// enclosing function's scope; events fired inside goroutine closures are
// attributed to the named function around them.
func collectLocals(body []*Node, scope *FunctionScope) {
	for _, n := range body {
		if n == nil {
			continue
		}
		switch n.Kind {
		case NodeDeclare, NodeAssign, NodeExec, NodeReturn, NodeInvoke, NodeDefer:
			collectExprLocals(n, scope)
		case NodeForeach:
			for _, name := range n.Names {
				if _, ok := scope.Locals[name]; !ok {
					scope.Locals[name] = VarInfo{}
				}
			}
			collectLocals(n.Body, scope)
		case NodeIf, NodeElseIf, NodeElse, NodeFor, NodeSwitch, NodeCase, NodeDefault:
			collectExprLocals(n.Cond, scope)
			for _, a := range n.Args {
				collectExprLocals(a, scope)
			}
			collectLocals(n.Body, scope)
		}
	}
}

// collectExprLocals finds declarations nested inside expressions: init
// clauses parsed as part of a condition, and closure bodies.
func collectExprLocals(n *Node, scope *FunctionScope) {
	if n == nil {
		return
	}
	switch n.Kind {
	case NodeDeclare:
		recordDecl(n, scope.Locals)
	case NodeAssign:
		recordAssign(n, scope.Locals)
	case NodeLambda:
		collectLocals(n.Body, scope)
	}
	for _, a := range n.Args {
		collectExprLocals(a, scope)
	}
	collectExprLocals(n.X, scope)
	collectExprLocals(n.Y, scope)
}

func recordDecl(n *Node, into map[string]VarInfo) {
	info := VarInfo{Type: typeString(n.Type)}
	if len(n.Names) == 1 {
		info.Value = n.Y
	}
	for _, name := range n.Names {
		if name == "_" {
			continue
		}
		into[name] = info
	}
}

// recordAssign tracks plain `x = expr` rebinds so later extraction sees the
// most recent initializer. Tuple and field targets are skipped.
func recordAssign(n *Node, into map[string]VarInfo) {
	if n.X == nil || n.X.Kind != NodeIdent || n.X.Value == "_" {
		return
	}
	info := into[n.X.Value]
	info.Value = n.Y
	into[n.X.Value] = info
}

func typeString(t *TypeRef) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// LookupVar resolves a name through one function's scope, then package
// globals.
func (tc *TypeContext) LookupVar(fn, name string) (VarInfo, bool) {
	if scope, ok := tc.Functions[fn]; ok {
		if info, ok := scope.Locals[name]; ok {
			return info, true
		}
		if typ, ok := scope.Params[name]; ok {
			return VarInfo{Type: typ}, true
		}
	}
	info, ok := tc.Globals[name]
	return info, ok
}
