// # internal/golang/ast.go
package golang

import "strings"

// NodeKind discriminates the closed set of AST node variants. Consumers
// switch on it exhaustively; adding a kind means reviewing every switch.
type NodeKind uint8

const (
	// Statement kinds.
	NodePackage NodeKind = iota
	NodeImport
	NodeTypedef
	NodeInterface
	NodeTypeAlias
	NodeFunc
	NodeIf
	NodeElseIf
	NodeElse
	NodeFor
	NodeForeach
	NodeSwitch
	NodeCase
	NodeDefault
	NodeDeclare
	NodeAssign
	NodeReturn
	NodeExec
	NodeInvoke
	NodeDefer
	NodeComment

	// Expression kinds.
	NodeExpr
	NodeCall
	NodeAccess
	NodeIndex
	NodeSlice
	NodeArrayLit
	NodeStructLit
	NodeCast
	NodeAlloc
	NodeLambda
	NodeOp
	NodeTuple
	NodeField

	// Leaf kinds.
	NodeIdent
	NodeString
	NodeNumber
	NodeChar
)

var nodeKindNames = [...]string{
	NodePackage: "package", NodeImport: "import", NodeTypedef: "typedef",
	NodeInterface: "interface", NodeTypeAlias: "typealias", NodeFunc: "func",
	NodeIf: "if", NodeElseIf: "elseif", NodeElse: "else", NodeFor: "for",
	NodeForeach: "foreach", NodeSwitch: "switch", NodeCase: "case",
	NodeDefault: "default", NodeDeclare: "declare", NodeAssign: "assign",
	NodeReturn: "return", NodeExec: "exec", NodeInvoke: "invoke",
	NodeDefer: "defer", NodeComment: "comment", NodeExpr: "expr",
	NodeCall: "call", NodeAccess: "access", NodeIndex: "index",
	NodeSlice: "slice", NodeArrayLit: "arraylit", NodeStructLit: "structlit",
	NodeCast: "cast", NodeAlloc: "alloc", NodeLambda: "lambda", NodeOp: "op",
	NodeTuple: "tuple", NodeField: "field", NodeIdent: "ident",
	NodeString: "string", NodeNumber: "number", NodeChar: "char",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// Node is one AST node. Which fields are populated depends on Kind:
//
//	package     Name
//	import      Args (string leaves, one per path)
//	typedef     Name, Params (struct fields)
//	interface   Name
//	typealias   Name, Type
//	func        Name, Recv, Params, Results, Body
//	if/elseif   Cond, Body; else has Body only
//	for         Args (header clauses), Body
//	foreach     Names (key/value), X (range operand), Body
//	switch      Cond (subject, may be nil), Body (case/default nodes)
//	case        Cond (match values), Body; default has Body only
//	declare     Names, Type, Y (initializer)
//	assign      X (targets), Y (value)
//	return      Args
//	exec        X
//	invoke      X (go statement operand)
//	defer       X
//	comment     Value
//	expr        Body (reduced sub-node sequence)
//	call        X (callee), Args
//	access      X (operand), Name (member)
//	index       X, Y
//	slice       X, Args (low/high bounds)
//	arraylit    Type (element type), Args (elements)
//	structlit   Name (literal type, "" for map literals), Type, Args (fields)
//	cast        Name (target type), X
//	alloc       Type, Args (extra make arguments)
//	lambda      Params, Results, Body
//	op          Value (sigil text)
//	tuple       Args
//	field       Name (simple key), Y (computed key), X (value)
//	leaves      Value
//
// Call and structlit nodes always carry the Line/Col where they start.
type Node struct {
	Kind    NodeKind
	Name    string
	Value   string
	Recv    string
	Type    *TypeRef
	Params  []Param
	Results []*TypeRef
	X       *Node
	Y       *Node
	Cond    *Node
	Args    []*Node
	Body    []*Node
	Names   []string
	Line    int
	Col     int
}

// Param is a named, typed entry in a parameter list or struct field list.
// Type may be nil when the declaration carried no resolvable type.
type Param struct {
	Name string
	Type *TypeRef
}

type TypeKind uint8

const (
	TypeName TypeKind = iota
	TypePointer
	TypeArray
	TypeSlice
	TypeVariadic
	TypeMap
	TypeFunc
	TypeChan
	TypeInterface
)

type ChanDir uint8

const (
	ChanBoth ChanDir = iota
	ChanSend
	ChanRecv
)

// TypeRef is a parsed type expression.
type TypeRef struct {
	Kind    TypeKind
	Name    string
	Key     *TypeRef
	Elem    *TypeRef
	Params  []*TypeRef
	Results []*TypeRef
	Dir     ChanDir
	Len     string
}

func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeName:
		return t.Name
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeArray:
		return "[" + t.Len + "]" + t.Elem.String()
	case TypeSlice:
		return "[]" + t.Elem.String()
	case TypeVariadic:
		return "..." + t.Elem.String()
	case TypeMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case TypeFunc:
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, p.String())
		}
		out := "func(" + strings.Join(params, ", ") + ")"
		if len(t.Results) == 1 {
			out += " " + t.Results[0].String()
		} else if len(t.Results) > 1 {
			results := make([]string, 0, len(t.Results))
			for _, r := range t.Results {
				results = append(results, r.String())
			}
			out += " (" + strings.Join(results, ", ") + ")"
		}
		return out
	case TypeChan:
		switch t.Dir {
		case ChanSend:
			return "chan<- " + t.Elem.String()
		case ChanRecv:
			return "<-chan " + t.Elem.String()
		}
		return "chan " + t.Elem.String()
	case TypeInterface:
		return "interface{}"
	}
	return ""
}

// accessPath flattens an ident/access chain like pkg.Type into its dotted
// form. Returns "" when the chain contains anything other than plain
// identifiers.
func accessPath(n *Node) string {
	switch n.Kind {
	case NodeIdent:
		return n.Value
	case NodeAccess:
		base := accessPath(n.X)
		if base == "" {
			return ""
		}
		return base + "." + n.Name
	}
	return ""
}
