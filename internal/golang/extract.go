// # internal/golang/extract.go
package golang

import (
	"strings"

	"trackscan/internal/schema"
)

// maxSchemaDepth bounds property-schema inference so a pathological
// initializer chain cannot recurse without end.
const maxSchemaDepth = 20

var numericTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "float32": true, "float64": true,
	"complex64": true, "complex128": true, "byte": true, "rune": true,
}

// structShape describes how one provider lays out its event struct: which
// field carries the event name and which payload fields are flattened into
// the property map instead of appearing as single properties.
type structShape struct {
	carrier string
	flatten map[string]bool
}

var (
	segmentShape   = structShape{carrier: "Event", flatten: map[string]bool{"Properties": true}}
	amplitudeShape = structShape{carrier: "EventType", flatten: map[string]bool{"EventProperties": true, "EventOptions": true}}
)

// extractor evaluates one detected candidate against the file's type
// context, scoped to the enclosing function for identifier resolution.
type extractor struct {
	tc       *TypeContext
	funcName string
}

// extract pulls the event name and property schema out of a matched node.
// A nil return means the candidate did not have the expected shape; the
// caller keeps walking its sub-expressions.
func (e *extractor) extract(n *Node, src schema.Source) *schema.TrackingEvent {
	var name string
	var props map[string]*schema.PropertySchema
	switch src {
	case schema.SourceSegment, schema.SourcePostHog:
		name, props = e.structEvent(e.literalOf(n), segmentShape)
	case schema.SourceAmplitude:
		name, props = e.structEvent(e.literalOf(n), amplitudeShape)
	case schema.SourceMixpanel:
		name, props = e.mixpanelEvent(n)
	case schema.SourceSnowplow:
		name, props = e.snowplowEvent(n)
	case schema.SourceCustom:
		name, props = e.customEvent(n)
	}
	if name == "" {
		return nil
	}
	return &schema.TrackingEvent{
		EventName:    name,
		Source:       src,
		Properties:   props,
		Line:         n.Line,
		FunctionName: e.funcName,
	}
}

func (e *extractor) structEvent(lit *Node, shape structShape) (string, map[string]*schema.PropertySchema) {
	if lit == nil {
		return "", nil
	}
	var name string
	props := make(map[string]*schema.PropertySchema)
	for _, f := range lit.Args {
		key := fieldKey(f)
		if key == "" || f.X == nil {
			continue
		}
		if key == shape.carrier {
			name, _ = e.stringValue(f.X)
			continue
		}
		if shape.flatten[key] {
			e.mergeProperties(props, f.X)
			continue
		}
		props[key] = e.schemaOf(f.X, 0)
	}
	return name, props
}

// mixpanelEvent handles mp.Track(ctx, []*mixpanel.Event{mp.NewEvent(name,
// distinctId, props)}). The event name is the first argument of the
// nested NewEvent call.
func (e *extractor) mixpanelEvent(n *Node) (string, map[string]*schema.PropertySchema) {
	ev := e.findNewEvent(n)
	if ev == nil || len(ev.Args) == 0 {
		return "", nil
	}
	name, ok := e.stringValue(ev.Args[0])
	if !ok {
		return "", nil
	}
	props := make(map[string]*schema.PropertySchema)
	if len(ev.Args) > 1 {
		props["DistinctId"] = e.schemaOf(ev.Args[1], 0)
	}
	if len(ev.Args) > 2 {
		e.mergeProperties(props, ev.Args[2])
	}
	return name, props
}

func (e *extractor) findNewEvent(n *Node) *Node {
	for _, a := range n.Args {
		if a == nil {
			continue
		}
		arr := a
		if arr.Kind == NodeIdent {
			if info, ok := e.tc.LookupVar(e.funcName, arr.Value); ok && info.Value != nil {
				arr = info.Value
			}
		}
		if arr.Kind != NodeArrayLit {
			continue
		}
		for _, el := range arr.Args {
			if el != nil && el.Kind == NodeCall && el.X != nil && el.X.Kind == NodeAccess && el.X.Name == "NewEvent" {
				return el
			}
		}
	}
	return nil
}

// snowplowEvent handles tracker.TrackStructEvent(sp.StructuredEvent{...})
// where every field value sits behind a typed-pointer helper such as
// sp.NewString. The Action field carries the event name.
func (e *extractor) snowplowEvent(n *Node) (string, map[string]*schema.PropertySchema) {
	lit := e.literalOf(n)
	if lit == nil {
		return "", nil
	}
	var name string
	props := make(map[string]*schema.PropertySchema)
	for _, f := range lit.Args {
		key := fieldKey(f)
		if key == "" || f.X == nil {
			continue
		}
		value := f.X
		implied := ""
		if payload, typ, ok := helperArg(value); ok {
			value = payload
			implied = typ
		}
		if key == "Action" {
			if text, ok := literalText(value); ok {
				name = text
			} else {
				name, _ = e.stringValue(value)
			}
			continue
		}
		sch := e.schemaOf(value, 0)
		if sch.Type == schema.TypeAny && implied != "" {
			sch = typeSchema(implied)
		}
		props[key] = sch
	}
	return name, props
}

func (e *extractor) customEvent(n *Node) (string, map[string]*schema.PropertySchema) {
	if len(n.Args) == 0 {
		return "", nil
	}
	name, ok := e.stringValue(n.Args[0])
	if !ok {
		return "", nil
	}
	props := make(map[string]*schema.PropertySchema)
	if len(n.Args) > 1 {
		e.mergeProperties(props, n.Args[1])
	}
	return name, props
}

// literalOf finds the struct literal a candidate carries: the node itself,
// the first literal argument of a wrapping call, or a call argument
// resolved back to the literal that initialized it.
func (e *extractor) literalOf(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == NodeStructLit {
		return n
	}
	if n.Kind != NodeCall {
		return nil
	}
	for _, a := range n.Args {
		if lit := e.resolveLiteral(a); lit != nil {
			return lit
		}
	}
	return nil
}

func (e *extractor) resolveLiteral(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == NodeStructLit && n.Name != "" {
		return n
	}
	if n.Kind == NodeIdent {
		if info, ok := e.tc.LookupVar(e.funcName, n.Value); ok && info.Value != nil && info.Value.Kind == NodeStructLit && info.Value.Name != "" {
			return info.Value
		}
	}
	return nil
}

// mergeProperties flattens a payload expression into the property map:
// builder chains contribute one property per Set call, and literal
// objects contribute their fields. Payloads of unknown shape contribute
// nothing.
func (e *extractor) mergeProperties(props map[string]*schema.PropertySchema, v *Node) {
	if pairs, ok := e.setChain(v); ok {
		for _, p := range pairs {
			props[p.key] = p.schema
		}
		return
	}
	sch := e.schemaOf(v, 0)
	if sch.Type == schema.TypeObject {
		for k, s := range sch.Properties {
			props[k] = s
		}
	}
}

type propPair struct {
	key    string
	schema *schema.PropertySchema
}

// setChain unwinds NewProperties().Set(k, v).Set(k, v) builder chains,
// outermost call first, returning pairs in source order.
func (e *extractor) setChain(n *Node) ([]propPair, bool) {
	var pairs []propPair
	found := false
	for n != nil && n.Kind == NodeCall {
		x := n.X
		if x == nil || x.Kind != NodeAccess {
			break
		}
		if x.Name == "Set" && len(n.Args) == 2 {
			if key, ok := literalText(n.Args[0]); ok {
				pairs = append([]propPair{{key: key, schema: e.schemaOf(n.Args[1], 0)}}, pairs...)
				found = true
			}
		}
		n = x.X
	}
	return pairs, found
}

// schemaOf infers a JSON-schema-like type for one property value
// expression.
func (e *extractor) schemaOf(n *Node, depth int) *schema.PropertySchema {
	if n == nil || depth > maxSchemaDepth {
		return &schema.PropertySchema{Type: schema.TypeAny}
	}
	switch n.Kind {
	case NodeString:
		return &schema.PropertySchema{Type: schema.TypeString}
	case NodeNumber, NodeChar:
		return &schema.PropertySchema{Type: schema.TypeNumber}
	case NodeIdent:
		return e.identSchema(n.Value, depth)
	case NodeStructLit:
		return e.objectSchema(n, depth)
	case NodeArrayLit:
		return typeSchema(schema.TypeArray)
	case NodeCast:
		return typeSchema(schemaTypeOf(n.Name, e.tc))
	case NodeAlloc:
		return typeSchema(schemaTypeOf(typeString(n.Type), e.tc))
	case NodeCall:
		if payload, implied, ok := helperArg(n); ok {
			sch := e.schemaOf(payload, depth+1)
			if sch.Type == schema.TypeAny {
				sch = typeSchema(implied)
			}
			return sch
		}
	}
	return &schema.PropertySchema{Type: schema.TypeAny}
}

// identSchema resolves a bare identifier: keyword literals first, then the
// declared type, then the initializing expression when the type alone is
// not enough.
func (e *extractor) identSchema(name string, depth int) *schema.PropertySchema {
	switch name {
	case "true", "false":
		return &schema.PropertySchema{Type: schema.TypeBoolean}
	case "nil":
		return &schema.PropertySchema{Type: schema.TypeNull}
	}
	info, ok := e.tc.LookupVar(e.funcName, name)
	if !ok {
		return &schema.PropertySchema{Type: schema.TypeAny}
	}
	typ := schemaTypeOf(info.Type, e.tc)
	if info.Value != nil && info.Value.Kind == NodeStructLit && (typ == schema.TypeObject || typ == schema.TypeAny) {
		return e.objectSchema(info.Value, depth+1)
	}
	if typ == schema.TypeAny && info.Value != nil {
		return e.schemaOf(info.Value, depth+1)
	}
	return typeSchema(typ)
}

func (e *extractor) objectSchema(lit *Node, depth int) *schema.PropertySchema {
	sch := &schema.PropertySchema{Type: schema.TypeObject, Properties: make(schema.PropertyMap)}
	for _, f := range lit.Args {
		key := fieldKey(f)
		if key == "" || f.X == nil {
			continue
		}
		sch.Properties[key] = e.schemaOf(f.X, depth+1)
	}
	return sch
}

// helperArg unwraps the snowplow typed-pointer helpers, returning the
// payload expression and the schema type the helper implies.
func helperArg(n *Node) (*Node, string, bool) {
	if n == nil || n.Kind != NodeCall || n.X == nil || n.X.Kind != NodeAccess || len(n.Args) != 1 {
		return nil, "", false
	}
	switch n.X.Name {
	case "NewString":
		return n.Args[0], schema.TypeString, true
	case "NewFloat64", "NewInt64":
		return n.Args[0], schema.TypeNumber, true
	}
	return nil, "", false
}

func fieldKey(f *Node) string {
	if f == nil || f.Kind != NodeField {
		return ""
	}
	if f.Name != "" {
		return f.Name
	}
	if f.Y != nil && f.Y.Kind == NodeString {
		return f.Y.Value
	}
	return ""
}

// literalText returns the source text of a string or numeric literal.
func literalText(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case NodeString, NodeNumber:
		return n.Value, true
	}
	return "", false
}

// stringValue reads a string literal, following one level of local or
// global indirection for names bound to a string initializer.
func (e *extractor) stringValue(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Kind == NodeString {
		return n.Value, true
	}
	if n.Kind == NodeIdent {
		if info, ok := e.tc.LookupVar(e.funcName, n.Value); ok && info.Value != nil && info.Value.Kind == NodeString {
			return info.Value.Value, true
		}
	}
	return "", false
}

func typeSchema(typ string) *schema.PropertySchema {
	if typ == schema.TypeArray {
		return &schema.PropertySchema{Type: schema.TypeArray, Items: &schema.PropertySchema{Type: schema.TypeAny}}
	}
	return &schema.PropertySchema{Type: typ}
}

// schemaTypeOf maps a declared Go type to its schema type. Pointers are
// dereferenced and the numeric family collapses to number.
func schemaTypeOf(goType string, tc *TypeContext) string {
	t := strings.TrimPrefix(strings.TrimSpace(goType), "*")
	switch {
	case t == "":
		return schema.TypeAny
	case t == "string":
		return schema.TypeString
	case t == "bool":
		return schema.TypeBoolean
	case numericTypes[t]:
		return schema.TypeNumber
	case strings.HasPrefix(t, "[") || strings.HasPrefix(t, "..."):
		return schema.TypeArray
	case strings.HasPrefix(t, "map["):
		return schema.TypeObject
	case t == "any" || t == "interface{}":
		return schema.TypeAny
	}
	if tc != nil {
		if _, ok := tc.Typedefs[t]; ok {
			return schema.TypeObject
		}
		if i := strings.IndexByte(t, '.'); i >= 0 {
			if _, ok := tc.Typedefs[t[i+1:]]; ok {
				return schema.TypeObject
			}
		}
	}
	return schema.TypeAny
}
