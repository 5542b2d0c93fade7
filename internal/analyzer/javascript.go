// # internal/analyzer/javascript.go
package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"trackscan/internal/schema"
)

// scriptAnalyzer finds tracking calls in JavaScript and TypeScript source:
// segment (analytics.track), mixpanel (mixpanel.track), posthog
// (posthog.capture), amplitude (amplitude.track and any logEvent method),
// rudderstack (rudderanalytics.track), snowplow (trackStructEvent and
// tracker.track(buildStructEvent(...))), google analytics (gtag('event',
// ...)), and a configured custom function. The typescript and tsx grammars
// share the same node kinds for everything inspected here, so one extractor
// serves all three languages.
type scriptAnalyzer struct {
	language string
	lang     *sitter.Language
}

func newJavaScriptAnalyzer() (Analyzer, error) {
	return newScriptAnalyzer("javascript")
}

func newScriptAnalyzer(language string) (Analyzer, error) {
	lang, err := loadGrammar(language)
	if err != nil {
		return nil, err
	}
	return &scriptAnalyzer{language: language, lang: lang}, nil
}

func (a *scriptAnalyzer) Language() string { return a.language }

func (a *scriptAnalyzer) Analyze(path string, src []byte, custom string) ([]schema.TrackingEvent, error) {
	tree, err := parseTree(a.lang, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	e := &scriptExtractor{
		source:   src,
		path:     path,
		custom:   custom,
		function: "global",
		vars:     make(map[string]*schema.PropertySchema),
	}
	e.walk(tree.RootNode())
	return dedupe(e.events), nil
}

type scriptExtractor struct {
	source   []byte
	path     string
	custom   string
	function string
	vars     map[string]*schema.PropertySchema
	events   []schema.TrackingEvent
}

func (e *scriptExtractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "function_declaration", "function_expression", "method_definition":
		e.walkFunction(node, e.text(node.ChildByFieldName("name")))
		return
	case "arrow_function":
		// Callbacks stay attributed to the enclosing named function.
		e.walkFunction(node, "")
		return
	case "variable_declarator":
		name := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if name != nil && name.Kind() == "identifier" && value != nil && isFunctionKind(value.Kind()) {
			e.walkFunction(value, e.text(name))
			return
		}
		e.recordDeclarator(node)
	case "assignment_expression":
		e.recordAssignment(node)
	case "call_expression":
		e.extractCall(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

func isFunctionKind(kind string) bool {
	return kind == "arrow_function" || kind == "function_expression"
}

// walkFunction enters a function body with the variable scope inherited
// from the enclosing function, so names declared outside a callback still
// resolve inside it.
func (e *scriptExtractor) walkFunction(node *sitter.Node, name string) {
	outerFunction := e.function
	outerVars := e.vars

	if name != "" {
		e.function = name
	}
	e.vars = make(map[string]*schema.PropertySchema, len(outerVars))
	for k, v := range outerVars {
		e.vars[k] = v
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		e.collectParams(params)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body)
	}

	e.function = outerFunction
	e.vars = outerVars
}

func (e *scriptExtractor) collectParams(params *sitter.Node) {
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil || pattern.Kind() != "identifier" {
				continue
			}
			if typ := p.ChildByFieldName("type"); typ != nil {
				if inner := firstNamed(typ); inner != nil {
					e.vars[e.text(pattern)] = tsTypeSchema(e.text(inner))
					continue
				}
			}
			if t := scriptLiteralType(p.ChildByFieldName("value")); t != "" {
				e.vars[e.text(pattern)] = &schema.PropertySchema{Type: t}
			}
		case "assignment_pattern":
			left := p.ChildByFieldName("left")
			if left == nil || left.Kind() != "identifier" {
				continue
			}
			if t := scriptLiteralType(p.ChildByFieldName("right")); t != "" {
				e.vars[e.text(left)] = &schema.PropertySchema{Type: t}
			}
		}
	}
}

func (e *scriptExtractor) recordDeclarator(node *sitter.Node) {
	name := node.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		if inner := firstNamed(typ); inner != nil {
			e.vars[e.text(name)] = tsTypeSchema(e.text(inner))
			return
		}
	}
	if t := scriptLiteralType(e.unwrap(node.ChildByFieldName("value"))); t != "" {
		e.vars[e.text(name)] = &schema.PropertySchema{Type: t}
	}
}

func (e *scriptExtractor) recordAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	if t := scriptLiteralType(e.unwrap(node.ChildByFieldName("right"))); t != "" {
		e.vars[e.text(left)] = &schema.PropertySchema{Type: t}
	}
}

func (e *scriptExtractor) extractCall(call *sitter.Node) {
	src, ok := e.detectSource(call)
	if !ok {
		return
	}
	name := e.eventName(call, src)
	if name == "" {
		return
	}
	e.events = append(e.events, schema.TrackingEvent{
		EventName:    name,
		Source:       src,
		Properties:   e.properties(call, src),
		FilePath:     e.path,
		Line:         int(call.StartPosition().Row) + 1,
		FunctionName: e.function,
	})
}

var scriptMethodSources = map[[2]string]schema.Source{
	{"analytics", "track"}:       schema.SourceSegment,
	{"mixpanel", "track"}:        schema.SourceMixpanel,
	{"posthog", "capture"}:       schema.SourcePostHog,
	{"amplitude", "track"}:       schema.SourceAmplitude,
	{"rudderanalytics", "track"}: schema.SourceRudderstack,
}

func (e *scriptExtractor) detectSource(call *sitter.Node) (schema.Source, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Kind() {
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		method := e.text(fn.ChildByFieldName("property"))
		if obj != nil && obj.Kind() == "identifier" {
			if src, ok := scriptMethodSources[[2]string{e.text(obj), method}]; ok {
				return src, true
			}
		}
		switch method {
		case "logEvent":
			return schema.SourceAmplitude, true
		case "track":
			args := e.callArgs(call)
			if len(args) > 0 && e.calleeName(args[0]) == "buildStructEvent" {
				return schema.SourceSnowplow, true
			}
		}
	case "identifier":
		name := e.text(fn)
		switch {
		case name == "trackStructEvent" || name == "buildStructEvent":
			return schema.SourceSnowplow, true
		case name == "gtag" && e.isGtagEvent(call):
			return schema.SourceGoogleAnalytics, true
		case e.custom != "" && name == e.custom:
			return schema.SourceCustom, true
		}
	}
	return "", false
}

// isGtagEvent matches gtag('event', ...); other gtag commands such as
// 'config' or 'set' are not tracking calls.
func (e *scriptExtractor) isGtagEvent(call *sitter.Node) bool {
	args := e.callArgs(call)
	if len(args) == 0 {
		return false
	}
	command, ok := e.stringValue(args[0])
	return ok && command == "event"
}

func (e *scriptExtractor) eventName(call *sitter.Node, src schema.Source) string {
	args := e.callArgs(call)
	switch src {
	case schema.SourceGoogleAnalytics:
		if len(args) >= 2 {
			if name, ok := e.stringValue(args[1]); ok {
				return name
			}
		}
	case schema.SourceSnowplow:
		if obj := e.snowplowObject(call); obj != nil {
			if name, ok := e.stringValue(e.objectValue(obj, "action")); ok {
				return name
			}
		}
	default:
		if len(args) >= 1 {
			if name, ok := e.stringValue(args[0]); ok {
				return name
			}
		}
	}
	return ""
}

func (e *scriptExtractor) properties(call *sitter.Node, src schema.Source) map[string]*schema.PropertySchema {
	props := make(map[string]*schema.PropertySchema)
	args := e.callArgs(call)

	switch src {
	case schema.SourceSnowplow:
		if obj := e.snowplowObject(call); obj != nil {
			e.objectProperties(obj, "action", props)
		}
	case schema.SourceGoogleAnalytics:
		if len(args) > 2 && args[2].Kind() == "object" {
			e.objectProperties(args[2], "", props)
		}
	default:
		if len(args) > 1 && args[1].Kind() == "object" {
			e.objectProperties(args[1], "", props)
		}
	}
	return props
}

// snowplowObject finds the structured-event object literal, either passed
// directly or through a buildStructEvent(...) wrapper.
func (e *scriptExtractor) snowplowObject(call *sitter.Node) *sitter.Node {
	args := e.callArgs(call)
	if len(args) == 0 {
		return nil
	}
	first := args[0]
	if e.calleeName(first) == "buildStructEvent" {
		inner := e.callArgs(first)
		if len(inner) > 0 && inner[0].Kind() == "object" {
			return inner[0]
		}
		return nil
	}
	if first.Kind() == "object" {
		return first
	}
	return nil
}

func (e *scriptExtractor) objectProperties(obj *sitter.Node, skip string, props map[string]*schema.PropertySchema) {
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		entry := obj.NamedChild(i)
		switch entry.Kind() {
		case "pair":
			key, ok := e.objectKey(entry.ChildByFieldName("key"))
			if !ok || (skip != "" && key == skip) {
				continue
			}
			if prop := e.valueSchema(entry.ChildByFieldName("value"), 0); prop != nil {
				props[key] = prop
			}
		case "shorthand_property_identifier":
			name := e.text(entry)
			if skip != "" && name == skip {
				continue
			}
			props[name] = e.identSchema(name)
		}
	}
}

func (e *scriptExtractor) valueSchema(node *sitter.Node, depth int) *schema.PropertySchema {
	if node == nil || depth > maxInferDepth {
		return nil
	}
	node = e.unwrap(node)
	if t := scriptLiteralType(node); t != "" {
		return &schema.PropertySchema{Type: t}
	}
	switch node.Kind() {
	case "identifier":
		return e.identSchema(e.text(node))
	case "object":
		nested := make(map[string]*schema.PropertySchema)
		for i := uint(0); i < node.NamedChildCount(); i++ {
			entry := node.NamedChild(i)
			switch entry.Kind() {
			case "pair":
				key, ok := e.objectKey(entry.ChildByFieldName("key"))
				if !ok {
					continue
				}
				if prop := e.valueSchema(entry.ChildByFieldName("value"), depth+1); prop != nil {
					nested[key] = prop
				}
			case "shorthand_property_identifier":
				nested[e.text(entry)] = e.identSchema(e.text(entry))
			}
		}
		return &schema.PropertySchema{Type: schema.TypeObject, Properties: nested}
	case "array":
		return &schema.PropertySchema{
			Type:  schema.TypeArray,
			Items: &schema.PropertySchema{Type: e.arrayItemType(node)},
		}
	case "unary_expression":
		op := e.text(node.ChildByFieldName("operator"))
		switch op {
		case "-", "+":
			return e.valueSchema(node.ChildByFieldName("argument"), depth+1)
		case "!":
			return &schema.PropertySchema{Type: schema.TypeBoolean}
		}
	}
	return nil
}

func (e *scriptExtractor) identSchema(name string) *schema.PropertySchema {
	if prop, ok := e.vars[name]; ok {
		return prop
	}
	return &schema.PropertySchema{Type: schema.TypeAny}
}

func (e *scriptExtractor) arrayItemType(arr *sitter.Node) string {
	var types []string
	for i := uint(0); i < arr.NamedChildCount(); i++ {
		element := e.unwrap(arr.NamedChild(i))
		if t := scriptLiteralType(element); t != "" {
			types = append(types, t)
			continue
		}
		switch element.Kind() {
		case "identifier":
			prop := e.identSchema(e.text(element))
			if prop.Properties == nil && prop.Items == nil {
				types = append(types, prop.Type)
			} else {
				types = append(types, schema.TypeAny)
			}
		case "object":
			types = append(types, schema.TypeObject)
		case "array":
			types = append(types, schema.TypeArray)
		case "comment":
		default:
			types = append(types, schema.TypeAny)
		}
	}
	return combineItemTypes(types)
}

func (e *scriptExtractor) callArgs(call *sitter.Node) []*sitter.Node {
	list := call.ChildByFieldName("arguments")
	if list == nil {
		return nil
	}
	var args []*sitter.Node
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		args = append(args, e.unwrap(child))
	}
	return args
}

func (e *scriptExtractor) calleeName(node *sitter.Node) string {
	if node == nil || node.Kind() != "call_expression" {
		return ""
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return ""
	}
	return e.text(fn)
}

func (e *scriptExtractor) objectValue(obj *sitter.Node, key string) *sitter.Node {
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		entry := obj.NamedChild(i)
		if entry.Kind() != "pair" {
			continue
		}
		if k, ok := e.objectKey(entry.ChildByFieldName("key")); ok && k == key {
			return e.unwrap(entry.ChildByFieldName("value"))
		}
	}
	return nil
}

func (e *scriptExtractor) objectKey(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "property_identifier":
		return e.text(node), true
	case "string":
		return e.stringValue(node)
	case "number":
		return e.text(node), true
	}
	return "", false
}

// unwrap strips wrappers that carry no type information of their own:
// parentheses, TypeScript as/satisfies casts, non-null assertions, await.
func (e *scriptExtractor) unwrap(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "parenthesized_expression", "as_expression", "satisfies_expression",
			"non_null_expression", "await_expression":
			inner := firstNamed(node)
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return node
}

// stringValue returns the content of a string literal. Template strings
// count only when they carry no substitutions.
func (e *scriptExtractor) stringValue(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string", "template_string":
		var content strings.Builder
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "template_substitution":
				return "", false
			case "string_fragment", "escape_sequence":
				content.WriteString(e.text(child))
			}
		}
		return content.String(), true
	}
	return "", false
}

func (e *scriptExtractor) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(e.source[node.StartByte():node.EndByte()])
}

func firstNamed(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "comment" {
			return child
		}
	}
	return nil
}

func scriptLiteralType(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string", "template_string":
		return schema.TypeString
	case "number":
		return schema.TypeNumber
	case "true", "false":
		return schema.TypeBoolean
	case "null", "undefined":
		return schema.TypeNull
	}
	return ""
}

// tsTypeSchema converts a TypeScript type annotation to a property schema.
func tsTypeSchema(text string) *schema.PropertySchema {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "[]") {
		return &schema.PropertySchema{
			Type:  schema.TypeArray,
			Items: tsTypeSchema(strings.TrimSuffix(text, "[]")),
		}
	}
	if inner, ok := strings.CutPrefix(text, "Array<"); ok && strings.HasSuffix(inner, ">") {
		return &schema.PropertySchema{
			Type:  schema.TypeArray,
			Items: tsTypeSchema(strings.TrimSuffix(inner, ">")),
		}
	}
	switch text {
	case "string":
		return &schema.PropertySchema{Type: schema.TypeString}
	case "number", "bigint":
		return &schema.PropertySchema{Type: schema.TypeNumber}
	case "boolean":
		return &schema.PropertySchema{Type: schema.TypeBoolean}
	case "null", "undefined", "void":
		return &schema.PropertySchema{Type: schema.TypeNull}
	case "object":
		return &schema.PropertySchema{Type: schema.TypeObject}
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "Record<") {
		return &schema.PropertySchema{Type: schema.TypeObject}
	}
	return &schema.PropertySchema{Type: schema.TypeAny}
}
