// # internal/analyzer/python.go
package analyzer

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"trackscan/internal/schema"
)

// pythonAnalyzer finds tracking calls in Python source: segment
// (analytics.track), mixpanel (mp.track), rudderstack
// (rudder_analytics.track), posthog (posthog.capture, positional or keyword
// form), amplitude (client.track(BaseEvent(...))), snowplow
// (tracker.track(StructuredEvent(...)) and tracker.track_struct_event), and
// a configured custom function.
type pythonAnalyzer struct {
	lang *sitter.Language
}

func newPythonAnalyzer() (Analyzer, error) {
	lang, err := loadGrammar("python")
	if err != nil {
		return nil, err
	}
	return &pythonAnalyzer{lang: lang}, nil
}

func (a *pythonAnalyzer) Language() string { return "python" }

func (a *pythonAnalyzer) Analyze(path string, src []byte, custom string) ([]schema.TrackingEvent, error) {
	tree, err := parseTree(a.lang, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	e := &pythonExtractor{
		source:   src,
		path:     path,
		custom:   custom,
		function: "global",
		vars:     make(map[string]*schema.PropertySchema),
	}
	e.walk(tree.RootNode())
	return dedupe(e.events), nil
}

type pythonExtractor struct {
	source   []byte
	path     string
	custom   string
	function string
	vars     map[string]*schema.PropertySchema
	events   []schema.TrackingEvent
}

func (e *pythonExtractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "function_definition", "class_definition":
		e.walkScope(node)
		return
	case "assignment":
		e.recordAssignment(node)
	case "call":
		e.extractCall(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

// walkScope enters a function or class body with a fresh variable scope and
// the definition name as the attribution context for events found inside.
func (e *pythonExtractor) walkScope(node *sitter.Node) {
	outerFunction := e.function
	outerVars := e.vars

	e.function = e.text(node.ChildByFieldName("name"))
	e.vars = make(map[string]*schema.PropertySchema)
	if params := node.ChildByFieldName("parameters"); params != nil {
		e.collectParams(params)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body)
	}

	e.function = outerFunction
	e.vars = outerVars
}

func (e *pythonExtractor) collectParams(params *sitter.Node) {
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case "typed_parameter":
			name := p.NamedChild(0)
			typ := p.ChildByFieldName("type")
			if name != nil && name.Kind() == "identifier" && typ != nil {
				e.vars[e.text(name)] = annotationSchema(e.text(typ))
			}
		case "typed_default_parameter":
			name := p.ChildByFieldName("name")
			typ := p.ChildByFieldName("type")
			if name != nil && typ != nil {
				e.vars[e.text(name)] = annotationSchema(e.text(typ))
			}
		}
	}
}

// recordAssignment infers variable types from annotated assignments and
// from literal right-hand sides.
func (e *pythonExtractor) recordAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		e.vars[e.text(left)] = annotationSchema(e.text(typ))
		return
	}
	if t := pythonLiteralType(node.ChildByFieldName("right")); t != "" {
		e.vars[e.text(left)] = &schema.PropertySchema{Type: t}
	}
}

func (e *pythonExtractor) extractCall(call *sitter.Node) {
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

var pythonMethodSources = map[[2]string]schema.Source{
	{"analytics", "track"}:        schema.SourceSegment,
	{"mp", "track"}:               schema.SourceMixpanel,
	{"mixpanel", "track"}:         schema.SourceMixpanel,
	{"rudder_analytics", "track"}: schema.SourceRudderstack,
	{"posthog", "capture"}:        schema.SourcePostHog,
}

func (e *pythonExtractor) detectSource(call *sitter.Node) (schema.Source, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Kind() {
	case "attribute":
		obj := fn.ChildByFieldName("object")
		if obj == nil || obj.Kind() != "identifier" {
			return "", false
		}
		method := e.text(fn.ChildByFieldName("attribute"))
		if src, ok := pythonMethodSources[[2]string{e.text(obj), method}]; ok {
			return src, true
		}
		args, _ := e.callArgs(call)
		switch method {
		case "track":
			if len(args) > 0 {
				switch {
				case e.calleeName(args[0]) == "BaseEvent":
					return schema.SourceAmplitude, true
				case e.calleeName(args[0]) == "StructuredEvent":
					return schema.SourceSnowplow, true
				case args[0].Kind() == "identifier" && e.text(obj) == "tracker":
					return schema.SourceSnowplow, true
				}
			}
		case "track_struct_event":
			return schema.SourceSnowplow, true
		}
	case "identifier":
		name := e.text(fn)
		switch {
		case name == "trackStructEvent" || name == "buildStructEvent":
			return schema.SourceSnowplow, true
		case name == "snowplow" && e.isSnowplowDispatch(call):
			return schema.SourceSnowplow, true
		case e.custom != "" && name == e.custom:
			return schema.SourceCustom, true
		}
	}
	return "", false
}

// isSnowplowDispatch matches the snowplow('trackStructEvent', ...) form.
func (e *pythonExtractor) isSnowplowDispatch(call *sitter.Node) bool {
	args, _ := e.callArgs(call)
	if len(args) == 0 {
		return false
	}
	name, ok := e.stringValue(args[0])
	return ok && name == "trackStructEvent"
}

func (e *pythonExtractor) eventName(call *sitter.Node, src schema.Source) string {
	args, kwargs := e.callArgs(call)
	switch src {
	case schema.SourceSegment, schema.SourceRudderstack, schema.SourceMixpanel:
		if len(args) >= 2 {
			if name, ok := e.stringValue(args[1]); ok {
				return name
			}
		}
	case schema.SourceAmplitude:
		if len(args) >= 1 {
			if name, ok := e.stringValue(e.eventKwarg(args[0], "event_type")); ok {
				return name
			}
		}
	case schema.SourcePostHog:
		if name, ok := e.stringValue(kwargs["event"]); ok {
			return name
		}
		if len(args) >= 2 {
			if name, ok := e.stringValue(args[1]); ok {
				return name
			}
		}
	case schema.SourceSnowplow:
		return e.snowplowEventName(call, args, kwargs)
	case schema.SourceCustom:
		if len(args) >= 1 {
			if name, ok := e.stringValue(args[0]); ok {
				return name
			}
		}
	}
	return ""
}

func (e *pythonExtractor) snowplowEventName(call *sitter.Node, args []*sitter.Node, kwargs map[string]*sitter.Node) string {
	if e.isTrackStructEventMethod(call) {
		if name, ok := e.stringValue(kwargs["action"]); ok {
			return name
		}
		return ""
	}
	if len(args) >= 1 && e.calleeName(args[0]) == "StructuredEvent" {
		if name, ok := e.stringValue(e.eventKwarg(args[0], "action")); ok {
			return name
		}
	}
	return ""
}

func (e *pythonExtractor) isTrackStructEventMethod(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	return fn != nil && fn.Kind() == "attribute" &&
		e.text(fn.ChildByFieldName("attribute")) == "track_struct_event"
}

func (e *pythonExtractor) properties(call *sitter.Node, src schema.Source) map[string]*schema.PropertySchema {
	props := make(map[string]*schema.PropertySchema)
	args, kwargs := e.callArgs(call)

	switch src {
	case schema.SourceSegment, schema.SourceRudderstack:
		if len(args) > 0 && e.isNonNull(args[0]) {
			props["user_id"] = &schema.PropertySchema{Type: schema.TypeString}
		}
	case schema.SourceMixpanel:
		if len(args) > 0 && e.isNonNull(args[0]) {
			props["distinct_id"] = &schema.PropertySchema{Type: schema.TypeString}
		}
	case schema.SourceAmplitude:
		if len(args) > 0 && e.isNonNull(e.eventKwarg(args[0], "user_id")) {
			props["user_id"] = &schema.PropertySchema{Type: schema.TypeString}
		}
	case schema.SourcePostHog:
		if e.posthogIdentified(call, args, kwargs) {
			props["distinct_id"] = &schema.PropertySchema{Type: schema.TypeString}
		}
	case schema.SourceSnowplow:
		e.snowplowProperties(call, args, props)
		return props
	}

	if dict := e.propertiesDict(src, args, kwargs); dict != nil {
		e.dictProperties(dict, src, props)
	}
	return props
}

// posthogIdentified reports whether the capture call carries a distinct id:
// the first argument must be a non-empty string literal and the properties
// must not mark the event anonymous via $process_person_profile = False.
func (e *pythonExtractor) posthogIdentified(call *sitter.Node, args []*sitter.Node, kwargs map[string]*sitter.Node) bool {
	if dict := e.propertiesDict(schema.SourcePostHog, args, kwargs); dict != nil {
		if flag := e.dictValue(dict, "$process_person_profile"); flag != nil && flag.Kind() == "false" {
			return false
		}
	}
	if len(args) == 0 {
		return false
	}
	id, ok := e.stringValue(args[0])
	return ok && id != ""
}

func (e *pythonExtractor) propertiesDict(src schema.Source, args []*sitter.Node, kwargs map[string]*sitter.Node) *sitter.Node {
	switch src {
	case schema.SourceSegment, schema.SourceRudderstack, schema.SourceMixpanel:
		if len(args) > 2 && args[2].Kind() == "dictionary" {
			return args[2]
		}
	case schema.SourceAmplitude:
		if len(args) >= 1 {
			if v := e.eventKwarg(args[0], "event_properties"); v != nil && v.Kind() == "dictionary" {
				return v
			}
		}
	case schema.SourcePostHog:
		if v := kwargs["properties"]; v != nil && v.Kind() == "dictionary" {
			return v
		}
		if len(args) > 2 && args[2].Kind() == "dictionary" {
			return args[2]
		}
	case schema.SourceCustom:
		if len(args) > 1 && args[1].Kind() == "dictionary" {
			return args[1]
		}
	}
	return nil
}

func (e *pythonExtractor) dictProperties(dict *sitter.Node, src schema.Source, props map[string]*schema.PropertySchema) {
	for i := uint(0); i < dict.NamedChildCount(); i++ {
		pair := dict.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		key, ok := e.dictKey(pair.ChildByFieldName("key"))
		if !ok {
			continue
		}
		value := pair.ChildByFieldName("value")

		if src == schema.SourcePostHog {
			if key == "$process_person_profile" {
				continue
			}
			if (key == "$set" || key == "$set_once") && value != nil && value.Kind() == "dictionary" {
				nested := make(map[string]*schema.PropertySchema)
				e.dictProperties(value, "", nested)
				for name, prop := range nested {
					props[key+"."+name] = prop
				}
				continue
			}
		}

		if prop := e.valueSchema(value, 0); prop != nil {
			props[key] = prop
		}
	}
}

func (e *pythonExtractor) snowplowProperties(call *sitter.Node, args []*sitter.Node, props map[string]*schema.PropertySchema) {
	if e.isTrackStructEventMethod(call) {
		_, kwargs := e.callArgs(call)
		e.keywordProperties(kwargs, props)
		return
	}
	if len(args) >= 1 && e.calleeName(args[0]) == "StructuredEvent" {
		_, inner := e.callArgs(args[0])
		e.keywordProperties(inner, props)
	}
}

// keywordProperties maps StructuredEvent keywords to properties, skipping
// the action carrier and renaming property_ to property.
func (e *pythonExtractor) keywordProperties(kwargs map[string]*sitter.Node, props map[string]*schema.PropertySchema) {
	for name, value := range kwargs {
		if name == "action" {
			continue
		}
		if name == "property_" {
			name = "property"
		}
		if prop := e.valueSchema(value, 0); prop != nil {
			props[name] = prop
		}
	}
}

func (e *pythonExtractor) valueSchema(node *sitter.Node, depth int) *schema.PropertySchema {
	if node == nil || depth > maxInferDepth {
		return nil
	}
	if t := pythonLiteralType(node); t != "" {
		return &schema.PropertySchema{Type: t}
	}
	switch node.Kind() {
	case "identifier":
		if prop, ok := e.vars[e.text(node)]; ok {
			return prop
		}
		return &schema.PropertySchema{Type: schema.TypeAny}
	case "dictionary":
		nested := make(map[string]*schema.PropertySchema)
		for i := uint(0); i < node.NamedChildCount(); i++ {
			pair := node.NamedChild(i)
			if pair.Kind() != "pair" {
				continue
			}
			key, ok := e.dictKey(pair.ChildByFieldName("key"))
			if !ok {
				continue
			}
			if prop := e.valueSchema(pair.ChildByFieldName("value"), depth+1); prop != nil {
				nested[key] = prop
			}
		}
		return &schema.PropertySchema{Type: schema.TypeObject, Properties: nested}
	case "list", "tuple":
		return &schema.PropertySchema{
			Type:  schema.TypeArray,
			Items: &schema.PropertySchema{Type: e.sequenceItemType(node)},
		}
	}
	return nil
}

// sequenceItemType unifies element types: a single type stands, numbers mixed
// with strings widen to string, numbers mixed with booleans widen to number,
// anything else is any.
func (e *pythonExtractor) sequenceItemType(seq *sitter.Node) string {
	var types []string
	for i := uint(0); i < seq.NamedChildCount(); i++ {
		element := seq.NamedChild(i)
		if t := pythonLiteralType(element); t != "" {
			types = append(types, t)
			continue
		}
		switch element.Kind() {
		case "identifier":
			t := schema.TypeAny
			if prop, ok := e.vars[e.text(element)]; ok && prop.Properties == nil && prop.Items == nil {
				t = prop.Type
			}
			types = append(types, t)
		case "dictionary":
			types = append(types, schema.TypeObject)
		case "list", "tuple":
			types = append(types, schema.TypeArray)
		case "comment":
		default:
			types = append(types, schema.TypeAny)
		}
	}
	return combineItemTypes(types)
}

func combineItemTypes(types []string) string {
	if len(types) == 0 {
		return schema.TypeAny
	}
	unique := make(map[string]bool)
	for _, t := range types {
		unique[t] = true
	}
	if len(unique) == 1 {
		return types[0]
	}
	if len(unique) == 2 && unique[schema.TypeNumber] {
		if unique[schema.TypeString] {
			return schema.TypeString
		}
		if unique[schema.TypeBoolean] {
			return schema.TypeNumber
		}
	}
	return schema.TypeAny
}

func (e *pythonExtractor) callArgs(call *sitter.Node) ([]*sitter.Node, map[string]*sitter.Node) {
	kwargs := make(map[string]*sitter.Node)
	list := call.ChildByFieldName("arguments")
	if list == nil {
		return nil, kwargs
	}
	var args []*sitter.Node
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		switch child.Kind() {
		case "comment":
		case "keyword_argument":
			name := e.text(child.ChildByFieldName("name"))
			kwargs[name] = child.ChildByFieldName("value")
		default:
			args = append(args, child)
		}
	}
	return args, kwargs
}

// calleeName returns the function identifier of a direct call node, or "".
func (e *pythonExtractor) calleeName(node *sitter.Node) string {
	if node == nil || node.Kind() != "call" {
		return ""
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return ""
	}
	return e.text(fn)
}

func (e *pythonExtractor) eventKwarg(node *sitter.Node, name string) *sitter.Node {
	if node == nil || node.Kind() != "call" {
		return nil
	}
	_, kwargs := e.callArgs(node)
	return kwargs[name]
}

func (e *pythonExtractor) dictValue(dict *sitter.Node, key string) *sitter.Node {
	for i := uint(0); i < dict.NamedChildCount(); i++ {
		pair := dict.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		if k, ok := e.dictKey(pair.ChildByFieldName("key")); ok && k == key {
			return pair.ChildByFieldName("value")
		}
	}
	return nil
}

func (e *pythonExtractor) dictKey(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		return e.stringValue(node)
	case "integer", "float":
		return e.text(node), true
	}
	return "", false
}

// isNonNull reports whether a node is a literal other than None, or a name
// assumed to hold a value.
func (e *pythonExtractor) isNonNull(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "none":
		return false
	case "identifier":
		return true
	}
	return pythonLiteralType(node) != ""
}

// stringValue returns the content of a plain string literal. F-strings with
// interpolations are not constants and fail the extraction.
func (e *pythonExtractor) stringValue(node *sitter.Node) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	var content strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "string_content":
			content.WriteString(e.text(child))
		case "interpolation":
			return "", false
		}
	}
	return content.String(), true
}

func (e *pythonExtractor) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(e.source[node.StartByte():node.EndByte()])
}

func pythonLiteralType(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string", "concatenated_string":
		return schema.TypeString
	case "integer", "float":
		return schema.TypeNumber
	case "true", "false":
		return schema.TypeBoolean
	case "none":
		return schema.TypeNull
	}
	return ""
}

var pythonScalarTypes = map[string]string{
	"int":      schema.TypeNumber,
	"float":    schema.TypeNumber,
	"str":      schema.TypeString,
	"bool":     schema.TypeBoolean,
	"None":     schema.TypeNull,
	"NoneType": schema.TypeNull,
}

var pythonArrayTypes = map[string]bool{
	"List": true, "Tuple": true, "Set": true,
	"list": true, "tuple": true, "set": true,
}

var pythonObjectTypes = map[string]bool{"Dict": true, "dict": true}

// annotationSchema converts a Python type annotation to a property schema.
// Subscripted containers keep element types only when the element is a bare
// name (List[str] yields array of string, List[Dict[str, int]] a plain
// array).
func annotationSchema(text string) *schema.PropertySchema {
	text = strings.TrimSpace(text)
	if t, ok := pythonScalarTypes[text]; ok {
		return &schema.PropertySchema{Type: t}
	}
	if open := strings.Index(text, "["); open > 0 && strings.HasSuffix(text, "]") {
		base := strings.TrimSpace(text[:open])
		inner := strings.TrimSpace(text[open+1 : len(text)-1])
		switch {
		case pythonArrayTypes[base]:
			if isSimpleName(inner) {
				item := schema.TypeAny
				if t, ok := pythonScalarTypes[inner]; ok {
					item = t
				}
				return &schema.PropertySchema{
					Type:  schema.TypeArray,
					Items: &schema.PropertySchema{Type: item},
				}
			}
			return &schema.PropertySchema{Type: schema.TypeArray}
		case pythonObjectTypes[base]:
			return &schema.PropertySchema{Type: schema.TypeObject}
		}
	}
	return &schema.PropertySchema{Type: schema.TypeAny}
}

func isSimpleName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
