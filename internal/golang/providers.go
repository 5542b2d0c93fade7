// # internal/golang/providers.go
package golang

import "trackscan/internal/schema"

// structLitSources maps a composite literal's type path to the provider it
// constructs. The unqualified entries cover aliased or dot-imported SDK
// packages.
var structLitSources = map[string]schema.Source{
	"analytics.Track": schema.SourceSegment,
	"posthog.Capture": schema.SourcePostHog,
	"amplitude.Event": schema.SourceAmplitude,
	"Track":           schema.SourceSegment,
	"Capture":         schema.SourcePostHog,
	"Event":           schema.SourceAmplitude,
}

// callSources maps receiver/method pairs to providers. Receiver names
// follow the conventional SDK client variable names.
var callSources = map[[2]string]schema.Source{
	{"mp", "Track"}:                 schema.SourceMixpanel,
	{"client", "Track"}:             schema.SourceAmplitude,
	{"tracker", "TrackStructEvent"}: schema.SourceSnowplow,
}

// detectSource decides whether a call or composite literal looks like a
// tracking call. A false result is the normal "not a tracking call"
// outcome, never an error.
func detectSource(n *Node, customFunction string) (schema.Source, bool) {
	switch n.Kind {
	case NodeStructLit:
		if src, ok := structLitSources[n.Name]; ok {
			return src, true
		}
	case NodeCall:
		recv, method := callTarget(n)
		if src, ok := callSources[[2]string{recv, method}]; ok {
			return src, true
		}
		if customFunction != "" && recv == "" && method == customFunction {
			return schema.SourceCustom, true
		}
	}
	return "", false
}

// callTarget splits a call into its receiver identifier and method name.
// Bare function calls report an empty receiver.
func callTarget(n *Node) (recv, method string) {
	if n == nil || n.X == nil {
		return "", ""
	}
	switch n.X.Kind {
	case NodeAccess:
		if n.X.X != nil && n.X.X.Kind == NodeIdent {
			return n.X.X.Value, n.X.Name
		}
		return "", n.X.Name
	case NodeIdent:
		return "", n.X.Value
	}
	return "", ""
}
