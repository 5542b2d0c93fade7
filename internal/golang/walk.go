// # internal/golang/walk.go
package golang

import (
	"log/slog"

	"trackscan/internal/schema"
)

// maxWalkDepth bounds the expression-tree descent while hunting for
// tracking candidates. Descent past the limit stops silently.
const maxWalkDepth = 20

// collector walks one file's functions and accumulates raw detections in
// discovery order.
type collector struct {
	tc             *TypeContext
	customFunction string
	filePath       string
	events         []*schema.TrackingEvent
}

func (c *collector) run(nodes []*Node) {
	for _, n := range nodes {
		if n != nil && n.Kind == NodeFunc {
			c.walkBody(n.Body, &extractor{tc: c.tc, funcName: n.Name})
		}
	}
}

// walkBody descends through control-flow statements and inspects the
// expression tree of every executable statement.
func (c *collector) walkBody(body []*Node, e *extractor) {
	for _, n := range body {
		if n == nil {
			continue
		}
		switch n.Kind {
		case NodeExec, NodeDeclare, NodeAssign:
			c.inspect(n.X, e, 0)
			c.inspect(n.Y, e, 0)
		case NodeIf, NodeElseIf, NodeElse, NodeFor, NodeForeach, NodeSwitch, NodeCase, NodeDefault:
			c.walkBody(n.Body, e)
		}
	}
}

// inspect hunts for call and composite-literal candidates depth-first. A
// matched candidate is not descended as a tracking node, but its
// sub-expressions are still visited so nested tracking calls are not
// missed.
func (c *collector) inspect(n *Node, e *extractor, depth int) {
	if n == nil || depth > maxWalkDepth {
		return
	}
	if n.Kind == NodeCall || n.Kind == NodeStructLit {
		if src, ok := detectSource(n, c.customFunction); ok {
			c.tryExtract(n, src, e)
		}
	}
	for _, a := range n.Args {
		c.inspect(a, e, depth+1)
	}
	c.inspect(n.X, e, depth+1)
	c.inspect(n.Y, e, depth+1)
	c.inspect(n.Cond, e, depth+1)
	for _, b := range n.Body {
		c.inspect(b, e, depth+1)
	}
}

// tryExtract runs one candidate inside its own failure boundary; a panic
// while decoding one call site must not suppress other detections in the
// same file.
func (c *collector) tryExtract(n *Node, src schema.Source, e *extractor) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("skipped tracking candidate", "path", c.filePath, "line", n.Line, "error", r)
		}
	}()
	if ev := e.extract(n, src); ev != nil {
		ev.FilePath = c.filePath
		c.events = append(c.events, ev)
	}
}
