// # internal/golang/analyze.go

// Package golang extracts analytics tracking events from Go source using
// a self-contained lexer and recursive-descent parser covering the syntax
// subset tracking calls appear in. It recognizes the Segment, Amplitude,
// Mixpanel, PostHog, and Snowplow SDK call shapes plus an optional
// project-specific custom function.
package golang

import (
	"fmt"

	"trackscan/internal/schema"
)

// Analyze extracts tracking events from one file's source text.
// customFunction optionally names a project-specific tracking helper to
// match alongside the known SDK shapes. Lexer and parser failures fail
// the whole file; callers treat that as zero events and keep going.
func Analyze(path, source, customFunction string) ([]*schema.TrackingEvent, error) {
	toks, err := Tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %w", path, err)
	}
	nodes, err := Parse(toks)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	col := &collector{
		tc:             BuildTypeContext(nodes),
		customFunction: customFunction,
		filePath:       path,
	}
	col.run(nodes)
	return Deduplicate(col.events), nil
}
