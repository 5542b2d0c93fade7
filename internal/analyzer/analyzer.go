// # internal/analyzer/analyzer.go

// Package analyzer routes source files to per-language tracking-call
// extractors and normalizes their results into schema.TrackingEvent lists.
package analyzer

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"trackscan/internal/observability"
	"trackscan/internal/schema"
)

// Analyzer extracts tracking events from one language's source files.
type Analyzer interface {
	Language() string
	Analyze(path string, src []byte, custom string) ([]schema.TrackingEvent, error)
}

// Registry maps languages to analyzers and file extensions to languages.
type Registry struct {
	analyzers  map[string]Analyzer
	extensions map[string]string
}

var extensionTable = map[string]string{
	".go":  "go",
	".py":  "python",
	".js":  "javascript",
	".cjs": "javascript",
	".mjs": "javascript",
	".jsx": "javascript",
	".ts":  "typescript",
	".tsx": "tsx",
}

// NewRegistry builds analyzers for every supported language except those
// named in disabled.
func NewRegistry(disabled []string) (*Registry, error) {
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[strings.ToLower(strings.TrimSpace(name))] = true
	}

	r := &Registry{
		analyzers:  make(map[string]Analyzer),
		extensions: make(map[string]string),
	}
	builders := []func() (Analyzer, error){
		newGoAnalyzer,
		newPythonAnalyzer,
		newJavaScriptAnalyzer,
		newTypeScriptAnalyzer,
		newTSXAnalyzer,
	}
	for _, build := range builders {
		a, err := build()
		if err != nil {
			return nil, err
		}
		if off[a.Language()] {
			continue
		}
		r.analyzers[a.Language()] = a
	}
	for ext, lang := range extensionTable {
		if _, ok := r.analyzers[lang]; ok {
			r.extensions[ext] = lang
		}
	}
	return r, nil
}

// AnalyzerFor returns the analyzer responsible for a path's extension.
func (r *Registry) AnalyzerFor(path string) (Analyzer, bool) {
	lang, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	a, ok := r.analyzers[lang]
	return a, ok
}

// Supports reports whether any analyzer handles the path's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.AnalyzerFor(path)
	return ok
}

// Languages returns the enabled language names in sorted order.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns the file extensions of every enabled analyzer in
// sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// AnalyzeFile runs the matching analyzer. Failures are logged and yield
// zero events so one bad file never aborts a scan.
func (r *Registry) AnalyzeFile(path string, src []byte, custom string) []schema.TrackingEvent {
	a, ok := r.AnalyzerFor(path)
	if !ok {
		return nil
	}
	events, err := a.Analyze(path, src, custom)
	if err != nil {
		observability.AnalysisFailuresTotal.Inc()
		slog.Warn("failed to analyze file", "path", path, "language", a.Language(), "error", err)
		return nil
	}
	return events
}

// maxInferDepth caps recursive property inference on nested literals.
const maxInferDepth = 20

type dedupKey struct {
	name     string
	source   schema.Source
	function string
}

// dedupe collapses events sharing (name, source, function). The first
// occurrence wins except for amplitude, where the smallest line is kept so
// a wrapper call never shadows the event literal that fed it.
func dedupe(events []schema.TrackingEvent) []schema.TrackingEvent {
	index := make(map[dedupKey]int, len(events))
	out := make([]schema.TrackingEvent, 0, len(events))
	for _, ev := range events {
		k := dedupKey{ev.EventName, ev.Source, ev.FunctionName}
		if i, ok := index[k]; ok {
			if ev.Source == schema.SourceAmplitude && ev.Line < out[i].Line {
				out[i] = ev
			}
			continue
		}
		index[k] = len(out)
		out = append(out, ev)
	}
	return out
}
