// # internal/analyzer/golang.go
package analyzer

import (
	"trackscan/internal/golang"
	"trackscan/internal/schema"
)

// goAnalyzer adapts the self-contained Go parser to the Analyzer interface.
type goAnalyzer struct{}

func newGoAnalyzer() (Analyzer, error) {
	return &goAnalyzer{}, nil
}

func (a *goAnalyzer) Language() string { return "go" }

func (a *goAnalyzer) Analyze(path string, src []byte, custom string) ([]schema.TrackingEvent, error) {
	events, err := golang.Analyze(path, string(src), custom)
	if err != nil {
		return nil, err
	}
	out := make([]schema.TrackingEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, *ev)
	}
	return out, nil
}
