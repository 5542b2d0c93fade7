// # internal/analyzer/analyzer_test.go
package analyzer

import (
	"reflect"
	"testing"

	"trackscan/internal/schema"
)

func mustRegistry(t *testing.T, disabled ...string) *Registry {
	t.Helper()
	r, err := NewRegistry(disabled)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r
}

func eventsByName(events []schema.TrackingEvent) map[string]schema.TrackingEvent {
	out := make(map[string]schema.TrackingEvent, len(events))
	for _, ev := range events {
		out[ev.EventName] = ev
	}
	return out
}

func propType(t *testing.T, ev schema.TrackingEvent, name string) string {
	t.Helper()
	prop, ok := ev.Properties[name]
	if !ok {
		t.Errorf("%s: missing property %q in %v", ev.EventName, name, ev.Properties)
		return ""
	}
	return prop.Type
}

func TestRegistryLanguages(t *testing.T) {
	r := mustRegistry(t)

	want := []string{"go", "javascript", "python", "tsx", "typescript"}
	if got := r.Languages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
}

func TestRegistryExtensionRouting(t *testing.T) {
	r := mustRegistry(t)

	cases := map[string]string{
		"cmd/app/main.go":   "go",
		"scripts/job.py":    "python",
		"web/index.js":      "javascript",
		"web/util.cjs":      "javascript",
		"web/util.mjs":      "javascript",
		"web/App.jsx":       "javascript",
		"web/api.ts":        "typescript",
		"web/Component.tsx": "tsx",
		"web/types.d.ts":    "typescript",
		"assets/logo.PNG":   "",
		"README.md":         "",
		"noextension":       "",
		"upper/MIXED.Py":    "python",
	}
	for path, want := range cases {
		a, ok := r.AnalyzerFor(path)
		if want == "" {
			if ok {
				t.Errorf("AnalyzerFor(%q) matched %s, want none", path, a.Language())
			}
			continue
		}
		if !ok {
			t.Errorf("AnalyzerFor(%q) matched nothing, want %s", path, want)
			continue
		}
		if a.Language() != want {
			t.Errorf("AnalyzerFor(%q) = %s, want %s", path, a.Language(), want)
		}
	}
}

func TestRegistryDisabledLanguages(t *testing.T) {
	r := mustRegistry(t, "typescript", "TSX")

	if r.Supports("api.ts") {
		t.Error("Expected .ts unsupported with typescript disabled")
	}
	if r.Supports("App.tsx") {
		t.Error("Expected .tsx unsupported with tsx disabled")
	}
	if !r.Supports("main.go") || !r.Supports("job.py") {
		t.Error("Expected remaining languages to stay enabled")
	}
}

func TestRegistryAnalyzeGoFile(t *testing.T) {
	r := mustRegistry(t)

	src := `package main

func signup(plan string) {
	client.Enqueue(analytics.Track{
		Event:      "User Signed Up",
		Properties: analytics.NewProperties().Set("plan", plan),
	})
}
`
	events := r.AnalyzeFile("main.go", []byte(src), "")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventName != "User Signed Up" || ev.Source != schema.SourceSegment {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if ev.FunctionName != "signup" {
		t.Errorf("Expected function signup, got %s", ev.FunctionName)
	}
	if got := propType(t, ev, "plan"); got != schema.TypeString {
		t.Errorf("Expected plan string, got %s", got)
	}
}

func TestRegistryAnalyzeUnsupportedFile(t *testing.T) {
	r := mustRegistry(t)

	if events := r.AnalyzeFile("notes.txt", []byte("analytics.track('x', {})"), ""); len(events) != 0 {
		t.Errorf("Expected no events for unsupported extension, got %d", len(events))
	}
}

func TestDedupe(t *testing.T) {
	events := []schema.TrackingEvent{
		{EventName: "Click", Source: schema.SourceAmplitude, FunctionName: "f", Line: 40},
		{EventName: "Click", Source: schema.SourceAmplitude, FunctionName: "f", Line: 20},
		{EventName: "Click", Source: schema.SourceSegment, FunctionName: "f", Line: 10},
		{EventName: "Click", Source: schema.SourceSegment, FunctionName: "f", Line: 5},
		{EventName: "Click", Source: schema.SourceSegment, FunctionName: "g", Line: 7},
	}
	got := dedupe(events)
	if len(got) != 3 {
		t.Fatalf("Expected 3 deduped events, got %d", len(got))
	}
	if got[0].Source != schema.SourceAmplitude || got[0].Line != 20 {
		t.Errorf("Expected amplitude event to keep line 20, got %d", got[0].Line)
	}
	if got[1].Line != 10 {
		t.Errorf("Expected first segment occurrence to win, got line %d", got[1].Line)
	}
	if got[2].FunctionName != "g" {
		t.Errorf("Expected distinct function to survive, got %+v", got[2])
	}
}
