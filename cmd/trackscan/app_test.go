// # cmd/trackscan/app_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackscan/internal/config"
	"trackscan/internal/history"
)

const jsSample = `function signup(plan) {
  analytics.track("User Signed Up", { plan: plan, seats: 3 });
}
`

const pySample = `def cancel(reason: str):
    posthog.capture("user_id", "subscription_cancelled", {"reason": reason})
`

func testConfig(dir string) *config.Config {
	return &config.Config{
		ScanPaths: []string{dir},
		Exclude:   config.Exclude{Dirs: []string{"node_modules"}},
		Output: config.Output{
			YAML: filepath.Join(dir, "tracking-schema.yaml"),
			JSON: filepath.Join(dir, "tracking-schema.json"),
		},
		Watch:   config.Watch{Debounce: 50 * time.Millisecond, RescanRate: 1000},
		History: config.History{Window: 24 * time.Hour},
		Alerts:  config.Alerts{Terminal: false},
	}
}

func writeSample(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApp(t *testing.T) {
	tmpDir := t.TempDir()
	jsPath := writeSample(t, tmpDir, "app.js", jsSample)
	pyPath := writeSample(t, tmpDir, "tracker.py", pySample)

	cfg := testConfig(tmpDir)
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.InitialScan(ctx); err != nil {
		t.Fatal(err)
	}
	if app.FileCount() != 2 {
		t.Errorf("Expected 2 analyzed files, got %d", app.FileCount())
	}

	s, err := app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.EventCount() != 2 {
		t.Fatalf("Expected 2 events, got %d", s.EventCount())
	}

	signup, ok := s.Events["User Signed Up"]
	if !ok {
		t.Fatal("Expected User Signed Up event")
	}
	if len(signup.Implementations) != 1 || signup.Implementations[0].Function != "signup" {
		t.Errorf("Unexpected implementations: %+v", signup.Implementations)
	}
	if signup.Implementations[0].Line != 2 || signup.Implementations[0].Path != jsPath {
		t.Errorf("Unexpected call site: %+v", signup.Implementations[0])
	}
	if signup.Properties["seats"] == nil || signup.Properties["seats"].Type != "number" {
		t.Errorf("Expected seats to infer number, got %+v", signup.Properties["seats"])
	}

	cancelled, ok := s.Events["subscription_cancelled"]
	if !ok {
		t.Fatal("Expected subscription_cancelled event")
	}
	if cancelled.Properties["distinct_id"] == nil || cancelled.Properties["distinct_id"].Type != "string" {
		t.Errorf("Expected literal distinct_id captured as string, got %+v", cancelled.Properties["distinct_id"])
	}
	if cancelled.Properties["reason"] == nil || cancelled.Properties["reason"].Type != "string" {
		t.Errorf("Expected annotated reason param as string, got %+v", cancelled.Properties["reason"])
	}

	// Test GenerateOutputs
	if err := app.GenerateOutputs(s); err != nil {
		t.Fatal(err)
	}

	yamlData, err := os.ReadFile(cfg.Output.YAML)
	if err != nil {
		t.Fatal("YAML file was not generated")
	}
	if !strings.Contains(string(yamlData), "User Signed Up") || !strings.Contains(string(yamlData), "seats") {
		t.Errorf("Unexpected YAML output: %s", yamlData)
	}

	jsonData, err := os.ReadFile(cfg.Output.JSON)
	if err != nil {
		t.Fatal("JSON file was not generated")
	}
	var doc map[string]any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	if events, ok := doc["events"].(map[string]any); !ok || len(events) != 2 {
		t.Errorf("Unexpected events in JSON output: %v", doc["events"])
	}

	// Test HandleChanges: deleting a file drops its events.
	if err := os.Remove(pyPath); err != nil {
		t.Fatal(err)
	}
	app.HandleChanges([]string{pyPath})

	if app.FileCount() != 1 {
		t.Errorf("Expected 1 file after removal, got %d", app.FileCount())
	}
	s, err = app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Events["subscription_cancelled"]; ok {
		t.Error("Expected subscription_cancelled to disappear with its file")
	}
}

func TestApp_DiffEventNames(t *testing.T) {
	tmpDir := t.TempDir()
	jsPath := writeSample(t, tmpDir, "app.js", jsSample)

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.InitialScan(ctx); err != nil {
		t.Fatal(err)
	}

	s, err := app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	added, removed := app.diffEventNames(s)
	if len(added) != 1 || added[0] != "User Signed Up" || len(removed) != 0 {
		t.Fatalf("Unexpected first diff: added=%v removed=%v", added, removed)
	}

	renamed := strings.ReplaceAll(jsSample, "User Signed Up", "User Renamed")
	writeSample(t, tmpDir, "app.js", renamed)
	if err := app.ProcessFile(ctx, jsPath); err != nil {
		t.Fatal(err)
	}

	s, err = app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	added, removed = app.diffEventNames(s)
	if len(added) != 1 || added[0] != "User Renamed" {
		t.Errorf("Expected User Renamed added, got %v", added)
	}
	if len(removed) != 1 || removed[0] != "User Signed Up" {
		t.Errorf("Expected User Signed Up removed, got %v", removed)
	}
}

func TestApp_Trends(t *testing.T) {
	tmpDir := t.TempDir()
	jsPath := writeSample(t, tmpDir, "app.js", jsSample)
	writeSample(t, tmpDir, "tracker.py", pySample)

	cfg := testConfig(tmpDir)
	cfg.History = config.History{
		Enabled: true,
		Path:    filepath.Join(tmpDir, "state", "history.db"),
		Project: "app",
		Window:  24 * time.Hour,
	}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.InitialScan(ctx); err != nil {
		t.Fatal(err)
	}
	s, err := app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	app.RecordSnapshot(s)

	renamed := strings.ReplaceAll(jsSample, "User Signed Up", "User Renamed")
	writeSample(t, tmpDir, "app.js", renamed)
	if err := app.ProcessFile(ctx, jsPath); err != nil {
		t.Fatal(err)
	}
	s, err = app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	app.RecordSnapshot(s)

	var tsv bytes.Buffer
	if err := app.RunTrends(&tsv, false); err != nil {
		t.Fatal(err)
	}
	out := tsv.String()
	if !strings.Contains(out, "# project=app scans=2") {
		t.Errorf("Expected report header, got: %s", out)
	}
	if !strings.Contains(out, "Timestamp\tCommit\tFiles\tEvents") {
		t.Errorf("Expected TSV column header, got: %s", out)
	}
	if !strings.Contains(out, "new\tUser Renamed") || !strings.Contains(out, "removed\tUser Signed Up") {
		t.Errorf("Expected latest diff rows, got: %s", out)
	}

	var jsonBuf bytes.Buffer
	if err := app.RunTrends(&jsonBuf, true); err != nil {
		t.Fatal(err)
	}
	var report history.TrendReport
	if err := json.Unmarshal(jsonBuf.Bytes(), &report); err != nil {
		t.Fatalf("JSON trend report does not parse: %v", err)
	}
	if report.ScanCount != 2 || report.ProjectKey != "app" {
		t.Errorf("Unexpected report: scans=%d project=%s", report.ScanCount, report.ProjectKey)
	}
	if report.Latest == nil || len(report.Latest.NewEvents) != 1 {
		t.Errorf("Expected latest diff with one new event, got %+v", report.Latest)
	}
}

func TestApp_TrendsDisabled(t *testing.T) {
	app, err := NewApp(testConfig(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	var buf bytes.Buffer
	err = app.RunTrends(&buf, false)
	if err == nil {
		t.Fatal("Expected error when history is disabled")
	}
	if !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestApp_Health(t *testing.T) {
	tmpDir := t.TempDir()
	writeSample(t, tmpDir, "app.js", jsSample)

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.InitialScan(ctx); err != nil {
		t.Fatal(err)
	}
	s, err := app.BuildSchema(ctx)
	if err != nil {
		t.Fatal(err)
	}
	app.diffEventNames(s)

	status := app.Health(ctx)
	if status.Status != "up" || status.Files != 1 || status.Events != 1 {
		t.Errorf("Unexpected health payload: %+v", status)
	}
}
