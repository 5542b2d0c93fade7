package history

import (
	"reflect"
	"testing"
	"time"
)

const (
	blobFirst  = `{"events":{"A":{"properties":{"x":{"type":"string"},"y":{"type":"number"}}},"B":{"properties":{"z":{"type":"string"}}}}}`
	blobSecond = `{"events":{"B":{"properties":{"z":{"type":"string"},"w":{"type":"boolean"}}},"C":{"properties":{"k":{"type":"string"}}}}}`
	blobThird  = `{"events":{"B":{"properties":{"z":{"type":"string"}}},"C":{"properties":{"k":{"type":"string"},"m":{"type":"number"}}},"E":{"properties":{}}}}`
)

func trendFixture() []Snapshot {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return []Snapshot{
		{
			RunID:         "run-1",
			Timestamp:     base,
			FileCount:     5,
			EventCount:    2,
			PropertyCount: 3,
			SchemaJSON:    []byte(blobFirst),
		},
		{
			RunID:         "run-2",
			Timestamp:     base.Add(2 * time.Hour),
			FileCount:     6,
			EventCount:    2,
			PropertyCount: 3,
			SchemaJSON:    []byte(blobSecond),
		},
		{
			RunID:         "run-3",
			Timestamp:     base.Add(30 * time.Hour),
			FileCount:     6,
			EventCount:    3,
			PropertyCount: 3,
			SchemaJSON:    []byte(blobThird),
		},
	}
}

func TestBuildTrendReport(t *testing.T) {
	snapshots := trendFixture()
	report, err := BuildTrendReport("project-a", snapshots, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.ScanCount != 3 || report.ProjectKey != "project-a" {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if !report.Since.Equal(snapshots[0].Timestamp) || !report.Until.Equal(snapshots[2].Timestamp) {
		t.Fatalf("unexpected report range: since=%v until=%v", report.Since, report.Until)
	}

	first := report.Points[0]
	if first.DeltaEvents != 0 || first.EventsAdded != 0 || first.EventsRemoved != 0 {
		t.Fatalf("expected zero deltas on the first point, got %+v", first)
	}
	if first.AvgEvents != 2 {
		t.Fatalf("expected avg_events=2 on first point, got %v", first.AvgEvents)
	}

	second := report.Points[1]
	if second.DeltaFiles != 1 || second.DeltaEvents != 0 || second.DeltaProperties != 0 {
		t.Fatalf("unexpected second point deltas: %+v", second)
	}
	if second.EventsAdded != 1 || second.EventsRemoved != 1 {
		t.Fatalf("expected one event added and one removed, got %+v", second)
	}
	if second.AvgEvents != 2 || second.AvgProperties != 3 {
		t.Fatalf("unexpected second point averages: %+v", second)
	}

	third := report.Points[2]
	if third.DeltaEvents != 1 || third.EventGrowthPct != 50 {
		t.Fatalf("unexpected third point growth: %+v", third)
	}
	if third.EventsAdded != 1 || third.EventsRemoved != 0 {
		t.Fatalf("unexpected third point event churn: %+v", third)
	}
	// The 24h window has rolled past runs 1 and 2 by the third point.
	if third.AvgEvents != 3 {
		t.Fatalf("expected window to exclude older runs, got avg_events=%v", third.AvgEvents)
	}

	if report.Latest == nil {
		t.Fatal("expected latest diff for two or more snapshots")
	}
	if report.Latest.FromRun != "run-2" || report.Latest.ToRun != "run-3" {
		t.Fatalf("unexpected diff endpoints: %+v", report.Latest)
	}
}

func TestBuildTrendReportEmpty(t *testing.T) {
	if _, err := BuildTrendReport("default", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty snapshot series")
	}
}

func TestDiffSnapshots(t *testing.T) {
	snapshots := trendFixture()
	diff, err := DiffSnapshots(snapshots[1], snapshots[2])
	if err != nil {
		t.Fatalf("diff snapshots: %v", err)
	}

	if !reflect.DeepEqual(diff.NewEvents, []string{"E"}) {
		t.Errorf("unexpected new events: %v", diff.NewEvents)
	}
	if len(diff.RemovedEvents) != 0 {
		t.Errorf("unexpected removed events: %v", diff.RemovedEvents)
	}
	if len(diff.ChangedEvents) != 2 {
		t.Fatalf("expected 2 changed events, got %+v", diff.ChangedEvents)
	}
	b := diff.ChangedEvents[0]
	if b.EventName != "B" || len(b.PropertiesAdded) != 0 || !reflect.DeepEqual(b.PropertiesRemoved, []string{"w"}) {
		t.Errorf("unexpected B diff: %+v", b)
	}
	c := diff.ChangedEvents[1]
	if c.EventName != "C" || !reflect.DeepEqual(c.PropertiesAdded, []string{"m"}) || len(c.PropertiesRemoved) != 0 {
		t.Errorf("unexpected C diff: %+v", c)
	}
}

func TestDiffSnapshotsAcrossEmptyBlob(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	prev := Snapshot{RunID: "run-1", Timestamp: base}
	curr := Snapshot{RunID: "run-2", Timestamp: base.Add(time.Hour), SchemaJSON: []byte(blobFirst)}

	diff, err := DiffSnapshots(prev, curr)
	if err != nil {
		t.Fatalf("diff snapshots: %v", err)
	}
	if !reflect.DeepEqual(diff.NewEvents, []string{"A", "B"}) {
		t.Errorf("unexpected new events: %v", diff.NewEvents)
	}
}

func TestDiffSnapshotsMalformedBlob(t *testing.T) {
	prev := Snapshot{RunID: "run-1", SchemaJSON: []byte("{broken")}
	if _, err := DiffSnapshots(prev, Snapshot{RunID: "run-2"}); err == nil {
		t.Fatal("expected decode error for malformed blob")
	}
}
