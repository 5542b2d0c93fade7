// Package history persists one snapshot per scan run and builds trend
// reports over them.
package history

import (
	"fmt"
	"time"

	"trackscan/internal/schema"
)

const SchemaVersion = 1

// Snapshot is one recorded scan run. SourceCounts keys are provider names;
// SchemaJSON holds the full schema document of the run.
type Snapshot struct {
	RunID               string         `json:"run_id"`
	ProjectKey          string         `json:"project_key"`
	SchemaVersion       int            `json:"schema_version"`
	Timestamp           time.Time      `json:"timestamp"`
	CommitHash          string         `json:"commit_hash,omitempty"`
	CommitTimestamp     time.Time      `json:"commit_timestamp,omitempty"`
	FileCount           int            `json:"file_count"`
	EventCount          int            `json:"event_count"`
	ImplementationCount int            `json:"implementation_count"`
	PropertyCount       int            `json:"property_count"`
	SourceCounts        map[string]int `json:"source_counts,omitempty"`
	SchemaJSON          []byte         `json:"-"`
}

// NewSnapshot captures the aggregate of one scan run. Commit metadata is
// filled in by the caller when available.
func NewSnapshot(s *schema.Schema, fileCount int, now time.Time) (Snapshot, error) {
	blob, err := s.JSON()
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode schema blob: %w", err)
	}
	counts := make(map[string]int)
	for src, n := range s.CountBySource() {
		counts[string(src)] = n
	}
	return Snapshot{
		SchemaVersion:       SchemaVersion,
		Timestamp:           now.UTC(),
		FileCount:           fileCount,
		EventCount:          s.EventCount(),
		ImplementationCount: s.ImplementationCount(),
		PropertyCount:       s.PropertyCount(),
		SourceCounts:        counts,
		SchemaJSON:          blob,
	}, nil
}

type TrendPoint struct {
	Timestamp           time.Time      `json:"timestamp"`
	CommitHash          string         `json:"commit_hash,omitempty"`
	FileCount           int            `json:"file_count"`
	EventCount          int            `json:"event_count"`
	ImplementationCount int            `json:"implementation_count"`
	PropertyCount       int            `json:"property_count"`
	SourceCounts        map[string]int `json:"source_counts,omitempty"`
	EventsAdded         int            `json:"events_added"`
	EventsRemoved       int            `json:"events_removed"`
	DeltaFiles          int            `json:"delta_files"`
	DeltaEvents         int            `json:"delta_events"`
	DeltaProperties     int            `json:"delta_properties"`
	EventGrowthPct      float64        `json:"event_growth_pct"`
	AvgEvents           float64        `json:"avg_events"`
	AvgProperties       float64        `json:"avg_properties"`
	WindowHours         float64        `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int           `json:"schema_version"`
	ProjectKey    string        `json:"project_key"`
	Since         time.Time     `json:"since"`
	Until         time.Time     `json:"until"`
	Window        string        `json:"window"`
	ScanCount     int           `json:"scan_count"`
	Points        []TrendPoint  `json:"points"`
	Latest        *SnapshotDiff `json:"latest_diff,omitempty"`
}

// SnapshotDiff is the event-level comparison of two runs.
type SnapshotDiff struct {
	FromRun       string      `json:"from_run"`
	ToRun         string      `json:"to_run"`
	NewEvents     []string    `json:"new_events,omitempty"`
	RemovedEvents []string    `json:"removed_events,omitempty"`
	ChangedEvents []EventDiff `json:"changed_events,omitempty"`
}

type EventDiff struct {
	EventName         string   `json:"event_name"`
	PropertiesAdded   []string `json:"properties_added,omitempty"`
	PropertiesRemoved []string `json:"properties_removed,omitempty"`
}
