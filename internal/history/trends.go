package history

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// BuildTrendReport turns a time-ordered snapshot series into per-run trend
// points plus an event-level diff of the two most recent runs.
func BuildTrendReport(projectKey string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	points := make([]TrendPoint, 0, len(snapshots))
	var prevNames map[string]map[string]bool
	for i, current := range snapshots {
		names, err := decodeEvents(current)
		if err != nil {
			return TrendReport{}, err
		}

		point := TrendPoint{
			Timestamp:           current.Timestamp,
			CommitHash:          current.CommitHash,
			FileCount:           current.FileCount,
			EventCount:          current.EventCount,
			ImplementationCount: current.ImplementationCount,
			PropertyCount:       current.PropertyCount,
			SourceCounts:        current.SourceCounts,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaEvents = current.EventCount - prev.EventCount
			point.DeltaProperties = current.PropertyCount - prev.PropertyCount
			if prev.EventCount > 0 {
				point.EventGrowthPct = round2((float64(point.DeltaEvents) / float64(prev.EventCount)) * 100)
			}
			for name := range names {
				if _, ok := prevNames[name]; !ok {
					point.EventsAdded++
				}
			}
			for name := range prevNames {
				if _, ok := names[name]; !ok {
					point.EventsRemoved++
				}
			}
		}

		avgEvents, avgProperties := movingAverages(snapshots, i, window)
		point.AvgEvents = round2(avgEvents)
		point.AvgProperties = round2(avgProperties)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
		prevNames = names
	}

	report := TrendReport{
		SchemaVersion: SchemaVersion,
		ProjectKey:    projectKey,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}

	if len(snapshots) >= 2 {
		diff, err := DiffSnapshots(snapshots[len(snapshots)-2], snapshots[len(snapshots)-1])
		if err != nil {
			return TrendReport{}, err
		}
		report.Latest = diff
	}

	return report, nil
}

// DiffSnapshots compares the schema blobs of two runs: events that appeared
// or disappeared, and per-event property additions and removals.
func DiffSnapshots(prev, current Snapshot) (*SnapshotDiff, error) {
	prevEvents, err := decodeEvents(prev)
	if err != nil {
		return nil, err
	}
	currEvents, err := decodeEvents(current)
	if err != nil {
		return nil, err
	}

	diff := &SnapshotDiff{FromRun: prev.RunID, ToRun: current.RunID}
	for name := range currEvents {
		if _, ok := prevEvents[name]; !ok {
			diff.NewEvents = append(diff.NewEvents, name)
		}
	}
	for name := range prevEvents {
		if _, ok := currEvents[name]; !ok {
			diff.RemovedEvents = append(diff.RemovedEvents, name)
		}
	}
	for name, currProps := range currEvents {
		prevProps, ok := prevEvents[name]
		if !ok {
			continue
		}
		var added, removed []string
		for p := range currProps {
			if !prevProps[p] {
				added = append(added, p)
			}
		}
		for p := range prevProps {
			if !currProps[p] {
				removed = append(removed, p)
			}
		}
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		sort.Strings(added)
		sort.Strings(removed)
		diff.ChangedEvents = append(diff.ChangedEvents, EventDiff{
			EventName:         name,
			PropertiesAdded:   added,
			PropertiesRemoved: removed,
		})
	}

	sort.Strings(diff.NewEvents)
	sort.Strings(diff.RemovedEvents)
	sort.Slice(diff.ChangedEvents, func(i, j int) bool {
		return diff.ChangedEvents[i].EventName < diff.ChangedEvents[j].EventName
	})
	return diff, nil
}

// decodeEvents pulls event names and top-level property names out of a
// snapshot's schema blob. A missing blob reads as an empty schema.
func decodeEvents(s Snapshot) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool)
	if len(s.SchemaJSON) == 0 {
		return out, nil
	}

	var doc struct {
		Events map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"events"`
	}
	if err := json.Unmarshal(s.SchemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("decode schema blob for run %s: %w", s.RunID, err)
	}

	for name, ev := range doc.Events {
		props := make(map[string]bool, len(ev.Properties))
		for p := range ev.Properties {
			props[p] = true
		}
		out[name] = props
	}
	return out, nil
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].EventCount), float64(snapshots[index].PropertyCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var eventsTotal int
	var propertiesTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		eventsTotal += snapshots[i].EventCount
		propertiesTotal += snapshots[i].PropertyCount
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(eventsTotal) / float64(count), float64(propertiesTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
