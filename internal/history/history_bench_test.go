package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func BenchmarkStore_SaveSnapshot(b *testing.B) {
	store, err := Open(filepath.Join(b.TempDir(), "history.db"))
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := Snapshot{
			RunID:               fmt.Sprintf("run-%d", i),
			Timestamp:           base.Add(time.Duration(i) * time.Second),
			FileCount:           250 + (i % 11),
			EventCount:          40 + (i % 7),
			ImplementationCount: 90 + (i % 13),
			PropertyCount:       120 + (i % 17),
			SourceCounts:        map[string]int{"segment": 20 + i%5, "posthog": 10 + i%3},
			SchemaJSON:          []byte(blobOne),
		}
		if err := store.SaveSnapshot("bench", s); err != nil {
			b.Fatalf("save snapshot: %v", err)
		}
	}
}

func BenchmarkStore_LoadSnapshots(b *testing.B) {
	store, err := Open(filepath.Join(b.TempDir(), "history.db"))
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2500; i++ {
		if err := store.SaveSnapshot("bench", Snapshot{
			RunID:         fmt.Sprintf("run-%d", i),
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			FileCount:     90 + i%19,
			EventCount:    30 + i%17,
			PropertyCount: 60 + i%23,
		}); err != nil {
			b.Fatalf("seed snapshot %d: %v", i, err)
		}
	}

	since := base.Add(24 * time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snapshots, err := store.LoadSnapshots("bench", since)
		if err != nil {
			b.Fatalf("load snapshots: %v", err)
		}
		if len(snapshots) == 0 {
			b.Fatal("expected snapshots")
		}
	}
}
