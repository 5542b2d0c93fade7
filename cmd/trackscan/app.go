// # cmd/trackscan/app.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trackscan/internal/analyzer"
	"trackscan/internal/config"
	"trackscan/internal/history"
	"trackscan/internal/observability"
	"trackscan/internal/scanner"
	"trackscan/internal/schema"
	"trackscan/internal/util"
	"trackscan/internal/watcher"
)

type App struct {
	Config   *config.Config
	Registry *analyzer.Registry
	Scanner  *scanner.Scanner
	History  *history.Store

	describer   schema.Describer
	rescanLimit *util.Limiter

	mu sync.Mutex
	// Extracted events keyed by file path so incremental updates only
	// re-analyze the files that changed.
	eventsByFile map[string][]schema.TrackingEvent
	// Event names of the previous aggregate, for watch-mode deltas.
	prevNames  map[string]bool
	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) (*App, error) {
	registry, err := analyzer.NewRegistry(cfg.Languages.Disabled)
	if err != nil {
		return nil, err
	}

	sc, err := scanner.New(registry, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}

	rescanRate := cfg.Watch.RescanRate
	if rescanRate <= 0 {
		rescanRate = 2
	}

	a := &App{
		Config:       cfg,
		Registry:     registry,
		Scanner:      sc,
		describer:    schema.NoopDescriber{},
		rescanLimit:  util.NewLimiter(rescanRate, 1),
		eventsByFile: make(map[string][]schema.TrackingEvent),
		prevNames:    make(map[string]bool),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.History = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

func (a *App) InitialScan(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "app.InitialScan")
	defer span.End()

	start := time.Now()
	files, err := a.Scanner.Scan(a.Config.ScanPaths)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.ProcessFile(ctx, path); err != nil {
			slog.Warn("failed to process file", "path", path, "error", err)
		}
	}

	observability.AnalysisDuration.WithLabelValues("initial_scan").Observe(time.Since(start).Seconds())
	slog.Info("initial scan complete", "files", len(files), "duration", time.Since(start))
	return nil
}

func (a *App) ProcessFile(ctx context.Context, path string) error {
	_, span := observability.Tracer.Start(ctx, "app.ProcessFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	events := a.Registry.AnalyzeFile(path, src, a.Config.CustomFunction)
	observability.FilesScannedTotal.Inc()

	a.mu.Lock()
	a.eventsByFile[path] = events
	a.mu.Unlock()
	return nil
}

// BuildSchema aggregates the per-file caches into one schema document,
// annotated with git metadata when the scan root is a repository.
func (a *App) BuildSchema(ctx context.Context) (*schema.Schema, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.BuildSchema")
	defer span.End()

	a.mu.Lock()
	all := make([]schema.TrackingEvent, 0, len(a.eventsByFile))
	for _, path := range util.SortedStringKeys(a.eventsByFile) {
		all = append(all, a.eventsByFile[path]...)
	}
	a.mu.Unlock()

	remote, commit, commitTime := history.ResolveGitMetadata(a.gitRoot())
	var meta *schema.RepoMeta
	if remote != "" || commit != "" {
		meta = &schema.RepoMeta{Repository: remote, Commit: commit}
		if !commitTime.IsZero() {
			meta.Timestamp = commitTime.Format(time.RFC3339)
		}
	}

	s := schema.NewSchema(all, meta)

	if a.Config.Descriptions.Enabled {
		if err := a.describer.Describe(ctx, s); err != nil {
			return nil, fmt.Errorf("describe events: %w", err)
		}
	}

	observability.TrackingEvents.Set(float64(s.EventCount()))
	observability.TrackingCalls.Reset()
	for src, n := range s.CountBySource() {
		observability.TrackingCalls.WithLabelValues(string(src)).Set(float64(n))
	}

	return s, nil
}

func (a *App) GenerateOutputs(s *schema.Schema) error {
	if a.Config.Output.YAML != "" {
		data, err := s.YAML()
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(a.Config.Output.YAML, data, 0o644); err != nil {
			return err
		}
	}

	if a.Config.Output.JSON != "" {
		data, err := s.JSON()
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(a.Config.Output.JSON, data, 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) HandleChanges(paths []string) {
	ctx := context.Background()
	if err := a.rescanLimit.Wait(ctx, 1); err != nil {
		slog.Warn("rescan limiter interrupted", "error", err)
		return
	}

	ctx, span := observability.Tracer.Start(ctx, "app.HandleChanges")
	defer span.End()

	slog.Info("detected changes", "count", len(paths))
	start := time.Now()

	changed := 0
	for _, path := range paths {
		if a.Scanner.Excluded(path) || !a.Registry.Supports(path) {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.mu.Lock()
			_, known := a.eventsByFile[path]
			delete(a.eventsByFile, path)
			a.mu.Unlock()
			if known {
				changed++
			}
			continue
		}

		if err := a.ProcessFile(ctx, path); err != nil {
			slog.Warn("failed to re-process file", "path", path, "error", err)
			continue
		}
		changed++
	}

	if changed == 0 {
		return
	}

	observability.RescansTotal.Inc()
	s, err := a.BuildSchema(ctx)
	if err != nil {
		slog.Error("failed to rebuild schema", "error", err)
		return
	}

	if err := a.GenerateOutputs(s); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	duration := time.Since(start)
	observability.AnalysisDuration.WithLabelValues("rescan").Observe(duration.Seconds())

	added, removed := a.diffEventNames(s)
	a.PrintSummary(s, changed, duration, added, removed)
	a.RecordSnapshot(s)

	a.mu.Lock()
	prog := a.teaProgram
	a.mu.Unlock()
	if prog != nil {
		prog.Send(a.uiUpdate(s, added, removed))
	}

	if a.Config.Alerts.Beep && (len(added) > 0 || len(removed) > 0) {
		fmt.Print("\a")
	}
}

// diffEventNames compares the aggregate against the previous one and
// replaces the remembered name set.
func (a *App) diffEventNames(s *schema.Schema) (added, removed []string) {
	current := make(map[string]bool, len(s.Events))
	for name := range s.Events {
		current[name] = true
	}

	a.mu.Lock()
	for name := range current {
		if !a.prevNames[name] {
			added = append(added, name)
		}
	}
	for name := range a.prevNames {
		if !current[name] {
			removed = append(removed, name)
		}
	}
	a.prevNames = current
	a.mu.Unlock()

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func (a *App) RecordSnapshot(s *schema.Schema) {
	if a.History == nil {
		return
	}

	snap, err := history.NewSnapshot(s, a.FileCount(), time.Now())
	if err != nil {
		slog.Warn("failed to build history snapshot", "error", err)
		return
	}
	if s.Source != nil {
		snap.CommitHash = s.Source.Commit
		if ts, err := time.Parse(time.RFC3339, s.Source.Timestamp); err == nil {
			snap.CommitTimestamp = ts
		}
	}

	if err := a.History.SaveSnapshot(a.Config.History.Project, snap); err != nil {
		slog.Warn("failed to record history snapshot", "error", err)
	}
}

func (a *App) RunTrends(w io.Writer, asJSON bool) error {
	if a.History == nil {
		return fmt.Errorf("history is disabled; enable [history] in the config to record runs")
	}

	snapshots, err := a.History.LoadSnapshots(a.Config.History.Project, time.Time{})
	if err != nil {
		return err
	}

	report, err := history.BuildTrendReport(a.Config.History.Project, snapshots, a.Config.History.Window)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	return writeTrendTSV(w, report)
}

func writeTrendTSV(w io.Writer, report history.TrendReport) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# project=%s scans=%d window=%s\n", report.ProjectKey, report.ScanCount, report.Window)
	fmt.Fprintln(bw, strings.Join([]string{
		"Timestamp", "Commit", "Files", "Events", "CallSites", "Properties",
		"Added", "Removed", "GrowthPct", "AvgEvents", "AvgProperties", "Sources",
	}, "\t"))

	for _, p := range report.Points {
		sources := make([]string, 0, len(p.SourceCounts))
		for _, name := range util.SortedStringKeys(p.SourceCounts) {
			sources = append(sources, fmt.Sprintf("%s=%d", name, p.SourceCounts[name]))
		}
		fmt.Fprintf(bw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%s\n",
			p.Timestamp.Format(time.RFC3339), p.CommitHash, p.FileCount, p.EventCount,
			p.ImplementationCount, p.PropertyCount, p.EventsAdded, p.EventsRemoved,
			p.EventGrowthPct, p.AvgEvents, p.AvgProperties, strings.Join(sources, ";"))
	}

	if d := report.Latest; d != nil {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "# diff %s -> %s\n", d.FromRun, d.ToRun)
		for _, name := range d.NewEvents {
			fmt.Fprintf(bw, "new\t%s\n", name)
		}
		for _, name := range d.RemovedEvents {
			fmt.Fprintf(bw, "removed\t%s\n", name)
		}
		for _, ev := range d.ChangedEvents {
			fmt.Fprintf(bw, "changed\t%s\tadded=%s\tremoved=%s\n", ev.EventName,
				strings.Join(ev.PropertiesAdded, ","), strings.Join(ev.PropertiesRemoved, ","))
		}
	}

	return bw.Flush()
}

func (a *App) PrintSummary(s *schema.Schema, fileCount int, duration time.Duration, added, removed []string) {
	if !a.Config.Alerts.Terminal {
		return
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Scan: %d files, %d events, %d call sites in %v\n",
		fileCount, s.EventCount(), s.ImplementationCount(), duration)

	counts := s.CountBySource()
	if len(counts) > 0 {
		byName := make(map[string]int, len(counts))
		for src, n := range counts {
			byName[string(src)] = n
		}
		fmt.Println("📊 Call sites by destination:")
		for _, name := range util.SortedStringKeys(byName) {
			fmt.Printf("   %s: %d\n", name, byName[name])
		}
	}

	if empty := emptyPropertyEvents(s); len(empty) > 0 {
		fmt.Printf("⚠️  FOUND %d EVENTS WITHOUT PROPERTIES:\n", len(empty))
		for _, name := range empty {
			fmt.Printf("   %s\n", name)
		}
	} else if s.EventCount() > 0 {
		fmt.Println("✅ Every event carries properties.")
	}

	for _, name := range added {
		fmt.Printf("🆕 New event: %s\n", name)
	}
	for _, name := range removed {
		fmt.Printf("🗑️  Removed event: %s\n", name)
	}
	fmt.Println(strings.Repeat("-", 40))
}

func emptyPropertyEvents(s *schema.Schema) []string {
	names := make([]string, 0)
	for name, ev := range s.Events {
		if len(ev.Properties) == 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.Registry.Extensions(),
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	// Runs for the process lifetime, so no Close here.
	return w.Watch(scanner.UniqueRoots(a.Config.ScanPaths))
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.mu.Lock()
	a.teaProgram = p
	a.mu.Unlock()

	// Push the initial scan's state once the program is receiving.
	go func() {
		s, err := a.BuildSchema(context.Background())
		if err != nil {
			slog.Error("failed to build schema for UI", "error", err)
			return
		}
		p.Send(a.uiUpdate(s, nil, nil))
	}()

	_, err := p.Run()
	return err
}

func (a *App) uiUpdate(s *schema.Schema, added, removed []string) updateMsg {
	bySource := make(map[string]int)
	for src, n := range s.CountBySource() {
		bySource[string(src)] = n
	}
	return updateMsg{
		eventCount: s.EventCount(),
		implCount:  s.ImplementationCount(),
		fileCount:  a.FileCount(),
		bySource:   bySource,
		added:      added,
		removed:    removed,
		heapMB:     util.GetHeapAllocMB(),
	}
}

func (a *App) FileCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.eventsByFile)
}

func (a *App) Health(ctx context.Context) observability.HealthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return observability.HealthStatus{
		Status: "up",
		Files:  len(a.eventsByFile),
		Events: len(a.prevNames),
	}
}

func (a *App) gitRoot() string {
	if len(a.Config.ScanPaths) == 0 {
		return "."
	}
	return a.Config.ScanPaths[0]
}
