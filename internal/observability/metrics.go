// # internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackscan_files_scanned_total",
		Help: "Total number of source files analyzed.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackscan_analysis_seconds",
		Help:    "Time spent on analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	TrackingCalls = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trackscan_tracking_calls",
		Help: "Tracking call sites in the current aggregate, by provider.",
	}, []string{"provider"})

	TrackingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackscan_tracking_events",
		Help: "Distinct events in the current aggregate.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackscan_rescans_total",
		Help: "Total number of watch-mode re-analysis passes.",
	})

	AnalysisFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackscan_analysis_failures_total",
		Help: "Total number of files whose analysis failed.",
	})
)
