// # cmd/trackscan/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"trackscan/internal/config"
	"trackscan/internal/observability"
)

var (
	configPath = flag.String("config", "./trackscan.toml", "Path to config file")
	outputPath = flag.String("output", "", "Schema output path (overrides config)")
	jsonOut    = flag.Bool("json", false, "Emit JSON instead of YAML (schema output and trend reports)")
	customFn   = flag.String("custom-function", "", "Custom tracking function name to detect")
	watch      = flag.Bool("watch", false, "Keep running and re-analyze on file changes")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies --watch)")
	trends     = flag.Bool("trends", false, "Print the history trend report and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("trackscan v%s\n", VERSION)
		os.Exit(0)
	}

	if *ui {
		*watch = true
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, avoid stderr logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flag overrides
	if flag.NArg() > 0 {
		cfg.ScanPaths = flag.Args()
	}
	if *customFn != "" {
		cfg.CustomFunction = *customFn
	}
	if *outputPath != "" {
		if *jsonOut {
			cfg.Output.JSON = *outputPath
			cfg.Output.YAML = ""
		} else {
			cfg.Output.YAML = *outputPath
		}
	} else if *jsonOut && cfg.Output.JSON == "" {
		cfg.Output.JSON = "tracking-schema.json"
		cfg.Output.YAML = ""
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	if *trends {
		err := app.RunTrends(os.Stdout, *jsonOut)
		app.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, VERSION)
	if err != nil {
		slog.Warn("failed to set up tracing", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	if cfg.Observability.MetricsAddr != "" {
		obs := observability.NewServer(cfg.Observability.MetricsAddr, app.Health)
		if err := obs.Start(ctx); err != nil {
			slog.Warn("failed to start observability server", "error", err)
		} else {
			defer obs.Stop(context.Background())
		}
	}

	// Initial scan
	start := time.Now()
	if err := app.InitialScan(ctx); err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	s, err := app.BuildSchema(ctx)
	if err != nil {
		slog.Error("failed to build schema", "error", err)
		os.Exit(1)
	}

	if err := app.GenerateOutputs(s); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	// Seed the previous-aggregate set so watch mode reports deltas rather
	// than the whole schema.
	app.diffEventNames(s)

	if !*ui {
		app.PrintSummary(s, app.FileCount(), time.Since(start), nil, nil)
	}
	app.RecordSnapshot(s)

	if !*watch {
		app.Close()
		return
	}

	// Watch mode
	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := app.RunUI(); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	} else {
		// Block forever
		select {}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "trackscan", "trackscan.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "trackscan", "trackscan.log")
	}

	return "trackscan.log"
}
