// # internal/config/config.go
package config

import (
	"errors"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ScanPaths      []string      `toml:"scan_paths"`
	CustomFunction string        `toml:"custom_function"`
	Exclude        Exclude       `toml:"exclude"`
	Languages      Languages     `toml:"languages"`
	Output         Output        `toml:"output"`
	Watch          Watch         `toml:"watch"`
	History        History       `toml:"history"`
	Alerts         Alerts        `toml:"alerts"`
	Observability  Observability `toml:"observability"`
	Descriptions   Descriptions  `toml:"descriptions"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"` // Glob patterns, e.g. test suffixes ("*_test.go")
}

type Languages struct {
	Disabled []string `toml:"disabled"`
}

type Output struct {
	YAML string `toml:"yaml"`
	JSON string `toml:"json"`
}

type Watch struct {
	Debounce   time.Duration `toml:"debounce"`
	RescanRate float64       `toml:"rescan_rate"` // Full rescans per second in watch mode
}

type History struct {
	Enabled bool          `toml:"enabled"`
	Path    string        `toml:"path"`
	Project string        `toml:"project"`
	Window  time.Duration `toml:"window"` // Moving-average window for trend reports
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Descriptions struct {
	Enabled bool `toml:"enabled"`
}

// Load reads a TOML config file. A missing file is not an error: the
// defaults are returned so the tool runs without any configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}

	if !md.IsDefined("alerts", "terminal") {
		cfg.Alerts.Terminal = true
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.Alerts.Terminal = true
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.ScanPaths) == 0 {
		c.ScanPaths = []string{"."}
	}
	if len(c.Exclude.Dirs) == 0 {
		c.Exclude.Dirs = []string{".git", "node_modules", "vendor", "dist", "build", "__pycache__"}
	}
	if c.Output.YAML == "" && c.Output.JSON == "" {
		c.Output.YAML = "tracking-schema.yaml"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Watch.RescanRate == 0 {
		c.Watch.RescanRate = 2
	}
	if c.History.Path == "" {
		c.History.Path = ".trackscan/history.db"
	}
	if c.History.Project == "" {
		c.History.Project = "default"
	}
	if c.History.Window == 0 {
		c.History.Window = 7 * 24 * time.Hour
	}
}
