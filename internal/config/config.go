package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRawDir   = "data/raw"
	DefaultCacheDir = "data/cache"
	DefaultLogLevel = "info"
	DefaultMass     = 0.01
	DefaultWidth    = 80
	DefaultHeight   = 12
)

type Config struct {
	RawDir   string       `yaml:"raw_dir"`
	CacheDir string       `yaml:"cache_dir"`
	LogLevel string       `yaml:"log_level"`
	Steps    []int        `yaml:"steps"`
	Save     bool         `yaml:"save"`
	Mass     float64      `yaml:"mass"`
	Tables   TablesConfig `yaml:"tables"`
	Plot     PlotConfig   `yaml:"plot"`
}

// TablesConfig names the raw quantities pulled out of each step.
type TablesConfig struct {
	// Columns are SkyNet dataset names; the table uses their lowercase form.
	Columns      []string           `yaml:"columns"`
	ColumnScales map[string]float64 `yaml:"column_scales"`
	StirColumns  []string           `yaml:"stir_columns"`
}

type PlotConfig struct {
	Width  int               `yaml:"width"`
	Height int               `yaml:"height"`
	Scales map[string]string `yaml:"scales"`
	Labels map[string]string `yaml:"labels"`
}

func DefaultConfig() *Config {
	return &Config{
		RawDir:   DefaultRawDir,
		CacheDir: DefaultCacheDir,
		LogLevel: DefaultLogLevel,
		Steps:    []int{1, 2},
		Save:     true,
		Mass:     DefaultMass,
		Tables:   DefaultTables(),
		Plot:     DefaultPlot(),
	}
}

func DefaultTables() TablesConfig {
	return TablesConfig{
		Columns: []string{"Time", "Density", "Temperature", "Ye", "HeatingRate", "Entropy"},
		ColumnScales: map[string]float64{
			"temperature": 1e9,
		},
		StirColumns: []string{"time", "temperature", "density", "radius", "ye",
			"enue", "enua", "fnue", "fnua"},
	}
}

func DefaultPlot() PlotConfig {
	return PlotConfig{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Scales: map[string]string{
			"density":     "log",
			"temperature": "log",
			"heatingrate": "log",
			"X":           "log",
			"Y":           "log",
			"ye":          "linear",
			"entropy":     "linear",
			"time":        "linear",
			"abar":        "linear",
			"sumy":        "linear",
		},
		Labels: map[string]string{
			"density":     "density (g cm^-3)",
			"temperature": "T (K)",
			"heatingrate": "heating rate",
			"ye":          "Ye",
			"entropy":     "S",
			"time":        "time (s)",
			"abar":        "Abar",
			"zbar":        "Zbar",
			"sumy":        "sum Y",
			"X":           "X",
			"Y":           "Y",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.RawDir == "" {
		return fmt.Errorf("raw_dir must be set")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir must be set")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("steps must not be empty")
	}
	for _, s := range c.Steps {
		if s < 1 {
			return fmt.Errorf("steps must be positive, got %d", s)
		}
	}
	if len(c.Tables.Columns) == 0 {
		return fmt.Errorf("tables.columns must not be empty")
	}
	if !containsFold(c.Tables.Columns, "time") {
		return fmt.Errorf("tables.columns must include Time")
	}
	if len(c.Tables.StirColumns) == 0 || c.Tables.StirColumns[0] != "time" {
		return fmt.Errorf("tables.stir_columns must start with time")
	}
	if c.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %g", c.Mass)
	}
	for q, s := range c.Plot.Scales {
		if s != "log" && s != "linear" {
			return fmt.Errorf("plot.scales.%s must be log or linear, got %q", q, s)
		}
	}
	return nil
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
