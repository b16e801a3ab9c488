package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/railops/core/solver"
	"github.com/kilianp07/railops/datagen"
)

// MetricsConfig controls the Prometheus exposition.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
}

// SetDefaults applies the default exposition address.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// OutputConfig controls where solved schedules are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

// SetDefaults applies the default output directory.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}
}

// Config aggregates every tunable of the planner binary.
type Config struct {
	Solve     solver.Params  `json:"solve"`
	Generator datagen.Config `json:"generator"`
	Metrics   MetricsConfig  `json:"metrics"`
	Output    OutputConfig   `json:"output"`
}

// Default returns a configuration with every section at its defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Solve.SetDefaults()
	cfg.Generator.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Output.SetDefaults()
	return cfg
}

// Load reads a yaml or json configuration file, applies RAIL_-prefixed
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides.
	if err := k.Load(env.Provider("RAIL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rail_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Solve.SetDefaults()
	cfg.Generator.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Output.SetDefaults()
	if err := cfg.Solve.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Generator.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
