package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `solve:
  time_limit_seconds: 120
  num_workers: 4
  planning_days: 7
  force_preventive: true
generator:
  vehicles: 6
  depots: 3
  seed: 12
metrics:
  prometheus_enabled: true
  prometheus_addr: ":9100"
output:
  dir: "plans"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Solve.TimeLimitSeconds)
	assert.Equal(t, 4, cfg.Solve.NumWorkers)
	assert.Equal(t, 7, cfg.Solve.PlanningDays)
	assert.True(t, cfg.Solve.ForcePreventive)
	assert.Equal(t, 6, cfg.Generator.Vehicles)
	assert.Equal(t, 3, cfg.Generator.Depots)
	assert.EqualValues(t, 12, cfg.Generator.Seed)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, ":9100", cfg.Metrics.PrometheusAddr)
	assert.Equal(t, "plans", cfg.Output.Dir)
	// Untouched sections pick up their defaults.
	assert.Equal(t, 8, cfg.Generator.RoutesPerDay)
}

func TestLoadDefaultsApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Solve.TimeLimitSeconds)
	assert.Equal(t, 1, cfg.Solve.NumWorkers)
	assert.Equal(t, 14, cfg.Solve.PlanningDays)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, ":9090", cfg.Metrics.PrometheusAddr)
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	_, err := Load("config.toml")
	require.Error(t, err)
}

func TestLoadRejectsInvalidParams(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solve:\n  time_limit_seconds: -5\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60, cfg.Solve.TimeLimitSeconds)
	assert.Equal(t, 10, cfg.Generator.Vehicles)
	assert.Equal(t, "output", cfg.Output.Dir)
}
