package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "eda-panel", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Data.MaxFileSize)
	assert.Equal(t, DefaultMaxDatasets, cfg.Data.MaxDatasets)
	assert.True(t, cfg.Data.EvictOldest)
	assert.Equal(t, []string{"csv", "xlsx", "xls", "json"}, cfg.Data.AllowedExtensions)
	assert.Equal(t, DefaultEncodingSampleBytes, cfg.Data.EncodingSampleBytes)
	assert.InDelta(t, 0.5, cfg.Data.EncodingMinConfidence, 1e-9)
	assert.InDelta(t, 1.5, cfg.Analysis.IQRMultiplier, 1e-9)
	assert.InDelta(t, 3.0, cfg.Analysis.ZScoreThreshold, 1e-9)
	assert.Equal(t, 5000, cfg.Analysis.ShapiroMaxSample)
	assert.InDelta(t, 0.05, cfg.Analysis.NormalityAlpha, 1e-9)
	assert.Equal(t, 100, cfg.Analysis.OutlierListLimit)
	assert.Equal(t, uint64(42), cfg.Analysis.SampleSeed)
	assert.Equal(t, "light", cfg.Charts.Style)
	assert.Equal(t, "png", cfg.Charts.Format)
	assert.Equal(t, 100, cfg.Charts.DPI)
	assert.Equal(t, 30, cfg.Report.MaxColumns)
	assert.Equal(t, 25, cfg.Report.NameWidth)
	assert.Equal(t, DefaultWatchPattern, cfg.Watch.Pattern)
	assert.Equal(t, ".edapanel", cfg.Workspace.Root)
	assert.Equal(t, "edapanel.manifest", cfg.Workspace.Manifest)
	assert.Equal(t, "eda-service", cfg.Workspace.Entry)
}

func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Settle)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_DATA_MAX_DATASETS", "3")
	t.Setenv("APP_DATA_EVICT_OLDEST", "false")
	t.Setenv("APP_CLIENT_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("APP_WORKSPACE_ROOT", "/tmp/ws")

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Data.MaxDatasets)
	assert.False(t, cfg.Data.EvictOldest)
	assert.Equal(t, 5, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, "/tmp/ws", cfg.Workspace.Root)
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "base.yaml"),
		[]byte("charts:\n  style: dark\n  dpi: 150\nreport:\n  include_charts: true\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.yaml"),
		[]byte("charts:\n  dpi: 72\n"), 0o600))
	t.Setenv("APP_CHARTS_STYLE", "light")

	cfg, err := LoadFrom(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, "light", cfg.Charts.Style)
	assert.Equal(t, 72, cfg.Charts.DPI)
	assert.True(t, cfg.Report.IncludeCharts)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "eda-panel", cfg.App.Name)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "base.yaml"), []byte("a: [b"), 0o600))

	_, err := LoadFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestEnvKeyMapper(t *testing.T) {
	mapper := envKeyMapper(keySet(defaults()))

	tests := []struct {
		env  string
		want string
	}{
		{"APP_SERVER_PORT", "server.port"},
		{"APP_DATA_MAX_FILE_SIZE", "data.max_file_size"},
		{"APP_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_LIMIT", "client.circuit_breaker.half_open_limit"},
		{"APP_SOURCES_REMOTE_BASE_URL", "sources.remote.base_url"},
		{"APP_UNKNOWN_KEY", "unknown.key"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, mapper(tt.env))
		})
	}
}
