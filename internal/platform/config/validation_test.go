package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns the defaults, which must always validate.
func validConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestConfig_Validate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		message string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name", "is required"},
		{"invalid environment", func(c *Config) { c.App.Environment = "staging" }, "app.environment", "must be one of"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port", "is required"},
		{"port too high", func(c *Config) { c.Server.Port = 65536 }, "server.port", "at most 65535"},
		{"short read timeout", func(c *Config) { c.Server.ReadTimeout = 500 * time.Millisecond }, "server.read_timeout", "at least 1s"},
		{"zero request size", func(c *Config) { c.Server.MaxRequestSize = 0 }, "server.max_request_size", "is required"},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level", "must be one of"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "log.format", "must be one of"},
		{"log file without path", func(c *Config) { c.Log.File.Enabled = true; c.Log.File.Path = "" }, "log.file.path", "is required when"},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry.Enabled = true }, "telemetry.endpoint", "is required when"},
		{"bad sampling rate", func(c *Config) { c.Telemetry.SamplingRate = 1.5 }, "telemetry.sampling_rate", "at most 1"},
		{"retry attempts", func(c *Config) { c.Client.Retry.MaxAttempts = 11 }, "client.retry.max_attempts", "at most 10"},
		{"retry cap below start", func(c *Config) { c.Client.Retry.InitialInterval = 10 * time.Second }, "client.retry.max_interval", "must not be below initial_interval"},
		{"breaker failures", func(c *Config) { c.Client.CircuitBreaker.MaxFailures = 0 }, "client.circuit_breaker.max_failures", "is required"},
		{"zero file size", func(c *Config) { c.Data.MaxFileSize = 0 }, "data.max_file_size", "is required"},
		{"negative dataset cap", func(c *Config) { c.Data.MaxDatasets = -1 }, "data.max_datasets", "at least 0"},
		{"unknown extension", func(c *Config) { c.Data.AllowedExtensions = []string{"csv", "parquet"} }, "data.allowed_extensions[1]", "must be one of"},
		{"confidence above one", func(c *Config) { c.Data.EncodingMinConfidence = 2 }, "data.encoding_min_confidence", "at most 1"},
		{"non-positive iqr", func(c *Config) { c.Analysis.IQRMultiplier = -1 }, "analysis.iqr_multiplier", "greater than 0"},
		{"shapiro sample too large", func(c *Config) { c.Analysis.ShapiroMaxSample = 10000 }, "analysis.shapiro_max_sample", "at most 5000"},
		{"alpha of one", func(c *Config) { c.Analysis.NormalityAlpha = 1 }, "analysis.normality_alpha", "less than 1"},
		{"unknown chart style", func(c *Config) { c.Charts.Style = "neon" }, "charts.style", "must be one of"},
		{"tiny dpi", func(c *Config) { c.Charts.DPI = 10 }, "charts.dpi", "at least 36"},
		{"report without columns", func(c *Config) { c.Report.MaxColumns = 0 }, "report.max_columns", "is required"},
		{"watch without dir", func(c *Config) { c.Watch.Enabled = true; c.Watch.Dir = "" }, "watch.dir", "is required when"},
		{"remote without url", func(c *Config) { c.Sources.Remote.Enabled = true }, "sources.remote.base_url", "is required when"},
		{"remote bad url", func(c *Config) { c.Sources.Remote.BaseURL = "not a url" }, "sources.remote.base_url", "valid URL"},
		{"workspace without root", func(c *Config) { c.Workspace.Root = "" }, "workspace.root", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestConfig_Validate_AcceptedValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"trace level", func(c *Config) { c.Log.Level = "trace" }},
		{"pretty format", func(c *Config) { c.Log.Format = "pretty" }},
		{"dark svg charts", func(c *Config) { c.Charts.Style = "dark"; c.Charts.Format = "svg" }},
		{"unlimited datasets", func(c *Config) { c.Data.MaxDatasets = 0 }},
		{"enabled remote", func(c *Config) {
			c.Sources.Remote.Enabled = true
			c.Sources.Remote.BaseURL = "https://data.example.com"
		}},
		{"enabled watcher", func(c *Config) { c.Watch.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.App.Name = ""
	cfg.Server.Port = 0
	cfg.Log.Level = "invalid"

	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "log.level")
}

func TestSettingKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Config.server.port", "server.port"},
		{"Config.client.retry.max_attempts", "client.retry.max_attempts"},
		{"Config.data.allowed_extensions[0]", "data.allowed_extensions[0]"},
		{"Single", "single"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, settingKey(tt.input))
		})
	}
}
