// Package config loads settings with koanf from defaults, YAML files, and
// APP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort = 8080

	// DefaultMaxRequestSize leaves room for a full-size upload plus multipart framing.
	DefaultMaxRequestSize = DefaultMaxFileSize + 1<<20

	DefaultClientRetryMaxAttempts     = 3
	DefaultClientRetryMultiplier      = 2.0
	DefaultClientRetryJitterFactor    = 0.25
	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10
	DefaultTransportIdleConnTimeout     = 90 * time.Second

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultMaxFileSize is the largest accepted dataset file (100 MB).
	DefaultMaxFileSize = 100 << 20

	DefaultMaxDatasets           = 20
	DefaultEncodingSampleBytes   = 10000
	DefaultEncodingMinConfidence = 0.5

	DefaultIQRMultiplier    = 1.5
	DefaultZScoreThreshold  = 3.0
	DefaultShapiroMaxSample = 5000
	DefaultNormalityAlpha   = 0.05
	DefaultOutlierListLimit = 100
	DefaultSampleSeed       = 42

	DefaultReportMaxColumns = 30
	DefaultReportNameWidth  = 25

	DefaultWatchPattern = "**/*.{csv,json,xlsx,xls}"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Data      DataConfig      `koanf:"data"      validate:"required"`
	Analysis  AnalysisConfig  `koanf:"analysis"  validate:"required"`
	Charts    ChartsConfig    `koanf:"charts"    validate:"required"`
	Report    ReportConfig    `koanf:"report"    validate:"required"`
	Watch     WatchConfig     `koanf:"watch"`
	Sources   SourcesConfig   `koanf:"sources"`
	Workspace WorkspaceConfig `koanf:"workspace" validate:"required"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for remote sources.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms,gtefield=InitialInterval"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// DataConfig limits what datasets are accepted and how many are kept.
type DataConfig struct {
	MaxFileSize           int64    `koanf:"max_file_size"           validate:"required,min=1"`
	MaxDatasets           int      `koanf:"max_datasets"            validate:"min=0"`
	EvictOldest           bool     `koanf:"evict_oldest"`
	AllowedExtensions     []string `koanf:"allowed_extensions"      validate:"required,min=1,dive,oneof=csv xlsx xls json"`
	EncodingSampleBytes   int      `koanf:"encoding_sample_bytes"   validate:"required,min=64"`
	EncodingMinConfidence float64  `koanf:"encoding_min_confidence" validate:"min=0,max=1"`
}

// AnalysisConfig holds the statistical parameters.
type AnalysisConfig struct {
	IQRMultiplier    float64 `koanf:"iqr_multiplier"     validate:"required,gt=0"`
	ZScoreThreshold  float64 `koanf:"zscore_threshold"   validate:"required,gt=0"`
	ShapiroMaxSample int     `koanf:"shapiro_max_sample" validate:"required,min=3,max=5000"`
	NormalityAlpha   float64 `koanf:"normality_alpha"    validate:"required,gt=0,lt=1"`
	OutlierListLimit int     `koanf:"outlier_list_limit" validate:"required,min=1"`
	SampleSeed       uint64  `koanf:"sample_seed"`
}

// ChartsConfig holds the rendering defaults.
type ChartsConfig struct {
	Style  string  `koanf:"style"  validate:"required,oneof=light dark"`
	Format string  `koanf:"format" validate:"required,oneof=png svg"`
	Width  float64 `koanf:"width"  validate:"required,gt=0,max=40"`
	Height float64 `koanf:"height" validate:"required,gt=0,max=40"`
	DPI    int     `koanf:"dpi"    validate:"required,min=36,max=600"`
}

// ReportConfig holds the PDF report layout.
type ReportConfig struct {
	MaxColumns    int  `koanf:"max_columns"    validate:"required,min=1"`
	NameWidth     int  `koanf:"name_width"     validate:"required,min=4"`
	IncludeCharts bool `koanf:"include_charts"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"     validate:"required_if=Enabled true"`
	Pattern string        `koanf:"pattern" validate:"required_if=Enabled true"`
	Settle  time.Duration `koanf:"settle"  validate:"omitempty,min=10ms"`
}

// SourcesConfig lists the remote places datasets can be imported from.
type SourcesConfig struct {
	Remote RemoteSourceConfig `koanf:"remote"`
}

// RemoteSourceConfig is an HTTP endpoint serving dataset files.
type RemoteSourceConfig struct {
	Enabled bool   `koanf:"enabled"`
	Name    string `koanf:"name"     validate:"required_if=Enabled true"`
	BaseURL string `koanf:"base_url" validate:"required_if=Enabled true,omitempty,url"`
}

// WorkspaceConfig locates the runtime workspace the launcher provisions.
type WorkspaceConfig struct {
	Root     string `koanf:"root"     validate:"required"`
	Manifest string `koanf:"manifest" validate:"required"`
	Entry    string `koanf:"entry"    validate:"required"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "eda-panel",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "60s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "60s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/eda-panel.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "eda-panel",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "30s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"data.max_file_size":           DefaultMaxFileSize,
		"data.max_datasets":            DefaultMaxDatasets,
		"data.evict_oldest":            true,
		"data.allowed_extensions":      []string{"csv", "xlsx", "xls", "json"},
		"data.encoding_sample_bytes":   DefaultEncodingSampleBytes,
		"data.encoding_min_confidence": DefaultEncodingMinConfidence,

		"analysis.iqr_multiplier":     DefaultIQRMultiplier,
		"analysis.zscore_threshold":   DefaultZScoreThreshold,
		"analysis.shapiro_max_sample": DefaultShapiroMaxSample,
		"analysis.normality_alpha":    DefaultNormalityAlpha,
		"analysis.outlier_list_limit": DefaultOutlierListLimit,
		"analysis.sample_seed":        DefaultSampleSeed,

		"charts.style":  "light",
		"charts.format": "png",
		"charts.width":  10.0,
		"charts.height": 6.0,
		"charts.dpi":    100,

		"report.max_columns":    DefaultReportMaxColumns,
		"report.name_width":     DefaultReportNameWidth,
		"report.include_charts": false,

		"watch.enabled": false,
		"watch.dir":     "./inbox",
		"watch.pattern": DefaultWatchPattern,
		"watch.settle":  "500ms",

		"sources.remote.enabled":  false,
		"sources.remote.name":     "remote-source",
		"sources.remote.base_url": "",

		"workspace.root":     ".edapanel",
		"workspace.manifest": "edapanel.manifest",
		"workspace.entry":    "eda-service",
	}
}

// Load loads configuration from the working directory with the following
// precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	return LoadFrom(".", profile)
}

// LoadFrom is Load with the configs directory resolved under dir.
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	def := defaults()

	if err := k.Load(confmap.Provider(def, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := loadFileIfExists(k, filepath.Join(dir, "configs", "base.yaml")); err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		path := filepath.Join(dir, "configs", profile+".yaml")

		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKeyMapper(keySet(def))), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyMapper turns APP_DATA_MAX_FILE_SIZE into data.max_file_size. Known
// keys keep their underscores; unknown names split on every underscore.
func envKeyMapper(known map[string]string) func(string) string {
	return func(s string) string {
		flat := strings.ToLower(strings.TrimPrefix(s, "APP_"))
		if key, ok := known[flat]; ok {
			return key
		}

		return strings.ReplaceAll(flat, "_", ".")
	}
}

func keySet(def map[string]any) map[string]string {
	known := make(map[string]string, len(def))
	for key := range def {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	return known
}

// loadFileIfExists loads a YAML config file if it exists.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
