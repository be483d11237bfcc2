// Package analysis computes descriptive statistics, distribution shape,
// missing value patterns, outliers, and overall data quality for datasets.
//
// Every computation ignores missing cells unless noted otherwise and returns
// plain result values from the domain package; nothing here keeps state
// between calls.
package analysis

import "log/slog"

// Options tunes the analysis thresholds.
type Options struct {
	IQRMultiplier    float64
	ZScoreThreshold  float64
	ShapiroMaxSample int
	NormalityAlpha   float64
	OutlierListLimit int
	SampleSeed       uint64
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		IQRMultiplier:    1.5,
		ZScoreThreshold:  3.0,
		ShapiroMaxSample: 5000,
		NormalityAlpha:   0.05,
		OutlierListLimit: 100,
		SampleSeed:       42,
	}
}

// Engine runs the analyses with a fixed set of options.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Engine. Zero-valued options fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Engine {
	def := DefaultOptions()

	if opts.IQRMultiplier <= 0 {
		opts.IQRMultiplier = def.IQRMultiplier
	}

	if opts.ZScoreThreshold <= 0 {
		opts.ZScoreThreshold = def.ZScoreThreshold
	}

	if opts.ShapiroMaxSample < 3 {
		opts.ShapiroMaxSample = def.ShapiroMaxSample
	}

	if opts.NormalityAlpha <= 0 || opts.NormalityAlpha >= 1 {
		opts.NormalityAlpha = def.NormalityAlpha
	}

	if opts.OutlierListLimit <= 0 {
		opts.OutlierListLimit = def.OutlierListLimit
	}

	if opts.SampleSeed == 0 {
		opts.SampleSeed = def.SampleSeed
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}
