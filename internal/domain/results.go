package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Scalar is a cell value that is either a number or text.
// The zero value is null.
type Scalar struct {
	Number *float64
	Text   string
	Valid  bool
}

// NumberScalar wraps a number. NaN and the infinities are null.
func NumberScalar(v float64) Scalar {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Scalar{}
	}

	return Scalar{Number: &v, Valid: true}
}

// TextScalar wraps a text value.
func TextScalar(s string) Scalar {
	return Scalar{Text: s, Valid: true}
}

// String renders the value for display; null renders as "-".
func (s Scalar) String() string {
	switch {
	case !s.Valid:
		return "-"
	case s.Number != nil:
		return strconv.FormatFloat(*s.Number, 'f', -1, 64)
	default:
		return s.Text
	}
}

// MarshalJSON emits a JSON number, string, or null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch {
	case !s.Valid:
		return []byte("null"), nil
	case s.Number != nil:
		return json.Marshal(*s.Number)
	default:
		return json.Marshal(s.Text)
	}
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Scalar{}
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}

		*s = TextScalar(text)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("scalar must be a number, string, or null: %w", err)
		}

		*s = NumberScalar(n)
	}

	return nil
}

// MarshalYAML emits the same shapes as MarshalJSON.
func (s Scalar) MarshalYAML() (any, error) {
	switch {
	case !s.Valid:
		return nil, nil
	case s.Number != nil:
		return *s.Number, nil
	default:
		return s.Text, nil
	}
}

// Float returns a pointer to v, for optional numeric fields. NaN and the
// infinities have no JSON form and yield nil.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

// DatasetSummary is the overview of a loaded dataset.
type DatasetSummary struct {
	ID           string       `json:"id"                  yaml:"id"`
	FileName     string       `json:"file_name"           yaml:"file_name"`
	Format       Format       `json:"format"              yaml:"format"`
	Encoding     string       `json:"encoding,omitempty"  yaml:"encoding,omitempty"`
	Rows         int          `json:"n_rows"              yaml:"n_rows"`
	Columns      int          `json:"n_columns"           yaml:"n_columns"`
	MemoryBytes  int64        `json:"memory_bytes"        yaml:"memory_bytes"`
	MemorySize   string       `json:"memory_size"         yaml:"memory_size"`
	DTypeCounts  map[Kind]int `json:"dtype_counts"        yaml:"dtype_counts"`
	TotalCells   int          `json:"total_cells"         yaml:"total_cells"`
	MissingCells int          `json:"missing_cells"       yaml:"missing_cells"`
	Completeness float64      `json:"completeness"        yaml:"completeness"`
}

// ColumnInfo describes one column for variable selection.
type ColumnInfo struct {
	Name         string  `json:"name"           yaml:"name"`
	DType        string  `json:"dtype"          yaml:"dtype"`
	Kind         Kind    `json:"category"       yaml:"category"`
	NonNull      int     `json:"non_null_count" yaml:"non_null_count"`
	Null         int     `json:"null_count"     yaml:"null_count"`
	Completeness float64 `json:"completeness"   yaml:"completeness"`
	Unique       int     `json:"unique_count"   yaml:"unique_count"`
}

// BasicStats are the descriptive statistics of a column.
type BasicStats struct {
	Count      int      `json:"count"       yaml:"count"`
	CountTotal int      `json:"count_total" yaml:"count_total"`
	Missing    int      `json:"missing"     yaml:"missing"`
	MissingPct float64  `json:"missing_pct" yaml:"missing_pct"`
	Mean       *float64 `json:"mean"        yaml:"mean"`
	Median     *float64 `json:"median"      yaml:"median"`
	Mode       Scalar   `json:"mode"        yaml:"mode"`
	ModeCount  int      `json:"mode_count"  yaml:"mode_count"`
	Std        *float64 `json:"std"         yaml:"std"`
	Variance   *float64 `json:"variance"    yaml:"variance"`
	Min        Scalar   `json:"min"         yaml:"min"`
	Max        Scalar   `json:"max"         yaml:"max"`
	Range      *float64 `json:"range"       yaml:"range"`
	Unique     int      `json:"unique"      yaml:"unique"`
}

// Percentiles holds the reported percentile cut points.
type Percentiles struct {
	P10 *float64 `json:"p10" yaml:"p10"`
	P25 *float64 `json:"p25" yaml:"p25"`
	P50 *float64 `json:"p50" yaml:"p50"`
	P75 *float64 `json:"p75" yaml:"p75"`
	P90 *float64 `json:"p90" yaml:"p90"`
	P95 *float64 `json:"p95" yaml:"p95"`
	P99 *float64 `json:"p99" yaml:"p99"`
}

// DistributionStats describe the shape of a numeric column.
type DistributionStats struct {
	Percentiles        Percentiles `json:"percentiles"         yaml:"percentiles"`
	Skewness           *float64    `json:"skewness"            yaml:"skewness"`
	SkewInterpretation string      `json:"skew_interpretation" yaml:"skew_interpretation"`
	Kurtosis           *float64    `json:"kurtosis"            yaml:"kurtosis"`
	KurtInterpretation string      `json:"kurt_interpretation" yaml:"kurt_interpretation"`
	ShapiroStat        *float64    `json:"shapiro_stat"        yaml:"shapiro_stat"`
	ShapiroPValue      *float64    `json:"shapiro_p_value"     yaml:"shapiro_p_value"`
	ShapiroSampleSize  int         `json:"shapiro_sample_size" yaml:"shapiro_sample_size"`
	IsNormal           *bool       `json:"is_normal"           yaml:"is_normal"`
	IQR                *float64    `json:"iqr"                 yaml:"iqr"`
}

// MissingPattern classifies how missing values are laid out in a column.
type MissingPattern string

// Missing value patterns.
const (
	PatternNone       MissingPattern = "none"
	PatternComplete   MissingPattern = "complete"
	PatternSystematic MissingPattern = "systematic"
	PatternRandom     MissingPattern = "random"
)

// ColumnMissing is the missing value analysis of one column.
type ColumnMissing struct {
	Total           int            `json:"total"           yaml:"total"`
	Missing         int            `json:"missing"         yaml:"missing"`
	MissingPct      float64        `json:"missing_pct"     yaml:"missing_pct"`
	Complete        int            `json:"complete"        yaml:"complete"`
	CompletePct     float64        `json:"complete_pct"    yaml:"complete_pct"`
	Pattern         string         `json:"pattern"         yaml:"pattern"`
	PatternType     MissingPattern `json:"pattern_type"    yaml:"pattern_type"`
	Recommendations []string       `json:"recommendations" yaml:"recommendations"`
}

// ColumnMissingDetail is one row of the dataset-wide missing table.
type ColumnMissingDetail struct {
	Column       string  `json:"column"        yaml:"column"`
	MissingCount int     `json:"missing_count" yaml:"missing_count"`
	MissingPct   float64 `json:"missing_pct"   yaml:"missing_pct"`
	CompletePct  float64 `json:"complete_pct"  yaml:"complete_pct"`
}

// MissingReport is the dataset-wide missing value analysis.
type MissingReport struct {
	TotalCells         int                   `json:"total_cells"          yaml:"total_cells"`
	TotalMissing       int                   `json:"total_missing"        yaml:"total_missing"`
	TotalMissingPct    float64               `json:"total_missing_pct"    yaml:"total_missing_pct"`
	ColumnsWithMissing int                   `json:"columns_with_missing" yaml:"columns_with_missing"`
	TotalColumns       int                   `json:"total_columns"        yaml:"total_columns"`
	RowsWithMissing    int                   `json:"rows_with_missing"    yaml:"rows_with_missing"`
	CompleteRows       int                   `json:"complete_rows"        yaml:"complete_rows"`
	CompleteRowsPct    float64               `json:"complete_rows_pct"    yaml:"complete_rows_pct"`
	ColumnDetails      []ColumnMissingDetail `json:"column_details"       yaml:"column_details"`
}

// OutlierMethod names a detection method.
type OutlierMethod string

// Outlier detection methods.
const (
	MethodIQR    OutlierMethod = "IQR"
	MethodZScore OutlierMethod = "Z-Score"
)

// OutlierResult is the output of one detection method. Method is nil when
// the column could not be analyzed, and the normal range is nil when every
// value is an outlier.
type OutlierResult struct {
	Method     *OutlierMethod `json:"method"                        yaml:"method"`
	Q1         *float64       `json:"q1,omitempty"                  yaml:"q1,omitempty"`
	Q3         *float64       `json:"q3,omitempty"                  yaml:"q3,omitempty"`
	IQR        *float64       `json:"iqr,omitempty"                 yaml:"iqr,omitempty"`
	Mean       *float64       `json:"mean,omitempty"                yaml:"mean,omitempty"`
	Std        *float64       `json:"std,omitempty"                 yaml:"std,omitempty"`
	Threshold  *float64       `json:"threshold,omitempty"           yaml:"threshold,omitempty"`
	LowerBound *float64       `json:"lower_bound"                   yaml:"lower_bound"`
	UpperBound *float64       `json:"upper_bound"                   yaml:"upper_bound"`
	Count      int            `json:"outlier_count"                 yaml:"outlier_count"`
	Pct        float64        `json:"outlier_pct"                   yaml:"outlier_pct"`
	LowerCount int            `json:"lower_outlier_count,omitempty" yaml:"lower_outlier_count,omitempty"`
	UpperCount int            `json:"upper_outlier_count,omitempty" yaml:"upper_outlier_count,omitempty"`
	Indices    []int          `json:"outlier_indices"               yaml:"outlier_indices"`
	Values     []float64      `json:"outlier_values"                yaml:"outlier_values"`
	ZScores    []float64      `json:"outlier_zscores,omitempty"     yaml:"outlier_zscores,omitempty"`
	NormalMin  *float64       `json:"normal_min"                    yaml:"normal_min"`
	NormalMax  *float64       `json:"normal_max"                    yaml:"normal_max"`
}

// OutlierSummary combines both detection methods with recommendations.
type OutlierSummary struct {
	IQR             OutlierResult `json:"iqr"             yaml:"iqr"`
	ZScore          OutlierResult `json:"zscore"          yaml:"zscore"`
	Recommendations []string      `json:"recommendations" yaml:"recommendations"`
}

// QualitySummary is the overall data quality assessment of a dataset.
type QualitySummary struct {
	Completeness   float64       `json:"completeness"     yaml:"completeness"`
	Label          string        `json:"quality_label"    yaml:"quality_label"`
	Color          string        `json:"quality_color"    yaml:"quality_color"`
	Missing        MissingReport `json:"missing_analysis" yaml:"missing_analysis"`
	TotalOutliers  int           `json:"total_outliers"   yaml:"total_outliers"`
	OutlierColumns int           `json:"outlier_columns"  yaml:"outlier_columns"`
	Issues         []string      `json:"issues"           yaml:"issues"`
	HasIssues      bool          `json:"has_issues"       yaml:"has_issues"`
}

// ColumnAnalysis bundles the per-variable results shown together.
type ColumnAnalysis struct {
	Column       ColumnInfo        `json:"column"       yaml:"column"`
	Basic        BasicStats        `json:"basic"        yaml:"basic"`
	Distribution DistributionStats `json:"distribution" yaml:"distribution"`
	Missing      ColumnMissing     `json:"missing"      yaml:"missing"`
	Outliers     OutlierResult     `json:"outliers"     yaml:"outliers"`
}
