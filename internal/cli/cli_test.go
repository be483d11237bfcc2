package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config-dir", t.TempDir()))

	err := cmd.Execute()

	return out.String(), err
}

func sampleFile(t *testing.T, rows string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.csv")

	_, err := execute(t, "sample", "-n", rows, "-f", path, "--seed", "7")
	require.NoError(t, err)

	return path
}

func TestSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emp.csv")

	out, err := execute(t, "sample", "-n", "50", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "50 rows, 11 columns")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id_employee,age,"))
}

func TestSample_InvalidRows(t *testing.T) {
	_, err := execute(t, "sample", "-n", "0", "-f", filepath.Join(t.TempDir(), "x.csv"))

	assert.ErrorContains(t, err, "rows must be positive")
}

func TestSummary(t *testing.T) {
	out, err := execute(t, "summary", sampleFile(t, "60"))
	require.NoError(t, err)

	for _, want := range []string{"DATASET SUMMARY", "File: sample.csv", "Rows: 60", "Columns: 11", "MISSING DATA", "DATA TYPES"} {
		assert.Contains(t, out, want)
	}
}

func TestSummary_SeveralFiles(t *testing.T) {
	first, second := sampleFile(t, "30"), sampleFile(t, "40")
	absent := filepath.Join(t.TempDir(), "absent.csv")

	out, err := execute(t, "summary", first, absent, second)

	require.Error(t, err)
	assert.ErrorContains(t, err, "absent.csv")
	assert.Equal(t, 2, strings.Count(out, "DATASET SUMMARY"))
	assert.Less(t, strings.Index(out, "Rows: 30"), strings.Index(out, "Rows: 40"))
}

func TestAnalyze(t *testing.T) {
	path := sampleFile(t, "80")

	t.Run("overview json", func(t *testing.T) {
		out, err := execute(t, "analyze", path)
		require.NoError(t, err)

		var got struct {
			Summary struct {
				Rows int `json:"n_rows"`
			} `json:"summary"`
			Columns []map[string]any `json:"columns"`
			Quality struct {
				Completeness float64 `json:"completeness"`
			} `json:"quality"`
		}

		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 80, got.Summary.Rows)
		assert.Len(t, got.Columns, 11)
		assert.Less(t, got.Quality.Completeness, 100.0)
	})

	t.Run("column yaml", func(t *testing.T) {
		out, err := execute(t, "analyze", path, "--column", "age", "-o", "yaml")
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Contains(t, got, "basic")
		assert.Contains(t, got, "outliers")
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := execute(t, "analyze", path, "--column", "nope")
		assert.Error(t, err)
	})

	t.Run("bad output", func(t *testing.T) {
		_, err := execute(t, "analyze", path, "-o", "xml")
		assert.ErrorContains(t, err, "unsupported output")
	})
}

func TestReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "r.pdf")

	msg, err := execute(t, "report", sampleFile(t, "40"), "-f", out)
	require.NoError(t, err)
	assert.Contains(t, msg, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestChart(t *testing.T) {
	t.Setenv("APP_CHARTS_DPI", "40")

	path := sampleFile(t, "40")
	dir := t.TempDir()

	tests := []struct {
		name   string
		args   []string
		file   string
		marker []byte
	}{
		{"histogram png", []string{"--kind", "histogram", "--column", "salary"}, "h.png", []byte("\x89PNG")},
		{"boxplot svg", []string{"--kind", "boxplot", "--column", "age", "--style", "dark"}, "b.svg", []byte("<svg")},
		{"missing bar", []string{"--kind", "missing-bar"}, "m.png", []byte("\x89PNG")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.file)

			_, err := execute(t, append([]string{"chart", path, "-f", out}, tt.args...)...)
			require.NoError(t, err)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.True(t, bytes.Contains(data, tt.marker), "missing %q", tt.marker)
		})
	}
}

func TestChart_Errors(t *testing.T) {
	path := sampleFile(t, "20")
	out := filepath.Join(t.TempDir(), "x.png")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"--kind", "pie"}},
		{"bad style", []string{"--kind", "histogram", "--column", "age", "--style", "neon"}},
		{"missing column", []string{"--kind", "histogram"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"chart", path, "-f", out}, tt.args...)...)

			require.Error(t, err)
			assert.NoFileExists(t, out)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := execute(t, "summary", filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorContains(t, err, "loading")

	_, err = execute(t, "summary")
	assert.Error(t, err)

	_, err = execute(t, "summary", "a.csv", "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid config")
}
