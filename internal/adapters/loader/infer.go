package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// missingTokens are cell texts read as missing values.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// dateLayouts are tried in order; a column is datetime only when every
// present value parses with one of them.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// IsMissing reports whether a cell text is a missing value.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// table is the untyped grid produced by the format parsers.
type table struct {
	header []string
	rows   [][]string
}

// columns infers a typed column for every header entry. Short rows are
// padded with missing cells.
func (t table) columns() []*domain.Column {
	names := uniqueHeaders(t.header)
	cols := make([]*domain.Column, len(names))

	for i, name := range names {
		cells := make([]string, len(t.rows))

		for r, row := range t.rows {
			if i < len(row) {
				cells[r] = row[i]
			}
		}

		cols[i] = inferColumn(name, cells)
	}

	return cols
}

// uniqueHeaders names blank headers by position and suffixes duplicates
// with ".1", ".2", and so on.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		candidate := name
		for used[candidate] {
			suffix[name]++
			candidate = name + "." + strconv.Itoa(suffix[name])
		}

		used[candidate] = true
		out[i] = candidate
	}

	return out
}

// inferColumn picks the narrowest kind that fits every present cell.
func inferColumn(name string, cells []string) *domain.Column {
	raw := make([]string, len(cells))
	null := make([]bool, len(cells))
	present := 0

	for i, c := range cells {
		if IsMissing(c) {
			null[i] = true
			continue
		}

		raw[i] = strings.TrimSpace(c)
		present++
	}

	col := &domain.Column{Name: name, Raw: raw, Null: null}

	if present == 0 {
		col.Kind, col.DType = domain.KindNumeric, domain.DTypeFloat64
		col.Num = nanSlice(len(cells))

		return col
	}

	if num, ok := parseAll(raw, null, parseBool); ok {
		col.Kind, col.DType, col.Num = domain.KindBoolean, domain.DTypeBool, num
		return col
	}

	if num, ok := parseAll(raw, null, parseNumber); ok {
		col.Kind, col.DType, col.Num = domain.KindNumeric, numericDType(num, null), num
		return col
	}

	if num, ok := parseAll(raw, null, parseDate); ok {
		col.Kind, col.DType, col.Num = domain.KindDatetime, domain.DTypeDatetime, num
		return col
	}

	col.Kind, col.DType = domain.KindCategorical, domain.DTypeObject

	return col
}

func parseAll(raw []string, null []bool, parse func(string) (float64, bool)) ([]float64, bool) {
	out := make([]float64, len(raw))

	for i, s := range raw {
		if null[i] {
			out[i] = math.NaN()
			continue
		}

		v, ok := parse(s)
		if !ok {
			return nil, false
		}

		out[i] = v
	}

	return out, true
}

func parseBool(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	default:
		return 0, false
	}
}

// parseNumber accepts finite numbers only, so "inf" cells keep a column
// categorical.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func parseDate(s string) (float64, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixNano()) / float64(time.Second), true
		}
	}

	return 0, false
}

func numericDType(num []float64, null []bool) string {
	for i, v := range num {
		if null[i] || v != math.Trunc(v) {
			return domain.DTypeFloat64
		}
	}

	return domain.DTypeInt64
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
