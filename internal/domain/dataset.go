package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the analytical category of a column.
type Kind string

// Column kinds.
const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDatetime    Kind = "datetime"
	KindBoolean     Kind = "boolean"
	KindOther       Kind = "other"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindNumeric, KindCategorical, KindDatetime, KindBoolean, KindOther}

// ParseKind returns the kind named by s, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}

	return "", false
}

// Storage type labels.
const (
	DTypeInt64    = "int64"
	DTypeFloat64  = "float64"
	DTypeBool     = "bool"
	DTypeDatetime = "datetime64[ns]"
	DTypeObject   = "object"
)

// KindOf maps a storage type label to its kind.
func KindOf(dtype string) Kind {
	d := strings.ToLower(dtype)

	switch {
	case strings.Contains(d, "int"), strings.Contains(d, "float"), strings.Contains(d, "complex"):
		return KindNumeric
	case strings.Contains(d, "datetime"), strings.Contains(d, "timedelta"):
		return KindDatetime
	case strings.Contains(d, "bool"):
		return KindBoolean
	case strings.Contains(d, "object"), strings.Contains(d, "category"), strings.Contains(d, "string"):
		return KindCategorical
	default:
		return KindOther
	}
}

// Format is the source file format of a dataset.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatJSON Format = "json"
)

// Column is one variable of a dataset. All slices have one entry per row.
//
// Raw keeps the source text of every cell ("" when missing). Num holds the
// typed value for numeric columns, 0/1 for booleans and Unix seconds for
// datetimes; it is NaN where Null is set.
type Column struct {
	Name  string
	Kind  Kind
	DType string
	Raw   []string
	Null  []bool
	Num   []float64
}

// Len returns the number of rows.
func (c *Column) Len() int {
	return len(c.Raw)
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.Null {
		if null {
			n++
		}
	}

	return n
}

// NonNullCount returns the number of present cells.
func (c *Column) NonNullCount() int {
	return c.Len() - c.NullCount()
}

// Completeness returns the share of present cells as a percentage.
func (c *Column) Completeness() float64 {
	return SafeDivide(float64(c.NonNullCount()), float64(c.Len()), 0) * 100
}

// HasNumbers reports whether Num carries meaningful values.
func (c *Column) HasNumbers() bool {
	return len(c.Num) == len(c.Raw) && c.Kind != KindCategorical && c.Kind != KindOther
}

// UniqueCount returns the number of distinct present values.
func (c *Column) UniqueCount() int {
	seen := make(map[string]struct{})

	for i, raw := range c.Raw {
		if c.Null[i] {
			continue
		}

		key := raw
		if c.HasNumbers() {
			key = strconv.FormatFloat(c.Num[i], 'g', -1, 64)
		}

		seen[key] = struct{}{}
	}

	return len(seen)
}

// Values returns the present numeric values with their row indices, in row order.
// It returns nil slices for columns without numbers.
func (c *Column) Values() (values []float64, rows []int) {
	if !c.HasNumbers() {
		return nil, nil
	}

	values = make([]float64, 0, len(c.Num))
	rows = make([]int, 0, len(c.Num))

	for i, v := range c.Num {
		if c.Null[i] || math.IsNaN(v) {
			continue
		}

		values = append(values, v)
		rows = append(rows, i)
	}

	return values, rows
}

// Texts returns the raw text of present cells in row order.
func (c *Column) Texts() []string {
	out := make([]string, 0, len(c.Raw))
	for i, raw := range c.Raw {
		if !c.Null[i] {
			out = append(out, raw)
		}
	}

	return out
}

// Time returns the datetime value of row i.
func (c *Column) Time(i int) time.Time {
	sec, frac := math.Modf(c.Num[i])
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// Dataset is an immutable, column-oriented table.
type Dataset struct {
	ID       string
	Name     string
	Source   string
	Format   Format
	Encoding string
	Columns  []*Column
	LoadedAt time.Time
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}

	return d.Columns[0].Len()
}

// Size returns the number of cells.
func (d *Dataset) Size() int {
	return d.Rows() * len(d.Columns)
}

// MissingCells returns the number of missing cells across all columns.
func (d *Dataset) MissingCells() int {
	n := 0
	for _, c := range d.Columns {
		n += c.NullCount()
	}

	return n
}

// Column returns the column named name.
func (d *Dataset) Column(name string) (*Column, error) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, nil
		}
	}

	return nil, NewNotFoundError("column", name)
}

// ColumnsOfKind returns the names of columns with the given kind.
func (d *Dataset) ColumnsOfKind(kind Kind) []string {
	var names []string

	for _, c := range d.Columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}

	return names
}

// Per-cell estimates for MemoryBytes.
const (
	indexBytes      = 128
	numberCellBytes = 8
	boolCellBytes   = 1
	textCellBytes   = 49
)

// MemoryBytes estimates the in-memory footprint of the table.
func (d *Dataset) MemoryBytes() int64 {
	total := int64(indexBytes)

	for _, c := range d.Columns {
		switch c.Kind {
		case KindNumeric, KindDatetime:
			total += int64(c.Len() * numberCellBytes)
		case KindBoolean:
			total += int64(c.Len() * boolCellBytes)
		default:
			for _, raw := range c.Raw {
				total += int64(textCellBytes + len(raw))
			}
		}
	}

	return total
}

// RowHasMissing reports whether any column is missing at row i.
func (d *Dataset) RowHasMissing(i int) bool {
	for _, c := range d.Columns {
		if c.Null[i] {
			return true
		}
	}

	return false
}

// Validate checks the structural invariants of the table.
func (d *Dataset) Validate() error {
	if len(d.Columns) == 0 || d.Rows() == 0 {
		return ErrEmptyDataset
	}

	rows := d.Rows()
	seen := make(map[string]struct{}, len(d.Columns))

	for _, c := range d.Columns {
		if _, dup := seen[c.Name]; dup {
			return NewValidationErrorWithValue("columns", "duplicate column name", c.Name)
		}

		seen[c.Name] = struct{}{}

		if c.Len() != rows || len(c.Null) != rows {
			return NewValidationErrorWithValue("columns", "ragged column", c.Name)
		}
	}

	return nil
}
