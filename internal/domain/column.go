package domain

import (
	"math"
	"strconv"
	"time"
)

// DateTimeLayout is the text form of datetime cells built from time values.
const DateTimeLayout = "2006-01-02 15:04:05"

// NewNumericColumn builds a numeric column. NaN marks a missing cell. The
// dtype is int64 when every value is a whole number and none are missing.
func NewNumericColumn(name string, values []float64) *Column {
	c := &Column{
		Name:  name,
		Kind:  KindNumeric,
		DType: DTypeInt64,
		Raw:   make([]string, len(values)),
		Null:  make([]bool, len(values)),
		Num:   make([]float64, len(values)),
	}

	for i, v := range values {
		c.Num[i] = v

		if math.IsNaN(v) {
			c.Null[i] = true
			c.DType = DTypeFloat64

			continue
		}

		if v != math.Trunc(v) || math.IsInf(v, 0) {
			c.DType = DTypeFloat64
		}

		c.Raw[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return c
}

// NewTextColumn builds a categorical column. An empty string marks a
// missing cell.
func NewTextColumn(name string, values []string) *Column {
	c := &Column{
		Name:  name,
		Kind:  KindCategorical,
		DType: DTypeObject,
		Raw:   make([]string, len(values)),
		Null:  make([]bool, len(values)),
	}

	for i, v := range values {
		c.Raw[i] = v
		c.Null[i] = v == ""
	}

	return c
}

// NewBoolColumn builds a boolean column. A nil entry marks a missing cell.
func NewBoolColumn(name string, values []*bool) *Column {
	c := &Column{
		Name:  name,
		Kind:  KindBoolean,
		DType: DTypeBool,
		Raw:   make([]string, len(values)),
		Null:  make([]bool, len(values)),
		Num:   make([]float64, len(values)),
	}

	for i, v := range values {
		if v == nil {
			c.Null[i] = true
			c.Num[i] = math.NaN()

			continue
		}

		c.Raw[i] = strconv.FormatBool(*v)
		if *v {
			c.Num[i] = 1
		}
	}

	return c
}

// NewDatetimeColumn builds a datetime column. A zero time marks a missing cell.
func NewDatetimeColumn(name string, values []time.Time) *Column {
	c := &Column{
		Name:  name,
		Kind:  KindDatetime,
		DType: DTypeDatetime,
		Raw:   make([]string, len(values)),
		Null:  make([]bool, len(values)),
		Num:   make([]float64, len(values)),
	}

	for i, t := range values {
		if t.IsZero() {
			c.Null[i] = true
			c.Num[i] = math.NaN()

			continue
		}

		c.Raw[i] = t.UTC().Format(DateTimeLayout)
		c.Num[i] = float64(t.UnixNano()) / float64(time.Second)
	}

	return c
}
