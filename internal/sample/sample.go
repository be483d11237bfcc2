// Package sample generates the synthetic employee dataset used for demos
// and tests. The data carries injected outliers and missing values so every
// analysis has something to find.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Columns is the header of the generated dataset.
var Columns = []string{
	"id_employee", "age", "gender", "marital_status", "education",
	"department", "salary", "hours_worked", "score", "hire_date", "active",
}

// Options configures the generator.
type Options struct {
	Rows int
	Seed uint64

	// Now anchors the hire dates. Zero means time.Now.
	Now time.Time
}

// DefaultOptions returns 500 rows with seed 42.
func DefaultOptions() Options {
	return Options{Rows: 500, Seed: 42}
}

// Stats describes a generated table.
type Stats struct {
	Rows    int
	Columns int
	Missing int
}

type choice struct {
	values  []string
	weights []float64
}

var (
	genders   = choice{[]string{"M", "F", "Other"}, []float64{0.48, 0.48, 0.04}}
	marital   = choice{[]string{"Single", "Married", "Divorced", "Widowed"}, []float64{0.35, 0.45, 0.15, 0.05}}
	education = choice{[]string{"High School", "Bachelor", "Master", "Doctorate"}, []float64{0.15, 0.45, 0.30, 0.10}}
	depts     = choice{
		[]string{"Sales", "IT", "Marketing", "Human Resources", "Finance", "Operations"},
		[]float64{0.25, 0.20, 0.15, 0.15, 0.15, 0.10},
	}
)

func (c choice) pick(rng *rand.Rand) string {
	u := rng.Float64()

	for i, w := range c.weights {
		if u < w {
			return c.values[i]
		}

		u -= w
	}

	return c.values[len(c.values)-1]
}

// Generate builds the table. Row 0 is the header and missing cells are "".
// The same options always give the same table.
func Generate(opts Options) [][]string {
	n := opts.Rows
	if n < 0 {
		n = 0
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	ageDist := distuv.Normal{Mu: 35, Sigma: 12, Src: rng}
	salaryDist := distuv.LogNormal{Mu: 10.5, Sigma: 0.5, Src: rng}
	hoursDist := distuv.Poisson{Lambda: 40, Src: rng}

	ages := make([]int, n)
	salaries := make([]float64, n)
	hours := make([]float64, n)
	scores := make([]float64, n)

	rows := make([][]string, n)

	for i := range n {
		ages[i] = min(max(int(ageDist.Rand()), 18), 80)
		salaries[i] = math.Trunc(salaryDist.Rand())
		hours[i] = hoursDist.Rand()
		scores[i] = math.Round(rng.Float64()*10000) / 100

		hired := now.AddDate(0, 0, -(1 + rng.IntN(3649)))
		active := rng.Float64() < 0.85

		rows[i] = []string{
			fmt.Sprintf("EMP%05d", i+1),
			"",
			genders.pick(rng),
			marital.pick(rng),
			education.pick(rng),
			depts.pick(rng),
			"",
			"",
			"",
			hired.Format(time.DateOnly),
			strconv.FormatBool(active),
		}
	}

	for _, i := range sampleIndexes(rng, n, pct(n, 0.03)) {
		salaries[i] *= 5
	}

	agePicks := []int{95, 100, 105}
	for _, i := range sampleIndexes(rng, n, pct(n, 0.02)) {
		ages[i] = agePicks[rng.IntN(len(agePicks))]
	}

	for _, i := range sampleIndexes(rng, n, pct(n, 0.01)) {
		scores[i] = math.Round((110+rng.Float64()*40)*100) / 100
	}

	for i := range n {
		rows[i][1] = strconv.Itoa(ages[i])
		rows[i][6] = strconv.FormatFloat(salaries[i], 'f', -1, 64)
		rows[i][7] = strconv.FormatFloat(hours[i], 'f', -1, 64)
		rows[i][8] = strconv.FormatFloat(scores[i], 'f', -1, 64)
	}

	blank(rows, 6, sampleIndexes(rng, n, pct(n, 0.05)))
	blank(rows, 8, sampleIndexes(rng, n, pct(n, 0.08)))
	blank(rows, 5, sampleIndexes(rng, n, pct(n, 0.03)))

	var older []int

	for i, a := range ages {
		if a > 60 {
			older = append(older, i)
		}
	}

	picked := sampleIndexes(rng, len(older), min(len(older), pct(n, 0.03)))
	for _, j := range picked {
		rows[older[j]][4] = ""
	}

	blank(rows, 7, sampleIndexes(rng, n, pct(n, 0.02)))

	return append([][]string{append([]string(nil), Columns...)}, rows...)
}

func pct(n int, p float64) int {
	return int(float64(n) * p)
}

// sampleIndexes draws k distinct indexes from [0, n).
func sampleIndexes(rng *rand.Rand, n, k int) []int {
	if k <= 0 || n <= 0 {
		return nil
	}

	return rng.Perm(n)[:min(k, n)]
}

func blank(rows [][]string, col int, idx []int) {
	for _, i := range idx {
		rows[i][col] = ""
	}
}

// Write generates the table and writes it to w as CSV.
func Write(w io.Writer, opts Options) (Stats, error) {
	table := Generate(opts)

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table); err != nil {
		return Stats{}, fmt.Errorf("writing sample csv: %w", err)
	}

	return statsOf(table), nil
}

// WriteFile writes the table to path, creating parent directories.
func WriteFile(path string, opts Options) (Stats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Stats{}, fmt.Errorf("creating %s: %w", path, err)
	}

	stats, err := Write(f, opts)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", path, closeErr)
	}

	return stats, err
}

func statsOf(table [][]string) Stats {
	s := Stats{Columns: len(Columns), Rows: len(table) - 1}

	for _, row := range table[1:] {
		for _, cell := range row {
			if cell == "" {
				s.Missing++
			}
		}
	}

	return s
}
