package charts

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

func (r *Renderer) missingBar(t theme, ds *domain.Dataset) (*plot.Plot, error) {
	const title = "Missing values per column"

	report := r.engine.DatasetMissing(ds)
	if report.TotalMissing == 0 {
		return placeholder(t, title, "No missing values")
	}

	details := report.ColumnDetails[:min(len(report.ColumnDetails), r.opts.MissingBarTop)]

	p := newPlot(t, title, "", "Missing (%)")
	width := vg.Length(r.opts.Width) * vg.Inch * 0.6 / vg.Length(len(details))

	names := make([]string, len(details))

	for i, d := range details {
		names[i] = d.Column

		bar, err := plotter.NewBarChart(plotter.Values{d.MissingPct}, width)
		if err != nil {
			return nil, fmt.Errorf("building bar: %w", err)
		}

		bar.XMin = float64(i)
		bar.Color = missingColor(d.MissingPct)
		bar.LineStyle.Width = 0
		p.Add(bar)
	}

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0

	return p, nil
}

func missingColor(pct float64) color.Color {
	switch {
	case pct > 20:
		return colorMissing
	case pct > 5:
		return colorWarning
	default:
		return colorComplete
	}
}

func (r *Renderer) missingHeatmap(t theme, ds *domain.Dataset) (*plot.Plot, error) {
	const title = "Missing data map (red: missing)"

	if len(ds.Columns) == 0 || ds.Rows() == 0 {
		return placeholder(t, title, noData)
	}

	cols := slices.Clone(ds.Columns)
	slices.SortStableFunc(cols, func(a, b *domain.Column) int {
		return cmp.Compare(b.NullCount(), a.NullCount())
	})
	cols = cols[:min(len(cols), r.opts.HeatmapColumns)]

	rows := sampleRows(ds.Rows(), r.opts.HeatmapRows, r.opts.SampleSeed)

	grid := presenceGrid{rows: len(rows), cells: make([][]float64, len(cols))}
	names := make([]string, len(cols))

	for c, col := range cols {
		names[c] = col.Name
		grid.cells[c] = make([]float64, len(rows))

		for i, row := range rows {
			if col.Null[row] {
				grid.cells[c][i] = 1
			}
		}
	}

	p := newPlot(t, title, "", "Row")

	hm := plotter.NewHeatMap(grid, twoTone{colorComplete, colorMissing})
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = rowTicks(rows)

	return p, nil
}

// sampleRows picks at most limit row indices with a seeded shuffle and
// returns them in row order.
func sampleRows(n, limit int, seed uint64) []int {
	if n <= limit {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}

		return rows
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	rows := rng.Perm(n)[:limit]
	slices.Sort(rows)

	return rows
}

func rowTicks(rows []int) plot.ConstantTicks {
	step := max(1, len(rows)/10)
	ticks := make(plot.ConstantTicks, 0, len(rows)/step+1)

	for i := 0; i < len(rows); i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprint(rows[i])})
	}

	return ticks
}

// presenceGrid exposes a column-major 0/1 missing matrix as plotter.GridXYZ.
type presenceGrid struct {
	rows  int
	cells [][]float64
}

func (g presenceGrid) Dims() (c, r int)   { return len(g.cells), g.rows }
func (g presenceGrid) Z(c, r int) float64 { return g.cells[c][r] }
func (g presenceGrid) X(c int) float64    { return float64(c) }
func (g presenceGrid) Y(r int) float64    { return float64(r) }

type twoTone []color.Color

func (p twoTone) Colors() []color.Color { return p }
