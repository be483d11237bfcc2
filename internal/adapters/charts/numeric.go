package charts

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

const rugLimit = 1000

func (r *Renderer) histogram(t theme, col *domain.Column) (*plot.Plot, error) {
	values, _ := col.Values()
	p := newPlot(t, "Distribution of "+col.Name, col.Name, "Density")

	h, err := plotter.NewHist(plotter.Values(values), autoBins(values))
	if err != nil {
		return nil, fmt.Errorf("building histogram: %w", err)
	}

	h.Normalize(1)
	h.FillColor = withAlpha(colorPrimary, 0xb3)
	h.LineStyle.Color = t.background
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = max(top, b.Weight)
	}

	if curve := kde(values, slices.Min(values), slices.Max(values)); curve != nil {
		l, err := line(curve, colorKDE, 2)
		if err != nil {
			return nil, err
		}

		p.Add(l)
		p.Legend.Add("KDE", l)

		top = max(top, maxY(curve))
	}

	basic := r.engine.Basic(col)

	marks := []struct {
		name   string
		value  *float64
		color  color.Color
		dashes []vg.Length
	}{
		{"Mean", basic.Mean, colorMean, dashed},
		{"Median", basic.Median, colorMedian, nil},
		{"Mode", basic.Mode.Number, colorMode, dotted},
	}

	for _, m := range marks {
		if m.value == nil {
			continue
		}

		l, err := vline(*m.value, 0, top*1.05, m.color, 2, m.dashes...)
		if err != nil {
			return nil, err
		}

		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s: %.2f", m.name, *m.value), l)
	}

	if len(values) < rugLimit {
		rug := make(plotter.XYs, len(values))
		for i, v := range values {
			rug[i] = plotter.XY{X: v}
		}

		s, err := scatter(rug, t.text, 1.5, tickGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
	}

	return p, nil
}

func (r *Renderer) boxplot(t theme, col *domain.Column, k float64) (*plot.Plot, error) {
	values, _ := col.Values()
	res := r.engine.OutliersIQR(col, k)

	title := "Box plot of " + col.Name
	if res.Count > 0 {
		title += fmt.Sprintf("\nOutliers: %d (%.1f%%)", res.Count, res.Pct)
	}

	p := newPlot(t, title, col.Name, "")

	box, err := plotter.NewBoxPlot(vg.Points(60), 0, plotter.Values(values))
	if err != nil {
		return nil, fmt.Errorf("building box plot: %w", err)
	}

	box.Horizontal = true
	box.FillColor = withAlpha(colorPrimary, 0x99)
	box.BoxStyle.Color = t.text
	box.WhiskerStyle.Color = t.text
	box.MedianStyle.Color = colorMedian
	box.MedianStyle.Width = vg.Points(2)
	box.GlyphStyle.Color = colorOutlier
	box.GlyphStyle.Radius = vg.Points(3)
	box.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(box)
	p.NominalY(col.Name)

	if err := addBounds(p, res, -0.5, 0.5, true); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *Renderer) violin(t theme, col *domain.Column) (*plot.Plot, error) {
	values, _ := col.Values()
	lo, hi := slices.Min(values), slices.Max(values)

	p := newPlot(t, "Violin plot of "+col.Name, "", col.Name)

	if curve := kde(values, lo, hi); curve != nil {
		scale := 0.4 / maxY(curve)
		outline := make(plotter.XYs, 0, 2*len(curve))

		for _, pt := range curve {
			outline = append(outline, plotter.XY{X: pt.Y * scale, Y: pt.X})
		}

		for i := len(curve) - 1; i >= 0; i-- {
			outline = append(outline, plotter.XY{X: -curve[i].Y * scale, Y: curve[i].X})
		}

		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return nil, fmt.Errorf("building violin: %w", err)
		}

		poly.Color = withAlpha(colorPrimary, 0x99)
		poly.LineStyle.Color = colorPrimary
		p.Add(poly)
	}

	q1, q3 := analysis.Quartiles(values)

	whisker, err := vline(0, lo, hi, t.text, 1)
	if err != nil {
		return nil, err
	}

	box, err := plotter.NewPolygon(plotter.XYs{{X: -0.03, Y: q1}, {X: 0.03, Y: q1}, {X: 0.03, Y: q3}, {X: -0.03, Y: q3}})
	if err != nil {
		return nil, fmt.Errorf("building violin box: %w", err)
	}

	box.Color = colorDark
	box.LineStyle.Color = t.text
	p.Add(whisker, box)

	basic := r.engine.Basic(col)

	if basic.Mean != nil {
		s, err := scatter(plotter.XYs{{Y: *basic.Mean}}, colorMean, 4, diamondGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Mean: %.2f", *basic.Mean), s)
	}

	if basic.Median != nil {
		s, err := scatter(plotter.XYs{{Y: *basic.Median}}, colorLight, 3.5, draw.CircleGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Median: %.2f", *basic.Median), s)
	}

	p.X.Min, p.X.Max = -0.5, 0.5
	p.NominalX(col.Name)

	return p, nil
}

func (r *Renderer) outliers(t theme, col *domain.Column, k float64) (*plot.Plot, error) {
	values, rows := col.Values()
	res := r.engine.OutliersIQR(col, k)

	p := newPlot(t, fmt.Sprintf("Outliers in %s (IQR)", col.Name), "Index", col.Name)

	normal, outside := splitByBounds(values, rows, res)

	if len(normal) > 0 {
		s, err := scatter(normal, withAlpha(colorPrimary, 0xb3), 2.5, draw.CircleGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Normal (%d)", len(normal)), s)
	}

	if len(outside) > 0 {
		s, err := scatter(outside, colorOutlier, 4, diamondGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Outliers (%d)", len(outside)), s)
	}

	if err := addBounds(p, res, 0, float64(max(col.Len()-1, 1)), false); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *Renderer) timeSeries(t theme, ds *domain.Dataset, col *domain.Column, axis string, k float64) (*plot.Plot, error) {
	var timeCol *domain.Column

	if axis != "" {
		c, err := ds.Column(axis)
		if err != nil {
			return nil, err
		}

		if c.Kind != domain.KindDatetime {
			return nil, domain.NewValidationErrorWithValue("time_axis", "column is not a datetime", axis)
		}

		timeCol = c
	}

	var series plotter.XYs

	for i, v := range col.Num {
		if col.Null[i] {
			continue
		}

		x := float64(i)

		if timeCol != nil {
			if timeCol.Null[i] {
				continue
			}

			x = timeCol.Num[i]
		}

		series = append(series, plotter.XY{X: x, Y: v})
	}

	xLabel := "Index"
	if timeCol != nil {
		xLabel = timeCol.Name
	}

	title := "Time series of " + col.Name
	if len(series) == 0 {
		return placeholder(t, title, noData)
	}

	slices.SortStableFunc(series, func(a, b plotter.XY) int { return cmp.Compare(a.X, b.X) })

	p := newPlot(t, title, xLabel, col.Name)
	if timeCol != nil {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}

	l, err := line(series, colorPrimary, 1)
	if err != nil {
		return nil, err
	}

	p.Add(l)
	p.Legend.Add(col.Name, l)

	if n := len(series); n > 10 {
		if avg := rollingMean(series, max(5, n/20)); len(avg) > 1 {
			ml, err := line(avg, colorWarning, 2)
			if err != nil {
				return nil, err
			}

			p.Add(ml)
			p.Legend.Add("Rolling mean", ml)
		}
	}

	res := r.engine.OutliersIQR(col, k)

	var marked plotter.XYs
	if res.LowerBound != nil && res.UpperBound != nil {
		for _, pt := range series {
			if pt.Y < *res.LowerBound || pt.Y > *res.UpperBound {
				marked = append(marked, pt)
			}
		}
	}

	if len(marked) > 0 {
		s, err := scatter(marked, colorOutlier, 4, diamondGlyph{})
		if err != nil {
			return nil, err
		}

		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Outliers (%d)", len(marked)), s)
	}

	return p, nil
}

// rollingMean returns the centered moving average of series. Points whose
// window does not fit are skipped.
func rollingMean(series plotter.XYs, window int) plotter.XYs {
	if window > len(series) {
		return nil
	}

	out := make(plotter.XYs, 0, len(series)-window+1)
	half := window / 2

	var sum float64
	for i := range window {
		sum += series[i].Y
	}

	for start := 0; start+window <= len(series); start++ {
		if start > 0 {
			sum += series[start+window-1].Y - series[start-1].Y
		}

		out = append(out, plotter.XY{X: series[start+half].X, Y: sum / float64(window)})
	}

	return out
}

func splitByBounds(values []float64, rows []int, res domain.OutlierResult) (normal, outside plotter.XYs) {
	for i, v := range values {
		pt := plotter.XY{X: float64(rows[i]), Y: v}

		if res.LowerBound != nil && res.UpperBound != nil && (v < *res.LowerBound || v > *res.UpperBound) {
			outside = append(outside, pt)
			continue
		}

		normal = append(normal, pt)
	}

	return normal, outside
}

// addBounds draws the IQR limits as dashed lines spanning [from, to]. When
// vertical is set the limits are x positions, otherwise y positions.
func addBounds(p *plot.Plot, res domain.OutlierResult, from, to float64, vertical bool) error {
	if res.LowerBound == nil || res.UpperBound == nil {
		return nil
	}

	for i, b := range []float64{*res.LowerBound, *res.UpperBound} {
		mark := hline
		if vertical {
			mark = vline
		}

		l, err := mark(b, from, to, colorWarning, 1.5, dashed...)
		if err != nil {
			return err
		}

		p.Add(l)

		if i == 0 {
			p.Legend.Add("IQR limits", l)
		}
	}

	return nil
}
