package charts

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// Palette colors.
var (
	colorPrimary   = hex(0x3498db)
	colorSecondary = hex(0x2ecc71)
	colorAccent    = hex(0xe74c3c)
	colorWarning   = hex(0xf39c12)
	colorDark      = hex(0x2c3e50)
	colorLight     = hex(0xecf0f1)
	colorOutlier   = colorAccent
	colorMean      = colorAccent
	colorMedian    = colorSecondary
	colorMode      = hex(0x9b59b6)
	colorKDE       = colorWarning
	colorMissing   = colorAccent
	colorComplete  = colorSecondary
)

type theme struct {
	background color.Color
	text       color.Color
	grid       color.Color
}

var themes = map[domain.ChartStyle]theme{
	domain.StyleDark:  {background: hex(0x1a1a2e), text: hex(0xffffff), grid: hex(0x3a3a5e)},
	domain.StyleLight: {background: hex(0xffffff), text: colorDark, grid: hex(0xbdc3c7)},
}

func themeFor(style domain.ChartStyle) theme {
	if t, ok := themes[style]; ok {
		return t
	}

	return themes[domain.StyleLight]
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// newPlot creates a themed plot with a background grid.
func newPlot(t theme, title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = t.background

	p.Title.Text = title
	p.Title.TextStyle.Color = t.text
	p.Legend.TextStyle.Color = t.text
	p.Legend.Top = true

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = t.text
		ax.Label.TextStyle.Color = t.text
		ax.Tick.Color = t.text
		ax.Tick.Label.Color = t.text
	}

	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = t.grid
	grid.Horizontal.Color = t.grid
	p.Add(grid)

	return p
}
