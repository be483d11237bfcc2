// Package report renders dataset reports as PDF documents and plain text.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

const (
	title        = "Exploratory Data Analysis Report"
	margin       = 12.7 // 0.5 inch in mm
	inch         = 25.4
	chartImage   = "missing-bar"
	lineHeight   = 6.0
	headerHeight = 8.0
)

// Options configures the report.
type Options struct {
	MaxColumns    int
	NameWidth     int
	IncludeCharts bool
}

// DefaultOptions returns the report defaults.
func DefaultOptions() Options {
	return Options{MaxColumns: 30, NameWidth: 25}
}

// Renderer writes reports.
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Renderer. Zero-valued limits fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Renderer {
	def := DefaultOptions()

	if opts.MaxColumns <= 0 {
		opts.MaxColumns = def.MaxColumns
	}

	if opts.NameWidth <= 0 {
		opts.NameWidth = def.NameWidth
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Renderer{opts: opts, logger: logger}
}

// IncludeCharts reports whether the PDF carries the chart appendix.
func (r *Renderer) IncludeCharts() bool {
	return r.opts.IncludeCharts
}

type rgb struct{ r, g, b int }

var (
	colorTitle    = rgb{0x34, 0x98, 0xdb}
	colorSection  = rgb{0x2c, 0x3e, 0x50}
	colorTypes    = rgb{0x9b, 0x59, 0xb6}
	colorColumns  = rgb{0x2e, 0xcc, 0x71}
	colorRowFill  = rgb{0xf8, 0xf9, 0xfa}
	colorGrid     = rgb{0x80, 0x80, 0x80}
	colorSubtitle = rgb{0x80, 0x80, 0x80}
)

// PDF writes the full report to w.
func (r *Renderer) PDF(ctx context.Context, w io.Writer, in domain.ReportInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("eda-panel", true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 24)
	setText(pdf, colorTitle)
	pdf.MultiCell(0, 11, title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorSubtitle)
	pdf.CellFormat(0, lineHeight, "Generated: "+in.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	s := in.Summary

	section(pdf, "1. Dataset Summary")
	table(pdf, tr, colorTitle, []float64{2.5 * inch, 3 * inch}, [][]string{
		{"Metric", "Value"},
		{"File name", s.FileName},
		{"Rows", domain.FormatThousands(s.Rows)},
		{"Columns", fmt.Sprint(s.Columns)},
		{"Memory usage", s.MemorySize},
		{"Complete data", fmt.Sprintf("%.1f%%", s.Completeness)},
		{"Missing data", fmt.Sprintf("%.1f%%", 100-s.Completeness)},
	})

	section(pdf, "2. Data Types")

	types := [][]string{{"Type", "Count"}}
	for _, k := range domain.Kinds {
		types = append(types, []string{kindLabel(k), fmt.Sprint(s.DTypeCounts[k])})
	}

	table(pdf, tr, colorTypes, []float64{2.5 * inch, 2 * inch}, types)

	m := in.Missing

	section(pdf, "3. Missing Data Analysis")
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorSection)

	for _, kv := range [][2]string{
		{"Total cells:", domain.FormatThousands(m.TotalCells)},
		{"Missing cells:", fmt.Sprintf("%s (%.2f%%)", domain.FormatThousands(m.TotalMissing), m.TotalMissingPct)},
		{"Columns with missing:", fmt.Sprintf("%d of %d", m.ColumnsWithMissing, m.TotalColumns)},
		{"Complete rows:", fmt.Sprintf("%s (%.1f%%)", domain.FormatThousands(m.CompleteRows), m.CompleteRowsPct)},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, lineHeight, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, kv[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)

	section(pdf, "4. Column Details")

	rows := [][]string{{"Column", "Type", "Complete", "Missing"}}
	for _, c := range in.Columns[:min(len(in.Columns), r.opts.MaxColumns)] {
		rows = append(rows, []string{
			domain.TruncateString(c.Name, r.opts.NameWidth, "..."),
			string(c.Kind),
			fmt.Sprintf("%.1f%%", c.Completeness),
			fmt.Sprint(c.Null),
		})
	}

	table(pdf, tr, colorColumns, []float64{2.5 * inch, 1.2 * inch, 1.2 * inch, 1 * inch}, rows)

	if r.opts.IncludeCharts && len(in.MissingBar) > 0 {
		r.appendix(pdf, in.MissingBar)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	r.logger.DebugContext(ctx, "report rendered",
		slog.String("file", s.FileName),
		slog.Int("columns", len(rows)-1),
	)

	return nil
}

func (r *Renderer) appendix(pdf *fpdf.Fpdf, png []byte) {
	pdf.AddPage()
	section(pdf, "Appendix: Missing Values per Column")

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(chartImage, opts, bytes.NewReader(png))

	width, _ := pdf.GetPageSize()
	pdf.ImageOptions(chartImage, margin, pdf.GetY(), width-2*margin, 0, true, opts, 0, "")
}

// Text returns the plain text summary.
func (r *Renderer) Text(in domain.ReportInput) string {
	var b strings.Builder

	s, m := in.Summary, in.Missing

	heading(&b, "DATASET SUMMARY")
	fmt.Fprintf(&b, "File: %s\n", s.FileName)
	fmt.Fprintf(&b, "Rows: %s\n", domain.FormatThousands(s.Rows))
	fmt.Fprintf(&b, "Columns: %d\n", s.Columns)
	fmt.Fprintf(&b, "Memory: %s\n", s.MemorySize)
	fmt.Fprintf(&b, "Completeness: %.2f%%\n\n", s.Completeness)

	heading(&b, "MISSING DATA")
	fmt.Fprintf(&b, "Total missing cells: %s\n", domain.FormatThousands(m.TotalMissing))
	fmt.Fprintf(&b, "Missing percentage: %.2f%%\n", m.TotalMissingPct)
	fmt.Fprintf(&b, "Columns with missing: %d\n", m.ColumnsWithMissing)
	fmt.Fprintf(&b, "Complete rows: %s\n\n", domain.FormatThousands(m.CompleteRows))

	heading(&b, "DATA TYPES")

	for _, k := range domain.Kinds {
		fmt.Fprintf(&b, "%s: %d\n", kindLabel(k), s.DTypeCounts[k])
	}

	return b.String()
}

func heading(b *strings.Builder, text string) {
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", len(text)))
	b.WriteByte('\n')
}

func kindLabel(k domain.Kind) string {
	return cases.Title(language.English).String(string(k))
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func section(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 16)
	setText(pdf, colorSection)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")

	pdf.SetDrawColor(colorTitle.r, colorTitle.g, colorTitle.b)
	pdf.SetLineWidth(0.35)

	width, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.Line(margin, y, width-margin, y)
	pdf.Ln(3)
}

// table draws rows with the first row as a colored header.
func table(pdf *fpdf.Fpdf, tr func(string) string, header rgb, widths []float64, rows [][]string) {
	pdf.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	pdf.SetLineWidth(0.18)

	for i, row := range rows {
		if i == 0 {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetFillColor(header.r, header.g, header.b)
			pdf.SetTextColor(0xff, 0xff, 0xff)
		} else {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetFillColor(colorRowFill.r, colorRowFill.g, colorRowFill.b)
			setText(pdf, colorSection)
		}

		h := lineHeight
		if i == 0 {
			h = headerHeight
		}

		for j, cell := range row {
			pdf.CellFormat(widths[j], h, tr(cell), "1", 0, "L", true, 0, "")
		}

		pdf.Ln(-1)
	}

	pdf.Ln(6)
}
