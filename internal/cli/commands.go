package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/eda-panel/internal/app"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/sample"
)

// maxParallelLoads bounds concurrent loads of a multi-file summary.
const maxParallelLoads = 4

func summaryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file>...",
		Short: "Print the plain text summary of one or more datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}

			var (
				failed  []error
				printed int
			)

			for _, res := range e.components.Datasets.LoadFiles(cmd.Context(), maxParallelLoads, args...) {
				if res.Err != nil {
					failed = append(failed, fmt.Errorf("loading %s: %w", res.Path, res.Err))
					continue
				}

				text, err := e.components.Output.TextSummaryDataset(cmd.Context(), res.Dataset)
				if err != nil {
					return err
				}

				if printed > 0 {
					text = "\n" + text
				}

				printed++

				if _, err := fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
					return err
				}
			}

			return errors.Join(failed...)
		},
	}
}

// overview is the analyze output without --column.
type overview struct {
	Summary domain.DatasetSummary `json:"summary" yaml:"summary"`
	Columns []domain.ColumnInfo   `json:"columns" yaml:"columns"`
	Quality domain.QualitySummary `json:"quality" yaml:"quality"`
}

func analyzeCmd(g *globalFlags) *cobra.Command {
	var column, output string

	c := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a dataset, or one column with --column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q (expected json|yaml)", output)
			}

			e, err := g.setup(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			ds, err := e.load(ctx, args[0])
			if err != nil {
				return err
			}

			var result any

			if column != "" {
				result, err = e.components.Analysis.ColumnAnalysis(ctx, ds.ID, column)
			} else {
				result, err = datasetOverview(cmd, e, ds.ID)
			}

			if err != nil {
				return err
			}

			return encode(cmd.OutOrStdout(), output, result)
		},
	}

	c.Flags().StringVar(&column, "column", "", "column to analyze")
	c.Flags().StringVarP(&output, "output", "o", "json", "output format: json|yaml")

	return c
}

func datasetOverview(cmd *cobra.Command, e *env, id string) (overview, error) {
	ctx := cmd.Context()

	summary, err := e.components.Datasets.Summary(ctx, id)
	if err != nil {
		return overview{}, err
	}

	columns, err := e.components.Datasets.Columns(ctx, id, app.ColumnFilter{})
	if err != nil {
		return overview{}, err
	}

	quality, err := e.components.Analysis.Quality(ctx, id)
	if err != nil {
		return overview{}, err
	}

	return overview{Summary: summary, Columns: columns, Quality: quality}, nil
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func reportCmd(g *globalFlags) *cobra.Command {
	var out string

	c := &cobra.Command{
		Use:   "report <file>",
		Short: "Write the PDF report of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}

			ds, err := e.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if out == "" {
				out = "eda_report_" + strings.TrimSuffix(ds.Name, filepath.Ext(ds.Name)) + ".pdf"
			}

			err = writeFile(out, func(w io.Writer) error {
				return e.components.Output.PDFDataset(cmd.Context(), w, ds)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", out)

			return nil
		},
	}

	c.Flags().StringVarP(&out, "file", "f", "", "output PDF path")

	return c
}

func chartCmd(g *globalFlags) *cobra.Command {
	var kind, column, timeAxis, out, style string

	c := &cobra.Command{
		Use:   "chart <file>",
		Short: "Render one chart of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseChartKind(kind)
			if err != nil {
				return err
			}

			if style != "" && style != string(domain.StyleLight) && style != string(domain.StyleDark) {
				return fmt.Errorf("unsupported style %q (expected light|dark)", style)
			}

			e, err := g.setup(cmd)
			if err != nil {
				return err
			}

			ds, err := e.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format := domain.ImageFormat(e.cfg.Charts.Format)
			if out == "" {
				out = string(k) + "." + string(format)
			} else if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(out), ".")); ext == string(domain.ImageSVG) || ext == string(domain.ImagePNG) {
				format = domain.ImageFormat(ext)
			}

			opts := app.ChartOptions{
				Column:   column,
				TimeAxis: timeAxis,
				Style:    domain.ChartStyle(style),
				Format:   format,
			}

			err = writeFile(out, func(w io.Writer) error {
				_, err := e.components.Output.ChartDataset(cmd.Context(), w, ds, k, opts)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", out)

			return nil
		},
	}

	c.Flags().StringVar(&kind, "kind", "", "chart kind: "+kindList())
	c.Flags().StringVar(&column, "column", "", "column to plot")
	c.Flags().StringVar(&timeAxis, "time-axis", "", "datetime column for timeseries charts")
	c.Flags().StringVarP(&out, "file", "f", "", "output image path (.png or .svg)")
	c.Flags().StringVar(&style, "style", "", "chart style: light|dark")
	_ = c.MarkFlagRequired("kind")

	return c
}

func kindList() string {
	names := make([]string, len(domain.ChartKinds))
	for i, k := range domain.ChartKinds {
		names[i] = string(k)
	}

	return strings.Join(names, "|")
}

func sampleCmd(_ *globalFlags) *cobra.Command {
	opts := sample.DefaultOptions()

	var out string

	c := &cobra.Command{
		Use:   "sample",
		Short: "Write the synthetic employee dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Rows <= 0 {
				return fmt.Errorf("rows must be positive, got %d", opts.Rows)
			}

			stats, err := sample.WriteFile(out, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows, %d columns, %d missing cells\n",
				out, stats.Rows, stats.Columns, stats.Missing)

			return nil
		},
	}

	c.Flags().IntVarP(&opts.Rows, "rows", "n", opts.Rows, "number of rows")
	c.Flags().StringVarP(&out, "file", "f", "sample_data.csv", "output CSV path")
	c.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")

	return c
}
