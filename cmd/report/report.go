// Package report provides the "sheetsight report" command.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/output"
	"github.com/klytics/sheetsight/internal/progress"
	rpt "github.com/klytics/sheetsight/internal/report"
	"github.com/klytics/sheetsight/internal/service"
)

// NewCommand creates the "report" command.
func NewCommand() *cobra.Command {
	var (
		outputPath  string
		chartSpecs  []string
		withInsight bool
	)

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Build an .xlsx report from a spreadsheet",
		Long: `Write a workbook with a Summary sheet, the source Data, one sheet per
chart and, with --insight, the generated insight.

Charts are given as kind:x:y[:agg], or kind:x:y:z[:agg] for 3D kinds.

Example:
  sheetsight report sales.xlsx -o sales-report.xlsx
  sheetsight report sales.csv --chart bar:region:revenue:sum --chart line:month:revenue --insight`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]service.ChartInput, 0, len(chartSpecs))
			for _, spec := range chartSpecs {
				in, err := ParseChartSpec(spec)
				if err != nil {
					return err
				}
				inputs = append(inputs, in)
			}

			a, err := cmdutil.Build(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			owner := cmdutil.Owner(a)
			res, err := a.Service.IngestFile(ctx, owner, args[0])
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = service.ReportName(res.Dataset.OriginalName)
			}

			bar := progress.New(cmd.ErrOrStderr(), "Charts", len(inputs))
			if cmdutil.JSON(cmd) {
				bar.Enabled = false
			}
			for _, in := range inputs {
				in.DatasetID = res.Dataset.ID
				c, err := a.Service.GenerateChart(ctx, owner, in)
				if err != nil {
					return fmt.Errorf("chart %s %s/%s: %w", in.Kind, in.XAxis, in.YAxis, err)
				}
				bar.Increment(c.Title)
			}
			if len(inputs) > 0 {
				bar.Finish(fmt.Sprintf("%d charts", len(inputs)))
			}

			if withInsight {
				if _, _, err := a.Service.GenerateInsight(ctx, owner, res.Dataset.ID); err != nil {
					return err
				}
			}

			in, err := a.Service.Report(ctx, owner, res.Dataset.ID)
			if err != nil {
				return err
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("could not create %s: %w", outputPath, err)
			}
			if err := rpt.Write(f, in); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON(cmd.OutOrStdout(), "report", map[string]any{
					"output":  outputPath,
					"charts":  len(in.Charts),
					"insight": in.Insight != nil,
				})
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default \"<name>-report.xlsx\")")
	cmd.Flags().StringArrayVar(&chartSpecs, "chart", nil, "Chart to include as kind:x:y[:z][:agg] (repeatable)")
	cmd.Flags().BoolVar(&withInsight, "insight", false, "Generate and include an insight sheet")
	return cmd
}

// ParseChartSpec reads kind:x:y[:agg] or, for 3D kinds, kind:x:y:z[:agg].
func ParseChartSpec(spec string) (service.ChartInput, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return service.ChartInput{}, fmt.Errorf("invalid chart %q (expected kind:x:y[:z][:agg])", spec)
	}
	kind, err := chart.ParseKind(parts[0])
	if err != nil {
		return service.ChartInput{}, err
	}

	in := service.ChartInput{Kind: string(kind), XAxis: parts[1], YAxis: parts[2], Aggregation: string(chart.None)}
	rest := parts[3:]
	if kind.Is3D() {
		if len(rest) == 0 {
			return service.ChartInput{}, fmt.Errorf("chart %q: %w", spec, chart.ErrMissing3DAxis)
		}
		in.ZAxis, rest = rest[0], rest[1:]
	}
	switch len(rest) {
	case 0:
	case 1:
		agg, err := chart.ParseAggregation(rest[0])
		if err != nil {
			return service.ChartInput{}, err
		}
		in.Aggregation = string(agg)
	default:
		return service.ChartInput{}, fmt.Errorf("invalid chart %q: too many fields", spec)
	}
	if in.XAxis == "" || in.YAxis == "" {
		return service.ChartInput{}, fmt.Errorf("chart %q: %w: x and y are required", spec, chart.ErrInvalidAxis)
	}
	return in, nil
}
