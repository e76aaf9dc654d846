// Package chart provides the "sheetsight chart" command.
package chart

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/formats/xlsx"
	"github.com/klytics/sheetsight/internal/output"
	"github.com/klytics/sheetsight/internal/service"
)

// NewCommand creates the "chart" command.
func NewCommand() *cobra.Command {
	var (
		in     service.ChartInput
		export string
	)

	cmd := &cobra.Command{
		Use:   "chart <file>",
		Short: "Derive chart data from a spreadsheet",
		Long: fmt.Sprintf(`Derive chart-ready data from two (or, for 3D kinds, three) columns.

Kinds:        %s
Aggregations: %s

Example:
  sheetsight chart sales.xlsx --type bar --x region --y revenue --agg sum
  sheetsight chart sales.xlsx --type scatter3d --x price --y units --z margin
  sheetsight chart sales.csv --type line --x month --y revenue --export out.xlsx`,
			joinKinds(), joinAggregations()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			in.DatasetID = res.Dataset.ID
			c, err := a.Service.GenerateChart(ctx, owner, in)
			if err != nil {
				return err
			}

			if export != "" {
				wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{xlsx.ChartSheet("Chart", c.Data)}}
				if err := xlsx.WriteFile(wb, export); err != nil {
					return err
				}
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON(cmd.OutOrStdout(), "chart", c)
			}
			if err := output.NewWriter(cmd.OutOrStdout()).Chart(c.Title, c.Data); err != nil {
				return err
			}
			if export != "" {
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", export)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Kind, "type", "t", "bar", "Chart kind")
	cmd.Flags().StringVarP(&in.XAxis, "x", "x", "", "X axis column (required)")
	cmd.Flags().StringVarP(&in.YAxis, "y", "y", "", "Y axis column (required)")
	cmd.Flags().StringVarP(&in.ZAxis, "z", "z", "", "Z axis column (3D kinds)")
	cmd.Flags().StringVar(&in.Aggregation, "agg", "none", "Aggregation for y values sharing an x value")
	cmd.Flags().StringVar(&in.Title, "title", "", "Chart title (default \"<y> vs <x>\")")
	cmd.Flags().StringVar(&export, "export", "", "Also write the chart data to an .xlsx file")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")
	return cmd
}

func joinKinds() string {
	names := make([]string, len(chart.Kinds))
	for i, k := range chart.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func joinAggregations() string {
	names := make([]string, len(chart.Aggregations))
	for i, a := range chart.Aggregations {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
