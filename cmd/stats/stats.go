// Package stats provides the "sheetsight stats" command.
package stats

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/output"
)

// NewCommand creates the "stats" command.
func NewCommand() *cobra.Command {
	var preview int

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarize a spreadsheet's numeric columns",
		Long: `Read an .xlsx or .csv file and print its dimensions and the count, min,
max and mean of every numeric column.

Example:
  sheetsight stats sales.xlsx
  sheetsight stats sales.csv --preview 5 --json`,
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
			summary, err := a.Service.Stats(ctx, owner, res.Dataset.ID)
			if err != nil {
				return err
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON(cmd.OutOrStdout(), "stats", summary)
			}
			w := output.NewWriter(cmd.OutOrStdout())
			if err := w.Summary(summary); err != nil {
				return err
			}
			if preview > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				recs := res.Preview
				if len(recs) > preview {
					recs = recs[:preview]
				}
				return w.Records(summary.Headers, recs)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&preview, "preview", 0, "Also print the first N records (up to 10)")
	return cmd
}
