// Package insight provides the "sheetsight insight" command.
package insight

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/output"
	"github.com/klytics/sheetsight/internal/progress"
)

// NewCommand creates the "insight" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "insight <file>",
		Short: "Generate narrative insights for a spreadsheet",
		Long: `Summarize a spreadsheet and ask the configured AI provider for a summary,
key findings, trends and recommendations. Without a provider, or when the
provider fails, a summary is built from the statistics alone.

Configure a provider with 'sheetsight config init' or SHEETSIGHT_AI_PROVIDER.

Example:
  sheetsight insight sales.xlsx
  SHEETSIGHT_AI_PROVIDER=ollama sheetsight insight sales.csv --json`,
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

			spin := progress.NewSpinner(cmd.ErrOrStderr(), "Asking "+a.Capability.Model()+"...")
			if cmdutil.JSON(cmd) || !a.Capability.Ready() {
				spin.Enabled = false
			}
			spin.Start()
			rec, _, err := a.Service.GenerateInsight(ctx, owner, res.Dataset.ID)
			spin.Stop("")
			if err != nil {
				return err
			}

			if cmdutil.JSON(cmd) {
				return output.PrintJSON(cmd.OutOrStdout(), "insight", rec)
			}
			return output.NewWriter(cmd.OutOrStdout()).Insight(rec)
		},
	}
}
