// Package shell provides the "sheetsight shell" interactive REPL command.
package shell

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	shellpkg "github.com/klytics/sheetsight/internal/shell"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var evalCmd string

	cmd := &cobra.Command{
		Use:   "shell [file]",
		Short: "Start an interactive SheetSight shell",
		Long: `Start an interactive REPL over one loaded spreadsheet. Load a file,
inspect headers and records, then derive charts, statistics and insights
without re-reading it. Tab completion covers commands, chart kinds and the
loaded dataset's headers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cmdutil.Build(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			session := shellpkg.NewSession(a.Service, cmdutil.Owner(a))
			session.JSON = cmdutil.JSON(cmd)
			ctx := cmd.Context()

			if len(args) == 1 {
				out, err := session.Eval(ctx, "load "+args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			if evalCmd != "" {
				out, err := session.Eval(ctx, evalCmd)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	return cmd
}
