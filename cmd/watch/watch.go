// Package watch provides the "sheetsight watch" command.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/output"
	w "github.com/klytics/sheetsight/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		recursive bool
		pattern   string
		owner     string
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Ingest spreadsheets dropped into inbox directories",
		Long: `Watch directories for new or modified .xlsx and .csv files and store each
one as a dataset for the watch owner. Directories default to watch.dirs.

With a MySQL store the datasets are visible to 'sheetsight serve' under the
same owner id.

Example:
  sheetsight watch ./inbox --owner alice
  sheetsight watch ./reports -r --pattern 'sales_*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cmdutil.Build(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			dirs := args
			if len(dirs) == 0 {
				dirs = a.Config.Watch.Dirs
			}
			if owner == "" {
				owner = cmdutil.Owner(a)
			}
			if debounce <= 0 {
				debounce = a.Config.Watch.DebounceMs
			}

			jsonOut := cmdutil.JSON(cmd)
			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen).SprintFunc()

			watcher, err := w.New(w.Config{
				Dirs:      dirs,
				Recursive: recursive,
				Pattern:   pattern,
				Debounce:  time.Duration(debounce) * time.Millisecond,
			}, func(ctx context.Context, path string) error {
				res, err := a.Service.IngestFile(ctx, owner, path)
				if err != nil {
					return err
				}
				if !jsonOut {
					fmt.Fprintf(out, "%s %s → %s (%d rows)\n", green("✓"), path, res.Dataset.ID, res.Dataset.RowCount)
				}
				return nil
			}, a.Logger)
			if err != nil {
				return err
			}

			if !jsonOut {
				fmt.Fprintf(out, "Watching %d directory(ies) for .xlsx and .csv files as %q\n", len(dirs), owner)
				fmt.Fprintln(out, "Press Ctrl+C to stop")
			}
			if err := watcher.Run(cmd.Context()); err != nil {
				return err
			}

			if jsonOut {
				return output.PrintJSON(out, "watch", map[string]any{
					"status": watcher.Status(),
					"events": watcher.Events(),
				})
			}
			st := watcher.Status()
			fmt.Fprintf(out, "\nStopped. %d files processed, %d errors.\n", st.EventCount-st.Errors, st.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only ingest files whose name matches this glob")
	cmd.Flags().StringVar(&owner, "owner", "", "User id to store datasets under (default watch.owner)")
	cmd.Flags().IntVar(&debounce, "debounce", 0, "Debounce interval in milliseconds (default watch.debounce_ms)")
	return cmd
}
