// Package cmd contains all CLI commands for the sheetsight binary.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdchart "github.com/klytics/sheetsight/cmd/chart"
	"github.com/klytics/sheetsight/cmd/completion"
	cmdconfig "github.com/klytics/sheetsight/cmd/config"
	"github.com/klytics/sheetsight/cmd/doctor"
	cmdinsight "github.com/klytics/sheetsight/cmd/insight"
	cmdreport "github.com/klytics/sheetsight/cmd/report"
	"github.com/klytics/sheetsight/cmd/serve"
	cmdshell "github.com/klytics/sheetsight/cmd/shell"
	cmdstats "github.com/klytics/sheetsight/cmd/stats"
	"github.com/klytics/sheetsight/cmd/version"
	cmdwatch "github.com/klytics/sheetsight/cmd/watch"
	"github.com/klytics/sheetsight/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	configPath string
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetsight",
		Short: "Spreadsheet charts, statistics and insights",
		Long: `SheetSight turns .xlsx and .csv uploads into chart-ready data,
per-column statistics and narrative insights.

Run it as an HTTP API with 'sheetsight serve', or point the file commands
(stats, chart, insight, shell) at a spreadsheet on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.sheetsight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(cmdstats.NewCommand())
	rootCmd.AddCommand(cmdchart.NewCommand())
	rootCmd.AddCommand(cmdinsight.NewCommand())
	rootCmd.AddCommand(cmdreport.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and exits with a code from output.ExitCode.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return
	}
	code := output.ExitCode(err)
	if jsonOutput {
		output.PrintJSONError(os.Stdout, cmd.Name(), err, code)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	stop()
	os.Exit(code)
}
