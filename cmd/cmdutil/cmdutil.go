// Package cmdutil holds helpers shared by the command packages.
package cmdutil

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/internal/app"
	"github.com/klytics/sheetsight/internal/config"
)

// JSON reports whether --json was passed.
func JSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// LoadConfig loads the configuration named by --config, or the default file.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// Build loads the configuration and wires an App. Ephemeral apps keep
// everything in memory. Logs go to stderr.
func Build(cmd *cobra.Command, ephemeral bool) (*app.App, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return app.New(cmd.Context(), cfg, app.Options{
		Ephemeral: ephemeral,
		LogOutput: os.Stderr,
		Verbose:   verbose,
	})
}

// Owner is the user id local commands act as.
func Owner(a *app.App) string {
	if a.Config.Watch.Owner != "" {
		return a.Config.Watch.Owner
	}
	return "local"
}
