// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/config"
	"github.com/klytics/sheetsight/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage SheetSight configuration",
		Long: `Interactive setup, view, and validate SheetSight settings.

Every key can be overridden with a SHEETSIGHT_ environment variable, e.g.
SHEETSIGHT_AI_PROVIDER=ollama or SHEETSIGHT_STORE_DSN=...`,
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	var (
		noInteractive bool
		force         bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.Path()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			}

			cfg := config.Default()
			if !noInteractive {
				cfg = config.Wizard(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip prompts, use defaults")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cmdutil.JSON(cmd) {
				masked := *cfg
				if masked.AI.APIKey != "" {
					masked.AI.APIKey = "****"
				}
				if masked.Store.DSN != "" {
					masked.Store.DSN = "****"
				}
				return output.PrintJSON(cmd.OutOrStdout(), "config show", masked)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.Show(cfg))
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.Path()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			issues := config.Validate(cfg)

			if cmdutil.JSON(cmd) {
				if err := output.PrintJSON(cmd.OutOrStdout(), "config validate", issues); err != nil {
					return err
				}
			} else {
				printIssues(cmd, issues)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("configuration has errors")
			}
			return nil
		},
	}
}

func printIssues(cmd *cobra.Command, issues []config.Issue) {
	out := cmd.OutOrStdout()
	errors, warnings := 0, 0
	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			errors++
		case "warning":
			warnings++
		}
	}

	if errors == 0 && warnings == 0 {
		color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
	} else {
		fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n", errors, warnings)
	}

	for _, issue := range issues {
		switch issue.Severity {
		case "error":
			color.New(color.FgRed).Fprintf(out, "  %s\n", issue.Message)
		case "warning":
			color.New(color.FgYellow).Fprintf(out, "  %s\n", issue.Message)
		case "info":
			color.New(color.FgGreen).Fprintf(out, "  %s\n", issue.Message)
		}
		if issue.Fix != "" {
			fmt.Fprintf(out, "   Fix: %s\n", issue.Fix)
		}
	}
}
