// Package doctor provides the "sheetsight doctor" command for checking
// configuration, storage and AI provider health.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/internal/ai"
	"github.com/klytics/sheetsight/internal/config"
	"github.com/klytics/sheetsight/internal/output"
	"github.com/klytics/sheetsight/internal/store"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and AI provider",
		Long:  "Run diagnostic checks to verify SheetSight is properly configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.Path()
			}
			checks := runChecks(cmd.Context(), cfg, path)

			if cmdutil.JSON(cmd) {
				return output.PrintJSON(cmd.OutOrStdout(), "doctor", checks)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "SheetSight Doctor")
			fmt.Fprintln(out, "=================")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cfg *config.Config, path string) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	if _, err := os.Stat(path); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: path})
	} else {
		checks = append(checks, Check{Name: "Config File", Status: "warning", Message: "Not found, using defaults; run 'sheetsight config init'"})
	}

	if config.HasErrors(config.Validate(cfg)) {
		checks = append(checks, Check{Name: "Config Values", Status: "error", Message: "Invalid; run 'sheetsight config validate'"})
	} else {
		checks = append(checks, Check{Name: "Config Values", Status: "ok", Message: "Valid"})
	}

	checks = append(checks, storeCheck(ctx, cfg))
	checks = append(checks, providerCheck(cfg))
	return checks
}

func storeCheck(ctx context.Context, cfg *config.Config) Check {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
	if err != nil {
		return Check{Name: "Store", Status: "error", Message: err.Error()}
	}
	st.Close()
	if cfg.Store.Driver == "memory" {
		return Check{Name: "Store", Status: "warning", Message: "In-memory; uploads are lost on restart"}
	}
	return Check{Name: "Store", Status: "ok", Message: "Connected to " + cfg.Store.Driver}
}

func providerCheck(cfg *config.Config) Check {
	p, err := ai.NewProvider(ai.Settings{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Host:     cfg.AI.Host,
	})
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return Check{Name: "AI Provider", Status: "warning", Message: "None; insights use the built-in summary"}
	case err != nil:
		return Check{Name: "AI Provider", Status: "error", Message: err.Error()}
	default:
		return Check{Name: "AI Provider", Status: "ok", Message: fmt.Sprintf("%s (%s)", p.Name(), p.Model())}
	}
}
