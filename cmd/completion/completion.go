// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var installHints = map[string]string{
	"bash":       "sheetsight completion bash > /etc/bash_completion.d/sheetsight",
	"zsh":        "sheetsight completion zsh > ~/.zsh/completions/_sheetsight",
	"fish":       "sheetsight completion fish > ~/.config/fish/completions/sheetsight.fish",
	"powershell": "sheetsight completion powershell >> $PROFILE",
}

// NewCommand returns the completion command for rootCmd.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completions",
		Long:      "Generate a shell completion script for sheetsight and print it to stdout.",
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(rootCmd, args[0], cmd.OutOrStdout())
		},
	}
}

func generate(root *cobra.Command, shell string, w io.Writer) error {
	hint, ok := installHints[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
	fmt.Fprintf(w, "# Install: %s\n\n", hint)
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	default:
		return root.GenPowerShellCompletionWithDesc(w)
	}
}
