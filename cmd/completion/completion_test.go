package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "sheetsight"}
	root.AddCommand(&cobra.Command{Use: "stats", Short: "Summarize a spreadsheet"})
	root.AddCommand(&cobra.Command{Use: "chart", Short: "Derive chart data"})
	root.AddCommand(NewCommand(root))
	return root
}

func run(t *testing.T, shell string) (string, error) {
	t.Helper()
	root := testRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", shell})
	err := root.Execute()
	return buf.String(), err
}

func TestCompletionScripts(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_sheetsight"},
		{"zsh", "compdef"},
		{"fish", "complete -c sheetsight"},
		{"powershell", "sheetsight"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := run(t, tt.shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(out, "# Install: ") {
				t.Error("script should start with an install hint")
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("%s completion should contain %q", tt.shell, tt.want)
			}
		})
	}
}

func TestCompletionUnsupportedShell(t *testing.T) {
	if _, err := run(t, "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
