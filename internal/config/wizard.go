package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Issue represents a validation finding.
type Issue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Wizard asks for the handful of settings that have no safe default and
// returns the resulting configuration. Blank answers keep the defaults.
func Wizard(in io.Reader, out io.Writer) *Config {
	cfg := Default()
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) string {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	fmt.Fprintln(out, "SheetSight setup")
	fmt.Fprintln(out, strings.Repeat("-", 40))

	fmt.Fprintln(out, "Step 1/3: Insight generation")
	fmt.Fprintln(out, "  [1] Anthropic  [2] OpenAI  [3] Ollama (local)  [4] Built-in summaries only")
	switch ask("  Choice: ") {
	case "1":
		cfg.AI.Provider = "anthropic"
		cfg.AI.APIKey = ask("  Anthropic API key: ")
	case "2":
		cfg.AI.Provider = "openai"
		cfg.AI.APIKey = ask("  OpenAI API key: ")
	case "3":
		cfg.AI.Provider = "ollama"
		if host := ask("  Ollama host (default http://localhost:11434): "); host != "" {
			cfg.AI.Host = host
		}
	default:
		fmt.Fprintln(out, "  Built-in summaries only")
	}

	fmt.Fprintln(out, "Step 2/3: Storage")
	if strings.EqualFold(ask("  Use MySQL instead of in-memory storage? [y/N]: "), "y") {
		cfg.Store.Driver = "mysql"
		cfg.Store.DSN = ask("  DSN (user:pass@tcp(host:3306)/sheetsight): ")
	}

	fmt.Fprintln(out, "Step 3/3: Server")
	if addr := ask(fmt.Sprintf("  Listen address (default %s): ", cfg.Server.Addr)); addr != "" {
		cfg.Server.Addr = addr
	}
	if mb := ask(fmt.Sprintf("  Upload limit in MB (default %d): ", cfg.Server.MaxUploadMB)); mb != "" {
		if n, err := strconv.Atoi(mb); err == nil && n > 0 {
			cfg.Server.MaxUploadMB = n
		}
	}
	return cfg
}

var validProviders = map[string]bool{"": true, "anthropic": true, "openai": true, "ollama": true}

// Validate checks config values and returns a list of issues.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	switch p := cfg.AI.Provider; {
	case !validProviders[p]:
		issues = append(issues, Issue{
			Key:      "ai.provider",
			Severity: "error",
			Message:  fmt.Sprintf("ai.provider must be anthropic, openai, ollama or empty, got %q", p),
		})
	case p == "":
		issues = append(issues, Issue{
			Key:      "ai.provider",
			Severity: "info",
			Message:  "no AI provider set; insights use the built-in summary",
		})
	case p != "ollama" && cfg.AI.APIKey == "":
		issues = append(issues, Issue{
			Key:      "ai.api_key",
			Severity: "error",
			Message:  fmt.Sprintf("provider is %q but no API key is set", p),
			Fix:      "export " + EnvPrefix + "_AI_API_KEY=...",
		})
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		issues = append(issues, Issue{Key: "ai.temperature", Severity: "error", Message: "ai.temperature must be between 0 and 2"})
	}
	if cfg.AI.MaxTokens <= 0 {
		issues = append(issues, Issue{Key: "ai.max_tokens", Severity: "error", Message: "ai.max_tokens must be positive"})
	}

	switch cfg.Store.Driver {
	case "memory":
		issues = append(issues, Issue{
			Key:      "store.driver",
			Severity: "warning",
			Message:  "memory store loses all uploads on restart",
			Fix:      "set store.driver: mysql and store.dsn",
		})
	case "mysql":
		if cfg.Store.DSN == "" {
			issues = append(issues, Issue{Key: "store.dsn", Severity: "error", Message: "store.driver is mysql but store.dsn is empty"})
		}
	default:
		issues = append(issues, Issue{Key: "store.driver", Severity: "error", Message: fmt.Sprintf("unknown store driver %q", cfg.Store.Driver)})
	}

	if cfg.Server.MaxUploadMB <= 0 {
		issues = append(issues, Issue{Key: "server.max_upload_mb", Severity: "error", Message: "server.max_upload_mb must be positive"})
	}
	if len(cfg.Watch.Dirs) > 0 && cfg.Watch.Owner == "" {
		issues = append(issues, Issue{Key: "watch.owner", Severity: "error", Message: "watch.dirs is set but watch.owner is empty"})
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == "error" {
			return true
		}
	}
	return false
}

// Show returns a formatted string of cfg with secrets masked.
func Show(cfg *Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Config: %s\n\n", Path())

	sb.WriteString("Server\n")
	fmt.Fprintf(&sb, "  addr:        %s\n", cfg.Server.Addr)
	fmt.Fprintf(&sb, "  max upload:  %d MB\n\n", cfg.Server.MaxUploadMB)

	sb.WriteString("Store\n")
	fmt.Fprintf(&sb, "  driver:      %s\n", cfg.Store.Driver)
	if cfg.Store.DSN != "" {
		fmt.Fprintf(&sb, "  dsn:         %s\n", maskDSN(cfg.Store.DSN))
	}
	sb.WriteString("\n")

	sb.WriteString("AI\n")
	provider := cfg.AI.Provider
	if provider == "" {
		provider = "(none, built-in summaries)"
	}
	fmt.Fprintf(&sb, "  provider:    %s\n", provider)
	if cfg.AI.Model != "" {
		fmt.Fprintf(&sb, "  model:       %s\n", cfg.AI.Model)
	}
	if k := cfg.AI.APIKey; k != "" {
		fmt.Fprintf(&sb, "  key:         %s****\n", k[:min(6, len(k))])
	}
	fmt.Fprintf(&sb, "  max tokens:  %d\n", cfg.AI.MaxTokens)
	fmt.Fprintf(&sb, "  temperature: %g\n\n", cfg.AI.Temperature)

	if len(cfg.Watch.Dirs) > 0 {
		sb.WriteString("Watch\n")
		fmt.Fprintf(&sb, "  dirs:        %s\n", strings.Join(cfg.Watch.Dirs, ", "))
		fmt.Fprintf(&sb, "  owner:       %s\n\n", cfg.Watch.Owner)
	}
	return sb.String()
}

// maskDSN hides the password of a user:pass@... DSN.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	colon := strings.Index(dsn, ":")
	if at < 0 || colon < 0 || colon > at {
		return dsn
	}
	return dsn[:colon+1] + "****" + dsn[at:]
}
