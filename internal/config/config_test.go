package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	t.Setenv("HOME", dir)
	t.Cleanup(viper.Reset)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":5000" || cfg.Server.MaxUploadMB != 10 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("default store driver = %q", cfg.Store.Driver)
	}
	if cfg.AI.Provider != "" || cfg.AI.MaxTokens != 1500 || cfg.AI.Temperature != 0.7 {
		t.Errorf("ai defaults = %+v", cfg.AI)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	body := "ai:\n  provider: openai\n  api_key: sk-file\nstore:\n  driver: mysql\n  dsn: root:pw@tcp(db:3306)/sheets\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHEETSIGHT_AI_API_KEY", "sk-env")
	t.Setenv("SHEETSIGHT_WATCH_DIRS", "/in/a,/in/b")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.APIKey != "sk-env" {
		t.Errorf("env should override file, got %q", cfg.AI.APIKey)
	}
	if cfg.Store.DSN != "root:pw@tcp(db:3306)/sheets" {
		t.Errorf("dsn = %q", cfg.Store.DSN)
	}
	if len(cfg.Watch.Dirs) != 2 || cfg.Watch.Dirs[1] != "/in/b" {
		t.Errorf("watch dirs = %v", cfg.Watch.Dirs)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	setupTestConfig(t)
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := setupTestConfig(t)
	cfg := Default()
	cfg.AI.Provider = "ollama"
	cfg.AI.Host = "http://gpu:11434"
	cfg.Watch.Dirs = []string{"/srv/inbox"}

	if err := Save(cfg, ""); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ".sheetsight", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Save did not create %s: %v", path, err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.AI.Provider != "ollama" || got.AI.Host != "http://gpu:11434" {
		t.Errorf("ai = %+v", got.AI)
	}
	if len(got.Watch.Dirs) != 1 || got.Watch.Dirs[0] != "/srv/inbox" {
		t.Errorf("watch dirs = %v", got.Watch.Dirs)
	}
}

func hasIssue(issues []Issue, key, severity string) bool {
	for _, i := range issues {
		if i.Key == key && i.Severity == severity {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	cfg := Default()
	issues := Validate(cfg)
	if HasErrors(issues) {
		t.Errorf("defaults should validate, got %+v", issues)
	}
	if !hasIssue(issues, "store.driver", "warning") {
		t.Error("expected memory store warning")
	}

	cfg.AI.Provider = "anthropic"
	if !hasIssue(Validate(cfg), "ai.api_key", "error") {
		t.Error("expected missing API key error")
	}

	cfg.AI.Provider = "gemini"
	if !hasIssue(Validate(cfg), "ai.provider", "error") {
		t.Error("expected unknown provider error")
	}

	cfg = Default()
	cfg.Store.Driver = "mysql"
	cfg.Watch.Dirs = []string{"/in"}
	cfg.Watch.Owner = ""
	issues = Validate(cfg)
	if !hasIssue(issues, "store.dsn", "error") || !hasIssue(issues, "watch.owner", "error") {
		t.Errorf("expected dsn and owner errors, got %+v", issues)
	}
}

func TestShowMasksSecrets(t *testing.T) {
	setupTestConfig(t)
	cfg := Default()
	cfg.AI.Provider = "openai"
	cfg.AI.APIKey = "sk-secret-value"
	cfg.Store.DSN = "root:hunter2@tcp(db:3306)/sheets"

	out := Show(cfg)
	if strings.Contains(out, "secret-value") || strings.Contains(out, "hunter2") {
		t.Errorf("Show leaked a secret:\n%s", out)
	}
	if !strings.Contains(out, "openai") || !strings.Contains(out, "root:****@tcp(db:3306)/sheets") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWizard(t *testing.T) {
	var out strings.Builder
	cfg := Wizard(strings.NewReader("2\nsk-test\ny\nu:p@tcp(h:3306)/d\n:8080\n25\n"), &out)
	if cfg.AI.Provider != "openai" || cfg.AI.APIKey != "sk-test" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.Store.Driver != "mysql" || cfg.Store.DSN != "u:p@tcp(h:3306)/d" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MaxUploadMB != 25 {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestWizardAllDefaults(t *testing.T) {
	cfg := Wizard(strings.NewReader(""), &strings.Builder{})
	if cfg.AI.Provider != "" || cfg.Store.Driver != "memory" || cfg.Server.Addr != ":5000" {
		t.Errorf("blank answers should keep defaults, got %+v", cfg)
	}
}

func TestPath(t *testing.T) {
	path := Path()
	if !strings.Contains(path, ".sheetsight") || !strings.HasSuffix(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}
