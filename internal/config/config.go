// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SHEETSIGHT_AI_PROVIDER.
const EnvPrefix = "SHEETSIGHT"

// Config holds the application configuration.
type Config struct {
	Server struct {
		Addr        string `mapstructure:"addr" yaml:"addr"`
		MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	} `mapstructure:"server" yaml:"server"`
	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		DSN    string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"store" yaml:"store"`
	AI struct {
		// Provider is anthropic, openai or ollama. Empty disables
		// generation and every insight uses the built-in summary.
		Provider    string  `mapstructure:"provider" yaml:"provider"`
		Model       string  `mapstructure:"model" yaml:"model"`
		APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
		Host        string  `mapstructure:"host" yaml:"host"`
		MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
		Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
		TimeoutSec  int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	} `mapstructure:"ai" yaml:"ai"`
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`
	Watch struct {
		Dirs       []string `mapstructure:"dirs" yaml:"dirs"`
		Owner      string   `mapstructure:"owner" yaml:"owner"`
		DebounceMs int      `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	} `mapstructure:"watch" yaml:"watch"`
}

var defaults = map[string]any{
	"server.addr":          ":5000",
	"server.max_upload_mb": 10,
	"store.driver":         "memory",
	"store.dsn":            "",
	"ai.provider":          "",
	"ai.model":             "",
	"ai.api_key":           "",
	"ai.host":              "",
	"ai.max_tokens":        1500,
	"ai.temperature":       0.7,
	"ai.timeout_sec":       60,
	"log.level":            "info",
	"log.format":           "text",
	"watch.dirs":           []string{},
	"watch.owner":          "local",
	"watch.debounce_ms":    500,
}

// Load reads the configuration from ~/.sheetsight/config.yaml, or from path
// when set, and applies SHEETSIGHT_* environment overrides.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
	}

	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Save writes cfg as YAML to path, or to Path() when empty. The file is
// private to the user because it may hold an API key or DSN.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// Dir returns ~/.sheetsight.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetsight"
	}
	return filepath.Join(home, ".sheetsight")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}
