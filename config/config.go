package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
)

// Config holds the client settings. Everything has a working default so
// the client runs against a local backend with no config file at all.
type Config struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	DropDir        string `mapstructure:"drop_dir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	LogFile        string `mapstructure:"log_file"`
}

// Dir returns the client's config directory (~/.mars).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mars"), nil
}

// DefaultConfig returns a config with default values. DropDir and LogFile
// default to paths under dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		BaseURL:        api.DefaultBaseURL,
		Model:          api.ModelGemini,
		DropDir:        filepath.Join(dir, "drop"),
		TimeoutSeconds: 120,
		LogFile:        filepath.Join(dir, "mars.log"),
	}
}

// Load reads config.yaml from dir, applies MARS_* environment overrides,
// and fills gaps with defaults. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	defaults := DefaultConfig(dir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("mars")
	v.AutomaticEnv()

	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("drop_dir", defaults.DropDir)
	v.SetDefault("timeout_seconds", defaults.TimeoutSeconds)
	v.SetDefault("log_file", defaults.LogFile)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return api.DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Get retrieves a configuration value by key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "base_url":
		return c.BaseURL, nil
	case "model":
		return c.Model, nil
	case "drop_dir":
		return c.DropDir, nil
	case "timeout_seconds":
		return strconv.Itoa(c.TimeoutSeconds), nil
	case "log_file":
		return c.LogFile, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a configuration value by key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "base_url":
		c.BaseURL = value
		return nil
	case "model":
		if value != api.ModelGemini && value != api.ModelOllama {
			return fmt.Errorf("expected %q or %q for model, got: %s", api.ModelGemini, api.ModelOllama, value)
		}
		c.Model = value
		return nil
	case "drop_dir":
		c.DropDir = value
		return nil
	case "timeout_seconds":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("expected a positive number of seconds for timeout_seconds, got: %s", value)
		}
		c.TimeoutSeconds = seconds
		return nil
	case "log_file":
		c.LogFile = value
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

// Save writes the config as config.yaml under dir.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("base_url", c.BaseURL)
	v.Set("model", c.Model)
	v.Set("drop_dir", c.DropDir)
	v.Set("timeout_seconds", c.TimeoutSeconds)
	v.Set("log_file", c.LogFile)

	path := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Keys returns the known config keys, for the config subcommand's usage.
func Keys() string {
	return strings.Join([]string{"base_url", "model", "drop_dir", "timeout_seconds", "log_file"}, ", ")
}
