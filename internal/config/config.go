package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration. Values come from the YAML config file
// and can be overridden by KAJISHIFT_* environment variables.
type Config struct {
	// BaseURL is the root of the remote service, e.g. https://kajishift.example.com.
	// The table API lives under /rest/v1 and the auth API under /auth/v1.
	BaseURL string `yaml:"base_url"`
	// APIKey is the public API key sent with every request.
	APIKey string `yaml:"api_key"`
	// DBPath is the local sqlite file holding the persisted session.
	DBPath string `yaml:"db_path"`
	// LocalSecret encrypts the persisted refresh token at rest.
	LocalSecret string `yaml:"local_secret"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kajishift", "config.yaml"), nil
}

// DefaultDBPath returns the per-user session database location.
func DefaultDBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kajishift", "session.db"), nil
}

// Load reads the config file at path (missing file is not an error), applies
// environment overrides, and fills defaults.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolve db path: %w", err)
		}
		cfg.DBPath = p
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KAJISHIFT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("KAJISHIFT_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("KAJISHIFT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("KAJISHIFT_LOCAL_SECRET"); v != "" {
		cfg.LocalSecret = v
	}
	if v := os.Getenv("KAJISHIFT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required (set KAJISHIFT_BASE_URL or the config file)")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set KAJISHIFT_API_KEY or the config file)")
	}
	return nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
