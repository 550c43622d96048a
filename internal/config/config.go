// Package config loads client settings and the API token from ~/.tada.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// JSON-backed settings. Single file, human-readable; a missing file means
// defaults.

const (
	configFileName = "config.json"

	DefaultServerURL = "http://localhost:3000"
	DefaultTheme     = "classic"
)

// Env names read by ApplyEnv and the credentials store.
const (
	EnvHome    = "TADA_HOME"
	EnvServer  = "TADA_SERVER"
	EnvTheme   = "TADA_THEME"
	EnvToken   = "TADA_TOKEN"
	EnvTimeout = "TADA_TIMEOUT"
)

type Config struct {
	ServerURL string `json:"server_url"`
	Theme     string `json:"theme"`
	// TimeoutSec bounds each HTTP request. 0 keeps the transport default.
	TimeoutSec int `json:"timeout_sec,omitempty"`
}

func Default() Config {
	return Config{ServerURL: DefaultServerURL, Theme: DefaultTheme}
}

// Dir is $TADA_HOME, or ~/.tada.
func Dir() (string, error) {
	if d := strings.TrimSpace(os.Getenv(EnvHome)); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Load reads dir/config.json over the defaults.
func Load(dir string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.ServerURL) == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if strings.TrimSpace(cfg.Theme) == "" {
		cfg.Theme = DefaultTheme
	}
	return cfg, nil
}

func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFileName), b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ApplyEnv overlays TADA_SERVER, TADA_THEME and TADA_TIMEOUT.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvServer)); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(EnvTheme)); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: not a non-negative number: %q", EnvTimeout, v)
		}
		c.TimeoutSec = n
	}
	return nil
}
