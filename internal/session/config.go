package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL points at the production ledger service.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Config is the console configuration file.
type Config struct {
	// BaseURL of the ledger service.
	BaseURL string `yaml:"base_url"`

	// TokenPath overrides where the bearer credential is stored.
	TokenPath string `yaml:"token_path,omitempty"`
}

// DefaultConfigPath is config.yaml under the user config dir.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "rcoop", "config.yaml"), nil
}

// LoadConfig reads the config file at path. A missing file yields the
// defaults; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{BaseURL: DefaultBaseURL}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg, nil
}
