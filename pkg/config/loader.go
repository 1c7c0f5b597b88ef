package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised by the loader.
const (
	EnvAPIURL   = "ARMENU_API_URL"
	EnvStateDB  = "ARMENU_STATE_DB"
	EnvLogLevel = "ARMENU_LOG_LEVEL"
	EnvDevice   = "ARMENU_DEVICE"
	EnvTimeout  = "ARMENU_API_TIMEOUT"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file on top of defaults.
	LoadFromFile(path string) (*Config, error)

	// Path returns the file the last Load read, or "" when defaults were used.
	Path() string
}

type loader struct {
	configPath string
	usedPath   string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./armenu.yaml (current directory)
// 2. ~/.config/armenu/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
		getenv:     os.Getenv,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	path := l.configPath
	if path == "" {
		path = l.findConfigFile()
	}

	if path != "" {
		fileCfg, err := l.LoadFromFile(path)
		switch {
		case err == nil:
			cfg = fileCfg
			l.usedPath = path
		case l.configPath != "":
			// An explicitly requested file must load.
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := l.applyEnvVars(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
//
// Keys absent from the file keep their default values.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	return l.usedPath
}

func (l *loader) findConfigFile() string {
	for _, path := range []string{"./armenu.yaml", DefaultConfigPath()} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvVars applies environment variable overrides in place.
func (l *loader) applyEnvVars(cfg *Config) error {
	if v := l.getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := l.getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.API.Timeout = d
	}
	if v := l.getenv(EnvStateDB); v != "" {
		cfg.Storage.StatePath = v
	}
	if v := l.getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := l.getenv(EnvDevice); v != "" {
		cfg.Capture.Device = v
	}
	return nil
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
