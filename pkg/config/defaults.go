package config

import (
	"os"
	"path/filepath"
)

const appDir = "armenu"

// configHome returns ~/.config/armenu, or "." when the home directory is unknown.
func configHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", appDir)
}

// defaultStatePath returns ~/.config/armenu/state.db.
func defaultStatePath() string {
	return filepath.Join(configHome(), "state.db")
}

// defaultTempDir returns the armenu subdirectory of the OS temp dir.
func defaultTempDir() string {
	return filepath.Join(os.TempDir(), appDir)
}

// DefaultConfigPath returns ~/.config/armenu/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configHome(), "config.yaml")
}
