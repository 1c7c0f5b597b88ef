// Package config provides configuration management for armenu.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority, applied by cmd/armenu)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// The backend address always comes from here; no package hard-codes it.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("backend: %s\n", cfg.API.BaseURL)
package config

import (
	"net/url"
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - API.BaseURL must be an absolute http or https URL
// - API.Timeout must be > 0
// - Capture.Width, Capture.Height and Capture.FPS must be >= 0 (0 = device default)
// - Capture.MaxDuration must be >= 0 (0 = unlimited)
// - Storage.StatePath must not be empty.
type Config struct {
	// Backend REST API settings
	API APIConfig `yaml:"api"`

	// Camera and recording settings
	Capture CaptureConfig `yaml:"capture"`

	// 3D model viewer settings
	Viewer ViewerConfig `yaml:"viewer"`

	// Display settings
	Display DisplayConfig `yaml:"display"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// Base URL of the REST API, e.g. https://api.armenu.com/api
	BaseURL string `yaml:"base_url"`

	// Per-request timeout. Uploads use UploadTimeout instead.
	Timeout time.Duration `yaml:"timeout"`

	// Timeout for model uploads
	UploadTimeout time.Duration `yaml:"upload_timeout"`

	// Refuse camera access unless the backend is reached over https
	// (loopback hosts are always allowed).
	RequireSecure bool `yaml:"require_secure"`
}

// CaptureConfig contains camera and recording settings.
type CaptureConfig struct {
	// Camera device path. Empty selects the first discovered device.
	Device string `yaml:"device"`

	// Requested frame width in pixels (0 = device default)
	Width int `yaml:"width"`

	// Requested frame height in pixels (0 = device default)
	Height int `yaml:"height"`

	// Requested frame rate (0 = device default)
	FPS int `yaml:"fps"`

	// Recording stops automatically after this long (0 = unlimited)
	MaxDuration time.Duration `yaml:"max_duration"`

	// Directory for recorder temp files and review copies
	TempDir string `yaml:"temp_dir"`

	// ffmpeg binary name or path
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Directory scanned for videoN camera nodes
	DevDir string `yaml:"dev_dir"`
}

// ViewerConfig contains 3D model viewer settings.
type ViewerConfig struct {
	// Web viewer page. {src}, {title} and {autorotate} are substituted.
	URLTemplate string `yaml:"url_template"`

	// Command used to open the viewer URL. Empty picks the platform default.
	Opener string `yaml:"opener"`

	// Rotate models by default
	AutoRotate bool `yaml:"auto_rotate"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Default output format (table, json, simple)
	DefaultFormat string `yaml:"default_format"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB file holding the auth token and capture history
	StatePath string `yaml:"state_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

var (
	validFormats    = map[string]bool{"table": true, "json": true, "simple": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	if c.API.Timeout <= 0 || c.API.UploadTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Capture.Width < 0 || c.Capture.Height < 0 || c.Capture.FPS < 0 {
		return ErrInvalidResolution
	}
	if c.Capture.MaxDuration < 0 {
		return ErrInvalidMaxDuration
	}

	if c.Storage.StatePath == "" {
		return ErrNoStatePath
	}

	if !validFormats[c.Display.DefaultFormat] {
		return ErrInvalidDisplayFormat
	}
	if !validLogLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}
	if !validLogFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "http://localhost:5000/api",
			Timeout:       15 * time.Second,
			UploadTimeout: 10 * time.Minute,
		},
		Capture: CaptureConfig{
			Width:      1280,
			Height:     720,
			FPS:        30,
			TempDir:    defaultTempDir(),
			FFmpegPath: "ffmpeg",
			DevDir:     "/dev",
		},
		Viewer: ViewerConfig{
			URLTemplate: "https://modelviewer.dev/editor/?src={src}&title={title}&auto-rotate={autorotate}&camera-controls=1",
			AutoRotate:  true,
		},
		Display: DisplayConfig{
			DefaultFormat: "table",
		},
		Storage: StorageConfig{
			StatePath: defaultStatePath(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			Format: "text",
		},
	}
}
