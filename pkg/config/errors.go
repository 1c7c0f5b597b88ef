package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidBaseURL is returned when the API base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid api base_url: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when an API timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid api timeout: must be > 0")

	// ErrInvalidResolution is returned when width, height or fps is negative.
	ErrInvalidResolution = errors.New("invalid capture resolution: width, height and fps must be >= 0")

	// ErrInvalidMaxDuration is returned when max duration is negative.
	ErrInvalidMaxDuration = errors.New("invalid capture max duration: must be >= 0")

	// ErrNoStatePath is returned when no state database path is configured.
	ErrNoStatePath = errors.New("no state database path specified")

	// ErrInvalidDisplayFormat is returned when the display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
