package config

import (
	"fmt"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// RefreshInterval is how often the collector sweeps all sources
	RefreshInterval time.Duration

	// Retention is how long samples are kept in the store
	Retention time.Duration

	// AnomalyWindow is the trailing window analyzed for anomalies
	AnomalyWindow time.Duration

	// SourcesConfigPath is the path to the YAML file defining source instances
	SourcesConfigPath string

	// MaxPointsPerSeries bounds each series buffer in the store
	MaxPointsPerSeries int

	// MaxSeries bounds the number of live series in the store
	MaxSeries int

	// LogLevel is the default logging level (debug, info, warn, error)
	LogLevel string

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string

	// TracingTLSInsecure skips TLS certificate verification
	TracingTLSInsecure bool
}

// Refresh interval bounds, matching the dashboard's adjustable range.
const (
	MinRefreshInterval = 5 * time.Second
	MaxRefreshInterval = 60 * time.Second
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if c.RefreshInterval < MinRefreshInterval || c.RefreshInterval > MaxRefreshInterval {
		return NewConfigError(fmt.Sprintf("RefreshInterval must be between %v and %v", MinRefreshInterval, MaxRefreshInterval))
	}

	if c.Retention < c.RefreshInterval {
		return NewConfigError("Retention must be at least one refresh interval")
	}

	if c.AnomalyWindow < c.RefreshInterval {
		return NewConfigError("AnomalyWindow must be at least one refresh interval")
	}

	if c.MaxPointsPerSeries < 1 {
		return NewConfigError("MaxPointsPerSeries must be at least 1")
	}

	if c.MaxSeries < 1 {
		return NewConfigError("MaxSeries must be at least 1")
	}

	if c.SourcesConfigPath == "" {
		return NewConfigError("SourcesConfigPath must not be empty")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}
