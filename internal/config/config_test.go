package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIPort:            8080,
		RefreshInterval:    15 * time.Second,
		Retention:          time.Hour,
		AnomalyWindow:      15 * time.Minute,
		SourcesConfigPath:  "sources.yaml",
		MaxPointsPerSeries: 1024,
		MaxSeries:          4096,
		LogLevel:           "info",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.APIPort = 0 }},
		{"port too high", func(c *Config) { c.APIPort = 70000 }},
		{"refresh below minimum", func(c *Config) { c.RefreshInterval = time.Second }},
		{"refresh above maximum", func(c *Config) { c.RefreshInterval = 2 * time.Minute }},
		{"retention below refresh", func(c *Config) { c.Retention = time.Second }},
		{"window below refresh", func(c *Config) { c.AnomalyWindow = time.Second }},
		{"zero series capacity", func(c *Config) { c.MaxPointsPerSeries = 0 }},
		{"zero max series", func(c *Config) { c.MaxSeries = 0 }},
		{"missing sources path", func(c *Config) { c.SourcesConfigPath = "" }},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}
