package config

import (
	"fmt"
)

// SourcesFile is the top-level structure of the sources config file,
// defining monitoring API source instances.
//
// Example YAML structure:
//
//	schema_version: v1
//	instances:
//	  - name: prom-local
//	    type: prometheus
//	    enabled: true
//	    config:
//	      url: "http://localhost:9091"
//	  - name: datadog-prod
//	    type: datadog
//	    enabled: false
//	    config:
//	      site: "datadoghq.com"
//	      api_key: "..."
//	      app_key: "..."
type SourcesFile struct {
	// SchemaVersion is the explicit config schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	// Instances is the list of source instances to manage
	Instances []SourceConfig `yaml:"instances"`
}

// SourceConfig is a single source instance configuration.
type SourceConfig struct {
	// Name is the unique instance name (e.g., "prom-local")
	Name string `yaml:"name"`

	// Type is the source type (e.g., "prometheus", "datadog")
	// Multiple instances can share a Type with different Names
	Type string `yaml:"type"`

	// Enabled indicates whether this instance should be started
	Enabled bool `yaml:"enabled"`

	// Config holds instance-specific configuration as a map
	// (prometheus expects {"url": ...}, datadog expects keys and site)
	Config map[string]interface{} `yaml:"config"`
}

// Validate checks that the SourcesFile is valid.
func (f *SourcesFile) Validate() error {
	if f.SchemaVersion != "v1" {
		return NewConfigError(fmt.Sprintf(
			"unsupported schema_version: %q (expected \"v1\")",
			f.SchemaVersion,
		))
	}

	seenNames := make(map[string]bool)

	for i, instance := range f.Instances {
		if instance.Name == "" {
			return NewConfigError(fmt.Sprintf("instance[%d]: name is required", i))
		}

		if instance.Type == "" {
			return NewConfigError(fmt.Sprintf("instance[%d] (%s): type is required", i, instance.Name))
		}

		if seenNames[instance.Name] {
			return NewConfigError(fmt.Sprintf("instance[%d]: duplicate instance name %q", i, instance.Name))
		}
		seenNames[instance.Name] = true
	}

	return nil
}

// DefaultSourcesFile returns the sources config written when none exists:
// a single local Prometheus instance.
func DefaultSourcesFile() *SourcesFile {
	return &SourcesFile{
		SchemaVersion: "v1",
		Instances: []SourceConfig{
			{
				Name:    "prom-local",
				Type:    "prometheus",
				Enabled: true,
				Config: map[string]interface{}{
					"url": "http://localhost:9091",
				},
			},
		},
	}
}
