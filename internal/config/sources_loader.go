package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadSourcesFile loads and validates a sources configuration file.
// Returns an error for unreadable files, invalid YAML, or schema
// validation failures (unsupported version, missing fields, duplicate
// instance names).
func LoadSourcesFile(filepath string) (*SourcesFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load sources config from %q: %w", filepath, err)
	}

	var cfg SourcesFile
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse sources config from %q: %w", filepath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sources config validation failed for %q: %w", filepath, err)
	}

	return &cfg, nil
}
