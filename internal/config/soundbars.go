package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedSoundbar is one entry in the soundbars YAML file.
type SeedSoundbar struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type soundbarsFile struct {
	Soundbars []SeedSoundbar `yaml:"soundbars"`
}

// LoadSeedSoundbars parses the soundbars YAML file. An empty path means no
// seeding and returns nil without error.
func LoadSeedSoundbars(path string) ([]SeedSoundbar, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read soundbars file: %w", err)
	}

	var parsed soundbarsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse soundbars file: %w", err)
	}

	for i, entry := range parsed.Soundbars {
		if entry.Host == "" {
			return nil, fmt.Errorf("soundbars file entry %d: host is required", i)
		}
	}

	return parsed.Soundbars, nil
}
