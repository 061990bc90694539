package config

import (
	"fmt"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// LoadSettings loads settings from a YAML file under basePath.
// Settings are read once per session; there is no reload loop.
func LoadSettings(basePath, file string) (*Settings, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	data, err := sp.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &settings, nil
}

// SampleSettings returns a commented sample settings file.
func SampleSettings() []byte {
	sample := Settings{
		Applications: []string{"python3", "vim"},
		SSHKeys:      []string{"id_ed25519"},
		Env:          map[string]string{"EDITOR": "vim"},
		ShellSnippet: "alias ll='ls -la'",
		Network: NetworkSettings{
			Enabled:       false,
			AllowedPorts:  []int{443},
			AllowedRanges: []string{"10.0.0.0/8"},
		},
	}
	data, err := yaml.Marshal(&sample)
	if err != nil {
		// Marshaling a fixed literal never fails.
		return nil
	}
	return data
}

// WriteSampleSettings writes the sample settings file under basePath.
func WriteSampleSettings(basePath, file string) error {
	sp, err := safepath.New(basePath)
	if err != nil {
		return fmt.Errorf("creating safe path: %w", err)
	}
	if err := sp.WriteFile(file, SampleSettings(), 0o644); err != nil {
		return fmt.Errorf("writing sample settings: %w", err)
	}
	return nil
}
