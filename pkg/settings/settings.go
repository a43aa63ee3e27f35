// Package settings manages persistent user defaults for the saiqual CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// Testbed is the testbed file used when --testbed is not given
	Testbed string `json:"testbed,omitempty"`

	// ScriptsDir is the local directory holding the DUT helper scripts
	ScriptsDir string `json:"scripts_dir,omitempty"`

	// Container is the default test container ("saiserver" or "syncd")
	Container string `json:"container,omitempty"`
}

// DefaultScriptsDir is where the helper scripts live in a sonic-mgmt checkout.
const DefaultScriptsDir = "scripts/sai_qualify"

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "saiqual_settings.json"
	}
	return filepath.Join(home, ".saiqual", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetScriptsDir returns the scripts directory (with fallback)
func (s *Settings) GetScriptsDir() string {
	if s.ScriptsDir != "" {
		return s.ScriptsDir
	}
	return DefaultScriptsDir
}

// Set assigns a setting by its JSON key. It reports false for unknown keys.
func (s *Settings) Set(key, value string) bool {
	switch key {
	case "testbed":
		s.Testbed = value
	case "scripts_dir":
		s.ScriptsDir = value
	case "container":
		s.Container = value
	default:
		return false
	}
	return true
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
