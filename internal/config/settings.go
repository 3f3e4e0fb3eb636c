package config

import (
	"fmt"
	"sync"

	"github.com/watchfire-io/nearby/internal/models"
)

// settingsMu serializes writers of settings.yaml within this process.
var settingsMu sync.Mutex

// LoadSettings loads the global settings from ~/.nearby/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, models.NewSettings)
}

// SaveSettings saves the global settings to ~/.nearby/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	return saveSettings(settings)
}

func saveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// UpdateSettings loads the settings, applies fn and saves the result. Calls
// are serialized, so concurrent updates never lose each other's changes.
func UpdateSettings(fn func(*models.Settings)) (*models.Settings, error) {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	settings, err := LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	fn(settings)
	if err := saveSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}
