package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultVolume = 0.3

// Settings is the user-editable configuration persisted next to the
// library snapshot.
type Settings struct {
	LibraryRoot     string  `toml:"library_root"`
	ScanConcurrency int     `toml:"scan_concurrency"`
	Volume          float64 `toml:"volume"`
}

func DefaultSettings() Settings {
	return Settings{Volume: defaultVolume}
}

// LoadSettings reads settings from path. A missing file is not an
// error: first launch starts from defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if _, err := toml.DecodeFile(path, &settings); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}

	if settings.Volume < 0 || settings.Volume > 1 {
		settings.Volume = defaultVolume
	}
	if settings.ScanConcurrency < 0 {
		settings.ScanConcurrency = 0
	}

	return settings, nil
}

func SaveSettings(path string, settings Settings) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(settings); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}
