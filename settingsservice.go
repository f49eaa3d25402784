package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"chorus/internal/config"
	"chorus/internal/scanner"
)

type SettingsService struct {
	mu           sync.Mutex
	settingsPath string
	settings     config.Settings
	scanner      *scanner.Service
}

func NewSettingsService(settingsPath string, settings config.Settings, scanService *scanner.Service) *SettingsService {
	return &SettingsService{
		settingsPath: settingsPath,
		settings:     settings,
		scanner:      scanService,
	}
}

func (s *SettingsService) GetSettings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetLibraryRoot persists the new root and kicks off a scan of it.
func (s *SettingsService) SetLibraryRoot(path string) (config.Settings, error) {
	cleaned, err := normalizePath(path)
	if err != nil {
		return config.Settings{}, err
	}

	s.mu.Lock()
	s.settings.LibraryRoot = cleaned
	settings := s.settings
	s.mu.Unlock()

	if err := config.SaveSettings(s.settingsPath, settings); err != nil {
		return config.Settings{}, err
	}

	if err := s.scanner.Scan(cleaned); err != nil && !errors.Is(err, scanner.ErrScanInProgress) {
		return settings, err
	}

	return settings, nil
}

// SetVolume remembers the volume across launches. The live volume
// change goes through the player service.
func (s *SettingsService) SetVolume(volume float64) (config.Settings, error) {
	if volume < 0 || volume > 1 {
		return config.Settings{}, fmt.Errorf("volume %v is out of range", volume)
	}

	s.mu.Lock()
	s.settings.Volume = volume
	settings := s.settings
	s.mu.Unlock()

	if err := config.SaveSettings(s.settingsPath, settings); err != nil {
		return config.Settings{}, err
	}

	return settings, nil
}

func normalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}

	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	return filepath.Clean(absPath), nil
}
