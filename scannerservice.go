package main

import (
	"errors"

	"chorus/internal/library"
	"chorus/internal/scanner"
)

type ScannerService struct {
	scanner *scanner.Service
	store   *library.Store
}

func NewScannerService(scanService *scanner.Service, store *library.Store) *ScannerService {
	return &ScannerService{scanner: scanService, store: store}
}

// ScanFolder scans the given directory and replaces the in-scope part
// of the library with what it finds.
func (s *ScannerService) ScanFolder(path string) error {
	cleaned, err := normalizePath(path)
	if err != nil {
		return err
	}

	return s.scanner.Scan(cleaned)
}

// Rescan repeats the last scan against the library's current root.
func (s *ScannerService) Rescan() error {
	rootPath := s.store.FolderPath()
	if rootPath == "" {
		return errors.New("no library folder has been scanned yet")
	}

	return s.scanner.Scan(rootPath)
}

func (s *ScannerService) GetStatus() scanner.Status {
	return s.scanner.GetStatus()
}
