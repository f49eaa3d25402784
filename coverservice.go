package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chorus/internal/coverart"
	"chorus/internal/library"
)

// CoverService serves extracted cover images over the asset server so
// the frontend can reference them by album id.
type CoverService struct {
	store         *library.Store
	coverCacheDir string
}

func NewCoverService(store *library.Store, coverCacheDir string) *CoverService {
	return &CoverService{store: store, coverCacheDir: strings.TrimSpace(coverCacheDir)}
}

func (s *CoverService) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	albumID := strings.TrimSpace(req.URL.Query().Get("album"))
	if albumID == "" {
		http.Error(rw, "missing album id", http.StatusBadRequest)
		return
	}

	album, ok := s.store.Snapshot().AlbumByID(albumID)
	if !ok || album.CoverExtension == "" {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	variant := coverart.NormalizeVariant(req.URL.Query().Get("variant"))

	coverPath := coverart.CoverPath(s.coverCacheDir, album.ID, album.CoverExtension)
	if variant != coverart.VariantOriginal {
		variantPath := coverart.VariantPath(s.coverCacheDir, album.ID, variant)
		if info, err := os.Stat(variantPath); err == nil && !info.IsDir() {
			coverPath = variantPath
		}
	}

	resolvedPath, err := s.containCachePath(coverPath)
	if err != nil {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	if info, err := os.Stat(resolvedPath); err != nil || info.IsDir() {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(rw, req, resolvedPath)
}

// containCachePath rejects any path that escapes the cover cache dir.
func (s *CoverService) containCachePath(requestedPath string) (string, error) {
	if s.coverCacheDir == "" {
		return "", errors.New("cover cache dir is not configured")
	}

	cacheDirAbs, err := filepath.Abs(filepath.Clean(s.coverCacheDir))
	if err != nil {
		return "", err
	}

	resolvedPath, err := filepath.Abs(filepath.Clean(requestedPath))
	if err != nil {
		return "", err
	}

	relativeToCache, err := filepath.Rel(cacheDirAbs, resolvedPath)
	if err != nil {
		return "", err
	}

	if relativeToCache == ".." ||
		strings.HasPrefix(relativeToCache, ".."+string(os.PathSeparator)) ||
		filepath.IsAbs(relativeToCache) {
		return "", errors.New("requested path is outside cover cache dir")
	}

	return resolvedPath, nil
}
