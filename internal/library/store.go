package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const EventChanged = "library:changed"

type Emitter func(eventName string, payload any)

// State is the library snapshot pushed to the frontend whenever the
// store changes.
type State struct {
	Library        AudioLibrary `json:"library"`
	FolderPath     string       `json:"folderPath"`
	SelectedArtist string       `json:"selectedArtist"`
}

// Store owns the in-memory library and its durable JSON snapshot. It is
// the single writer of the snapshot file: every mutating operation goes
// through a typed update method here, never through a generic merge.
type Store struct {
	mu             sync.Mutex
	path           string
	library        AudioLibrary
	folderPath     string
	selectedArtist string
	emit           Emitter
}

func NewStore(snapshotPath string) *Store {
	return &Store{path: snapshotPath, library: EmptyLibrary()}
}

func (s *Store) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// Load reads the persisted snapshot. A missing or malformed file means
// "no saved library" and reports false without error.
func (s *Store) Load() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read library snapshot: %w", err)
	}

	var lib AudioLibrary
	if err := json.Unmarshal(data, &lib); err != nil {
		return false, nil
	}
	if !lib.Valid() {
		return false, nil
	}
	if lib.Songs == nil {
		lib.Songs = []Song{}
	}
	if lib.Albums == nil {
		lib.Albums = []Album{}
	}
	if lib.Artists == nil {
		lib.Artists = []Artist{}
	}

	s.mu.Lock()
	s.library = lib
	if len(lib.Artists) > 0 {
		s.selectedArtist = lib.Artists[0].ID
	} else {
		s.selectedArtist = ""
	}
	s.mu.Unlock()

	s.emitChanged()
	return true, nil
}

// Save rewrites the snapshot wholesale: marshal, write a sibling temp
// file, rename over the target.
func (s *Store) Save() error {
	s.mu.Lock()
	lib := s.library
	s.mu.Unlock()

	data, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("marshal library snapshot: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write library snapshot: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("replace library snapshot: %w", err)
	}

	return nil
}

// Snapshot returns a copy of the current library.
func (s *Store) Snapshot() AudioLibrary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLibrary(s.library)
}

func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Library:        copyLibrary(s.library),
		FolderPath:     s.folderPath,
		SelectedArtist: s.selectedArtist,
	}
}

// ApplyScan merges a fresh scan of scannedRoot into the library,
// persists the result, and returns the new state.
func (s *Store) ApplyScan(fresh AudioLibrary, scannedRoot string, selectedArtistID string) (State, error) {
	s.mu.Lock()
	merged, selected := Merge(s.library, fresh, scannedRoot, selectedArtistID)
	s.library = merged
	s.folderPath = scannedRoot
	s.selectedArtist = selected
	s.mu.Unlock()

	s.emitChanged()
	if err := s.Save(); err != nil {
		return s.GetState(), err
	}
	return s.GetState(), nil
}

// SetAlbumCover records the extracted cover extension for an album.
// The mutation is monotonic: once set, a cover extension stays until
// the library is fully rescanned. Reports whether anything changed.
func (s *Store) SetAlbumCover(albumID string, extension string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.library.Albums {
		if s.library.Albums[i].ID != albumID {
			continue
		}
		if s.library.Albums[i].CoverExtension != "" {
			return false
		}
		s.library.Albums[i].CoverExtension = extension
		return true
	}
	return false
}

func (s *Store) SelectArtist(artistID string) {
	s.mu.Lock()
	s.selectedArtist = artistID
	s.mu.Unlock()
	s.emitChanged()
}

func (s *Store) SelectedArtist() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedArtist
}

func (s *Store) FolderPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folderPath
}

// Clear empties the library and persists the empty snapshot.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.library = EmptyLibrary()
	s.folderPath = ""
	s.selectedArtist = ""
	s.mu.Unlock()

	s.emitChanged()
	return s.Save()
}

func (s *Store) emitChanged() {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventChanged, s.GetState())
	}
}

func copyLibrary(lib AudioLibrary) AudioLibrary {
	copied := AudioLibrary{
		Songs:   append([]Song{}, lib.Songs...),
		Albums:  append([]Album{}, lib.Albums...),
		Artists: make([]Artist, 0, len(lib.Artists)),
	}
	for _, artist := range lib.Artists {
		artist.Albums = append([]string{}, artist.Albums...)
		copied.Artists = append(copied.Artists, artist)
	}
	return copied
}
