package library

import (
	"os"
	"path/filepath"
	"testing"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "musicLibrary.json"))
}

func libraryForTest() AudioLibrary {
	return BuildIndex([]FileTags{
		{Path: "/music/Queen/Night/01.mp3", Tags: TagData{Title: "One", Artist: "Queen", Album: "A Night at the Opera", Year: 1975, TrackNumber: 1}},
		{Path: "/music/Abba/Arrival/01.mp3", Tags: TagData{Title: "Two", Artist: "Abba", Album: "Arrival", Year: 1976, TrackNumber: 1}},
	})
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)
	if _, err := store.ApplyScan(libraryForTest(), "/music", ""); err != nil {
		t.Fatalf("apply scan: %v", err)
	}

	reloaded := NewStore(store.path)
	loaded, err := reloaded.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatal("expected snapshot to load")
	}

	snapshot := reloaded.Snapshot()
	if len(snapshot.Songs) != 2 || len(snapshot.Artists) != 2 {
		t.Fatalf("unexpected reloaded library: %d songs, %d artists", len(snapshot.Songs), len(snapshot.Artists))
	}
	if reloaded.SelectedArtist() != snapshot.Artists[0].ID {
		t.Fatalf("expected first artist selected after load")
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded {
		t.Fatal("expected no snapshot for a fresh store")
	}
}

func TestStoreLoadMalformedFileIsNotAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "musicLibrary.json")
	if err := os.WriteFile(path, []byte(`{"songs": "nope"`), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	store := NewStore(path)
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded {
		t.Fatal("expected malformed snapshot to be treated as absent")
	}
	if len(store.Snapshot().Songs) != 0 {
		t.Fatal("expected empty library after malformed load")
	}
}

func TestStoreApplyScanEmitsAndPersists(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)

	var events []State
	store.SetEmitter(func(eventName string, payload any) {
		if eventName != EventChanged {
			t.Fatalf("unexpected event %q", eventName)
		}
		events = append(events, payload.(State))
	})

	state, err := store.ApplyScan(libraryForTest(), "/music", "")
	if err != nil {
		t.Fatalf("apply scan: %v", err)
	}

	if state.FolderPath != "/music" {
		t.Fatalf("expected folder path recorded, got %q", state.FolderPath)
	}
	if len(events) == 0 {
		t.Fatal("expected a change event")
	}
	if _, err := os.Stat(store.path); err != nil {
		t.Fatalf("expected snapshot written: %v", err)
	}
}

func TestStoreSetAlbumCoverIsMonotonic(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)
	if _, err := store.ApplyScan(libraryForTest(), "/music", ""); err != nil {
		t.Fatalf("apply scan: %v", err)
	}
	albumID := store.Snapshot().Albums[0].ID

	if !store.SetAlbumCover(albumID, "jpg") {
		t.Fatal("expected first cover assignment to apply")
	}
	if store.SetAlbumCover(albumID, "png") {
		t.Fatal("expected second cover assignment to be ignored")
	}

	album, _ := store.Snapshot().AlbumByID(albumID)
	if album.CoverExtension != "jpg" {
		t.Fatalf("expected jpg kept, got %q", album.CoverExtension)
	}

	if store.SetAlbumCover("missing", "jpg") {
		t.Fatal("expected unknown album to report no change")
	}
}

func TestStoreClearPersistsEmptyLibrary(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)
	if _, err := store.ApplyScan(libraryForTest(), "/music", ""); err != nil {
		t.Fatalf("apply scan: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if store.FolderPath() != "" || store.SelectedArtist() != "" {
		t.Fatal("expected folder path and selection reset")
	}

	reloaded := NewStore(store.path)
	loaded, err := reloaded.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatal("expected empty snapshot to still load")
	}
	if len(reloaded.Snapshot().Songs) != 0 {
		t.Fatal("expected no songs after clear")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	store := newStoreForTest(t)
	if _, err := store.ApplyScan(libraryForTest(), "/music", ""); err != nil {
		t.Fatalf("apply scan: %v", err)
	}

	snapshot := store.Snapshot()
	snapshot.Albums[0].CoverExtension = "tampered"
	snapshot.Artists[0].Albums = append(snapshot.Artists[0].Albums, "bogus")

	fresh := store.Snapshot()
	if fresh.Albums[0].CoverExtension == "tampered" {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}
