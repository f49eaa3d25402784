package scanner

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"chorus/internal/library"
	"chorus/internal/parallel"
)

func newScanServiceForTest(t *testing.T) (*Service, *library.Store) {
	t.Helper()

	store := library.NewStore(filepath.Join(t.TempDir(), "musicLibrary.json"))
	service := NewService(store, 2)
	t.Cleanup(service.StopWatching)
	return service, store
}

func tagsFromPathForTest(path string) (library.TagData, error) {
	base := filepath.Base(path)
	return library.TagData{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Artist: "Test Artist",
		Album:  "Test Album",
	}, nil
}

func waitForScan(t *testing.T, service *Service) Status {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		status := service.GetStatus()
		if !status.Running && status.LastRunAt != "" {
			return status
		}
		if time.Now().After(deadline) {
			t.Fatal("scan never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewServiceConcurrencyDefaultsToCPUDerivedBound(t *testing.T) {
	t.Parallel()

	store := library.NewStore(filepath.Join(t.TempDir(), "musicLibrary.json"))

	if got := NewService(store, 0).concurrency; got != parallel.DefaultConcurrency() {
		t.Fatalf("expected unset concurrency to use the CPU default %d, got %d", parallel.DefaultConcurrency(), got)
	}
	if got := NewService(store, -3).concurrency; got != parallel.DefaultConcurrency() {
		t.Fatalf("expected negative concurrency to use the CPU default, got %d", got)
	}
	if got := NewService(store, 5).concurrency; got != 5 {
		t.Fatalf("expected configured concurrency kept, got %d", got)
	}
	if got := NewService(store, 64).concurrency; got != parallel.Clamp(64) {
		t.Fatalf("expected oversized concurrency clamped to %d, got %d", parallel.Clamp(64), got)
	}
}

func TestScanIndexesFilesIntoStore(t *testing.T) {
	t.Parallel()

	service, store := newScanServiceForTest(t)
	service.readTags = tagsFromPathForTest

	root := t.TempDir()
	writeFileForTest(t, filepath.Join(root, "Test Artist", "Test Album", "01 one.mp3"))
	writeFileForTest(t, filepath.Join(root, "Test Artist", "Test Album", "02 two.mp3"))

	if err := service.Scan(root); err != nil {
		t.Fatalf("scan: %v", err)
	}

	status := waitForScan(t, service)
	if status.LastFilesSeen != 2 || status.LastIndexed != 2 || status.LastFailed != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}

	snapshot := store.Snapshot()
	if len(snapshot.Songs) != 2 {
		t.Fatalf("expected 2 songs in store, got %d", len(snapshot.Songs))
	}
	if store.FolderPath() != root {
		t.Fatalf("expected scanned root recorded, got %q", store.FolderPath())
	}
	if store.SelectedArtist() == "" {
		t.Fatal("expected an artist selected after scan")
	}
}

func TestScanIsolatesUnreadableFiles(t *testing.T) {
	t.Parallel()

	service, store := newScanServiceForTest(t)
	service.readTags = func(path string) (library.TagData, error) {
		if strings.Contains(path, "bad") {
			return library.TagData{}, errors.New("unreadable tags")
		}
		return tagsFromPathForTest(path)
	}

	root := t.TempDir()
	writeFileForTest(t, filepath.Join(root, "good.mp3"))
	writeFileForTest(t, filepath.Join(root, "bad.mp3"))

	if err := service.Scan(root); err != nil {
		t.Fatalf("scan: %v", err)
	}

	status := waitForScan(t, service)
	if status.LastIndexed != 1 || status.LastFailed != 1 {
		t.Fatalf("expected 1 indexed and 1 failed, got %+v", status)
	}
	if len(store.Snapshot().Songs) != 1 {
		t.Fatalf("expected the readable song indexed, got %d", len(store.Snapshot().Songs))
	}
}

func TestScanRejectsConcurrentRequests(t *testing.T) {
	t.Parallel()

	service, _ := newScanServiceForTest(t)

	release := make(chan struct{})
	service.readTags = func(path string) (library.TagData, error) {
		<-release
		return tagsFromPathForTest(path)
	}

	root := t.TempDir()
	writeFileForTest(t, filepath.Join(root, "slow.mp3"))

	if err := service.Scan(root); err != nil {
		t.Fatalf("scan: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !service.GetStatus().Running {
		if time.Now().After(deadline) {
			t.Fatal("scan never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := service.Scan(root); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}

	close(release)
	waitForScan(t, service)

	if err := service.Scan(root); err != nil {
		t.Fatalf("expected scan allowed after completion, got %v", err)
	}
	waitForScan(t, service)
}

func TestScanEmptyPathIsANoOp(t *testing.T) {
	t.Parallel()

	service, store := newScanServiceForTest(t)
	if err := service.Scan(""); err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if service.GetStatus().Running {
		t.Fatal("expected no scan started")
	}
	if len(store.Snapshot().Songs) != 0 {
		t.Fatal("expected store untouched")
	}
}

func TestScanProgressEndsComplete(t *testing.T) {
	t.Parallel()

	service, _ := newScanServiceForTest(t)
	service.readTags = tagsFromPathForTest

	var mu sync.Mutex
	var events []Progress
	service.SetEmitter(func(eventName string, payload any) {
		if eventName != EventProgress {
			return
		}
		mu.Lock()
		events = append(events, payload.(Progress))
		mu.Unlock()
	})

	root := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		writeFileForTest(t, filepath.Join(root, name))
	}

	if err := service.Scan(root); err != nil {
		t.Fatalf("scan: %v", err)
	}
	waitForScan(t, service)

	// The definitive completion event trails the status flip.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		done := len(events) > 0 && events[len(events)-1].Status == StatusComplete &&
			events[len(events)-1].Completed == 3
		mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("completion event never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if events[0].Status != StatusStarting {
		t.Fatalf("expected first event %q, got %q", StatusStarting, events[0].Status)
	}
	final := events[len(events)-1]
	if final.Completed != 3 || final.Total != 3 {
		t.Fatalf("expected final 3/3, got %d/%d", final.Completed, final.Total)
	}
}
