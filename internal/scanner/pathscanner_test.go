package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFileForTest(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectAudioFilesFindsNestedAudio(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	wanted := []string{
		filepath.Join(root, "song.mp3"),
		filepath.Join(root, "Artist", "Album", "01 - track.FLAC"),
		filepath.Join(root, "Artist", "Album", "CD2", "02 - track.ogg"),
	}
	for _, path := range wanted {
		writeFileForTest(t, path)
	}
	writeFileForTest(t, filepath.Join(root, "Artist", "Album", "cover.jpg"))
	writeFileForTest(t, filepath.Join(root, "notes.txt"))

	files := CollectAudioFiles(root, nil)

	sort.Strings(files)
	sort.Strings(wanted)
	if len(files) != len(wanted) {
		t.Fatalf("expected %d audio files, got %d: %v", len(wanted), len(files), files)
	}
	for i := range wanted {
		if files[i] != wanted[i] {
			t.Fatalf("expected %s, got %s", wanted[i], files[i])
		}
	}
}

func TestCollectAudioFilesSkipsHiddenAndDenyListed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFileForTest(t, filepath.Join(root, "keep.mp3"))
	writeFileForTest(t, filepath.Join(root, ".hidden.mp3"))
	writeFileForTest(t, filepath.Join(root, ".config", "buried.mp3"))
	writeFileForTest(t, filepath.Join(root, "node_modules", "pkg", "asset.mp3"))
	writeFileForTest(t, filepath.Join(root, "Temp", "scratch.mp3"))

	files := CollectAudioFiles(root, nil)

	if len(files) != 1 {
		t.Fatalf("expected only the root file, got %v", files)
	}
	if files[0] != filepath.Join(root, "keep.mp3") {
		t.Fatalf("unexpected file %s", files[0])
	}
}

func TestCollectAudioFilesEmitsFinalCount(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a.mp3", "b.m4a", "c.wav"} {
		writeFileForTest(t, filepath.Join(root, "Album", name))
	}

	var events []Progress
	files := CollectAudioFiles(root, func(progress Progress) {
		events = append(events, progress)
	})

	if len(events) == 0 {
		t.Fatal("expected at least the final progress event")
	}

	final := events[len(events)-1]
	if final.Status != StatusScanning {
		t.Fatalf("expected status %q, got %q", StatusScanning, final.Status)
	}
	if final.Completed != len(files) || final.Total != len(files) {
		t.Fatalf("expected final %d/%d, got %d/%d", len(files), len(files), final.Completed, final.Total)
	}

	previousTotal := 0
	for _, event := range events {
		if event.Total < previousTotal {
			t.Fatalf("running total went backwards: %d after %d", event.Total, previousTotal)
		}
		previousTotal = event.Total
	}
}

func TestCollectAudioFilesMissingRootReturnsNothing(t *testing.T) {
	t.Parallel()

	files := CollectAudioFiles(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}
