package library

import (
	"reflect"
	"testing"
)

func TestInferFoldersFindsArtistFolder(t *testing.T) {
	t.Parallel()

	artist := Artist{ID: ArtistIDFor("Queen"), Name: "Queen"}
	songs := []Song{
		{FilePath: "/home/user/music/Queen/Night/01.mp3"},
		{FilePath: "/home/user/music/Queen/Day/01.mp3"},
	}

	inference := InferFolders(artist, songs)

	if inference.ArtistFolder != "/home/user/music/Queen" {
		t.Fatalf("expected artist folder found, got %q", inference.ArtistFolder)
	}

	want := []string{
		"/home/user/music/Queen/Day",
		"/home/user/music/Queen/Night",
		"/home/user/music/Queen",
		"/home/user/music",
		"/home/user",
	}
	if !reflect.DeepEqual(inference.ParentFolders, want) {
		t.Fatalf("expected %v, got %v", want, inference.ParentFolders)
	}
}

func TestInferFoldersMatchesArtistCaseInsensitively(t *testing.T) {
	t.Parallel()

	artist := Artist{ID: ArtistIDFor("queen"), Name: "queen"}
	songs := []Song{
		{FilePath: `C:\Music\Queen\Hits\01.mp3`},
	}

	inference := InferFolders(artist, songs)

	if inference.ArtistFolder != `C:\Music\Queen` {
		t.Fatalf("expected windows artist folder, got %q", inference.ArtistFolder)
	}

	want := []string{
		`C:\Music\Queen\Hits`,
		`C:\Music\Queen`,
		`C:\Music`,
		`C:`,
	}
	if !reflect.DeepEqual(inference.ParentFolders, want) {
		t.Fatalf("expected %v, got %v", want, inference.ParentFolders)
	}
}

func TestInferFoldersWithoutArtistFolderKeepsDeepAncestors(t *testing.T) {
	t.Parallel()

	artist := Artist{ID: ArtistIDFor("Various"), Name: "Various"}
	songs := []Song{
		{FilePath: "/data/library/compilations/OST3/01.mp3"},
		{FilePath: "/data/library/compilations/OST2/01.mp3"},
	}

	inference := InferFolders(artist, songs)

	if inference.ArtistFolder != "" {
		t.Fatalf("expected no artist folder, got %q", inference.ArtistFolder)
	}

	want := []string{
		"/data/library/compilations/OST2",
		"/data/library/compilations/OST3",
		"/data/library/compilations",
		"/data/library",
		"/data",
	}
	if !reflect.DeepEqual(inference.ParentFolders, want) {
		t.Fatalf("expected %v, got %v", want, inference.ParentFolders)
	}
}

func TestInferFoldersNoSongs(t *testing.T) {
	t.Parallel()

	inference := InferFolders(Artist{Name: "Queen"}, nil)
	if inference.ArtistFolder != "" {
		t.Fatalf("expected empty artist folder, got %q", inference.ArtistFolder)
	}
	if len(inference.ParentFolders) != 0 {
		t.Fatalf("expected no parent folders, got %v", inference.ParentFolders)
	}
}
