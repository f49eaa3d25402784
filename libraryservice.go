package main

import (
	"fmt"

	"chorus/internal/covers"
	"chorus/internal/library"
)

type LibraryService struct {
	store  *library.Store
	covers *covers.Coordinator
}

func NewLibraryService(store *library.Store, coverCoordinator *covers.Coordinator) *LibraryService {
	return &LibraryService{store: store, covers: coverCoordinator}
}

func (s *LibraryService) GetState() library.State {
	return s.store.GetState()
}

func (s *LibraryService) GetArtists(filter string) []library.Artist {
	return s.store.Snapshot().FilterArtists(library.CompileFilter(filter))
}

// GetAlbums returns albums matching the filter and queues cover
// extraction for any of them that still lack one.
func (s *LibraryService) GetAlbums(filter string) []library.Album {
	albums := s.store.Snapshot().FilterAlbums(library.CompileFilter(filter))
	s.covers.RequestCovers(albums)
	return albums
}

func (s *LibraryService) GetArtistAlbums(artistID string) []library.Album {
	return s.store.Snapshot().ArtistAlbums(artistID)
}

func (s *LibraryService) GetAlbumSongs(albumID string) []library.Song {
	return s.store.Snapshot().AlbumSongs(albumID)
}

func (s *LibraryService) GetArtistSongs(artistID string) []library.Song {
	return s.store.Snapshot().ArtistSongs(artistID)
}

// SelectArtist marks an artist as the active selection and queues cover
// extraction for their albums so the detail view fills in quickly.
func (s *LibraryService) SelectArtist(artistID string) {
	s.store.SelectArtist(artistID)
	s.covers.RequestForArtist(artistID)
}

func (s *LibraryService) InferFolders(artistID string) (library.FolderInference, error) {
	snapshot := s.store.Snapshot()
	artist, ok := snapshot.ArtistByID(artistID)
	if !ok {
		return library.FolderInference{}, fmt.Errorf("artist %s does not exist", artistID)
	}

	return library.InferFolders(artist, snapshot.ArtistSongs(artistID)), nil
}

func (s *LibraryService) ClearLibrary() error {
	return s.store.Clear()
}
