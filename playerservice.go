package main

import (
	"fmt"

	"chorus/internal/library"
	"chorus/internal/player"
)

// restartThresholdMS is how far into a track Previous restarts it
// instead of moving to the preceding one.
const restartThresholdMS = 3000

type PlayerService struct {
	player *player.Sequencer
	store  *library.Store
}

func NewPlayerService(sequencer *player.Sequencer, store *library.Store) *PlayerService {
	return &PlayerService{player: sequencer, store: store}
}

func (s *PlayerService) GetState() player.State {
	return s.player.GetState()
}

// PlayAlbum loads the album's songs as the playlist and starts playback
// at the given index.
func (s *PlayerService) PlayAlbum(albumID string, index int) (player.State, error) {
	songs := s.store.Snapshot().AlbumSongs(albumID)
	if len(songs) == 0 {
		return s.player.GetState(), fmt.Errorf("album %s has no songs", albumID)
	}

	s.player.ReplacePlaylist(songs)
	return s.player.PlayAt(index)
}

// PlayArtist loads every song by the artist, album by album, and starts
// playback at the given index.
func (s *PlayerService) PlayArtist(artistID string, index int) (player.State, error) {
	songs := s.store.Snapshot().ArtistSongs(artistID)
	if len(songs) == 0 {
		return s.player.GetState(), fmt.Errorf("artist %s has no songs", artistID)
	}

	s.player.ReplacePlaylist(songs)
	return s.player.PlayAt(index)
}

func (s *PlayerService) PlayAt(index int) (player.State, error) {
	return s.player.PlayAt(index)
}

func (s *PlayerService) TogglePause() (player.State, error) {
	return s.player.TogglePause()
}

func (s *PlayerService) Next() (player.State, error) {
	return s.player.Next()
}

// Previous restarts the current track when more than a few seconds in,
// and otherwise moves to the preceding playlist entry.
func (s *PlayerService) Previous() (player.State, error) {
	state := s.player.GetState()
	if state.Status != player.StatusStopped && state.PositionMS > restartThresholdMS {
		return s.player.PlayAt(state.Index)
	}

	return s.player.Prev()
}

func (s *PlayerService) Stop() player.State {
	return s.player.Stop()
}

func (s *PlayerService) SeekPercent(percent float64) player.State {
	return s.player.SeekPercent(percent)
}

func (s *PlayerService) SetVolume(volume float64) player.State {
	return s.player.SetVolume(volume)
}
