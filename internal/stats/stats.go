// Package stats records played tracks and answers simple listening
// history questions on top of the sqlite database.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chorus/internal/library"
)

const topTrackLimit = 10

type TrackCount struct {
	FilePath string `json:"filePath"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Plays    int    `json:"plays"`
}

type Overview struct {
	TotalPlays   int          `json:"totalPlays"`
	UniqueTracks int          `json:"uniqueTracks"`
	TopTracks    []TrackCount `json:"topTracks"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// RecordPlay stores one playback start. Failures are reported but must
// not interrupt playback, so callers typically just log the error.
func (s *Service) RecordPlay(ctx context.Context, song library.Song) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plays(file_path, title, artist, album, played_at)
		VALUES (?, ?, ?, ?, ?)
	`, song.FilePath, song.Title, song.Artist, song.Album,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var overview Overview

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1), COUNT(DISTINCT file_path) FROM plays
	`).Scan(&overview.TotalPlays, &overview.UniqueTracks); err != nil {
		return Overview{}, fmt.Errorf("count plays: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, title, artist, album, COUNT(1) AS plays
		FROM plays
		GROUP BY file_path
		ORDER BY plays DESC, MAX(played_at) DESC
		LIMIT ?
	`, topTrackLimit)
	if err != nil {
		return Overview{}, fmt.Errorf("query top tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track TrackCount
		if err := rows.Scan(&track.FilePath, &track.Title, &track.Artist,
			&track.Album, &track.Plays); err != nil {
			return Overview{}, fmt.Errorf("scan top track: %w", err)
		}
		overview.TopTracks = append(overview.TopTracks, track)
	}
	if err := rows.Err(); err != nil {
		return Overview{}, fmt.Errorf("iterate top tracks: %w", err)
	}

	return overview, nil
}
