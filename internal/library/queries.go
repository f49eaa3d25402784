package library

import (
	"regexp"
	"strings"
)

// Character ranges folded into searches so accented variants match.
var charRanges = map[rune]string{
	'a': "[aáäâàå]",
	'e': "[eéëêè]",
	'i': "[iíïîì]",
	'o': "[oöô]",
	'u': "[uüû]",
	'y': "[yýÝ]",
	'l': "[lł]",
}

// CompileFilter builds the case-insensitive, accent-folding matcher for
// a user filter string. Filters shorter than two characters are
// ignored and yield nil.
func CompileFilter(filter string) *regexp.Regexp {
	if len(filter) < 2 {
		return nil
	}

	var pattern strings.Builder
	for _, char := range filter {
		if rng, ok := charRanges[char]; ok {
			pattern.WriteString(rng)
		} else {
			pattern.WriteString(regexp.QuoteMeta(string(char)))
		}
	}

	compiled, err := regexp.Compile("(?i)" + pattern.String())
	if err != nil {
		return nil
	}
	return compiled
}

// FilterArtists returns the artists whose name matches the filter.
func (l AudioLibrary) FilterArtists(filter *regexp.Regexp) []Artist {
	if filter == nil {
		return l.Artists
	}
	matched := make([]Artist, 0)
	for _, artist := range l.Artists {
		if filter.MatchString(artist.Name) {
			matched = append(matched, artist)
		}
	}
	return matched
}

// FilterAlbums returns the albums whose name matches the filter.
func (l AudioLibrary) FilterAlbums(filter *regexp.Regexp) []Album {
	if filter == nil {
		return l.Albums
	}
	matched := make([]Album, 0)
	for _, album := range l.Albums {
		if filter.MatchString(album.Name) {
			matched = append(matched, album)
		}
	}
	return matched
}

func (l AudioLibrary) ArtistByID(artistID string) (Artist, bool) {
	for _, artist := range l.Artists {
		if artist.ID == artistID {
			return artist, true
		}
	}
	return Artist{}, false
}

func (l AudioLibrary) AlbumByID(albumID string) (Album, bool) {
	for _, album := range l.Albums {
		if album.ID == albumID {
			return album, true
		}
	}
	return Album{}, false
}

func (l AudioLibrary) SongByPath(filePath string) (Song, bool) {
	for _, song := range l.Songs {
		if song.FilePath == filePath {
			return song, true
		}
	}
	return Song{}, false
}

// AlbumSongs returns the album's songs sorted by disk and track.
func (l AudioLibrary) AlbumSongs(albumID string) []Song {
	songs := make([]Song, 0)
	for _, song := range l.Songs {
		if song.AlbumID == albumID {
			songs = append(songs, song)
		}
	}
	SortSongsByDiskAndTrack(songs)
	return songs
}

// ArtistAlbums returns the artist's albums in album-list order,
// dropping ids that no longer resolve.
func (l AudioLibrary) ArtistAlbums(artistID string) []Album {
	artist, ok := l.ArtistByID(artistID)
	if !ok {
		return []Album{}
	}
	albums := make([]Album, 0, len(artist.Albums))
	for _, albumID := range artist.Albums {
		if album, ok := l.AlbumByID(albumID); ok {
			albums = append(albums, album)
		}
	}
	return albums
}

// ArtistSongs returns the artist's songs grouped by album, albums in
// year order, songs in disk-and-track order within each album.
func (l AudioLibrary) ArtistSongs(artistID string) []Song {
	albums := l.ArtistAlbums(artistID)
	SortAlbumsByYear(albums)

	songs := make([]Song, 0)
	for _, album := range albums {
		songs = append(songs, l.AlbumSongs(album.ID)...)
	}
	return songs
}

// AlbumsWithoutCover filters the given albums down to those that still
// have no extracted cover.
func AlbumsWithoutCover(albums []Album) []Album {
	missing := make([]Album, 0)
	for _, album := range albums {
		if album.CoverExtension == "" {
			missing = append(missing, album)
		}
	}
	return missing
}

// FirstSongPerAlbum picks one representative song for each album id,
// for cover extraction. Albums with no songs are returned separately;
// that situation is an anomaly the caller logs.
func (l AudioLibrary) FirstSongPerAlbum(albums []Album) (map[string]Song, []Album) {
	representatives := make(map[string]Song, len(albums))
	missing := make([]Album, 0)

	byAlbum := make(map[string]Song, len(albums))
	for _, song := range l.Songs {
		if _, ok := byAlbum[song.AlbumID]; !ok {
			byAlbum[song.AlbumID] = song
		}
	}

	for _, album := range albums {
		if song, ok := byAlbum[album.ID]; ok {
			representatives[album.ID] = song
		} else {
			missing = append(missing, album)
		}
	}

	return representatives, missing
}
