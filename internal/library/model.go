package library

import (
	"crypto/md5"
	"encoding/hex"
)

const UnknownArtistName = "Unknown Artist"

const UnknownAlbumName = "Unknown Album"

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Album IDs, insertion-ordered, no duplicates.
	Albums []string `json:"albums"`
}

type Album struct {
	ID       string `json:"id"`
	ArtistID string `json:"artistId"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	// File extension of the extracted cover image, empty until a cover
	// has been pulled out of one of the album's songs.
	CoverExtension string `json:"coverExtension"`
}

type Disk struct {
	No int `json:"no"`
	Of int `json:"of"`
}

// Song is an immutable value record keyed by its file path. A rescan of
// a path replaces the prior record for that path entirely.
type Song struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ArtistID    string `json:"artistId"`
	Album       string `json:"album"`
	AlbumID     string `json:"albumId"`
	Year        int    `json:"year"`
	TrackNumber int    `json:"trackNumber"`
	Disk        Disk   `json:"disk"`
	FilePath    string `json:"filePath"`
}

type AudioLibrary struct {
	Songs   []Song   `json:"songs"`
	Albums  []Album  `json:"albums"`
	Artists []Artist `json:"artists"`
}

func EmptyLibrary() AudioLibrary {
	return AudioLibrary{
		Songs:   []Song{},
		Albums:  []Album{},
		Artists: []Artist{},
	}
}

// TagData is the structured result of the metadata extraction backend
// for one file. Zero values stand for "missing" and are resolved by the
// indexer's fallback rules.
type TagData struct {
	Title       string
	Artist      string
	Album       string
	Year        int
	TrackNumber int
	DiskNo      int
	DiskOf      int
}

// FileTags pairs a scanned file path with its extracted tags.
type FileTags struct {
	Path string
	Tags TagData
}

// HashID returns the content-derived identifier for a semantically
// stable string: stable across rescans, independent of scan order.
func HashID(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

func ArtistIDFor(artistName string) string {
	return HashID(artistName)
}

// AlbumIDFor hashes the album folder together with the album name so
// that two physical copies of a same-named album stay distinct while
// disc subfolders of one album collapse into a single id.
func AlbumIDFor(albumFolder string, albumName string) string {
	return HashID(albumFolder + ":" + albumName)
}

// Valid reports whether a decoded library has the minimally required
// shape. Snapshots that fail this check are treated as absent, not as
// errors.
func (l AudioLibrary) Valid() bool {
	for _, artist := range l.Artists {
		if artist.ID == "" || artist.Name == "" || artist.Albums == nil {
			return false
		}
	}
	for _, album := range l.Albums {
		if album.ID == "" || album.ArtistID == "" {
			return false
		}
	}
	return true
}
