package library

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Disc subfolders ("CD1", "Disc 2", "Bonus") are not part of an album's
// identity: the album folder is their parent instead.
var diskFolderPattern = regexp.MustCompile(`(?i)^(?:(?:cd|disc|disk)\s*\d+|bonus(?:\s*\d+)?)$`)

// BuildIndex folds a list of (file path, tags) pairs into deduplicated
// Artist/Album/Song collections with content-derived identifiers.
// Ordering of the output follows input order; callers sort via Merge.
func BuildIndex(files []FileTags) AudioLibrary {
	songs := make([]Song, 0, len(files))
	albums := make([]Album, 0)
	artists := make([]Artist, 0)
	albumsByID := make(map[string]int)
	artistsByID := make(map[string]int)

	for _, file := range files {
		tags := file.Tags

		artistName := strings.TrimSpace(tags.Artist)
		if artistName == "" {
			artistName = UnknownArtistName
		}

		parentFolder := filepath.Dir(file.Path)
		albumName := strings.TrimSpace(tags.Album)
		if albumName == "" {
			albumName = albumNameFromFolder(parentFolder)
		}

		albumFolder := parentFolder
		if diskFolderPattern.MatchString(filepath.Base(parentFolder)) {
			albumFolder = filepath.Dir(parentFolder)
		}

		artistID := ArtistIDFor(artistName)
		albumID := AlbumIDFor(albumFolder, albumName)

		artistIndex, ok := artistsByID[artistID]
		if !ok {
			artistIndex = len(artists)
			artistsByID[artistID] = artistIndex
			artists = append(artists, Artist{ID: artistID, Name: artistName, Albums: []string{}})
		}

		if _, ok := albumsByID[albumID]; !ok {
			albumsByID[albumID] = len(albums)
			albums = append(albums, Album{
				ID:       albumID,
				ArtistID: artistID,
				Name:     albumName,
				Year:     tags.Year,
			})
		}

		appendAlbumID(&artists[artistIndex], albumID)

		diskNo, diskOf := tags.DiskNo, tags.DiskOf
		if diskNo <= 0 {
			diskNo = 1
		}
		if diskOf <= 0 {
			diskOf = 1
		}

		songs = append(songs, Song{
			Title:       tags.Title,
			Artist:      artistName,
			ArtistID:    artistID,
			Album:       albumName,
			AlbumID:     albumID,
			Year:        tags.Year,
			TrackNumber: tags.TrackNumber,
			Disk:        Disk{No: diskNo, Of: diskOf},
			FilePath:    file.Path,
		})
	}

	return AudioLibrary{Songs: songs, Albums: albums, Artists: artists}
}

// albumNameFromFolder derives an album name from the song's folder when
// tags carry none. The grandparent folder is joined in when available
// so that "Artist/Album" layouts produce a readable name.
func albumNameFromFolder(parentFolder string) string {
	parts := splitPath(parentFolder)
	parentName := ""
	if len(parts) > 0 {
		parentName = parts[len(parts)-1]
	}
	if parentName == "" {
		return UnknownAlbumName
	}

	grandParentName := ""
	if len(parts) > 1 {
		grandParentName = parts[len(parts)-2]
	}
	if grandParentName != "" {
		return grandParentName + " - " + parentName
	}
	return parentName
}

func appendAlbumID(artist *Artist, albumID string) {
	for _, existing := range artist.Albums {
		if existing == albumID {
			return
		}
	}
	artist.Albums = append(artist.Albums, albumID)
}

// Merge folds a fresh scan of scannedRoot into a previous library
// snapshot. Songs outside the rescanned root are preserved verbatim
// along with their artists and albums; songs inside it are fully
// replaced by the fresh scan. Returns the merged library and the id of
// the artist that should be selected afterwards.
func Merge(previous AudioLibrary, fresh AudioLibrary, scannedRoot string, selectedArtistID string) (AudioLibrary, string) {
	songs := make([]Song, 0, len(fresh.Songs))
	songs = append(songs, fresh.Songs...)

	artistsByID := make(map[string]*Artist, len(fresh.Artists))
	artistOrder := make([]string, 0, len(fresh.Artists))
	for _, artist := range fresh.Artists {
		copied := artist
		copied.Albums = append([]string{}, artist.Albums...)
		artistsByID[artist.ID] = &copied
		artistOrder = append(artistOrder, artist.ID)
	}

	albumsByID := make(map[string]Album, len(fresh.Albums))
	albumOrder := make([]string, 0, len(fresh.Albums))
	for _, album := range fresh.Albums {
		albumsByID[album.ID] = album
		albumOrder = append(albumOrder, album.ID)
	}

	prevArtists := make(map[string]Artist, len(previous.Artists))
	for _, artist := range previous.Artists {
		prevArtists[artist.ID] = artist
	}
	prevAlbums := make(map[string]Album, len(previous.Albums))
	for _, album := range previous.Albums {
		prevAlbums[album.ID] = album
	}

	for _, song := range previous.Songs {
		if strings.HasPrefix(song.FilePath, scannedRoot) {
			continue
		}
		songs = append(songs, song)

		if merged, ok := artistsByID[song.ArtistID]; ok {
			appendAlbumID(merged, song.AlbumID)
		} else if prev, ok := prevArtists[song.ArtistID]; ok {
			copied := prev
			copied.Albums = append([]string{}, prev.Albums...)
			artistsByID[song.ArtistID] = &copied
			artistOrder = append(artistOrder, song.ArtistID)
		}

		if _, ok := albumsByID[song.AlbumID]; !ok {
			if prev, ok := prevAlbums[song.AlbumID]; ok {
				albumsByID[song.AlbumID] = prev
				albumOrder = append(albumOrder, song.AlbumID)
			}
		}
	}

	artists := make([]Artist, 0, len(artistOrder))
	for _, id := range artistOrder {
		artists = append(artists, *artistsByID[id])
	}
	albums := make([]Album, 0, len(albumOrder))
	for _, id := range albumOrder {
		albums = append(albums, albumsByID[id])
	}

	SortArtistsByName(artists)
	SortAlbumsByYear(albums)

	// Previously-unidentified files may now resolve to real metadata:
	// drop album ids that no longer exist from the Unknown Artist.
	for i := range artists {
		if artists[i].Name != UnknownArtistName {
			continue
		}
		kept := artists[i].Albums[:0]
		for _, albumID := range artists[i].Albums {
			if _, ok := albumsByID[albumID]; ok {
				kept = append(kept, albumID)
			}
		}
		artists[i].Albums = kept
	}

	selected := ""
	if selectedArtistID != "" {
		if _, ok := artistsByID[selectedArtistID]; ok {
			selected = selectedArtistID
		}
	}
	if selected == "" && len(artists) > 0 {
		selected = artists[0].ID
	}

	return AudioLibrary{Songs: songs, Albums: albums, Artists: artists}, selected
}

func SortArtistsByName(artists []Artist) {
	sort.SliceStable(artists, func(i, j int) bool {
		return strings.ToLower(artists[i].Name) < strings.ToLower(artists[j].Name)
	})
}

func SortAlbumsByYear(albums []Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].Year < albums[j].Year
	})
}

// SortSongsByDiskAndTrack orders songs for display: disk number first
// when any song belongs to a multi-disc set, then track number.
func SortSongsByDiskAndTrack(songs []Song) {
	sort.SliceStable(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		if a.Disk.Of > 1 || b.Disk.Of > 1 {
			if a.Disk.No != b.Disk.No {
				return a.Disk.No < b.Disk.No
			}
		}
		return a.TrackNumber < b.TrackNumber
	})
}

// splitPath splits on both separators so that paths recorded on another
// platform keep working.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
