package library

import (
	"sort"
	"strings"
)

// FolderInference is the result of locating an artist's folder from the
// paths of its songs: the folder itself (when one matches the artist
// name) plus a depth-ranked list of candidate folders a user can pick
// for a narrower rescan.
type FolderInference struct {
	ArtistFolder  string   `json:"artistFolder"`
	ParentFolders []string `json:"parentFolders"`
}

// InferFolders analyzes the songs' file paths for the most likely
// artist folder. Each path keeps its own separator; libraries scanned
// on one platform stay inferable on another.
func InferFolders(artist Artist, songs []Song) FolderInference {
	if len(songs) == 0 {
		return FolderInference{ArtistFolder: "", ParentFolders: []string{}}
	}

	// Every ancestor directory of every song, all levels up to root.
	ancestors := make(map[string]struct{})
	for _, song := range songs {
		separator := "/"
		if strings.Contains(song.FilePath, "\\") {
			separator = "\\"
		}
		parts := splitPathKeepEmpty(song.FilePath)
		for i := len(parts) - 1; i > 0; i-- {
			ancestors[strings.Join(parts[:i], separator)] = struct{}{}
		}
	}

	artistName := strings.ToLower(artist.Name)
	artistFolder := ""
	for folder := range ancestors {
		parts := splitPathKeepEmpty(folder)
		if strings.ToLower(parts[len(parts)-1]) == artistName {
			artistFolder = folder
			break
		}
	}

	filtered := make(map[string]struct{})

	if artistFolder != "" {
		artistParts := splitPathKeepEmpty(artistFolder)
		separator := "/"
		if strings.Contains(artistFolder, "\\") {
			separator = "\\"
		}

		// Album folders sit one level below the artist folder.
		for folder := range ancestors {
			if len(splitPathKeepEmpty(folder)) == len(artistParts)+1 {
				filtered[folder] = struct{}{}
			}
		}

		filtered[artistFolder] = struct{}{}

		// Up to two levels above the artist folder.
		for i := 0; i < 2; i++ {
			parentParts := artistParts[:max(0, len(artistParts)-1-i)]
			if len(parentParts) > 0 {
				filtered[strings.Join(parentParts, separator)] = struct{}{}
			}
		}
	} else {
		// No folder is named after the artist. Whether the songs sit in
		// one tree or are scattered across siblings, keep every
		// ancestor within 3 levels of the deepest path.
		maxDepth := 0
		for folder := range ancestors {
			if depth := len(splitPathKeepEmpty(folder)); depth > maxDepth {
				maxDepth = depth
			}
		}
		for folder := range ancestors {
			if len(splitPathKeepEmpty(folder)) >= maxDepth-3 {
				filtered[folder] = struct{}{}
			}
		}
	}

	parentFolders := make([]string, 0, len(filtered))
	for folder := range filtered {
		parentFolders = append(parentFolders, folder)
	}

	// Deepest first; ties resolved lexically for stable presentation.
	sort.Slice(parentFolders, func(i, j int) bool {
		di := len(splitPathKeepEmpty(parentFolders[i]))
		dj := len(splitPathKeepEmpty(parentFolders[j]))
		if di != dj {
			return di > dj
		}
		return parentFolders[i] < parentFolders[j]
	})

	return FolderInference{ArtistFolder: artistFolder, ParentFolders: parentFolders}
}

// splitPathKeepEmpty splits on both separators, keeping empty leading
// segments so absolute paths keep their depth.
func splitPathKeepEmpty(path string) []string {
	return strings.Split(strings.ReplaceAll(path, "\\", "/"), "/")
}
