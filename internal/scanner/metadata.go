package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"chorus/internal/library"
)

var leadingIntegerPattern = regexp.MustCompile(`\d+`)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ReadTags is the metadata-extraction boundary: one file in, structured
// tag data or an error out. Failures are per-file and isolated by the
// caller.
func ReadTags(path string) (library.TagData, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return library.TagData{}, fmt.Errorf("read tags %s: %w", path, err)
	}

	data := library.TagData{
		Title:  firstTagValue(tags, taglib.Title, "TITLE"),
		Artist: firstTagValue(tags, taglib.Artist, "ARTIST"),
		Album:  firstTagValue(tags, taglib.Album, "ALBUM"),
	}

	if year := parseYearTag(firstTagValue(tags, taglib.Date, "DATE", "YEAR", "ORIGINALDATE")); year > 0 {
		data.Year = year
	}
	if track := parseNumericTag(firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")); track > 0 {
		data.TrackNumber = track
	}

	data.DiskNo, data.DiskOf = parseDiskTag(
		firstTagValue(tags, taglib.DiscNumber, "DISCNUMBER", "TPOS"),
		firstTagValue(tags, "DISCTOTAL", "TOTALDISCS"),
	)

	return data, nil
}

func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, value := range tags[key] {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}

func parseNumericTag(value string) int {
	match := leadingIntegerPattern.FindString(strings.TrimSpace(value))
	if match == "" {
		return 0
	}

	parsed, err := strconv.Atoi(match)
	if err != nil || parsed <= 0 {
		return 0
	}

	return parsed
}

func parseYearTag(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}

	match := yearPattern.FindString(trimmed)
	if match == "" {
		if fallback := parseNumericTag(trimmed); fallback >= 1000 && fallback <= 3000 {
			return fallback
		}
		return 0
	}

	parsed, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}

	return parsed
}

// parseDiskTag resolves disk number and count from either a combined
// "n/of" value (TPOS style) or separate number and total tags. Missing
// values fall back to {1, 1} per the indexer's contract.
func parseDiskTag(number string, total string) (int, int) {
	diskNo := 0
	diskOf := 0

	if before, after, found := strings.Cut(number, "/"); found {
		diskNo = parseNumericTag(before)
		diskOf = parseNumericTag(after)
	} else {
		diskNo = parseNumericTag(number)
	}

	if diskOf == 0 {
		diskOf = parseNumericTag(total)
	}

	if diskNo <= 0 {
		diskNo = 1
	}
	if diskOf <= 0 {
		diskOf = 1
	}

	return diskNo, diskOf
}
