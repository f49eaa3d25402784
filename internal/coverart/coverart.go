// Package coverart defines the on-disk layout of the album cover cache
// and generates downscaled thumbnail variants.
package coverart

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
)

const VariantOriginal = "original"

const VariantPlayer = "player"

const VariantGrid = "grid"

const ThumbnailExtension = ".avif"

// Extensions for embedded cover formats the cache accepts. Anything
// else is a per-song extraction failure.
var mimeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

type ThumbnailSpec struct {
	Variant string
	Size    int
}

var defaultThumbnailSpecs = []ThumbnailSpec{
	{Variant: VariantPlayer, Size: 96},
	{Variant: VariantGrid, Size: 320},
}

// ExtensionForMIME maps an embedded image MIME type to the cache file
// extension, reporting false for unsupported formats.
func ExtensionForMIME(mimeType string) (string, bool) {
	extension, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(mimeType))]
	return extension, ok
}

// CoverPath is where an album's original cover lives in the cache.
func CoverPath(coverDir string, albumID string, extension string) string {
	return filepath.Join(coverDir, albumID+"."+extension)
}

func NormalizeVariant(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case VariantPlayer:
		return VariantPlayer
	case VariantGrid:
		return VariantGrid
	default:
		return VariantOriginal
	}
}

// VariantPath is where a thumbnail variant of an album's cover lives.
func VariantPath(coverDir string, albumID string, variant string) string {
	return filepath.Join(coverDir, fmt.Sprintf("%s__%s%s", albumID, NormalizeVariant(variant), ThumbnailExtension))
}

// GenerateVariants writes downscaled AVIF thumbnails for a cover image.
// Best-effort: an undecodable source (e.g. webp/bmp originals) leaves
// the original as the only variant.
func GenerateVariants(coverDir string, albumID string, coverData []byte) error {
	source, _, err := image.Decode(bytes.NewReader(coverData))
	if err != nil {
		return fmt.Errorf("decode cover for album %s: %w", albumID, err)
	}

	for _, spec := range defaultThumbnailSpecs {
		thumbnail := scaleDown(source, spec.Size)

		file, err := os.Create(VariantPath(coverDir, albumID, spec.Variant))
		if err != nil {
			return fmt.Errorf("create %s thumbnail for album %s: %w", spec.Variant, albumID, err)
		}
		if err := avif.Encode(file, thumbnail); err != nil {
			file.Close()
			return fmt.Errorf("encode %s thumbnail for album %s: %w", spec.Variant, albumID, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("close %s thumbnail for album %s: %w", spec.Variant, albumID, err)
		}
	}

	return nil
}

// scaleDown resizes so the longest edge is at most maxSize, sampling
// nearest-neighbor. Images already small enough pass through.
func scaleDown(source image.Image, maxSize int) image.Image {
	bounds := source.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	longest := max(width, height)
	if longest <= maxSize {
		return source
	}

	targetWidth := width * maxSize / longest
	targetHeight := height * maxSize / longest
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		sourceY := bounds.Min.Y + y*height/targetHeight
		for x := 0; x < targetWidth; x++ {
			sourceX := bounds.Min.X + x*width/targetWidth
			scaled.Set(x, y, source.At(sourceX, sourceY))
		}
	}

	return scaled
}
