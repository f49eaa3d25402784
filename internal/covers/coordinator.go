// Package covers coordinates on-demand, debounced extraction of
// embedded album art. Extraction is best-effort and never blocks
// library navigation.
package covers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.senan.xyz/taglib"

	"chorus/internal/coverart"
	"chorus/internal/library"
	"chorus/internal/parallel"
)

const EventCoversUpdated = "covers:updated"

// Trailing debounce window so bursts of requests from rapid navigation
// coalesce into one batch extraction.
const requestSettleDelay = 200 * time.Millisecond

// Cover batches are frequent and small; the full library save they
// imply is deferred behind an idle timer instead of running per batch.
const saveFlushDelay = 5 * time.Minute

type Emitter func(eventName string, payload any)

// Update reports one album whose cover was extracted in a batch.
type Update struct {
	AlbumID   string `json:"albumId"`
	Extension string `json:"extension"`
}

// Coordinator batches cover-extraction requests per album, extracts
// embedded art from one representative song per album in parallel, and
// schedules a deferred library save after updates.
type Coordinator struct {
	mu       sync.Mutex
	store    *library.Store
	coverDir string
	extract  func(filePath string) ([]byte, error)
	emit     Emitter
	pending  map[string]struct{}
	request  func(func())
	saveMu   sync.Mutex
	saveTime *time.Timer
	closed   bool
}

func NewCoordinator(store *library.Store, coverDir string) *Coordinator {
	return &Coordinator{
		store:    store,
		coverDir: coverDir,
		extract:  taglib.ReadImage,
		pending:  make(map[string]struct{}),
		request:  debounce.New(requestSettleDelay),
	}
}

func (c *Coordinator) SetEmitter(emitter Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit = emitter
}

// RequestCovers queues the albums that still lack a cover and schedules
// a debounced batch extraction.
func (c *Coordinator) RequestCovers(albums []library.Album) {
	missing := library.AlbumsWithoutCover(albums)
	if len(missing) == 0 {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for _, album := range missing {
		c.pending[album.ID] = struct{}{}
	}
	request := c.request
	c.mu.Unlock()

	request(c.flush)
}

// RequestForArtist queues cover extraction for every coverless album of
// an artist, typically on artist selection.
func (c *Coordinator) RequestForArtist(artistID string) {
	lib := c.store.Snapshot()
	c.RequestCovers(lib.ArtistAlbums(artistID))
}

func (c *Coordinator) flush() {
	c.mu.Lock()
	if c.closed || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(c.pending))
	for albumID := range c.pending {
		batch = append(batch, albumID)
	}
	c.pending = make(map[string]struct{})
	c.mu.Unlock()

	lib := c.store.Snapshot()
	albums := make([]library.Album, 0, len(batch))
	for _, albumID := range batch {
		if album, ok := lib.AlbumByID(albumID); ok && album.CoverExtension == "" {
			albums = append(albums, album)
		}
	}
	if len(albums) == 0 {
		return
	}

	representatives, missingSongs := lib.FirstSongPerAlbum(albums)
	for _, album := range missingSongs {
		log.Printf("covers: no song found for album %s (%s)", album.ID, album.Name)
	}

	withSongs := make([]library.Album, 0, len(representatives))
	for _, album := range albums {
		if _, ok := representatives[album.ID]; ok {
			withSongs = append(withSongs, album)
		}
	}

	results := parallel.MapLimit(withSongs, func(album library.Album) (Update, error) {
		song := representatives[album.ID]
		extension, err := c.extractCover(album.ID, song.FilePath)
		if err != nil {
			return Update{}, err
		}
		return Update{AlbumID: album.ID, Extension: extension}, nil
	}, parallel.DefaultConcurrency(), nil)

	updates, failures := parallel.Partition(results)
	for _, err := range failures {
		log.Printf("covers: %v", err)
	}

	applied := make([]Update, 0, len(updates))
	for _, update := range updates {
		if c.store.SetAlbumCover(update.AlbumID, update.Extension) {
			applied = append(applied, update)
		}
	}

	if len(applied) == 0 {
		return
	}

	c.mu.Lock()
	emitter := c.emit
	c.mu.Unlock()
	if emitter != nil {
		emitter(EventCoversUpdated, applied)
	}

	c.scheduleSave()
}

// extractCover pulls the embedded image out of one song file, writes it
// to the cover cache, and generates thumbnail variants.
func (c *Coordinator) extractCover(albumID string, filePath string) (string, error) {
	data, err := c.extract(filePath)
	if err != nil {
		return "", fmt.Errorf("extract cover from %s: %w", filePath, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no embedded cover in %s", filePath)
	}

	mimeType := http.DetectContentType(data)
	extension, ok := coverart.ExtensionForMIME(mimeType)
	if !ok {
		return "", fmt.Errorf("unsupported image format %s in %s", mimeType, filePath)
	}

	coverPath := coverart.CoverPath(c.coverDir, albumID, extension)
	if err := os.WriteFile(coverPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write cover for album %s: %w", albumID, err)
	}

	if err := coverart.GenerateVariants(c.coverDir, albumID, data); err != nil {
		log.Printf("covers: %v", err)
	}

	return extension, nil
}

// scheduleSave arms (or re-arms) the idle flush timer that persists
// cover updates.
func (c *Coordinator) scheduleSave() {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	if c.saveTime != nil {
		c.saveTime.Stop()
	}
	c.saveTime = time.AfterFunc(saveFlushDelay, func() {
		if err := c.store.Save(); err != nil {
			log.Printf("covers: persist library after cover updates: %v", err)
		}
	})
}

// Close flushes any armed save timer immediately. Safe to call more
// than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.saveMu.Lock()
	timer := c.saveTime
	c.saveTime = nil
	c.saveMu.Unlock()

	if timer != nil && timer.Stop() {
		if err := c.store.Save(); err != nil {
			log.Printf("covers: persist library on close: %v", err)
		}
	}
}
