package scanner

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"chorus/internal/library"
	"chorus/internal/parallel"
)

const EventProgress = "scanner:progress"

const EventLibraryStale = "scanner:stale"

// Quiet period before filesystem churn is reported as a stale library.
const watcherSettleDelay = 2 * time.Second

// ErrScanInProgress is returned when a scan is requested while another
// one is still running. Concurrent scans over shared library state are
// rejected rather than queued.
var ErrScanInProgress = errors.New("scan already in progress")

type Emitter func(eventName string, payload any)

type Status struct {
	Running       bool   `json:"running"`
	Stale         bool   `json:"stale"`
	LastRunAt     string `json:"lastRunAt"`
	LastError     string `json:"lastError,omitempty"`
	LastFilesSeen int    `json:"lastFilesSeen"`
	LastIndexed   int    `json:"lastIndexed"`
	LastFailed    int    `json:"lastFailed"`
}

// Service orchestrates scans: filesystem traversal, bounded-parallel
// metadata extraction, and folding the result into the library store.
type Service struct {
	mu            sync.Mutex
	running       bool
	stale         bool
	lastRun       time.Time
	lastError     string
	lastFilesSeen int
	lastIndexed   int
	lastFailed    int
	emit          Emitter
	store         *library.Store
	concurrency   int
	readTags      func(path string) (library.TagData, error)

	watcher     *fsnotify.Watcher
	watcherStop chan struct{}
	staleNotify func(func())
}

// NewService builds a scan service over the given store. A concurrency
// of zero or less means "not configured" and falls back to the
// CPU-derived default.
func NewService(store *library.Store, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = parallel.DefaultConcurrency()
	}
	return &Service{
		store:       store,
		concurrency: parallel.Clamp(concurrency),
		readTags:    ReadTags,
		staleNotify: debounce.New(watcherSettleDelay),
	}
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// Scan walks rootPath, extracts metadata with bounded concurrency, and
// merges the result into the library. Only one scan runs at a time; a
// second request fails with ErrScanInProgress.
func (s *Service) Scan(rootPath string) error {
	if rootPath == "" {
		// No directory chosen is a no-op, not an error.
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScanInProgress
	}
	s.running = true
	s.lastError = ""
	s.mu.Unlock()

	go s.runScan(rootPath)
	return nil
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:       s.running,
		Stale:         s.stale,
		LastError:     s.lastError,
		LastFilesSeen: s.lastFilesSeen,
		LastIndexed:   s.lastIndexed,
		LastFailed:    s.lastFailed,
	}
	if !s.lastRun.IsZero() {
		status.LastRunAt = s.lastRun.UTC().Format(time.RFC3339)
	}

	return status
}

func (s *Service) runScan(rootPath string) {
	s.emitProgress(Progress{Completed: 0, Total: 0, Status: StatusStarting})

	files := CollectAudioFiles(rootPath, s.emitProgress)

	results := parallel.MapLimit(files, func(path string) (library.FileTags, error) {
		tags, err := s.readTags(path)
		if err != nil {
			return library.FileTags{}, err
		}
		return library.FileTags{Path: path, Tags: tags}, nil
	}, s.concurrency, func(completed, total int) {
		status := StatusScanning
		if completed == total {
			status = StatusComplete
		}
		s.emitProgress(Progress{Completed: completed, Total: total, Status: status})
	})

	indexed, failures := parallel.Partition(results)
	if len(failures) > 0 {
		log.Printf("scanner: failed to parse %d audio files", len(failures))
	}

	fresh := library.BuildIndex(indexed)
	_, err := s.store.ApplyScan(fresh, rootPath, s.store.SelectedArtist())

	s.mu.Lock()
	s.running = false
	s.stale = false
	s.lastRun = time.Now().UTC()
	s.lastFilesSeen = len(files)
	s.lastIndexed = len(indexed)
	s.lastFailed = len(failures)
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("scanner: persist library after scan: %v", err)
	}

	s.emitProgress(Progress{Completed: len(files), Total: len(files), Status: StatusComplete})
	s.restartWatcher(rootPath)
}

// StartWatching begins watching the library root for changes. Changes
// only mark the library stale; rescans stay user-driven.
func (s *Service) StartWatching() error {
	rootPath := s.store.FolderPath()
	if rootPath == "" {
		return nil
	}
	return s.startWatcher(rootPath)
}

func (s *Service) StopWatching() {
	s.mu.Lock()
	watcher := s.watcher
	stop := s.watcherStop
	s.watcher = nil
	s.watcherStop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if watcher != nil {
		watcher.Close()
	}
}

func (s *Service) startWatcher(rootPath string) error {
	s.StopWatching()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	if err := watcher.Add(rootPath); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", rootPath, err)
	}

	stop := make(chan struct{})
	s.mu.Lock()
	s.watcher = watcher
	s.watcherStop = stop
	s.mu.Unlock()

	go s.watchLoop(watcher, stop)
	return nil
}

func (s *Service) restartWatcher(rootPath string) {
	if err := s.startWatcher(rootPath); err != nil {
		log.Printf("scanner: watcher disabled: %v", err)
	}
}

func (s *Service) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.staleNotify(s.markStale)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("scanner: watcher error: %v", err)
		}
	}
}

func (s *Service) markStale() {
	s.mu.Lock()
	s.stale = true
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventLibraryStale, s.GetStatus())
	}
}

func (s *Service) emitProgress(progress Progress) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventProgress, progress)
	}
}
