package scanner

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const directoryBatchSize = 50

const progressReportInterval = 100 * time.Millisecond

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".flac": {},
	".wav":  {},
	".ogg":  {},
	".aac":  {},
}

// Common non-media directories, matched by name only (never by path
// substring), case-insensitively.
var skipDirectories = map[string]struct{}{
	"node_modules":              {},
	".git":                      {},
	"$recycle.bin":              {},
	"system volume information": {},
	"program files":             {},
	"windows":                   {},
	"$windows.~bt":              {},
	"appdata":                   {},
	"temp":                      {},
}

// Progress is the event shape pushed to whatever drives a scan.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

const (
	StatusIdle     = "idle"
	StatusStarting = "starting"
	StatusScanning = "scanning"
	StatusComplete = "complete"
)

// CollectAudioFiles enumerates every audio file under rootPath. The
// traversal is breadth-first over a queue of pending directories,
// listing up to directoryBatchSize directories concurrently per round.
// Directories that fail to list are skipped with a warning. Output
// ordering depends on batch scheduling and is not guaranteed.
//
// Progress events are throttled to one per progressReportInterval with
// a running file count; the consumer sees the definitive count in the
// traversal's last event.
func CollectAudioFiles(rootPath string, onProgress func(Progress)) []string {
	files := make([]string, 0)
	pending := []string{rootPath}
	fileCount := 0
	lastReport := time.Now()

	for len(pending) > 0 {
		batchSize := min(len(pending), directoryBatchSize)
		batch := pending[:batchSize]
		pending = pending[batchSize:]

		type listing struct {
			files       []string
			directories []string
		}
		listings := make([]listing, len(batch))

		var wg sync.WaitGroup
		for i, dirPath := range batch {
			wg.Add(1)
			go func(index int, dirPath string) {
				defer wg.Done()

				entries, err := os.ReadDir(dirPath)
				if err != nil {
					log.Printf("scanner: skipping inaccessible directory %s: %v", dirPath, err)
					return
				}

				result := listing{}
				for _, entry := range entries {
					name := entry.Name()
					if strings.HasPrefix(name, ".") {
						continue
					}

					fullPath := filepath.Join(dirPath, name)
					if entry.IsDir() {
						if _, skip := skipDirectories[strings.ToLower(name)]; !skip {
							result.directories = append(result.directories, fullPath)
						}
					} else if isAudioFile(name) {
						result.files = append(result.files, fullPath)
					}
				}
				listings[index] = result
			}(i, dirPath)
		}
		wg.Wait()

		for _, result := range listings {
			pending = append(pending, result.directories...)
			files = append(files, result.files...)
			fileCount += len(result.files)
		}

		if onProgress != nil && time.Since(lastReport) > progressReportInterval {
			onProgress(Progress{Completed: 0, Total: fileCount, Status: StatusScanning})
			lastReport = time.Now()
		}
	}

	if onProgress != nil {
		onProgress(Progress{Completed: fileCount, Total: fileCount, Status: StatusScanning})
	}

	return files
}

func isAudioFile(name string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
