package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Watcher scans a directory for dropped .json files and merges each at most
// once per process lifetime, tracked by filename. A file reused under a new
// name imports again; dedup is by name, not content hash, and that is a
// product decision.
type Watcher struct {
	mu       sync.Mutex
	dir      string
	merger   *Merger
	consumed map[string]bool
	log      *slog.Logger
}

// NewWatcher creates a watcher over dir.
func NewWatcher(dir string, merger *Merger, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		merger:   merger,
		consumed: make(map[string]bool),
		log:      log,
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Scan merges every unconsumed .json file in the directory. Files that fail
// to read or parse stay unconsumed and are retried on the next scan; a
// completed merge consumes the filename even when every record was
// rejected.
func (w *Watcher) Scan() (admitted, rejected int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("scan import directory: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || w.consumed[name] {
			continue
		}
		a, r, err := w.merger.ImportFile(filepath.Join(w.dir, name))
		if err != nil {
			w.log.Warn("auto-import failed", "file", name, "err", err)
			continue
		}
		w.consumed[name] = true
		admitted += a
		rejected += r
	}
	return admitted, rejected, nil
}
