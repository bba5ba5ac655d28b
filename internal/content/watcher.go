package content

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pitchside/frontoffice/internal/drama"
)

// debounceWindow coalesces editor save bursts into one reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads a catalog directory when its files change. A reload that
// fails validation is logged and dropped; the previous catalog stays live.
type Watcher struct {
	dir      string
	onReload func(*drama.Catalog)
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching dir. onReload is called with each successfully
// validated catalog, including the initial load.
func NewWatcher(dir string, onReload func(*drama.Catalog)) (*Watcher, error) {
	catalog, err := LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("initial catalog load: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	onReload(catalog)
	return &Watcher{dir: dir, onReload: onReload, watcher: fsw}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if timer == nil {
					timer = time.NewTimer(debounceWindow)
					timerC = timer.C
				} else {
					timer.Reset(debounceWindow)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("catalog watcher: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil
			catalog, err := LoadDir(w.dir)
			if err != nil {
				log.Printf("catalog reload rejected: %v", err)
				continue
			}
			log.Printf("catalog reloaded from %s (%d templates)", w.dir, catalog.Len())
			w.onReload(catalog)
		}
	}
}

func isCatalogFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
