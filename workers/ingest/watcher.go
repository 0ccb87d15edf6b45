package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
	batchExt     = ".json"
)

// Config holds import directory settings
type Config struct {
	Dir           string
	DebounceDelay time.Duration
}

// Watcher imports review batch files dropped into a directory. Imported
// files move to processed/, unreadable or rejected ones to failed/.
type Watcher struct {
	cfg      Config
	importer *Importer

	watcher   *fsnotify.Watcher
	debouncer *debouncer
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// serializes file handling so a path is never imported twice concurrently
	processMu sync.Mutex
}

func NewWatcher(cfg Config, importer *Importer) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	w := &Watcher{
		cfg:      cfg,
		importer: importer,
		stopChan: make(chan struct{}),
	}
	w.debouncer = newDebouncer(cfg.DebounceDelay, w.processFile)
	return w
}

// Start creates the import directories, queues files already waiting there
// and begins watching for new ones.
func (w *Watcher) Start() error {
	for _, dir := range []string{w.cfg.Dir, w.path(processedDir), w.path(failedDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.cfg.Dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}
	w.watcher = fsw

	logger.Info().Str("dir", w.cfg.Dir).Msg("starting import watcher")

	w.wg.Add(1)
	go w.eventLoop()

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && isBatchFile(e.Name()) {
			w.debouncer.Queue(filepath.Join(w.cfg.Dir, e.Name()))
		}
	}

	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.debouncer.Stop()
		close(w.stopChan)
		if w.watcher != nil {
			w.watcher.Close()
		}
		w.wg.Wait()

		// let an in-flight import finish
		w.processMu.Lock()
		w.processMu.Unlock()

		logger.Info().Msg("import watcher stopped")
	})
}

func (w *Watcher) path(name string) string {
	return filepath.Join(w.cfg.Dir, name)
}

func isBatchFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), batchExt) && !strings.HasPrefix(name, ".")
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	// only top-level files; processed/ and failed/ are not watched
	if filepath.Dir(event.Name) != filepath.Clean(w.cfg.Dir) || !isBatchFile(filepath.Base(event.Name)) {
		return
	}
	w.debouncer.Queue(event.Name)
}

// processFile imports one batch file and moves it out of the inbox.
func (w *Watcher) processFile(path string) {
	w.processMu.Lock()
	defer w.processMu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Str("path", path).Msg("failed to open batch file")
		}
		return
	}

	batch, err := ParseBatch(f)
	f.Close()
	if err == nil {
		_, err = w.importer.Import(batch)
	}

	dest := processedDir
	if err != nil {
		dest = failedDir
		logger.Error().Err(err).Str("path", path).Msg("failed to import batch file")
	}

	if err := w.moveTo(path, dest); err != nil {
		logger.Error().Err(err).Str("path", path).Str("dest", dest).Msg("failed to move batch file")
	}
}

func (w *Watcher) moveTo(path, dir string) error {
	name := time.Now().UTC().Format("20060102T150405.000") + "-" + filepath.Base(path)
	return os.Rename(path, filepath.Join(w.path(dir), name))
}
