// Package inbox imports submission backups dropped into a directory.
//
// Every *.json file that appears in the watched directory is passed to the
// importer once its writes have settled. Files are then moved to
// processed/ or failed/ so an import is never repeated.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	defaultDebounce = 500 * time.Millisecond
)

// Importer appends the records of one import file.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (int, error)
}

type Watcher struct {
	dir      string
	importer Importer
	logger   *slog.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

// New creates the directory layout and an fsnotify watcher on dir. A zero
// debounce means 500ms.
func New(dir string, importer Importer, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("inbox: %w", err)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("inbox: watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		importer: importer,
		logger:   logger,
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run imports files already waiting in the directory, then processes new
// ones until ctx is done. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	existing, err := filepath.Glob(filepath.Join(w.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	sort.Strings(existing)
	for _, path := range existing {
		w.process(ctx, path)
	}

	w.logger.Info("inbox watcher started", slog.String("dir", w.dir))

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox watcher error", slog.String("error", err.Error()))

		case now := <-ticker.C:
			w.flushPending(ctx, now)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return
	}
	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

// flushPending imports files whose last change is older than the debounce.
func (w *Watcher) flushPending(ctx context.Context, now time.Time) {
	w.pendingMu.Lock()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// moved away or deleted before it settled
		return
	}

	n, err := w.importFile(ctx, path)
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.logger.Error("inbox import failed", slog.String("file", filepath.Base(path)), slog.String("error", err.Error()))
	} else {
		w.logger.Info("inbox import done", slog.String("file", filepath.Base(path)), slog.Int("count", n))
	}

	target := filepath.Join(w.dir, dest, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(w.dir, dest, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(path)))
	}
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("inbox move failed", slog.String("file", path), slog.String("error", err.Error()))
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return w.importer.Import(ctx, f)
}

// Close stops the watcher without waiting for Run to return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
