// Package watch re-indexes a directory whenever its files change.
// Events are debounced so a burst of writes triggers a single rebuild.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driving"
	"github.com/custodia-labs/querra-cli/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before a
// re-index starts.
const DefaultDebounce = 2 * time.Second

// Watcher rebuilds the index when watched files change.
type Watcher struct {
	pipeline     driving.Pipeline
	registry     driven.ExtractorRegistry
	debounce     time.Duration
	chunkSize    int
	chunkOverlap int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithChunking sets the chunk parameters passed to each indexing run.
// Zero values select the pipeline defaults.
func WithChunking(size, overlap int) Option {
	return func(w *Watcher) {
		w.chunkSize = size
		w.chunkOverlap = overlap
	}
}

// New creates a watcher over the given pipeline. The registry decides
// which files count as indexable.
func New(pipeline driving.Pipeline, registry driven.ExtractorRegistry, opts ...Option) *Watcher {
	w := &Watcher{
		pipeline: pipeline,
		registry: registry,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run indexes the directory once, then blocks re-indexing on every
// debounced change until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer notifier.Close()

	if err := w.addRecursive(notifier, dir); err != nil {
		return err
	}

	// Initial build so queries work before the first change.
	w.reindex(ctx, dir)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)

			// New subdirectories need their own watch; addRecursive
			// no-ops for plain files.
			if event.Op.Has(fsnotify.Create) {
				_ = w.addRecursive(notifier, event.Name)
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reindex(ctx, dir)

		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// addRecursive watches dir and every subdirectory under it. Passing a
// file path is a no-op.
func (w *Watcher) addRecursive(notifier *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := notifier.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

// reindex scans the directory for indexable files and rebuilds the index.
func (w *Watcher) reindex(ctx context.Context, dir string) {
	files := w.scan(dir)
	if len(files) == 0 {
		logger.Info("No indexable files under %s", dir)
		return
	}

	summary, err := w.pipeline.RunIndexing(ctx, files, w.chunkSize, w.chunkOverlap)
	if err != nil {
		logger.Warn("Re-index failed: %v", err)
		return
	}
	logger.Info("Re-indexed: %s", summary.Message)
}

// scan returns the indexable files under dir, sorted for deterministic
// indexing order.
func (w *Watcher) scan(dir string) []string {
	var files []string

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, lookupErr := w.registry.ForPath(path); lookupErr != nil {
			return nil
		}
		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files
}

// relevant filters out events that cannot change index content.
func relevant(event fsnotify.Event) bool {
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}
