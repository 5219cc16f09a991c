package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs an operation on skeleton files when they change.
type Watcher struct {
	pipeline *Pipeline
	walker   *Walker
	debounce time.Duration
	log      *zap.Logger

	// written maps a path to the hash of the content last written there, so
	// the watcher's own writes do not trigger another round.
	written map[string]string

	ready     chan struct{}
	readyOnce sync.Once
}

// NewWatcher creates a watcher that processes files through p.
func NewWatcher(p *Pipeline, walker *Walker, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if walker == nil {
		walker = NewWalker()
	}
	return &Watcher{
		pipeline: p,
		walker:   walker,
		debounce: debounce,
		log:      p.log,
		written:  make(map[string]string),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watches are in place.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch monitors root and applies op to each changed skeleton file once no
// further change to it arrived for the debounce window. Blocks until ctx is
// cancelled.
func (w *Watcher) Watch(ctx context.Context, root string, op Operation) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	matcher, err := w.walker.matcher(root)
	if err != nil {
		return fmt.Errorf("loading ignore patterns: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	addTree := func(dir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err := addTree(root); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}
	w.readyOnce.Do(func() { close(w.ready) })

	changed := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.log.Info("watching for changes", zap.String("root", root), zap.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !shouldSkipDir(info.Name(), event.Name, root, matcher) {
						if err := addTree(event.Name); err != nil {
							w.log.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
						}
					}
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isCandidate(filepath.Base(event.Name)) || ignored(event.Name, root, matcher) {
				continue
			}

			changed[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.flush(ctx, root, changed, op)
			changed = make(map[string]bool)
		}
	}
}

// flush processes the pending paths that still hold skeletons.
func (w *Watcher) flush(ctx context.Context, root string, changed map[string]bool, op Operation) {
	for path := range changed {
		entry, ok, err := readEntry(root, path)
		if errors.Is(err, fs.ErrNotExist) {
			delete(w.written, path)
			continue
		}
		if err != nil {
			w.log.Warn("reading changed file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !ok || w.written[path] == entry.SHA256 {
			continue
		}

		res := w.pipeline.Process(ctx, entry, op)
		if res.Err != nil {
			w.log.Error("processing changed file", zap.String("file", entry.RelPath), zap.Error(res.Err))
			continue
		}
		if res.Output != "" {
			if out, err := os.ReadFile(res.Output); err == nil {
				w.written[res.Output] = hash(out)
			}
		}
		w.log.Info("processed changed file",
			zap.String("file", entry.RelPath),
			zap.Bool("changed", res.Changed),
			zap.Strings("removed_slots", res.Report.RemovedSlots),
		)
	}
}
