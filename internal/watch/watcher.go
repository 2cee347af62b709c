// Package watch re-runs reconciliation when roadmap documents change on
// disk. It is a thin loop over the same idempotent batch transform the
// reconcile command performs; no incremental semantics are introduced.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/ryoheik/roadmap/internal/lock"
)

// Runner reconciles one document path. It is expected to skip the write
// when nothing changed, which is what terminates the event loop triggered
// by our own rename.
type Runner func(path string) error

// Watcher debounces filesystem events per document and runs the Runner.
// Overlapping triggers for the same path are coalesced; distinct paths run
// serialised per path, concurrently across paths.
type Watcher struct {
	logger   *log.Logger
	debounce time.Duration
	run      Runner

	group singleflight.Group
	locks *lock.MutexMap
}

func New(logger *log.Logger, debounce time.Duration, run Runner) *Watcher {
	return &Watcher{
		logger:   logger,
		debounce: debounce,
		run:      run,
		locks:    lock.NewMutexMap(),
	}
}

// Watch blocks until ctx is cancelled, watching the parent directory of
// each path. Directories are watched rather than the files themselves
// because atomic writes replace the file via rename, which would drop a
// direct file watch.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no documents to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	watched := make(map[string]string) // absolute path -> as given
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		watched[abs] = p
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			dirs[dir] = true
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		wg     sync.WaitGroup
	)
	defer wg.Wait()

	trigger := func(abs, path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[abs]; ok && t.Stop() {
			wg.Done()
		}
		wg.Add(1)
		timers[abs] = time.AfterFunc(w.debounce, func() {
			defer wg.Done()
			w.reconcile(path)
		})
	}

	w.logger.Info("watching", "documents", len(watched))

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				if t.Stop() {
					wg.Done()
				}
			}
			mu.Unlock()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if path, ok := watched[abs]; ok {
				trigger(abs, path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// reconcile runs the Runner for one path, coalescing concurrent triggers
// and serialising runs on the same document.
func (w *Watcher) reconcile(path string) {
	_, err, _ := w.group.Do(path, func() (any, error) {
		w.locks.Lock(path)
		defer w.locks.Unlock(path)
		return nil, w.run(path)
	})
	if err != nil {
		w.logger.Error("reconcile failed", "document", path, "err", err)
	}
}
