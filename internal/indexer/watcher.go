package indexer

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher rebuilds the index when a knowledge source file changes.
// Editors fire bursts of events per save, so changes are debounced:
// a rebuild runs only after a file has been quiet for the debounce
// window.
type Watcher struct {
	indexer *Indexer
	watcher *fsnotify.Watcher
	targets map[string]struct{}
	logger  *zap.Logger

	mu          sync.Mutex
	debounceMap map[string]time.Time
	debounceDur time.Duration
	running     bool
	rebuilds    int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewWatcher creates a watcher over the indexer's source files.
func (ix *Indexer) NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{})
	for _, path := range []string{ix.kbPath, ix.mbPath} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		targets[abs] = struct{}{}
	}

	return &Watcher{
		indexer:     ix,
		watcher:     fsw,
		targets:     targets,
		logger:      ix.logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in its own
// goroutine until Stop or ctx cancellation. The parent directories are
// watched rather than the files themselves so atomic saves (write to
// temp, rename over) keep being seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]struct{})
	for target := range w.targets {
		dirs[filepath.Dir(target)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.logger.Info("watching for knowledge changes", zap.String("dir", dir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. Safe to
// call more than once, and on a watcher that never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close watcher", zap.Error(err))
	}
}

// Rebuilds reports how many rebuilds the watcher has triggered.
func (w *Watcher) Rebuilds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rebuilds
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records a relevant event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = event.Name
	}
	if _, watched := w.targets[abs]; !watched {
		return
	}

	w.logger.Debug("knowledge file changed",
		zap.String("path", abs),
		zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.debounceMap[abs] = time.Now()
	w.mu.Unlock()
}

// processSettled rebuilds once for all files quiet past the debounce
// window. A failed rebuild is logged and the old index stays live.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	settled := 0
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			delete(w.debounceMap, path)
			settled++
		}
	}
	w.mu.Unlock()

	if settled == 0 {
		return
	}

	n, err := w.indexer.Build(ctx)
	if err != nil {
		w.logger.Error("rebuild failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.rebuilds++
	w.mu.Unlock()
	w.logger.Info("index rebuilt after change", zap.Int("documents", n))
}
