// Package dropwatch turns a filesystem directory into a dropzone: files
// placed in the watched directory are read and emitted as upload batches.
package dropwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
)

// defaultSettle is how long the watcher waits after the last filesystem
// event before emitting a batch, so a multi-file drop arrives as one batch.
const defaultSettle = 500 * time.Millisecond

// Batch is one group of dropped files.
type Batch struct {
	Files []api.FilePayload
}

// Watcher watches a drop directory and emits batches of newly added files.
// A file is only emitted once per process lifetime; the files themselves
// are left in place.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	batches chan Batch
	done    chan struct{}
	logger  *zap.Logger
	settle  time.Duration
	seen    map[string]bool
}

// New creates a watcher on dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create drop directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		watcher: fsw,
		batches: make(chan Batch, 4),
		done:    make(chan struct{}),
		logger:  logger,
		settle:  defaultSettle,
		seen:    make(map[string]bool),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Batches returns the channel drop batches are delivered on.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the watcher and closes the batch channel.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.batches)

	var pending []string
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.seen[event.Name] || contains(pending, event.Name) {
				continue
			}
			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				resetSettleTimer(timer, w.settle)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("drop watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			batch := w.collect(pending)
			pending = nil
			if len(batch.Files) > 0 {
				select {
				case w.batches <- batch:
				case <-w.done:
					return
				}
			}
		}
	}
}

// collect reads the pending paths into payloads, skipping directories and
// files that cannot be read.
func (w *Watcher) collect(paths []string) Batch {
	var batch Batch
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("failed to read dropped file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		w.seen[path] = true
		batch.Files = append(batch.Files, api.FilePayload{
			Name: filepath.Base(path),
			Data: data,
		})
	}
	if len(batch.Files) > 0 {
		w.logger.Info("drop batch collected", zap.Int("files", len(batch.Files)))
	}
	return batch
}

// resetSettleTimer restarts the settle window. A tick the timer already
// delivered must be drained first, or the stale tick would end the new
// window immediately and split one drop into two batches.
func resetSettleTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

func contains(paths []string, name string) bool {
	for _, p := range paths {
		if p == name {
			return true
		}
	}
	return false
}
