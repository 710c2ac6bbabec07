package rules

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/threadly/threadly/internal/logger"
	"github.com/threadly/threadly/internal/monitor"
)

// reloadQuiet coalesces editor write bursts into one reload.
const reloadQuiet = 250 * time.Millisecond

// Watcher reloads the rules file into the registry whenever it changes on
// disk, so drift fixes ship as data edits without a restart.
type Watcher struct {
	loader   *Loader
	registry *Registry
	logger   logger.Logger
	fsw      *fsnotify.Watcher
	debounce *monitor.Debouncer
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for the loader's file.
func NewWatcher(loader *Loader, reg *Registry, log logger.Logger) *Watcher {
	return &Watcher{
		loader:   loader,
		registry: reg,
		logger:   log,
		debounce: monitor.NewDebouncer(reloadQuiet),
		stopCh:   make(chan struct{}),
	}
}

// Start watches the rules file's directory (editors replace files on save,
// which drops a watch registered on the file itself).
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	w.fsw = fsw

	dir := filepath.Dir(w.loader.filePath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch rules dir %s: %w", dir, err)
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.loader.filePath)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.debounce.Trigger(w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", logger.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	if err := w.loader.LoadInto(w.registry); err != nil {
		// Keep the previous rules on a bad edit.
		w.logger.Warn("rules reload failed", logger.Error(err))
		return
	}
	w.logger.Info("rules reloaded", logger.String("file", w.loader.filePath))
}

// Stop halts the watcher and cancels any pending reload.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.debounce.Cancel()
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
}
