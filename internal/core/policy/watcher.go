package policy

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 100 * time.Millisecond

// Watcher refreshes a Store whenever its policy file is written, created,
// renamed or removed.
type Watcher struct {
	store    *Store
	debounce time.Duration
	onChange func(State)
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher for store. onChange may be nil.
func NewWatcher(store *Store, debounce time.Duration, onChange func(State)) *Watcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &Watcher{
		store:    store,
		debounce: debounce,
		onChange: onChange,
		stop:     make(chan struct{}),
	}
}

// Start begins watching. The directory is watched rather than the file so
// atomic saves and a file created after startup are both seen.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	path := filepath.Clean(w.store.Path())
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fsw.Close()

		slog.Debug("starting policy watcher", "path", path)
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					w.schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("policy watcher error", "error", err)
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	slog.Info("policy file change detected, refreshing", "path", w.store.Path())
	w.store.Refresh()
	state := w.store.State()
	if state == StateConfigError {
		slog.Warn("policy reload failed", "path", w.store.Path(), "error", w.store.LastError())
	}
	if w.onChange != nil {
		w.onChange(state)
	}
}
