// Package watcher reports debounced batches of changed source files.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"nsguard/internal/shared/observability"
)

// Excluder filters directories and files out of watching.
type Excluder interface {
	ExcludeDir(path string) bool
	ExcludeFile(path string) bool
}

type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	exclude      Excluder
	extFilters   map[string]bool
	nameFilters  map[string]bool
	testSuffixes []string
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer

	hashes map[string]uint64
	hashMu sync.Mutex
}

// NewWatcher creates a watcher that calls onChange with the files changed in
// each debounce window. exclude may be nil.
func NewWatcher(debounce time.Duration, exclude Excluder, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		exclude:   exclude,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
		hashes:    make(map[string]uint64),
	}
	w.SetLanguageFilters(LanguageFilters("go", false))
	return w, nil
}

// LanguageFilters returns the extensions, file names and test suffixes that
// matter for language.
func LanguageFilters(language string, includeTests bool) (extensions, filenames, testSuffixes []string) {
	switch language {
	case "java":
		// Java tests are told apart by directory, which exclude.dirs covers.
		extensions = []string{".java"}
	default:
		extensions = []string{".go"}
		filenames = []string{"go.mod", "go.sum"}
		if !includeTests {
			testSuffixes = []string{"_test.go"}
		}
	}
	return extensions, filenames, testSuffixes
}

func (w *Watcher) SetLanguageFilters(extensions, filenames, testSuffixes []string) {
	w.extFilters = normalizedSet(extensions)
	w.nameFilters = normalizedSet(filenames)

	suffixFilter := make([]string, 0, len(testSuffixes))
	for _, suffix := range testSuffixes {
		normalized := strings.ToLower(strings.TrimSpace(suffix))
		if normalized == "" {
			continue
		}
		suffixFilter = append(suffixFilter, normalized)
	}
	w.testSuffixes = suffixFilter
}

func normalizedSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		set[normalized] = true
	}
	return set
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// contentChanged records the file's hash and reports whether it differs from
// the last one seen. Missing or unreadable files count as changed.
func (w *Watcher) contentChanged(path string) bool {
	data, err := os.ReadFile(path)

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	if err != nil {
		delete(w.hashes, path)
		return true
	}
	sum := xxhash.Sum64(data)
	if previous, ok := w.hashes[path]; ok && previous == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	// Hash once the burst has settled so partial writes are not compared.
	paths = slices.DeleteFunc(paths, func(path string) bool { return !w.contentChanged(path) })
	if len(paths) > 0 {
		slices.Sort(paths)
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	return w.exclude != nil && w.exclude.ExcludeDir(path)
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))

	for _, suffix := range w.testSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	if len(w.extFilters) > 0 || len(w.nameFilters) > 0 {
		if !w.nameFilters[base] && !w.extFilters[strings.ToLower(filepath.Ext(base))] {
			return true
		}
	}

	return w.exclude != nil && w.exclude.ExcludeFile(path)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
