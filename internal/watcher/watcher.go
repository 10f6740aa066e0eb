// Package watcher reports changes to a fixed set of files, debounced.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"jobgen/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = time.Second

type fileState struct {
	modTime time.Time
	size    int64
}

// FileWatcher watches files for changes and calls back once per burst of
// events. Directories of the files are watched too so that atomic
// replacements (write to temp, rename over) are seen.
type FileWatcher struct {
	mu sync.RWMutex

	name  string
	files []string
	state map[string]fileState

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// New creates a watcher over files. Empty paths are ignored. name shows up
// in log lines.
func New(name string, files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) (*FileWatcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("%s watcher: change callback is required", name)
	}
	if debounceDelay <= 0 {
		debounceDelay = defaultDebounceDelay
	}

	watched := make([]string, 0, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("%s watcher: failed to resolve %s: %w", name, file, err)
		}
		if !slices.Contains(watched, abs) {
			watched = append(watched, abs)
		}
	}
	if len(watched) == 0 {
		return nil, fmt.Errorf("%s watcher: no files to watch", name)
	}

	return &FileWatcher{
		name:          name,
		files:         watched,
		state:         make(map[string]fileState),
		debounceDelay: debounceDelay,
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger.With("watcher", name),
	}, nil
}

// Start begins watching
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("%s watcher is already running", w.name)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	if err := w.snapshot(); err != nil {
		w.closeWatcher()
		return fmt.Errorf("failed to get initial file state: %w", err)
	}

	for _, dir := range w.directories() {
		if err := w.fsWatcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory", "directory", dir, "error", err)
		}
	}

	w.stopChan = make(chan struct{})
	w.running = true
	go w.watchLoop(w.fsWatcher, w.stopChan)

	w.logger.Info("File watcher started",
		"files", w.files,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops watching. It is safe to call on a stopped watcher.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}

	w.logger.Info("File watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *FileWatcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Files returns the absolute paths being watched
func (w *FileWatcher) Files() []string {
	return slices.Clone(w.files)
}

func (w *FileWatcher) closeWatcher() {
	if w.fsWatcher == nil {
		return
	}
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file watcher during cleanup")
	}
}

func (w *FileWatcher) directories() []string {
	dirs := make([]string, 0, len(w.files))
	for _, file := range w.files {
		if dir := filepath.Dir(file); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *FileWatcher) snapshot() error {
	for _, file := range w.files {
		stat, err := os.Stat(file)
		if err == nil {
			w.state[file] = fileState{modTime: stat.ModTime(), size: stat.Size()}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
	}
	return nil
}

func (w *FileWatcher) watchLoop(fsWatcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.scheduleReload()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.reloadChan:
			if slices.ContainsFunc(w.files, w.changed) {
				w.logger.Info("Watched files changed, triggering reload")
				w.onChange()
			}

		case <-stop:
			return
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if !slices.Contains(w.files, filepath.Clean(event.Name)) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// changed is only called from watchLoop.
func (w *FileWatcher) changed(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if _, existed := w.state[file]; existed && os.IsNotExist(err) {
			delete(w.state, file)
			return true
		}
		return false
	}

	current := fileState{modTime: stat.ModTime(), size: stat.Size()}
	if last, ok := w.state[file]; ok && last == current {
		return false
	}
	w.state[file] = current
	return true
}

func (w *FileWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
