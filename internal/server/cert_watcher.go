package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"skillmatch/internal/errors"
)

const defaultDebounceDelay = time.Second

// projectedDataDir is the symlink that Kubernetes swaps when a mounted
// secret or configmap is updated
const projectedDataDir = "..data"

// CertWatcher watches certificate files and calls onChange once a burst of
// file events settles and a file's modification time has moved
type CertWatcher struct {
	files         []string
	debounceDelay time.Duration
	onChange      func()
	logger        *errors.Logger

	mu          sync.Mutex
	lastModTime map[string]time.Time

	running atomic.Bool
}

// NewCertWatcher creates a watcher for the given files
func NewCertWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *CertWatcher {
	if debounceDelay <= 0 {
		debounceDelay = defaultDebounceDelay
	}
	return &CertWatcher{
		files:         slices.Clone(files),
		debounceDelay: debounceDelay,
		onChange:      onChange,
		logger:        logger,
		lastModTime:   make(map[string]time.Time),
	}
}

// Watch blocks until ctx is done. Directories are watched rather than the
// files themselves so atomic replacements (rename over, symlink swaps) are seen.
func (cw *CertWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil && cw.logger != nil {
			cw.logger.LogError(err, "Failed to close file watcher")
		}
	}()

	cw.snapshot()
	dirs := cw.directories()
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.running.Store(true)
	defer cw.running.Store(false)
	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.files,
			"directories", dirs,
			"debounce_delay", cw.debounceDelay)
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if cw.logger != nil {
				cw.logger.Info("Certificate file watcher stopped")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !cw.relevant(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-fire:
			if cw.changed() {
				if cw.logger != nil {
					cw.logger.Info("Certificate files changed, triggering reload")
				}
				cw.onChange()
			}
		}
	}
}

// Running reports whether Watch is active
func (cw *CertWatcher) Running() bool {
	return cw.running.Load()
}

// directories returns the distinct parent directories of the watched files
func (cw *CertWatcher) directories() []string {
	var dirs []string
	for _, file := range cw.files {
		dir := filepath.Dir(file)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// relevant reports whether an event touches a watched file or swaps the
// projected data symlink in a watched directory
func (cw *CertWatcher) relevant(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if filepath.Base(name) == projectedDataDir {
		if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
			return false
		}
		return slices.Contains(cw.directories(), filepath.Dir(name))
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return slices.ContainsFunc(cw.files, func(file string) bool {
		return filepath.Clean(file) == name || filepath.Base(file) == filepath.Base(name)
	})
}

// snapshot records the current modification times
func (cw *CertWatcher) snapshot() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	for _, file := range cw.files {
		if stat, err := os.Stat(file); err == nil {
			cw.lastModTime[file] = stat.ModTime()
		}
	}
}

// changed reports whether any file was modified, created or removed since the last check
func (cw *CertWatcher) changed() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	changed := false
	for _, file := range cw.files {
		stat, err := os.Stat(file)
		if err != nil {
			if _, seen := cw.lastModTime[file]; seen && os.IsNotExist(err) {
				delete(cw.lastModTime, file)
				changed = true
			}
			continue
		}
		lastMod, seen := cw.lastModTime[file]
		if !seen || !stat.ModTime().Equal(lastMod) {
			cw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}
