// Package watcher keeps the declaration index in sync with the files of a
// project directory.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event on a path
// before the change callback fires
const DefaultDebounce = 100 * time.Millisecond

var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
}

// Watcher reports changed files under a directory tree. Editors often
// write a file several times per save, so events on one path are
// collapsed until the path has been quiet for the debounce interval.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	loop     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	pending map[string]*time.Timer
}

// New creates a watcher. A debounce <= 0 uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring root recursively. onChange receives the absolute
// path of every created, written, removed or renamed file.
func (w *Watcher) Watch(root string, onChange func(path string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && ShouldIgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
	if err != nil {
		return err
	}

	w.loop.Add(1)
	go func() {
		defer w.loop.Done()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				w.handle(event, onChange)
			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
			case <-w.done:
				return
			}
		}
	}()

	return nil
}

func (w *Watcher) handle(event fsnotify.Event, onChange func(string)) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !ShouldIgnoreDir(info.Name()) {
				_ = w.fw.Add(path)
			}
			return
		}
	}

	if ShouldIgnorePath(path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange(path)
		}
	})
}

// Stop ends monitoring and drops pending callbacks. Safe to call multiple
// times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fw.Close()
	w.loop.Wait()
	return err
}

// ShouldIgnoreDir reports whether a directory name is never watched
func ShouldIgnoreDir(name string) bool {
	return ignoreDirs[name]
}

// ShouldIgnorePath reports whether any component of path is an ignored
// directory, or the file is an editor swap file
func ShouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") || base == ".DS_Store" {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}
