// Package watcher reports debounced changes to schema candidate files in a
// local checkout.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Options configures a Watcher.
type Options struct {
	// Filter decides whether a changed file (slash-separated, relative to the
	// root) is reported. Defaults to JavaScript and TypeScript sources.
	Filter   func(rel string) bool
	Debounce time.Duration
}

// Watcher watches a directory tree and reports changed files in batches.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	filter   func(rel string) bool
	debounce time.Duration

	onChange func(paths []string)
	cancel   context.CancelFunc

	mu      sync.Mutex
	pending map[string]struct{}
	paused  bool
	timer   *time.Timer
	fire    chan struct{} // wakes the loop to flush

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher over root and every directory below it, except .git
// and node_modules.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		fsw:      fsw,
		filter:   opts.Filter,
		debounce: opts.Debounce,
		pending:  make(map[string]struct{}),
		fire:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if w.filter == nil {
		w.filter = defaultFilter
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins delivering batches to onChange until ctx is cancelled or Stop
// is called. onChange runs on the watcher goroutine; slow callbacks delay
// the next batch.
func (w *Watcher) Start(ctx context.Context, onChange func(paths []string)) error {
	if onChange == nil {
		return errors.New("watcher: nil change callback")
	}
	w.onChange = onChange
	ctx, w.cancel = context.WithCancel(ctx)

	go w.loop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		} else {
			close(w.done)
		}
		err = w.fsw.Close()
	})
	return err
}

// Pause holds back batches. Changes keep accumulating.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume delivers anything accumulated while paused. Delivery runs on the
// watcher goroutine; Resume never calls onChange itself.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	w.mu.Unlock()
	w.wake()
}

func (w *Watcher) wake() {
	select {
	case w.fire <- struct{}{}:
	default:
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case <-w.fire:
			w.flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skippedDirs[info.Name()] {
				return
			}
			if err := w.addTree(event.Name); err != nil {
				log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, ok := w.relative(event.Name)
	if !ok || !w.filter(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.wake)
}

// flush delivers pending changes unless paused.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.paused || len(w.pending) == 0 || w.onChange == nil {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(paths)
	w.onChange(paths)
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if skippedDirs[part] {
			return "", false
		}
	}
	return rel, true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}

func defaultFilter(rel string) bool {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".js", ".ts", ".mjs", ".cjs":
		return true
	}
	return false
}
