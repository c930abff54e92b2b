// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrNoPaths is returned by New when nothing is to be watched.
	ErrNoPaths = errors.New("watch: no paths to watch")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// defaultIgnores are matched against paths relative to their watch root.
	defaultIgnores = []string{
		"**/.git/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Paths are the files and directories to watch.
		Paths []string
		// Ignore are doublestar patterns, relative to the watched directory,
		// for paths that never trigger the callback.
		Ignore []string
		// Debounce is the quiet period after the last event before OnChange
		// fires.
		Debounce time.Duration
		// OnChange receives the sorted, deduplicated changed paths. Errors are
		// logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watch diagnostics.
		Logger *log.Logger
	}

	// Watcher fires a debounced callback when watched paths change. Run must
	// be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool

		mu      sync.Mutex
		dirs    []string
		files   map[string]struct{}
		missing map[string]struct{}
	}
)

// New validates cfg and registers its paths with the OS watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}
	for _, pat := range cfg.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		files:    make(map[string]struct{}),
		missing:  make(map[string]struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		if err := w.watchPath(abs); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the OS watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		// A run still in progress gets the pending set on the next tick.
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("rerun failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			appeared := evt.Has(fsnotify.Create) && w.handleCreate(evt.Name)
			if !appeared && !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("change", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// watchPath registers path. Directories are added recursively, files through
// their parent, and missing paths through their closest existing ancestor
// until they appear.
func (w *Watcher) watchPath(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		w.mu.Lock()
		w.missing[path] = struct{}{}
		w.mu.Unlock()
		if err := w.watchAncestor(path); err != nil {
			return err
		}
		// The path may have appeared before its ancestor was watched.
		if _, err := os.Stat(path); err == nil {
			w.mu.Lock()
			delete(w.missing, path)
			w.mu.Unlock()
			return w.watchPath(path)
		}
		return nil
	case err != nil:
		return fmt.Errorf("watch: stat %q: %w", path, err)
	case info.IsDir():
		w.mu.Lock()
		w.dirs = append(w.dirs, path)
		w.mu.Unlock()
		return w.addTree(path)
	default:
		w.mu.Lock()
		w.files[path] = struct{}{}
		w.mu.Unlock()
		return w.add(filepath.Dir(path))
	}
}

func (w *Watcher) watchAncestor(path string) error {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return w.add(dir)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil
		}
	}
}

// addTree adds root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(root, path+string(filepath.Separator)) {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

func (w *Watcher) add(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch: add %q: %w", dir, err)
	}
	return nil
}

// handleCreate extends the watch to new directories inside a watched tree
// and to missing paths that now exist. It reports whether path was a missing
// input or one of its ancestors.
func (w *Watcher) handleCreate(path string) bool {
	w.mu.Lock()
	var appeared []string
	for m := range w.missing {
		if m == path || within(m, path) {
			appeared = append(appeared, m)
		}
	}
	for _, m := range appeared {
		delete(w.missing, m)
	}
	root, inTree := w.rootOf(path)
	w.mu.Unlock()

	for _, m := range appeared {
		if err := w.watchPath(m); err != nil {
			w.logger.Warn("watch new path", "path", m, "error", err)
		}
	}
	if inTree {
		if info, err := os.Stat(path); err == nil && info.IsDir() && !w.ignored(root, path+string(filepath.Separator)) {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("watch new directory", "path", path, "error", err)
			}
		}
	}
	return len(appeared) > 0
}

// relevant reports whether an event on path concerns a watched input.
func (w *Watcher) relevant(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	if _, ok := w.missing[path]; ok {
		return true
	}
	root, ok := w.rootOf(path)
	return ok && !w.ignored(root, path)
}

// rootOf returns the watched directory containing path. Callers hold mu.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, dir := range w.dirs {
		if path == dir || within(path, dir) {
			return dir, true
		}
	}
	return "", false
}

func (w *Watcher) ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(path, string(filepath.Separator)) {
		rel += "/"
	}
	for _, pat := range w.ignores {
		if matched, _ := doublestar.Match(pat, rel); matched {
			return true
		}
	}
	return false
}

// within reports whether path lies strictly below dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
