package sitegen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rebuildDelay is how long the watcher waits for changes to settle.
const rebuildDelay = 300 * time.Millisecond

// debouncer collapses bursts of calls to Trigger into one call of fn after
// the burst has been quiet for delay.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Watch rebuilds the site when files under the content or public directory
// or the stylesheet change, until ctx is cancelled. Rebuilds run one at a
// time. Files the build itself writes never trigger a rebuild.
func (s *Site) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("sitegen: fsnotify: %w", err)
	}
	defer watcher.Close()

	filter := s.watchFilter()
	for _, dir := range filter.roots {
		if err := addDirsRecursive(watcher, dir, filter.ignored...); err != nil {
			return err
		}
	}
	for _, file := range filter.files {
		// Editors replace files on save, so the parent directory is watched.
		if err := watcher.Add(filepath.Dir(file)); err != nil {
			return fmt.Errorf("sitegen: watch %s: %w", file, err)
		}
	}

	rebuild := make(chan struct{}, 1)
	d := newDebouncer(rebuildDelay, func() {
		select {
		case rebuild <- struct{}{}:
		default:
		}
	})
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !filter.match(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name, filter.ignored...)
				}
			}
			s.log.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
			d.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Watcher error", "error", err)
		case <-rebuild:
			if _, err := s.Build(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("Rebuild failed", "error", err)
			}
		}
	}
}

// watchFilter decides which file events are source changes.
type watchFilter struct {
	roots   []string // watched recursively
	files   []string // watched through their parent directory
	ignored []string // written by the build
}

func (s *Site) watchFilter() watchFilter {
	f := watchFilter{
		roots:   []string{s.Config.ContentDir, s.Config.PublicDir},
		ignored: []string{s.Config.OutputDir, s.Config.DatabasePath, s.Config.FixturePath},
	}
	if s.Config.Stylesheet != "" {
		f.files = append(f.files, s.Config.Stylesheet)
	}
	return f
}

func (f watchFilter) match(name string) bool {
	if isIgnored(name, f.ignored) {
		return false
	}
	for _, root := range f.roots {
		if isWithin(root, name) {
			return true
		}
	}
	for _, file := range f.files {
		if sameFile(file, name) {
			return true
		}
	}
	return false
}

// isIgnored reports whether name is one of the ignored paths, lies below
// one, or is a sidecar such as build.db-wal.
func isIgnored(name string, ignored []string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, p := range ignored {
		if p == "" {
			continue
		}
		if isWithin(p, name) {
			return true
		}
		if absP, err := filepath.Abs(p); err == nil && strings.HasPrefix(abs, absP+"-") {
			return true
		}
	}
	return false
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// addDirsRecursive watches root and every directory below it, except the
// skipped paths and everything below them. A missing root is ignored.
func addDirsRecursive(w *fsnotify.Watcher, root string, skip ...string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isIgnored(p, skip) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
	if err != nil {
		return fmt.Errorf("sitegen: watch %s: %w", root, err)
	}
	return nil
}
