package sitegen

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestAddDirsRecursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "f.md"), []byte("x"), 0o644))

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, addDirsRecursive(w, root))
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, w.WatchList())

	require.NoError(t, addDirsRecursive(w, filepath.Join(root, "missing")))
}

func TestAddDirsRecursiveSkips(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content", "post"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist", "blog"), 0o755))

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, addDirsRecursive(w, root, filepath.Join(root, "dist")))
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "content"),
		filepath.Join(root, "content", "post"),
	}, w.WatchList())
}

func TestWatchFilter(t *testing.T) {
	ts := newTestSite(t)
	ts.cfg.Stylesheet = filepath.Join(ts.root, "custom.css")
	require.NoError(t, os.WriteFile(ts.cfg.Stylesheet, []byte("a{}"), 0o644))
	site, err := New(ts.cfg, WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { site.Close() })

	f := site.watchFilter()
	tests := []struct {
		name string
		want bool
	}{
		{filepath.Join(ts.cfg.ContentDir, "hello.md"), true},
		{filepath.Join(ts.cfg.ContentDir, "example-lightbox-test", "one.png"), true},
		{filepath.Join(ts.cfg.PublicDir, "favicon.svg"), true},
		{ts.cfg.Stylesheet, true},
		{filepath.Join(ts.root, "other.css"), false},
		{filepath.Join(ts.cfg.OutputDir, "index.html"), false},
		{ts.cfg.DatabasePath, false},
		{ts.cfg.DatabasePath + "-wal", false},
		{ts.cfg.FixturePath, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.match(tt.name), tt.name)
	}
}

func TestWatchRebuilds(t *testing.T) {
	ts := newTestSite(t)
	ts.cfg.SkipImageOptimization = true
	site, _, err := ts.build(t)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- site.Watch(ctx) }()

	// Give the watcher time to register before changing content.
	time.Sleep(100 * time.Millisecond)
	post := "---\ntitle: Fresh\ndescription: Added while watching\npubDate: 2024-06-01\n---\nNew.\n"
	require.NoError(t, os.WriteFile(filepath.Join(ts.cfg.ContentDir, "fresh.md"), []byte(post), 0o644))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(ts.cfg.OutputDir, "blog", "fresh", "index.html"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchIgnoresOwnOutput(t *testing.T) {
	ts := newTestSite(t)
	ts.cfg.SkipImageOptimization = true
	// The stylesheet sits in the directory that also holds the output and
	// the build database.
	ts.cfg.Stylesheet = filepath.Join(ts.root, "custom.css")
	require.NoError(t, os.WriteFile(ts.cfg.Stylesheet, []byte(".before-change{margin:1px}"), 0o644))
	site, _, err := ts.build(t)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- site.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(ts.cfg.Stylesheet, []byte(".after-change{margin:1px}"), 0o644))

	builds := func() int {
		list, err := site.Store.ListBuilds(10)
		require.NoError(t, err)
		return len(list)
	}
	require.Eventually(t, func() bool { return builds() == 2 }, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, ts.read(t, "index.html"), "after-change")

	// A rebuild triggered by its own output would show up after another
	// debounce period.
	time.Sleep(3 * rebuildDelay)
	assert.Equal(t, 2, builds())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
