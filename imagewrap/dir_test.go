package imagewrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteDir(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"index.html":                 `<p><img src="/a.jpg"></p>`,
		"blog/post/index.html":       `<a href="/x"><img src="/b.jpg"></a>`,
		"blog/deep/nested/page.html": `<p>no images</p>`,
		"styles.css":                 `img { max-width: 100%; }`,
		"notes.txt":                  `<img src="/c.jpg">`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	untouched := filepath.Join(root, "blog", "deep", "nested", "page.html")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(untouched, old, old))

	s, err := New(ModeWrapOutput)
	require.NoError(t, err)
	stats, err := RewriteDir(root, "", s)
	require.NoError(t, err)

	assert.Equal(t, DirStats{Scanned: 3, Rewritten: 1, Changes: 1}, stats)

	got, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<p><a href="/a.jpg" target="_blank" rel="noopener noreferrer"><img src="/a.jpg"></a></p>`, string(got))

	got, err = os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, files["notes.txt"], string(got), "non-matching files are skipped")

	info, err := os.Stat(untouched)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged files are not rewritten")

	// A second pass finds nothing to do.
	stats, err = RewriteDir(root, DefaultPattern, s)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Rewritten)
}

func TestRewriteDirPattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(`<img src="/a.jpg">`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blog", "index.html"), []byte(`<img src="/b.jpg">`), 0o644))

	s, err := New(ModeWrapOutput)
	require.NoError(t, err)
	stats, err := RewriteDir(root, "blog/**/*.html", s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rewritten)

	got, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<img src="/a.jpg">`, string(got))
}

func TestRewriteDirErrors(t *testing.T) {
	_, err := RewriteDir(filepath.Join(t.TempDir(), "missing"), "", noop{})
	assert.Error(t, err)

	_, err = RewriteDir(t.TempDir(), "[", noop{})
	assert.Error(t, err)
}

func TestRewriteDirPropagatesRewriterErrors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("x"), 0o644))

	failing := RewriterFunc(func([]byte) ([]byte, int, error) {
		return nil, 0, assert.AnError
	})
	_, err := RewriteDir(root, "", failing)
	assert.ErrorIs(t, err, assert.AnError)
}
