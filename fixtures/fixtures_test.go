package fixtures

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahlstrm/sitegen/posts"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeContent(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"a.md":        "---\ntitle: \"A <post>\"\ndescription: Ampersands & co\n---\n",
		"b/index.md":  "---\ntitle: B\ndescription: 'second'\n---\n",
		"c/cover.png": "png",
		"ignored.txt": "nothing",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestGenerateDisabled(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tests", "fixtures", "posts.json")
	g := New(Config{ContentDir: dir, OutputPath: out}, WithLogger(quietLogger))

	wrote, err := g.Generate()
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.NoFileExists(t, out)
}

func TestGenerateRoundTrip(t *testing.T) {
	content := t.TempDir()
	writeContent(t, content)
	out := filepath.Join(t.TempDir(), "tests", "fixtures", "posts.json")

	g := New(Config{Enabled: true, ContentDir: content, OutputPath: out}, WithLogger(quietLogger))
	wrote, err := g.Generate()
	require.NoError(t, err)
	assert.True(t, wrote)

	loaded, err := Load(out)
	require.NoError(t, err)
	direct, err := posts.Enumerate(content)
	require.NoError(t, err)
	assert.Equal(t, direct, loaded)
	assert.Len(t, loaded, 2)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title": "A <post>"`, "markup characters are not escaped")
	assert.Contains(t, string(raw), "\n  {\n    \"slug\"", "two-space indentation")
}

func TestGenerateOverwrites(t *testing.T) {
	content := t.TempDir()
	writeContent(t, content)
	out := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(out, []byte(`[{"slug":"stale"}]`), 0o644))

	_, err := New(Config{Enabled: true, ContentDir: content, OutputPath: out}, WithLogger(quietLogger)).Generate()
	require.NoError(t, err)

	loaded, err := Load(out)
	require.NoError(t, err)
	for _, m := range loaded {
		assert.NotEqual(t, "stale", m.Slug)
	}
}

func TestGenerateMissingContent(t *testing.T) {
	g := New(Config{Enabled: true, ContentDir: filepath.Join(t.TempDir(), "missing")}, WithLogger(quietLogger))
	_, err := g.Generate()
	assert.Error(t, err)
}

func TestWriteEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, Write(out, nil))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestWriteLoadProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()

	genMeta := gopter.CombineGens(gen.Identifier(), gen.AnyString(), gen.AnyString()).Map(func(v []interface{}) posts.Meta {
		return posts.Meta{Slug: v[0].(string), Title: v[1].(string), Description: v[2].(string)}
	})

	properties.Property("Load returns what Write stored", prop.ForAll(
		func(metas []posts.Meta) bool {
			path := filepath.Join(dir, "posts.json")
			if err := Write(path, metas); err != nil {
				return false
			}
			loaded, err := Load(path)
			if err != nil || len(loaded) != len(metas) {
				return false
			}
			for i := range metas {
				if loaded[i] != metas[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genMeta),
	))

	properties.TestingRun(t)
}
