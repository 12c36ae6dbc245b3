package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahlstrm/sitegen"
	"github.com/kahlstrm/sitegen/posts"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseBuild(t *testing.T) {
	cli, ctx := parse(t, "build", "--offline", "-o", "public-out")
	assert.Equal(t, "build", ctx.Command())
	assert.True(t, cli.Build.Offline)

	var cfg sitegen.SiteConfig
	cli.Build.apply(&cfg)
	assert.Equal(t, "public-out", cfg.OutputDir)
	assert.True(t, cfg.Offline)
	assert.False(t, cfg.Production)
}

func TestParseNewPost(t *testing.T) {
	cli, ctx := parse(t, "new", "post", "Hello there", "--folder")
	assert.Equal(t, "new post <title>", ctx.Command())
	assert.Equal(t, "Hello there", cli.New.Post.Title)
	assert.True(t, cli.New.Post.Folder)
}

func TestSiteConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sitegen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("name: from-file\nurl: https://file.example\n"), 0o644))
	t.Setenv(sitegen.EnvSiteURL, "https://env.example/")

	cli := &CLI{Config: cfgPath, EnvFile: filepath.Join(dir, ".env")}
	cfg, err := cli.siteConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, "https://env.example/", cfg.URL)
	assert.Equal(t, "src/content/blog", cfg.ContentDir)
}

func TestPrintPosts(t *testing.T) {
	metas := []posts.Meta{{Slug: "a", Title: "A", Description: "first"}}

	var buf bytes.Buffer
	require.NoError(t, printPosts(&buf, metas, false))
	assert.Contains(t, buf.String(), "SLUG")
	assert.Contains(t, buf.String(), "first")

	buf.Reset()
	require.NoError(t, printPosts(&buf, nil, true))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrintBuilds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, printBuilds(&buf, []sitegen.Build{{
		ID: "b1", StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Status: sitegen.BuildSucceeded, Posts: 2, Pages: 5,
	}}))
	assert.Contains(t, buf.String(), "b1")
	assert.Contains(t, buf.String(), "1.5s")
	assert.Contains(t, buf.String(), "succeeded")
}
