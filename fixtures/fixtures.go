// Package fixtures snapshots post metadata for tests that run without
// network access.
package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kahlstrm/sitegen/posts"
)

// DefaultPath is where the snapshot is written when no path is configured.
const DefaultPath = "tests/fixtures/posts.json"

// Config controls fixture generation.
type Config struct {
	// Enabled is the offline-build switch; without it Generate does nothing.
	Enabled    bool
	ContentDir string
	OutputPath string
}

// Generator writes the post metadata snapshot after a build.
type Generator struct {
	cfg Config
	log *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used to report written snapshots.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// New creates a Generator for cfg.
func New(cfg Config, opts ...Option) *Generator {
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultPath
	}
	g := &Generator{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate enumerates the posts and writes the snapshot. It reports whether
// a snapshot was written; with the offline switch unset it writes nothing.
func (g *Generator) Generate() (bool, error) {
	if !g.cfg.Enabled {
		return false, nil
	}
	metas, err := posts.Enumerate(g.cfg.ContentDir)
	if err != nil {
		return false, fmt.Errorf("fixtures: %w", err)
	}
	if err := Write(g.cfg.OutputPath, metas); err != nil {
		return false, err
	}
	g.log.Info("Generated post fixture", "path", g.cfg.OutputPath, "count", len(metas))
	return true, nil
}

// Write serializes metas as an indented JSON array at path, creating parent
// directories and replacing any previous file.
func Write(path string, metas []posts.Meta) error {
	if metas == nil {
		metas = []posts.Meta{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metas); err != nil {
		return fmt.Errorf("fixtures: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fixtures: create dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("fixtures: write: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Write.
func Load(path string) ([]posts.Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read: %w", err)
	}
	var metas []posts.Meta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, fmt.Errorf("fixtures: decode %s: %w", path, err)
	}
	return metas, nil
}
