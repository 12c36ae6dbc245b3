package imagewrap

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects the generated markup files.
const DefaultPattern = "**/*.html"

// DirStats summarizes a RewriteDir pass.
type DirStats struct {
	Scanned   int // files matching the pattern
	Rewritten int // files whose content changed
	Changes   int // changes reported by the rewriter
}

// RewriteDir applies rw to every file under root whose slash-separated path
// relative to root matches pattern. Directories are walked depth-first, one
// file at a time, and a file is written back only when its content changed.
func RewriteDir(root, pattern string, rw Rewriter) (DirStats, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return DirStats{}, fmt.Errorf("imagewrap: invalid pattern %q", pattern)
	}
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); !ok {
			return nil
		}
		stats.Scanned++
		n, changed, err := rewriteFile(path, rw)
		if err != nil {
			return fmt.Errorf("imagewrap: %s: %w", rel, err)
		}
		stats.Changes += n
		if changed {
			stats.Rewritten++
		}
		return nil
	})
	return stats, err
}

func rewriteFile(path string, rw Rewriter) (int, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false, err
	}
	updated, n, err := rw.Rewrite(content)
	if err != nil {
		return 0, false, err
	}
	if bytes.Equal(updated, content) {
		return n, false, nil
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return 0, false, err
	}
	return n, true, nil
}
