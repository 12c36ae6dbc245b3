// Package scaffold creates new sitegen sites and posts from embedded
// templates.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

const (
	siteRoot     = "templates/site"
	postTemplate = "templates/post.md.tmpl"
	dateLayout   = "2006-01-02"
)

// ErrExists is returned when the target of a scaffold is already present.
var ErrExists = errors.New("scaffold: target already exists")

// renames maps template names that cannot be embedded as dotfiles.
var renames = map[string]string{
	"dotenv":    ".env.example",
	"gitignore": ".gitignore",
}

// SiteData holds the template variables passed to every site template.
type SiteData struct {
	ProjectName string
	SiteName    string
	URL         string
	Author      string
	Date        string
}

// NewSiteData derives template variables from a project directory name.
func NewSiteData(dir, author string, now time.Time) SiteData {
	name := filepath.Base(filepath.Clean(dir))
	if author == "" {
		author = Title(name)
	}
	return SiteData{
		ProjectName: name,
		SiteName:    Title(name),
		URL:         "http://localhost:4321/",
		Author:      author,
		Date:        now.Format(dateLayout),
	}
}

// Site writes a new site into dir, which must not exist yet. It returns the
// created files relative to dir.
func Site(dir string, data SiteData) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	}

	var created []string
	err := fs.WalkDir(Templates, siteRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, siteRoot), "/")
		if rel == "" {
			return os.MkdirAll(dir, 0o755)
		}
		rel = strings.TrimSuffix(rel, ".tmpl")
		if to, ok := renames[path.Base(rel)]; ok {
			rel = path.Join(path.Dir(rel), to)
		}
		out := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		if err := render(p, out, data); err != nil {
			return err
		}
		created = append(created, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PostData holds the template variables of a new post.
type PostData struct {
	Title string
	Date  string
}

// Post creates a draft post titled title in contentDir and returns its path.
// With folder set the post is slug/index.md so images can sit next to it.
func Post(contentDir, title string, date time.Time, folder bool) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("scaffold: title %q has no usable characters", title)
	}
	out := filepath.Join(contentDir, slug+".md")
	if folder {
		out = filepath.Join(contentDir, slug, "index.md")
	}
	for _, existing := range []string{filepath.Join(contentDir, slug+".md"), filepath.Join(contentDir, slug)} {
		if _, err := os.Stat(existing); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, existing)
		}
	}
	if err := render(postTemplate, out, PostData{Title: title, Date: date.Format(dateLayout)}); err != nil {
		return "", err
	}
	return out, nil
}

func render(name, out string, data any) error {
	content, err := Templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("scaffold: read %s: %w", name, err)
	}
	tmpl, err := template.New(path.Base(name)).Parse(string(content))
	if err != nil {
		return fmt.Errorf("scaffold: parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("scaffold: execute template %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

// Title converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func Title(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

// Slugify converts a post title to the slug used as its file name.
func Slugify(s string) string {
	s = cases.Lower(language.English).String(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == 'ä' || r == 'å':
			b.WriteByte('a')
			dash = false
		case r == 'ö':
			b.WriteByte('o')
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
