// Package posts discovers blog posts in a content directory.
//
// A post is either a single markdown file (slug.md) or a folder holding an
// index document (slug/index.md) next to its assets.
package posts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/kahlstrm/sitegen/frontmatter"
)

const (
	// Ext is the recognized markdown extension.
	Ext = ".md"
	// IndexFile is the document expected inside a folder post.
	IndexFile = "index" + Ext
)

// Meta is the listing metadata of a post.
type Meta struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Post is a fully decoded post ready for rendering.
type Post struct {
	Meta
	PubDate time.Time
	Author  string
	Tags    []string
	Draft   bool
	Body    []byte
	// Dir is the folder holding the post's assets, relative to the content
	// root. It is empty for single-file posts.
	Dir string
}

type source struct {
	slug string
	file string
	dir  string
}

// discover classifies the entries of fsys's root in directory-listing order.
func discover(fsys fs.FS) ([]source, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var found []source
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			file := path.Join(name, IndexFile)
			if _, err := fs.Stat(fsys, file); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, err
			}
			found = append(found, source{slug: name, file: file, dir: name})
		case strings.HasSuffix(name, Ext):
			found = append(found, source{slug: strings.TrimSuffix(name, Ext), file: name})
		}
	}
	return found, nil
}

// Enumerate lists the posts under root. Folders without an index document
// and files without the markdown extension are skipped.
func Enumerate(root string) ([]Meta, error) {
	return EnumerateFS(os.DirFS(root))
}

// EnumerateFS is Enumerate over an arbitrary file system.
func EnumerateFS(fsys fs.FS) ([]Meta, error) {
	sources, err := discover(fsys)
	if err != nil {
		return nil, fmt.Errorf("posts: enumerate: %w", err)
	}
	metas := make([]Meta, 0, len(sources))
	for _, src := range sources {
		content, err := fs.ReadFile(fsys, src.file)
		if err != nil {
			return nil, fmt.Errorf("posts: read %s: %w", src.file, err)
		}
		fields, err := frontmatter.Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("posts: %s: %w", src.file, err)
		}
		metas = append(metas, Meta{
			Slug:        src.slug,
			Title:       fields.Title,
			Description: fields.Description,
		})
	}
	return metas, nil
}

// Load decodes every post under root using the same discovery rule as
// Enumerate.
func Load(root string) ([]Post, error) {
	return LoadFS(os.DirFS(root))
}

// LoadFS is Load over an arbitrary file system.
func LoadFS(fsys fs.FS) ([]Post, error) {
	sources, err := discover(fsys)
	if err != nil {
		return nil, fmt.Errorf("posts: load: %w", err)
	}
	loaded := make([]Post, 0, len(sources))
	for _, src := range sources {
		content, err := fs.ReadFile(fsys, src.file)
		if err != nil {
			return nil, fmt.Errorf("posts: read %s: %w", src.file, err)
		}
		var fields frontmatter.PostFields
		body, err := frontmatter.Decode(bytes.NewReader(content), &fields)
		if err != nil {
			return nil, fmt.Errorf("posts: %s: %w", src.file, err)
		}
		if err := fields.Validate(); err != nil {
			return nil, fmt.Errorf("posts: %s: %w", src.file, err)
		}
		fields.ApplyDefaults()
		loaded = append(loaded, Post{
			Meta: Meta{
				Slug:        src.slug,
				Title:       fields.Title,
				Description: fields.Description,
			},
			PubDate: fields.PubDate.Time,
			Author:  fields.Author,
			Tags:    fields.Tags,
			Draft:   fields.Draft,
			Body:    body,
			Dir:     src.dir,
		})
	}
	return loaded, nil
}
