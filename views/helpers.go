package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/kahlstrm/sitegen/posts"
)

const dateLayout = "Jan 2, 2006"

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostURL is the site-relative URL of a post page.
func PostURL(slug string) string {
	return "/blog/" + url.PathEscape(slug)
}

// FilterRelatedPosts returns posts that share at least one tag with the current post.
func FilterRelatedPosts(current posts.Post, list []posts.Post) []posts.Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []posts.Post
	for _, p := range list {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			tag := strings.ToLower(strings.TrimSpace(t))
			if _, ok := tagSet[tag]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// WebsiteJSONLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJSONLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJSONLD(data)
}

// BlogPostingJSONLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJSONLD(cfg SiteConfig, post posts.Post) string {
	postURL := buildURL(cfg.URL, "blog", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Description,
		"datePublished": post.PubDate.Format("2006-01-02"),
		"url":           postURL,
		"author": map[string]string{
			"@type": "Person",
			"name":  post.Author,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
