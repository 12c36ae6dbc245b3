// Package views holds the page components of the generated site. Components
// are plain templ.Components so they can be composed and rendered the same
// way templ-generated code is.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/kahlstrm/sitegen/markdown"
	"github.com/kahlstrm/sitegen/posts"
	"github.com/kahlstrm/sitegen/showcase"
)

// recentPosts is the number of posts listed on the home page.
const recentPosts = 5

// page accumulates the first write error so templates read top to bottom.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *page) text(s string) { p.raw(templ.EscapeString(s)) }

func (p *page) attr(name, value string) {
	p.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (p *page) render(ctx context.Context, c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

func component(fn func(ctx context.Context, p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		fn(ctx, p)
		return p.err
	})
}

// Layout renders the document shell around its templ children.
func Layout(site SiteConfig, meta PageMeta) templ.Component {
	return component(func(ctx context.Context, p *page) {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		description := meta.Description
		if description == "" {
			description = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw("<title>")
		p.text(title)
		p.raw("</title>")
		p.raw(`<meta name="description"`)
		p.attr("content", description)
		p.raw(">")
		if meta.URL != "" {
			p.raw(`<link rel="canonical"`)
			p.attr("href", meta.URL)
			p.raw(">")
			p.raw(`<meta property="og:url"`)
			p.attr("content", meta.URL)
			p.raw(">")
		}
		p.raw(`<meta property="og:title"`)
		p.attr("content", title)
		p.raw(`><meta property="og:description"`)
		p.attr("content", description)
		p.raw(`><meta property="og:type"`)
		p.attr("content", ogType)
		p.raw(">")
		p.raw(`<link rel="alternate" type="application/rss+xml" href="/rss.xml"`)
		p.attr("title", site.Name)
		p.raw(">")
		p.raw(`<link rel="sitemap" href="/sitemap-index.xml">`)
		if meta.JSONLD != "" {
			p.raw(`<script type="application/ld+json">`)
			p.raw(meta.JSONLD)
			p.raw("</script>")
		}
		if site.Stylesheet != "" {
			p.raw("<style>")
			p.raw(site.Stylesheet)
			p.raw("</style>")
		}
		p.raw(`</head><body><header class="site-header"><a class="site-title" href="/">`)
		p.text(site.Name)
		p.raw(`</a><nav><a href="/">Home</a><a href="/blog">Blog</a></nav></header><main>`)
		p.render(ctx, templ.GetChildren(ctx))
		p.raw(`</main><footer class="site-footer">`)
		p.raw("<span>&copy; ")
		p.text(site.Author)
		p.raw("</span>")
		if site.Self != "" {
			p.raw(` <a`)
			p.attr("href", "https://github.com/"+site.Self)
			p.raw(">Source</a>")
		}
		p.raw("</footer></body></html>")
	})
}

func withLayout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(site, meta).Render(templ.WithChildren(ctx, body), w)
	})
}

func postCard(p *page, post posts.Post, heading string) {
	p.raw(`<article class="blog-card"><a`)
	p.attr("href", PostURL(post.Slug))
	p.raw("><" + heading + ">")
	p.text(post.Title)
	p.raw("</" + heading + `><p class="description">`)
	p.text(post.Description)
	p.raw("</p>")
	if !post.PubDate.IsZero() {
		p.raw("<time")
		p.attr("datetime", post.PubDate.Format("2006-01-02"))
		p.raw(">")
		p.text(post.PubDate.Format(dateLayout))
		p.raw("</time>")
	}
	p.raw("</a></article>")
}

func repoCard(p *page, repo showcase.Repo) {
	p.raw(`<article class="repo-card">`)
	if href := markdown.SafeURL(repo.HTMLURL); href != "" {
		p.raw(`<a href="` + href + `">`)
	} else {
		p.raw("<a>")
	}
	p.raw("<h3>")
	p.text(repo.Name)
	p.raw("</h3></a>")
	if repo.Description != "" {
		p.raw(`<p class="description">`)
		p.text(repo.Description)
		p.raw("</p>")
	}
	p.raw(`<ul class="repo-stats">`)
	if repo.Language != "" {
		p.raw(`<li class="language">`)
		p.text(repo.Language)
		p.raw("</li>")
	}
	p.raw(`<li class="stars">` + strconv.Itoa(repo.Stars) + " stars</li>")
	p.raw(`<li class="forks">` + strconv.Itoa(repo.Forks) + " forks</li>")
	p.raw("</ul></article>")
}

// Home renders the landing page: the most recent posts and the repository
// showcase. repos is empty for offline builds.
func Home(site SiteConfig, list []posts.Post, repos []showcase.Repo) templ.Component {
	meta := PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         buildURL(site.URL),
		JSONLD:      WebsiteJSONLD(site),
	}
	return withLayout(site, meta, component(func(_ context.Context, p *page) {
		p.raw(`<section class="intro"><h1>`)
		p.text(site.Name)
		p.raw("</h1><p>")
		p.text(site.Description)
		p.raw(`</p></section><section class="recent"><h2>Recent posts</h2>`)
		shown := list
		if len(shown) > recentPosts {
			shown = shown[:recentPosts]
		}
		for _, post := range shown {
			postCard(p, post, "h3")
		}
		p.raw(`<a class="more" href="/blog">All posts</a></section>`)
		if len(repos) > 0 {
			p.raw(`<section class="showcase"><h2>Projects</h2>`)
			for _, repo := range repos {
				repoCard(p, repo)
			}
			p.raw("</section>")
		}
	}))
}

// BlogIndex renders the post listing, one card per post.
func BlogIndex(site SiteConfig, list []posts.Post) templ.Component {
	meta := PageMeta{
		Title:       "Blog",
		Description: site.Description,
		URL:         buildURL(site.URL, "blog"),
	}
	return withLayout(site, meta, component(func(_ context.Context, p *page) {
		p.raw(`<section class="blog-list"><h1>Blog</h1>`)
		for _, post := range list {
			postCard(p, post, "h2")
		}
		p.raw("</section>")
	}))
}

// Post renders a single post page around its rendered body.
func Post(site SiteConfig, post posts.Post, body templ.Component, readingTime int, related []posts.Post) templ.Component {
	meta := PageMeta{
		Title:       post.Title,
		Description: post.Description,
		URL:         buildURL(site.URL, "blog", post.Slug),
		OGType:      "article",
		JSONLD:      BlogPostingJSONLD(site, post),
	}
	return withLayout(site, meta, component(func(ctx context.Context, p *page) {
		p.raw(`<article class="post"><header><h1>`)
		p.text(post.Title)
		p.raw(`</h1><p class="post-meta">`)
		p.raw("<time")
		p.attr("datetime", post.PubDate.Format("2006-01-02"))
		p.raw(">")
		p.text(post.PubDate.Format(dateLayout))
		p.raw("</time> &middot; ")
		p.text(post.Author)
		p.raw(" &middot; ")
		p.text(fmt.Sprintf("%d min read", readingTime))
		p.raw("</p>")
		if len(post.Tags) > 0 {
			p.raw(`<ul class="tags">`)
			for _, tag := range post.Tags {
				p.raw("<li>")
				p.text(tag)
				p.raw("</li>")
			}
			p.raw("</ul>")
		}
		p.raw(`</header><div class="post-body">`)
		p.render(ctx, body)
		p.raw("</div></article>")
		if len(related) > 0 {
			p.raw(`<aside class="related"><h2>Related posts</h2>`)
			for _, r := range related {
				postCard(p, r, "h3")
			}
			p.raw("</aside>")
		}
	}))
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	meta := PageMeta{Title: "Page not found"}
	return withLayout(site, meta, component(func(_ context.Context, p *page) {
		p.raw(`<section class="not-found"><h1>404</h1><p>This page does not exist.</p><a href="/">Back home</a></section>`)
	}))
}
