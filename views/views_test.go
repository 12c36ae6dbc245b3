package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahlstrm/sitegen/markdown"
	"github.com/kahlstrm/sitegen/posts"
	"github.com/kahlstrm/sitegen/showcase"
)

var testSite = SiteConfig{
	Name:        "kahlstrm",
	URL:         "https://kahlstrm.xyz/",
	Description: "Personal site",
	Author:      "Kalle Kahlström",
	Self:        "kahlstrm/site",
	Stylesheet:  "body{margin:0}",
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testPost(slug, title string, day int, tags ...string) posts.Post {
	return posts.Post{
		Meta:    posts.Meta{Slug: slug, Title: title, Description: title + " description"},
		PubDate: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Author:  "Kalle Kahlström",
		Tags:    tags,
	}
}

func TestBlogIndex(t *testing.T) {
	list := []posts.Post{testPost("second", "Second", 2), testPost("first", "First <draft>", 1)}
	out := renderString(t, BlogIndex(testSite, list))

	assert.Equal(t, 2, strings.Count(out, `class="blog-card"`))
	assert.Contains(t, out, `<a href="/blog/second"><h2>Second</h2><p class="description">Second description</p>`)
	assert.Contains(t, out, "<h2>First &lt;draft&gt;</h2>", "titles are escaped")
	assert.Less(t, strings.Index(out, "/blog/second"), strings.Index(out, "/blog/first"), "order is preserved")
	assert.Contains(t, out, `<link rel="canonical" href="https://kahlstrm.xyz/blog/">`)
	assert.Contains(t, out, "<style>body{margin:0}</style>")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.True(t, strings.HasSuffix(out, "</html>"))
}

func TestPostPage(t *testing.T) {
	post := testPost("lightbox", "Lightbox test", 3, "go", "web")
	body := markdown.Markdown([]byte(`<p><img src="/a.png" alt="A"></p>`))
	related := []posts.Post{testPost("other", "Other", 1, "go")}

	out := renderString(t, Post(testSite, post, body, 4, related))

	assert.Contains(t, out, "<h1>Lightbox test</h1>")
	assert.Contains(t, out, `<div class="post-body"><p><img src="/a.png" alt="A"></p></div>`)
	assert.Contains(t, out, `<time datetime="2024-01-03">Jan 3, 2024</time>`)
	assert.Contains(t, out, "4 min read")
	assert.Contains(t, out, "<li>go</li><li>web</li>")
	assert.Contains(t, out, `<meta property="og:type" content="article">`)
	assert.Contains(t, out, `"@type":"BlogPosting"`)
	assert.Contains(t, out, `<title>Lightbox test | kahlstrm</title>`)
	assert.Contains(t, out, `<a href="/blog/other"><h3>Other</h3>`)
}

func TestHome(t *testing.T) {
	var list []posts.Post
	for i := 1; i <= 7; i++ {
		list = append(list, testPost(string(rune('a'+i)), "Post", i))
	}
	repos := []showcase.Repo{
		{Name: "tool", HTMLURL: "https://github.com/kahlstrm/tool", Description: "A <tool>", Language: "Go", Stars: 3, Forks: 1},
		{Name: "bad", HTMLURL: "javascript:alert(1)"},
	}

	out := renderString(t, Home(testSite, list, repos))
	assert.Equal(t, recentPosts, strings.Count(out, `class="blog-card"`))
	assert.Contains(t, out, `<a href="https://github.com/kahlstrm/tool"><h3>tool</h3></a>`)
	assert.Contains(t, out, "A &lt;tool&gt;")
	assert.Contains(t, out, `<li class="stars">3 stars</li>`)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `"@type":"WebSite"`)
	assert.Contains(t, out, `href="https://github.com/kahlstrm/site">Source</a>`)

	offline := renderString(t, Home(testSite, list, nil))
	assert.NotContains(t, offline, `class="showcase"`)
}

func TestNotFound(t *testing.T) {
	out := renderString(t, NotFound(testSite))
	assert.Contains(t, out, "<h1>404</h1>")
	assert.Contains(t, out, "<title>Page not found | kahlstrm</title>")
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://kahlstrm.xyz/", nil, "https://kahlstrm.xyz/"},
		{"https://kahlstrm.xyz", nil, "https://kahlstrm.xyz/"},
		{"https://kahlstrm.xyz/", []string{"blog", "post"}, "https://kahlstrm.xyz/blog/post/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildURL(tt.base, tt.segments...))
	}
}

func TestFilterRelatedPosts(t *testing.T) {
	current := testPost("a", "A", 1, "Go", " web ")
	list := []posts.Post{
		current,
		testPost("b", "B", 2, "go"),
		testPost("c", "C", 3, "rust"),
		testPost("d", "D", 4, "WEB"),
	}
	related := FilterRelatedPosts(current, list)
	require.Len(t, related, 2)
	assert.Equal(t, "b", related[0].Slug)
	assert.Equal(t, "d", related[1].Slug)
}
