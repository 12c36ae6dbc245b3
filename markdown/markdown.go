// Package markdown renders post bodies to HTML and wraps the result as a
// templ component.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// wordsPerMinute is the reading speed used by ReadingTime.
const wordsPerMinute = 200

var assetBaseKey = parser.NewContextKey()

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GitHub-flavored markdown, footnotes,
// typographic punctuation, heading ids and raw HTML passthrough.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(assetResolver{}, 100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// Render converts body to HTML. Relative image destinations are resolved
// against assetBase, the URL path the post's own files are published under
// (for example "/blog/my-post/"). An empty assetBase leaves them unchanged.
func (r *Renderer) Render(body []byte, assetBase string) ([]byte, error) {
	pc := parser.NewContext()
	if assetBase != "" {
		pc.Set(assetBaseKey, assetBase)
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown returns a templ.Component that writes already rendered HTML.
func Markdown(rendered []byte) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write(rendered)
		return err
	})
}

// ReadingTime estimates the minutes needed to read body, at least one.
func ReadingTime(body []byte) int {
	words := len(strings.FieldsFunc(string(body), func(r rune) bool {
		return unicode.IsSpace(r)
	}))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

type assetResolver struct{}

func (assetResolver) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	base, _ := pc.Get(assetBaseKey).(string)
	if base == "" {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			img.Destination = []byte(ResolveAsset(string(img.Destination), base))
		}
		return ast.WalkContinue, nil
	})
}

// ResolveAsset joins a relative destination onto base. Absolute paths,
// fragments and URLs with a scheme or host are returned unchanged.
func ResolveAsset(dest, base string) string {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return dest
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return dest
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(dest, "./")
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
