package imagewrap

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var reHref = regexp.MustCompile(`href="([^"]*)"`)

// genMarkup builds snippets mixing paragraphs, bare images, wrapped images
// images behind fragment links and images without a src.
func genMarkup() gopter.Gen {
	piece := gen.OneGenOf(
		gen.AlphaString().Map(func(s string) string { return "<p>" + s + "</p>" }),
		gen.Identifier().Map(func(s string) string { return fmt.Sprintf(`<img src="/%s.png" alt="%s">`, s, s) }),
		gen.Identifier().Map(func(s string) string { return fmt.Sprintf(`<a href="/full/%s.png"><img src="/%s.png"></a>`, s, s) }),
		gen.Identifier().Map(func(s string) string { return fmt.Sprintf(`<a href="#frag-%s"><img src="/%s.png"></a>`, s, s) }),
		gen.Identifier().Map(func(s string) string { return fmt.Sprintf(`<img alt="%s">`, s) }),
		gen.Const("\n"),
	)
	return gen.SliceOf(piece).Map(func(parts []string) string { return strings.Join(parts, "") })
}

func TestImageWrapProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("WrapImages is idempotent", prop.ForAll(
		func(markup string) bool {
			once := WrapImages(markup)
			return WrapImages(once) == once
		},
		genMarkup(),
	))

	properties.Property("FixHrefs is idempotent", prop.ForAll(
		func(markup string) bool {
			once := FixHrefs(markup)
			return FixHrefs(once) == once
		},
		genMarkup(),
	))

	properties.Property("after FixHrefs wrapped images link to their own src", prop.ForAll(
		func(markup string) bool {
			fixed := FixHrefs(markup)
			for _, m := range reLinkedImage.FindAllStringSubmatch(fixed, -1) {
				anchor := m[0][:strings.Index(m[0], ">")+1]
				href := reHref.FindStringSubmatch(anchor)
				if href == nil {
					return false
				}
				if strings.HasPrefix(href[1], "#") {
					continue
				}
				if href[1] != m[5] {
					return false
				}
			}
			return true
		},
		genMarkup(),
	))

	properties.Property("FixHrefs keeps fragment links", prop.ForAll(
		func(markup string) bool {
			return strings.Count(FixHrefs(markup), `href="#frag-`) == strings.Count(markup, `href="#frag-`)
		},
		genMarkup(),
	))

	properties.Property("lightbox ids are sequential and unique", prop.ForAll(
		func(markup string) bool {
			s, _ := New(ModeLightbox)
			out, n, err := s.Rewrite([]byte(markup))
			if err != nil {
				return false
			}
			doc := string(out)
			for i := 0; i < n; i++ {
				id := LightboxID(i)
				if strings.Count(doc, `id="`+id+`"`) != 1 || strings.Count(doc, `href="#`+id+`"`) != 1 {
					return false
				}
			}
			return !strings.Contains(doc, `id="`+LightboxID(n)+`"`)
		},
		genMarkup(),
	))

	properties.TestingRun(t)
}
