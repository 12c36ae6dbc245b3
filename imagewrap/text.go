package imagewrap

import (
	"regexp"
	"strings"
)

var (
	// <a ...href="X"...> <img ...src="Y"...> </a>
	reLinkedImage = regexp.MustCompile(`<a\s+([^>]*href=")([^"]*)("[^>]*>)\s*(<img\s+[^>]*src=")([^"]*)("[^>]*>)\s*</a>`)
	// an img tag together with an anchor that opens right before or closes
	// right after it
	reImage = regexp.MustCompile(`(<a\s[^>]*>)?(\s*)<img\s+([^>]*)>(\s*)(</a>)?`)
	reSrc   = regexp.MustCompile(`src="([^"]*)"`)
)

// FixHrefs points every anchor that directly wraps an image at the image's
// current src. Output passes that rewrite img src values after links were
// created leave the anchors pointing at stale URLs; this repairs them.
// Anchors with a fragment href, such as lightbox triggers, are left alone.
func FixHrefs(markup string) string {
	out, _ := fixHrefs(markup)
	return out
}

func fixHrefs(markup string) (string, int) {
	changed := 0
	out := replaceSubmatches(reLinkedImage, markup, func(m []string) string {
		if strings.HasPrefix(m[2], "#") {
			return m[0]
		}
		fixed := "<a " + m[1] + m[5] + m[3] + m[4] + m[5] + m[6] + "</a>"
		if fixed != m[0] {
			changed++
		}
		return fixed
	})
	return out, changed
}

// WrapImages wraps every bare img tag in an anchor that opens its src in a
// new tab. Images that an anchor opens right before or closes right after are
// considered wrapped already, and images without a src attribute are left
// as they are, so running WrapImages on its own output changes nothing.
func WrapImages(markup string) string {
	out, _ := wrapImages(markup)
	return out
}

func wrapImages(markup string) (string, int) {
	changed := 0
	out := replaceSubmatches(reImage, markup, func(m []string) string {
		openA, lead, attrs, trail, closeA := m[1], m[2], m[3], m[4], m[5]
		if openA != "" || closeA != "" {
			return m[0]
		}
		src := reSrc.FindStringSubmatch(attrs)
		if src == nil {
			return m[0]
		}
		changed++
		return lead + `<a href="` + src[1] + `" target="` + newTabTarget + `" rel="` + newTabRel + `"><img ` + attrs + `></a>` + trail
	})
	return out, changed
}

// replaceSubmatches is ReplaceAllStringFunc with access to the submatches of
// each match.
func replaceSubmatches(re *regexp.Regexp, s string, fn func(m []string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if idx == nil {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range idx {
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s[loc[2*g]:loc[2*g+1]]
			}
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
