package views

// SiteConfig holds the site-wide settings every page template needs.
type SiteConfig struct {
	Name        string // site title
	URL         string // canonical root URL, with trailing slash
	Description string
	Author      string
	Self        string // "owner/name" of the site's own repository, optional
	Stylesheet  string // minified CSS inlined into every page
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string // Schema.org block, optional
}
