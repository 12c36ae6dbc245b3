package sitegen

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"

	"github.com/kahlstrm/sitegen/posts"
)

const (
	sitemapNS        = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapIndexFile = "sitemap-index.xml"
	sitemapFile      = "sitemap-0.xml"
)

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap writes the sitemap index and its single child sitemap.
func writeSitemap(outDir, base string, list []posts.Post) error {
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "blog")},
	}
	for _, p := range list {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.PubDate.Format("2006-01-02"),
		})
	}
	if err := writeXML(filepath.Join(outDir, sitemapFile), sitemapURLSet{XMLNS: sitemapNS, URLs: urls}); err != nil {
		return err
	}
	index := sitemapIndex{
		XMLNS:    sitemapNS,
		Sitemaps: []sitemapRef{{Loc: strings.TrimSuffix(BuildURL(base), "/") + "/" + sitemapFile}},
	}
	return writeXML(filepath.Join(outDir, sitemapIndexFile), index)
}

func writeXML(file string, v any) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return writeFile(file, buf.Bytes())
}

// robotsTxt allows crawling only on the production host, where it also
// points crawlers at the sitemap index.
func robotsTxt(siteURL, productionHost string) string {
	if productionHost != "" && strings.Contains(siteURL, productionHost) {
		return "User-agent: *\nAllow: /\n\nSitemap: " + siteURL + sitemapIndexFile
	}
	return "User-agent: *\nDisallow: /"
}
