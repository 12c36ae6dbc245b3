package sitegen

import (
	"encoding/xml"
	"path/filepath"
	"time"

	"github.com/kahlstrm/sitegen/posts"
)

const rssFile = "rss.xml"

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

// writeRSS writes the feed of list, in list order.
func writeRSS(outDir string, cfg SiteConfig, list []posts.Post) error {
	base := cfg.URL
	items := make([]rssItem, 0, len(list))
	for _, p := range list {
		postURL := BuildURL(base, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Description,
			PubDate:     p.PubDate.UTC().Format(time.RFC1123Z),
			GUID:        postURL,
			Categories:  p.Tags,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        base,
			Description: cfg.Description,
			Items:       items,
		},
	}
	return writeXML(filepath.Join(outDir, rssFile), feed)
}
