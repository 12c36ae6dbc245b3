package frontmatter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultAuthor is used when a post does not name its author.
const DefaultAuthor = "Kalle Kahlström"

// PostFields is the metadata schema of a blog post.
type PostFields struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	PubDate     Date     `yaml:"pubDate"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

// ApplyDefaults fills optional fields that were left out of the header.
func (p *PostFields) ApplyDefaults() {
	if strings.TrimSpace(p.Author) == "" {
		p.Author = DefaultAuthor
	}
}

// Validate reports every required field that is missing.
func (p PostFields) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if p.PubDate.IsZero() {
		errs = append(errs, errors.New("pubDate is required"))
	}
	return errors.Join(errs...)
}

// Date is a publication date that accepts YAML timestamps as well as the
// common human-written date formats found in post headers.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -07:00",
	"Jan 2 2006",
	"Jan 02 2006",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate coerces s into a time using the accepted date layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("frontmatter: unrecognized date %q", s)
}

// UnmarshalYAML implements the yaml.v2 style unmarshaler used by the header
// decoder.
func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		var t time.Time
		if terr := unmarshal(&t); terr != nil {
			return err
		}
		d.Time = t
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
