// Package frontmatter reads the metadata header at the top of a markdown post.
//
// Parse is the lightweight reader used for listings and fixtures: it only
// pulls title and description out of the header with line-anchored patterns.
// Decode reads the whole header into a typed struct for rendering.
package frontmatter

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	adrg "github.com/adrg/frontmatter"
)

// ErrNotFound is returned when a document has no leading metadata block.
var ErrNotFound = errors.New("frontmatter: no frontmatter found")

var (
	reBlock       = regexp.MustCompile(`(?s)^---\n(.*?)\n---`)
	reTitle       = regexp.MustCompile(`(?m)^title:\s*["']?(.+?)["']?\s*$`)
	reDescription = regexp.MustCompile(`(?m)^description:\s*["']?(.+?)["']?\s*$`)
)

// Fields holds the header values needed to list a post.
type Fields struct {
	Title       string
	Description string
}

// Parse extracts title and description from the leading "---" block of
// content. A missing field yields an empty string; a missing block yields
// ErrNotFound.
func Parse(content string) (Fields, error) {
	block := reBlock.FindStringSubmatch(content)
	if block == nil {
		return Fields{}, ErrNotFound
	}
	return Fields{
		Title:       firstMatch(reTitle, block[1]),
		Description: firstMatch(reDescription, block[1]),
	}, nil
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Decode unmarshals the YAML header of r into v and returns the remaining
// markdown body.
func Decode(r io.Reader, v any) ([]byte, error) {
	body, err := adrg.MustParse(r, v)
	if err != nil {
		if errors.Is(err, adrg.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("frontmatter: decode: %w", err)
	}
	return body, nil
}
