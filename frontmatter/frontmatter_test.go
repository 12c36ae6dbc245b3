package frontmatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Fields
	}{
		{
			name: "plain values",
			doc:  "---\ntitle: Hello World\ndescription: First post\n---\nbody",
			want: Fields{Title: "Hello World", Description: "First post"},
		},
		{
			name: "double quoted",
			doc:  "---\ntitle: \"Quoted: title\"\ndescription: \"A description\"\n---\n",
			want: Fields{Title: "Quoted: title", Description: "A description"},
		},
		{
			name: "single quoted",
			doc:  "---\ntitle: 'Single'\ndescription: 'Also single'\n---\n",
			want: Fields{Title: "Single", Description: "Also single"},
		},
		{
			name: "missing description",
			doc:  "---\ntitle: Only title\npubDate: 2024-01-01\n---\n",
			want: Fields{Title: "Only title"},
		},
		{
			name: "first match wins",
			doc:  "---\ntitle: One\ntitle: Two\ndescription: d\n---\n",
			want: Fields{Title: "One", Description: "d"},
		},
		{
			name: "fields after the block are ignored",
			doc:  "---\ntitle: Inside\n---\ndescription: outside\n",
			want: Fields{Title: "Inside"},
		},
		{
			name: "keys must start the line",
			doc:  "---\nsubtitle: nope\n  title: indented\ndescription: yes\n---\n",
			want: Fields{Description: "yes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNotFound(t *testing.T) {
	for _, doc := range []string{
		"",
		"# Just markdown\n",
		"\n---\ntitle: late\n---\n",
		"---\ntitle: unclosed\n",
	} {
		_, err := Parse(doc)
		assert.ErrorIs(t, err, ErrNotFound, "doc %q", doc)
	}
}

func TestDecode(t *testing.T) {
	doc := `---
title: "Decoded"
description: Full header
pubDate: 2024-03-05
tags:
  - go
  - web
draft: true
---
# Body
`
	var fields PostFields
	body, err := Decode(strings.NewReader(doc), &fields)
	require.NoError(t, err)
	fields.ApplyDefaults()

	assert.Equal(t, "Decoded", fields.Title)
	assert.Equal(t, "Full header", fields.Description)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), fields.PubDate.Time)
	assert.Equal(t, []string{"go", "web"}, fields.Tags)
	assert.True(t, fields.Draft)
	assert.Equal(t, DefaultAuthor, fields.Author)
	assert.Contains(t, string(body), "# Body")
	assert.NoError(t, fields.Validate())
}

func TestDecodeHumanDate(t *testing.T) {
	doc := "---\ntitle: t\ndescription: d\npubDate: 'Jul 08 2022'\nauthor: Someone\n---\n"
	var fields PostFields
	_, err := Decode(strings.NewReader(doc), &fields)
	require.NoError(t, err)
	fields.ApplyDefaults()

	assert.Equal(t, time.Date(2022, 7, 8, 0, 0, 0, 0, time.UTC), fields.PubDate.Time)
	assert.Equal(t, "Someone", fields.Author)
	assert.False(t, fields.Draft)
}

func TestDecodeNotFound(t *testing.T) {
	var fields PostFields
	_, err := Decode(strings.NewReader("no header here\n"), &fields)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	err := PostFields{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "description is required")
	assert.Contains(t, err.Error(), "pubDate is required")
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2023-12-31", "Dec 31 2023", "December 31, 2023", "2023-12-31T00:00:00Z"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2023, got.Year(), s)
		assert.Equal(t, time.December, got.Month(), s)
		assert.Equal(t, 31, got.Day(), s)
	}
	_, err := ParseDate("someday")
	assert.Error(t, err)
}
