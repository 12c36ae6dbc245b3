package posts

import (
	"slices"
	"strings"
)

// Filter drops posts that should not be listed on a production deployment:
// example posts and drafts. Outside production every post is kept.
func Filter(list []Post, production bool) []Post {
	if !production {
		return list
	}
	kept := make([]Post, 0, len(list))
	for _, p := range list {
		if p.Draft || strings.Contains(p.Slug, "example") {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// SortByDate returns a copy of list ordered by publication date, newest
// first. Posts sharing a date keep their relative order.
func SortByDate(list []Post) []Post {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b Post) int {
		return b.PubDate.Compare(a.PubDate)
	})
	return sorted
}

// FilterSorted filters list for the deployment and sorts it by date.
func FilterSorted(list []Post, production bool) []Post {
	return SortByDate(Filter(list, production))
}

// Metas returns the listing metadata of each post.
func Metas(list []Post) []Meta {
	out := make([]Meta, len(list))
	for i, p := range list {
		out[i] = p.Meta
	}
	return out
}
