package storage

import (
	"strings"
	"time"
	"unicode"
)

type Feed struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LastFetched  time.Time `json:"last_fetched"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Article struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Published   time.Time `json:"published"`
	Updated     time.Time `json:"updated"`
	Read        bool      `json:"read"`
	Categories  []string  `json:"categories,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	// Author is the display name as found in the feed; AuthorID links it
	// to the authors table once the feed manager has resolved it.
	Author   string `json:"author,omitempty"`
	AuthorID uint64 `json:"author_id,omitempty"`
}

// Author is a post author addressable by numeric id or by login.
type Author struct {
	ID          uint64 `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Taxonomy names for Term.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "tag"
)

// Term is a category or tag. The first display name seen for a slug wins.
type Term struct {
	Taxonomy string `json:"taxonomy"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
}

// Filter narrows ListArticles. Zero fields do not filter.
type Filter struct {
	FeedID string
	// Year, Month and Day match the published date in Location (UTC when nil).
	Year     int
	Month    int
	Day      int
	Location *time.Location
	// Category and Tag are slugs.
	Category string
	Tag      string
	AuthorID uint64
}

func (f Filter) match(a *Article) bool {
	if f.FeedID != "" && a.FeedID != f.FeedID {
		return false
	}
	if f.Year != 0 || f.Month != 0 || f.Day != 0 {
		if a.Published.IsZero() {
			return false
		}
		loc := f.Location
		if loc == nil {
			loc = time.UTC
		}
		p := a.Published.In(loc)
		if f.Year != 0 && p.Year() != f.Year {
			return false
		}
		if f.Month != 0 && int(p.Month()) != f.Month {
			return false
		}
		if f.Day != 0 && p.Day() != f.Day {
			return false
		}
	}
	if f.Category != "" && !containsSlug(a.Categories, f.Category) {
		return false
	}
	if f.Tag != "" && !containsSlug(a.Tags, f.Tag) {
		return false
	}
	if f.AuthorID != 0 && a.AuthorID != f.AuthorID {
		return false
	}
	return true
}

func containsSlug(names []string, slug string) bool {
	for _, n := range names {
		if Slugify(n) == slug {
			return true
		}
	}
	return false
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
