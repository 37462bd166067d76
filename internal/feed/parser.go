package feed

import (
	"crypto/sha256"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/storage"
)

// Parsed is a decoded feed document.
type Parsed struct {
	Title       string
	Description string
	Link        string
	Articles    []*storage.Article
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse decodes RSS, Atom or JSON Feed from reader. Item categories become
// post categories, Dublin Core subjects become tags.
func (p *Parser) Parse(reader io.Reader, feedID string) (*Parsed, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, errors.Wrap(err, "parsing feed")
	}

	out := &Parsed{
		Title:       strings.TrimSpace(feed.Title),
		Description: feed.Description,
		Link:        feed.Link,
		Articles:    make([]*storage.Article, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		article := &storage.Article{
			ID:          generateID(feedID, item),
			FeedID:      feedID,
			Title:       item.Title,
			Description: item.Description,
			Content:     getContent(item),
			URL:         item.Link,
			Categories:  cleanTerms(item.Categories),
			Author:      authorName(item),
		}
		if item.DublinCoreExt != nil && len(item.DublinCoreExt.Subject) > 0 {
			subjects := item.DublinCoreExt.Subject
			article.Tags = cleanTerms(subjects)
			// gofeed copies subjects into Categories when an item has none.
			article.Categories = cleanTerms(slices.DeleteFunc(slices.Clone(item.Categories), func(c string) bool {
				return slices.Contains(subjects, c)
			}))
		}
		if item.PublishedParsed != nil {
			article.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.Published = *item.UpdatedParsed
		}
		if item.UpdatedParsed != nil {
			article.Updated = *item.UpdatedParsed
		}
		out.Articles = append(out.Articles, article)
	}

	return out, nil
}

func getContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func authorName(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return ""
}

// cleanTerms trims names and drops blanks and duplicate slugs.
func cleanTerms(names []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		slug := storage.Slugify(n)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, n)
	}
	return out
}

// generateID keys items by GUID, falling back to a hash of link and title
// so refreshes of GUID-less feeds stay idempotent.
func generateID(feedID string, item *gofeed.Item) string {
	if item.GUID != "" {
		return fmt.Sprintf("%s:%s", feedID, item.GUID)
	}
	sum := sha256.Sum256([]byte(item.Link + "\x00" + item.Title))
	return fmt.Sprintf("%s:%x", feedID, sum[:8])
}
