package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/qrsum/internal/storage"
)

// Engine scores posts straight from the store. It is used when no bleve
// index is configured and needs no upkeep.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// Search ranks every stored post against query and returns one page.
func (e *Engine) Search(query string, limit, offset int) (*Results, error) {
	terms := tokenize(query)
	if len(strings.TrimSpace(query)) < minQueryLen || len(terms) == 0 {
		return &Results{Hits: []*Result{}}, nil
	}

	articles, err := e.store.GetArticles("", 0)
	if err != nil {
		return nil, err
	}

	feeds := map[string]*storage.Feed{}
	var hits []*Result
	for _, article := range articles {
		score := scoreArticle(article, terms)
		if score <= 0 {
			continue
		}
		feed, ok := feeds[article.FeedID]
		if !ok {
			feed, _ = e.store.GetFeed(article.FeedID)
			feeds[article.FeedID] = feed
		}
		hits = append(hits, &Result{Article: article, Feed: feed, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	return &Results{Hits: page(hits, limit, offset), Total: len(hits)}, nil
}

func scoreArticle(a *storage.Article, terms []string) float64 {
	score := scoreField(a.Title, terms, 4.0) +
		scoreField(a.Description, terms, 2.0) +
		scoreField(a.Content, terms, 1.0) +
		scoreField(strings.Join(a.Tags, " "), terms, 1.5) +
		scoreField(strings.Join(a.Categories, " "), terms, 1.5)
	return score
}

// scoreField rewards exact word hits over prefix/suffix hits over substring
// hits, and boosts fields matching several terms.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single-character tokens.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return terms
}
