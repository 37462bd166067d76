package search

import (
	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/storage"
)

// Result is one matching post.
type Result struct {
	Article *storage.Article
	Feed    *storage.Feed
	Score   float64
}

// Results is one page of hits plus the number of hits across all pages.
type Results struct {
	Hits  []*Result
	Total int
}

// Searcher is the search API used by the query resolver and the TUI.
type Searcher interface {
	Search(query string, limit, offset int) (*Results, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about data changes.
type UpdateListener interface {
	OnDataUpdated(feed *storage.Feed, articles []*storage.Article)
}

// DeleteListener can be implemented to get notified when a feed is deleted.
type DeleteListener interface {
	OnFeedDeleted(feedID string)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// minQueryLen is the shortest query that is searched at all.
const minQueryLen = 2

func page(all []*Result, limit, offset int) []*Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*Result{}
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Open returns a bleve backed searcher when indexPath is set, falling back
// to the store scanning Engine when it is empty or the index cannot be opened.
func Open(store *storage.Store, indexPath string) Searcher {
	if indexPath == "" {
		return NewEngine(store)
	}
	be, err := NewBleveEngine(store, indexPath)
	if err != nil {
		debuglog.Warnf("search: falling back to scan engine: %v", err)
		return NewEngine(store)
	}
	return be
}
