package search

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/storage"
)

// BleveEngine keeps a full text index of posts next to the store.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes current data.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating index directory")
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, errors.Wrapf(err, "creating index %s", indexPath)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		idx.Close()
		return nil, errors.Wrap(err, "indexing posts")
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.IncludeTermVectors = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false
	text.IncludeTermVectors = false

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", text)
	dm.AddFieldMappingsAt("content", text)
	dm.AddFieldMappingsAt("url", text)
	dm.AddFieldMappingsAt("categories", text)
	dm.AddFieldMappingsAt("tags", text)
	dm.AddFieldMappingsAt("feed_id", exact)

	im.DefaultMapping = dm
	return im
}

func articleDoc(a *storage.Article) map[string]any {
	return map[string]any{
		"feed_id":     a.FeedID,
		"title":       a.Title,
		"description": a.Description,
		"content":     a.Content,
		"url":         a.URL,
		"categories":  strings.Join(a.Categories, " "),
		"tags":        strings.Join(a.Tags, " "),
	}
}

func (b *BleveEngine) reindexAll() error {
	articles, err := b.store.GetArticles("", 0)
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, a := range articles {
		if err := batch.Index(a.ID, articleDoc(a)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func boosted(q interface {
	bleveQuery.Query
	SetField(string)
	SetBoost(float64)
}, field string, boost float64) bleveQuery.Query {
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

var fieldBoosts = []struct {
	field        string
	match, prefx float64
}{
	{"title", 4.0, 3.5},
	{"description", 2.0, 1.8},
	{"categories", 1.5, 1.2},
	{"tags", 1.5, 1.2},
	{"content", 1.0, 0.8},
	{"url", 0.5, 0.3},
}

// Search runs a boosted OR of per-term matches and returns one page of
// hits along with the total hit count reported by the index.
func (b *BleveEngine) Search(query string, limit, offset int) (*Results, error) {
	tokens := tokenize(query)
	if len(strings.TrimSpace(query)) < minQueryLen || len(tokens) == 0 {
		return &Results{Hits: []*Result{}}, nil
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		for _, fb := range fieldBoosts {
			qs = append(qs,
				boosted(bleve.NewMatchQuery(tok), fb.field, fb.match),
				boosted(bleve.NewPrefixQuery(tok), fb.field, fb.prefx),
			)
		}
	}

	if offset < 0 {
		offset = 0
	}
	size := limit
	if size <= 0 {
		count, err := b.idx.DocCount()
		if err != nil {
			return nil, err
		}
		size = int(count)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), size, offset, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, errors.Wrap(err, "searching index")
	}

	out := &Results{Hits: make([]*Result, 0, len(res.Hits)), Total: int(res.Total)}
	feeds := map[string]*storage.Feed{}
	for _, h := range res.Hits {
		article, err := b.store.GetArticle(h.ID)
		if err != nil {
			debuglog.Warnf("search: stale index entry %s: %v", h.ID, err)
			continue
		}
		feed, ok := feeds[article.FeedID]
		if !ok {
			feed, _ = b.store.GetFeed(article.FeedID)
			feeds[article.FeedID] = feed
		}
		out.Hits = append(out.Hits, &Result{Article: article, Feed: feed, Score: h.Score})
	}
	return out, nil
}

// OnDataUpdated indexes the provided articles.
func (b *BleveEngine) OnDataUpdated(_ *storage.Feed, articles []*storage.Article) {
	batch := b.idx.NewBatch()
	for _, a := range articles {
		if err := batch.Index(a.ID, articleDoc(a)); err != nil {
			debuglog.Warnf("search: indexing %s: %v", a.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Errorf("search: writing batch: %v", err)
	}
}

// OnFeedDeleted removes every post of the feed from the index.
func (b *BleveEngine) OnFeedDeleted(feedID string) {
	tq := bleve.NewTermQuery(feedID)
	tq.SetField("feed_id")

	const size = 1000
	for {
		res, err := b.idx.Search(bleve.NewSearchRequestOptions(tq, size, 0, false))
		if err != nil || len(res.Hits) == 0 {
			return
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			debuglog.Errorf("search: deleting feed %s: %v", feedID, err)
			return
		}
		if len(res.Hits) < size {
			return
		}
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
