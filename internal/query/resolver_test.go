package query

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/qrsum/internal/search"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/summary"
)

// seedResolver stores 23 cat posts by Jane in May 2024, two tagged Go
// posts by Bob in June 2024 and one uncategorised post from 2023.
func seedResolver(t *testing.T) (*Resolver, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jane, err := store.EnsureAuthor("Jane Doe")
	require.NoError(t, err)
	bob, err := store.EnsureAuthor("Bob")
	require.NoError(t, err)

	var posts []*storage.Article
	for i := 0; i < 23; i++ {
		posts = append(posts, &storage.Article{
			ID:         fmt.Sprintf("cat%02d", i),
			FeedID:     "f1",
			Title:      fmt.Sprintf("Cats %d", i),
			Published:  time.Date(2024, time.May, 1+i, 12, 0, 0, 0, time.UTC),
			Categories: []string{"Pets & Animals"},
			AuthorID:   jane.ID,
		})
	}
	posts = append(posts,
		&storage.Article{ID: "go1", FeedID: "f1", Title: "Go one", Published: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC), Tags: []string{"Go"}, AuthorID: bob.ID},
		&storage.Article{ID: "go2", FeedID: "f1", Title: "Go two", Published: time.Date(2024, time.June, 2, 9, 0, 0, 0, time.UTC), Tags: []string{"Go"}, AuthorID: bob.ID},
		&storage.Article{ID: "old", FeedID: "f1", Title: "Old post", Published: time.Date(2023, time.March, 3, 9, 0, 0, 0, time.UTC)},
	)
	require.NoError(t, store.SaveArticles(posts))

	r := NewResolver(store, search.NewEngine(store),
		WithPageSize(10),
		WithLocation(time.UTC),
		WithClock(func() time.Time { return time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC) }),
	)
	return r, store
}

func TestResolveSearch(t *testing.T) {
	r, _ := seedResolver(t)

	res, err := r.Resolve(context.Background(), Request{Search: "cats", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, summary.TypeSearch, res.Context.Type)
	assert.Equal(t, "cats", res.Context.Search)
	assert.Equal(t, 23, res.Context.Total)
	assert.Equal(t, 3, res.Context.Page)
	assert.Len(t, res.Posts, 3)
	assert.Equal(t, 3, res.Pages())
}

func TestResolveDate(t *testing.T) {
	r, _ := seedResolver(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   Request
		total int
		gran  summary.Granularity
		date  time.Time
	}{
		{"year", Request{Year: 2024}, 25, summary.GranularityYear, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"month", Request{Year: 2024, Month: 6}, 2, summary.GranularityMonth, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"day", Request{Year: 2024, Month: 5, Day: 7}, 1, summary.GranularityDay, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)},
		{"month without year uses current year", Request{Month: 5}, 23, summary.GranularityMonth, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"empty archive", Request{Year: 2020}, 0, summary.GranularityYear, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"day without month describes newest post", Request{Year: 2024, Day: 2}, 2, summary.GranularityDay, time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)},
		{"day without month and no posts", Request{Year: 2020, Day: 2}, 0, summary.GranularityDay, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, summary.TypeDate, res.Context.Type)
			assert.Equal(t, tt.total, res.Context.Total)
			assert.Equal(t, tt.gran, res.Context.Granularity)
			assert.True(t, tt.date.Equal(res.Context.Date), "date %s", res.Context.Date)
		})
	}
}

func TestResolveTaxonomies(t *testing.T) {
	r, _ := seedResolver(t)
	ctx := context.Background()

	res, err := r.Resolve(ctx, Request{Category: "pets-animals", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, summary.TypeCategory, res.Context.Type)
	assert.Equal(t, "Pets & Animals", res.Context.Category)
	assert.Equal(t, 23, res.Context.Total)
	assert.Len(t, res.Posts, 10)

	res, err = r.Resolve(ctx, Request{Tag: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "Go", res.Context.Tag)
	assert.Equal(t, 2, res.Context.Total)
	assert.Equal(t, "go2", res.Posts[0].ID, "newest first")

	res, err = r.Resolve(ctx, Request{Tag: "rust"})
	require.NoError(t, err)
	assert.Equal(t, "rust", res.Context.Tag, "unknown terms keep the requested name")
	assert.Zero(t, res.Context.Total)
	assert.Empty(t, res.Posts)
}

func TestResolveAuthor(t *testing.T) {
	r, _ := seedResolver(t)
	ctx := context.Background()

	res, err := r.Resolve(ctx, Request{AuthorName: "jane-doe"})
	require.NoError(t, err)
	assert.Equal(t, summary.TypeAuthor, res.Context.Type)
	assert.Equal(t, "Jane Doe", res.Context.Author)
	assert.Equal(t, 23, res.Context.Total)

	res, err = r.Resolve(ctx, Request{AuthorID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Bob", res.Context.Author)
	assert.Equal(t, 2, res.Context.Total)

	res, err = r.Resolve(ctx, Request{AuthorName: "jane-doe", AuthorID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Context.Author, "login wins over id")

	res, err = r.Resolve(ctx, Request{AuthorName: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, "nobody", res.Context.Author)
	assert.Zero(t, res.Context.Total)

	res, err = r.Resolve(ctx, Request{AuthorID: 99})
	require.NoError(t, err)
	assert.Equal(t, "99", res.Context.Author)
	assert.Zero(t, res.Context.Total)
}

func TestResolveNone(t *testing.T) {
	r, _ := seedResolver(t)

	res, err := r.Resolve(context.Background(), Request{Page: -2})
	require.NoError(t, err)
	assert.Equal(t, summary.TypeNone, res.Context.Type)
	assert.Equal(t, 1, res.Context.Page)
	assert.Equal(t, 26, res.Context.Total)
	assert.Len(t, res.Posts, 10)
}

func TestResolveCanceled(t *testing.T) {
	r, _ := seedResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveSearchWithoutSearcher(t *testing.T) {
	_, store := seedResolver(t)
	r := NewResolver(store, nil)

	_, err := r.Resolve(context.Background(), Request{Search: "cats"})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	r, _ := seedResolver(t)
	f := summary.New()
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"search", Request{Search: "cats"}, "<p>Results <b>1 - 10</b> of about <b>23</b> for <b>cats</b>.</p>"},
		{"search last page", Request{Search: "cats", Page: 3}, "<p>Results <b>21 - 23</b> of about <b>23</b> for <b>cats</b>.</p>"},
		{"month", Request{Year: 2024, Month: 6}, "<p>Results <b>1 - 2</b> of about <b>2</b> in <b>June, 2024</b>.</p>"},
		{"day", Request{Year: 2024, Month: 5, Day: 18}, "<p>Results <b>1 - 1</b> of about <b>1</b> in <b>Saturday, May 18th, 2024</b>.</p>"},
		{"day without month", Request{Year: 2024, Day: 2}, "<p>Results <b>1 - 2</b> of about <b>2</b> in <b>Sunday, June 2nd, 2024</b>.</p>"},
		{"category", Request{Category: "pets-animals"}, "<p>Results <b>1 - 10</b> of about <b>23</b> by <b>the category: Pets & Animals</b>.</p>"},
		{"tag", Request{Tag: "go"}, "<p>Results <b>1 - 2</b> of about <b>2</b> by <b>the tag: Go</b>.</p>"},
		{"author", Request{AuthorID: 1, Page: 2}, "<p>Results <b>11 - 20</b> of about <b>23</b> by <b>the author: Jane Doe</b>.</p>"},
		{"no match", Request{Search: "unicorns"}, ""},
		{"home page", Request{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := r.Summary(ctx, tt.req, f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	f.SetSummarizeEmpty(true)
	got, _, err := r.Summary(ctx, Request{Search: "unicorns"}, f)
	require.NoError(t, err)
	assert.Equal(t, "<p>There is no relevant post.</p>", got)
}
