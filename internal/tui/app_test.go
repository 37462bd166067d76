package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/datefmt"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/search"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/summary"
)

// newTestApp builds a browser over twelve cat posts with five posts a page.
func newTestApp(t *testing.T) (*App, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jane, err := store.EnsureAuthor("Jane Doe")
	require.NoError(t, err)

	var posts []*storage.Article
	for i := 0; i < 12; i++ {
		posts = append(posts, &storage.Article{
			ID:          fmt.Sprintf("cat%02d", i),
			FeedID:      "f1",
			Title:       fmt.Sprintf("Cats %d", i),
			Description: "<p>All about cats.</p>",
			Published:   time.Date(2024, time.May, 1+i, 12, 0, 0, 0, time.UTC),
			Categories:  []string{"Pets"},
			Author:      jane.DisplayName,
			AuthorID:    jane.ID,
		})
	}
	require.NoError(t, store.SaveArticles(posts))

	resolver := query.NewResolver(store, search.NewEngine(store),
		query.WithPageSize(5),
		query.WithLocation(time.UTC),
	)
	services := Services{
		Store:     store,
		Resolver:  resolver,
		Formatter: summary.New(summary.WithDateRenderer(datefmt.Format)),
	}
	app := NewApp(config.TestConfig(), services, query.Request{})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// deliver runs cmd and feeds its message back into the app.
func deliver(t *testing.T, a *App, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	a.Update(msg)
	return msg
}

func press(t *testing.T, a *App, key tea.KeyMsg) tea.Cmd {
	t.Helper()
	_, cmd := a.Update(key)
	return cmd
}

func TestApp_InitialResult(t *testing.T) {
	a, _ := newTestApp(t)

	msg := deliver(t, a, a.resolve(a.request))
	require.IsType(t, resultMsg{}, msg)

	assert.False(t, a.loading)
	require.NotNil(t, a.result)
	assert.Equal(t, 12, a.result.Context.Total)
	assert.Len(t, a.postList.Items(), 5)
	assert.Equal(t, "page 1 of 3", a.status)
	assert.Empty(t, a.summaryHTML, "unfiltered listings are not summarised")
	assert.Equal(t, "all posts", a.describeRequest())
	assert.Contains(t, a.View(), "all posts")
}

func TestApp_Paging(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(a.request))

	assert.Nil(t, press(t, a, runes("p")))
	assert.Equal(t, MsgFirstPage, a.status)

	deliver(t, a, press(t, a, runes("n")))
	assert.Equal(t, 2, a.request.Page)
	assert.Equal(t, "page 2 of 3", a.status)

	deliver(t, a, press(t, a, runes("n")))
	assert.Equal(t, 3, a.request.Page)
	assert.Len(t, a.postList.Items(), 2)

	assert.Nil(t, press(t, a, runes("n")))
	assert.Equal(t, MsgLastPage, a.status)

	deliver(t, a, press(t, a, runes("p")))
	assert.Equal(t, 2, a.request.Page)
}

func TestApp_SearchFlow(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(a.request))

	press(t, a, runes("/"))
	require.Equal(t, ViewSearch, a.view)
	assert.True(t, a.searchInput.Focused())
	assert.Contains(t, a.View(), "› search")

	// Typing in the search box does not trigger bindings.
	press(t, a, runes("cats"))
	assert.Equal(t, ViewSearch, a.view)
	assert.Equal(t, "cats", a.searchInput.Value())

	cmd := press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewResults, a.view)
	deliver(t, a, cmd)

	assert.Equal(t, query.Request{Search: "cats"}, a.request)
	assert.Equal(t, "<p>Results <b>1 - 5</b> of about <b>12</b> for <b>cats</b>.</p>", a.summaryHTML)
	assert.NotEmpty(t, a.header)
	assert.Equal(t, "search: cats", a.describeRequest())
	assert.Equal(t, "search: cats  ?s=cats", a.headerTitle())
	assert.Contains(t, a.View(), "?s=cats")

	// Back clears the query.
	deliver(t, a, press(t, a, tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, query.Request{}, a.request)
	assert.Empty(t, a.summaryHTML)

	// Nothing left to clear.
	assert.Nil(t, press(t, a, tea.KeyMsg{Type: tea.KeyEsc}))
}

func TestApp_SearchCancel(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(a.request))

	press(t, a, runes("/"))
	press(t, a, runes("dogs"))
	cmd := press(t, a, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Equal(t, ViewResults, a.view)
	assert.Equal(t, query.Request{}, a.request)
}

func TestApp_NoResults(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(query.Request{Search: "zebras"}))

	assert.Equal(t, MsgNoResults, a.status)
	assert.Empty(t, a.postList.Items())
	assert.Empty(t, a.summaryHTML)
}

func TestApp_DateArchive(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(query.Request{Year: 2024, Month: 5, Day: 3}))

	assert.Equal(t, 1, a.result.Context.Total)
	assert.Equal(t, "archive: Friday, May 3rd, 2024", a.describeRequest())
	assert.Equal(t, "<p>Results <b>1 - 1</b> of about <b>1</b> in <b>Friday, May 3rd, 2024</b>.</p>", a.summaryHTML)
}

func TestApp_CategoryArchive(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(query.Request{Category: "pets", Page: 3}))

	assert.Equal(t, "category: Pets", a.describeRequest())
	assert.Equal(t, "<p>Results <b>11 - 12</b> of about <b>12</b> by <b>the category: Pets</b>.</p>", a.summaryHTML)
	assert.Equal(t, "page 3 of 3", a.status)
	assert.Equal(t, "category: Pets  ?category_name=pets&paged=3", a.headerTitle())
}

func TestApp_Reader(t *testing.T) {
	a, store := newTestApp(t)
	deliver(t, a, a.resolve(a.request))

	item, ok := a.postList.SelectedItem().(postItem)
	require.True(t, ok)
	require.False(t, item.article.Read)

	cmd := press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewReader, a.view)
	assert.True(t, a.loading)
	assert.Contains(t, a.View(), MsgLoadingArticle)

	msg := deliver(t, a, cmd)
	require.IsType(t, articleRenderedMsg{}, msg)
	assert.False(t, a.loading)
	assert.Contains(t, msg.(articleRenderedMsg).content, item.article.Title)

	stored, err := store.GetArticle(item.article.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)

	assert.Nil(t, press(t, a, tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, ViewResults, a.view)
	assert.True(t, item.article.Read)
	assert.Nil(t, a.currentArticle)
}

func TestApp_RefreshWithoutManager(t *testing.T) {
	a, _ := newTestApp(t)
	deliver(t, a, a.resolve(a.request))

	cmd := press(t, a, runes("r"))
	assert.Equal(t, MsgRefreshing, a.status)

	msg := cmd()
	require.IsType(t, refreshedMsg{}, msg)
	_, next := a.Update(msg)
	require.Error(t, a.err)
	assert.Contains(t, a.View(), "Error: refresh is not available")

	// The listing is reloaded and clears the error.
	deliver(t, a, next)
	assert.NoError(t, a.err)
}

func TestApp_ErrorMsg(t *testing.T) {
	a, _ := newTestApp(t)
	a.loading = true
	a.Update(errorMsg{err: assert.AnError})

	assert.False(t, a.loading)
	assert.Contains(t, a.View(), "Error: "+assert.AnError.Error())
}

func TestKeyHandler_Quit(t *testing.T) {
	a, _ := newTestApp(t)

	cmd := press(t, a, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = press(t, a, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// q is text while searching.
	press(t, a, runes("/"))
	press(t, a, runes("q"))
	assert.Equal(t, "q", a.searchInput.Value())
}

func TestKeyHandler_CustomBindings(t *testing.T) {
	a, _ := newTestApp(t)
	a.config.Keys.Bindings.NextPage = "right"
	a.keyHandler = NewKeyHandler(a, a.config)
	deliver(t, a, a.resolve(a.request))

	deliver(t, a, press(t, a, tea.KeyMsg{Type: tea.KeyRight}))
	assert.Equal(t, 2, a.request.Page)
	assert.Contains(t, a.statusBar(), "right/p: page")
}

func TestPostItem(t *testing.T) {
	article := &storage.Article{
		Title:      "Hello",
		Published:  time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC),
		Author:     "Jane",
		Categories: []string{"Pets", "Cats"},
		Tags:       []string{"fluffy"},
	}
	item := postItem{article: article}

	assert.Equal(t, "● Hello", item.Title())
	assert.Equal(t, "2024-05-03 • Jane • Pets, Cats • #fluffy", item.Description())
	assert.Equal(t, "Hello", item.FilterValue())

	article.Read = true
	article.Title = ""
	assert.Equal(t, "(untitled)", item.Title())
}

func TestMsgRefreshSummary(t *testing.T) {
	assert.Equal(t, "Refreshed: 1 post", MsgRefreshSummary(1))
	assert.Equal(t, "Refreshed: 0 posts", MsgRefreshSummary(0))
	assert.Equal(t, "Refreshed: 12,345 posts", MsgRefreshSummary(12345))
	assert.True(t, strings.HasPrefix(MsgPage(2, 3), "page 2"))
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(rawURL string) error {
	f.opened = append(f.opened, rawURL)
	return f.err
}

func TestKeyHandler_OpenInBrowser(t *testing.T) {
	a, _ := newTestApp(t)
	opener := &fakeOpener{}
	a.opener = opener
	deliver(t, a, a.resolve(a.request))

	// Seeded posts have no link.
	assert.Nil(t, press(t, a, runes("o")))
	assert.Equal(t, MsgNoLink, a.status)
	assert.Empty(t, opener.opened)

	item := a.postList.SelectedItem().(postItem)
	item.article.URL = "https://blog.example.org/cats/"
	press(t, a, runes("o"))
	assert.Equal(t, MsgOpened, a.status)
	assert.Equal(t, []string{"https://blog.example.org/cats/"}, opener.opened)

	// From the reader the open article is used.
	a.view = ViewReader
	a.currentArticle = item.article
	opener.err = assert.AnError
	press(t, a, runes("o"))
	assert.Equal(t, assert.AnError, a.err)
	assert.Len(t, opener.opened, 2)
}

func TestApp_ArticleRendersWhileSummaryUpdates(t *testing.T) {
	a, store := newTestApp(t)
	deliver(t, a, a.resolve(a.request))
	item := a.postList.SelectedItem().(postItem)

	cmd := a.renderArticle(item.article)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	// A result arriving during the render updates the header on the loop.
	for i := 0; i < 5; i++ {
		a.Update(resultMsg{
			result:  a.result,
			summary: "<p>Results <b>1 - 5</b> of about <b>12</b> for <b>cats</b>.</p>",
		})
	}

	msg := <-done
	require.IsType(t, articleRenderedMsg{}, msg)
	assert.Contains(t, msg.(articleRenderedMsg).content, item.article.Title)
	assert.NotEmpty(t, a.header)

	stored, err := store.GetArticle(item.article.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)
}
