package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/storage"
)

type KeyHandler struct {
	app  *App
	keys config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: cfg.Keys.Bindings}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return kh.app, tea.Quit
	}

	switch kh.app.view {
	case ViewSearch:
		return kh.handleSearchInput(msg)
	case ViewReader:
		return kh.handleReader(msg)
	default:
		return kh.handleResults(msg)
	}
}

func (kh *KeyHandler) handleResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case kh.keys.Quit:
		return a, tea.Quit
	case kh.keys.Search:
		a.view = ViewSearch
		a.searchInput.SetValue(a.request.Search)
		a.searchInput.CursorEnd()
		return a, a.searchInput.Focus()
	case kh.keys.NextPage:
		return kh.turnPage(1)
	case kh.keys.PrevPage:
		return kh.turnPage(-1)
	case kh.keys.Refresh:
		a.status = MsgRefreshing
		return a, a.refreshFeeds()
	case kh.keys.Open:
		if item, ok := a.postList.SelectedItem().(postItem); ok {
			kh.openInBrowser(item.article)
		}
		return a, nil
	case kh.keys.Back:
		if a.request == (query.Request{}) {
			return a, nil
		}
		return kh.run(query.Request{})
	case "enter":
		item, ok := a.postList.SelectedItem().(postItem)
		if !ok {
			return a, nil
		}
		a.currentArticle = item.article
		a.view = ViewReader
		a.loading = true
		return a, a.renderArticle(item.article)
	}

	newList, cmd := a.postList.Update(msg)
	a.postList = newList
	return a, cmd
}

func (kh *KeyHandler) handleReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case kh.keys.Quit:
		return a, tea.Quit
	case kh.keys.Back, "backspace":
		a.view = ViewResults
		if a.currentArticle != nil {
			a.currentArticle.Read = true
		}
		a.currentArticle = nil
		return a, nil
	case kh.keys.Open:
		kh.openInBrowser(a.currentArticle)
		return a, nil
	}

	newViewport, cmd := a.viewport.Update(msg)
	a.viewport = newViewport
	return a, cmd
}

func (kh *KeyHandler) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		a.searchInput.Blur()
		a.view = ViewResults
		return a, nil
	case "enter":
		a.searchInput.Blur()
		a.view = ViewResults
		return kh.run(query.Request{Search: strings.TrimSpace(a.searchInput.Value())})
	}

	newInput, cmd := a.searchInput.Update(msg)
	a.searchInput = newInput
	return a, cmd
}

func (kh *KeyHandler) openInBrowser(article *storage.Article) {
	a := kh.app
	if article == nil || article.URL == "" {
		a.status = MsgNoLink
		return
	}
	if err := a.opener.Open(article.URL); err != nil {
		a.err = err
		return
	}
	a.status = MsgOpened
}

// turnPage moves delta pages within the current result, staying in bounds.
func (kh *KeyHandler) turnPage(delta int) (tea.Model, tea.Cmd) {
	a := kh.app
	if a.result == nil {
		return a, nil
	}
	page := a.result.Context.Page + delta
	switch {
	case page < 1:
		a.status = MsgFirstPage
		return a, nil
	case page > a.result.Pages():
		a.status = MsgLastPage
		return a, nil
	}
	req := a.request
	req.Page = page
	return kh.run(req)
}

func (kh *KeyHandler) run(req query.Request) (tea.Model, tea.Cmd) {
	kh.app.loading = true
	kh.app.err = nil
	return kh.app, kh.app.resolve(req)
}
