package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/datefmt"
	"github.com/pders01/qrsum/internal/feed"
	"github.com/pders01/qrsum/internal/media"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/summary"
)

// Services are the collaborators the browser drives. Manager may be nil,
// which disables refreshing.
type Services struct {
	Store     *storage.Store
	Resolver  *query.Resolver
	Formatter *summary.Formatter
	Manager   *feed.Manager
}

// urlOpener opens post links outside the terminal.
type urlOpener interface {
	Open(rawURL string) error
}

type App struct {
	config     *config.Config
	services   Services
	keyHandler *KeyHandler
	opener     urlOpener

	postList    list.Model
	searchInput textinput.Model
	viewport    viewport.Model

	view    View
	request query.Request
	result  *query.Result
	// header is the summary line rendered for the terminal; summaryHTML is
	// what the formatter produced.
	header      string
	summaryHTML string

	currentArticle *storage.Article
	loading        bool
	status         string
	err            error

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, services Services, initial query.Request) *App {
	ApplyTheme(cfg.UI.Colors)

	postList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	postList.Title = "› posts"
	postList.SetShowStatusBar(false)
	postList.SetFilteringEnabled(false)
	postList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search posts..."

	app := &App{
		config:      cfg,
		services:    services,
		opener:      media.NewLauncher(""),
		postList:    postList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		view:        ViewResults,
		request:     initial,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// summaryRenderer is cached for the header and only used from Update.
// Article commands run on their own goroutine and build their own.
func (a *App) summaryRenderer() (*glamour.TermRenderer, error) {
	width := wrapWidth(a.width)
	if a.glamourRenderer == nil || abs(a.rendererWidth-width) > 10 {
		r, err := newRenderer(width)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = width
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	a.loading = true
	return tea.Batch(a.resolve(a.request), tea.EnterAltScreen)
}

// chromeHeight is the number of lines used by header, summary and status bar.
const chromeHeight = 5

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.postList.SetSize(msg.Width, max(msg.Height-chromeHeight, 3))
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-3, 3)
		a.searchInput.Width = max(msg.Width-8, 10)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case resultMsg:
		a.loading = false
		a.err = nil
		a.result = msg.result
		a.request = msg.result.Request
		a.summaryHTML = msg.summary
		a.header = a.renderSummary(msg.summary)
		items := make([]list.Item, len(msg.result.Posts))
		for i, p := range msg.result.Posts {
			items[i] = postItem{article: p}
		}
		a.postList.SetItems(items)
		a.postList.Select(0)
		if len(items) == 0 {
			a.status = MsgNoResults
		} else {
			a.status = MsgPage(msg.result.Context.Page, msg.result.Pages())
		}

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loading = false
		}

	case refreshedMsg:
		if msg.err != nil {
			a.err = msg.err
		}
		a.status = MsgRefreshSummary(msg.posts)
		return a, a.resolve(a.request)

	case errorMsg:
		a.loading = false
		a.err = msg.err
	}

	switch a.view {
	case ViewResults:
		newList, cmd := a.postList.Update(msg)
		a.postList = newList
		cmds = append(cmds, cmd)
	case ViewReader:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewResults:
		switch {
		case a.result == nil && a.loading:
			content = centered(a.width, a.height-chromeHeight, muted(MsgLoading))
		case a.result != nil && a.result.Context.Total == 0 && a.request == (query.Request{}):
			content = centered(a.width, a.height-chromeHeight, GetWelcomeMessage())
		default:
			content = a.postList.View()
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			listingHeader(a.headerTitle(), a.header, a.width),
			content,
		)

	case ViewReader:
		if a.loading {
			content = centered(a.width, a.height-3, muted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}

	case ViewSearch:
		content = centered(a.width, a.height-3, searchPrompt(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar())
}

func (a *App) statusBar() string {
	if a.err != nil {
		return StatusBarStyle.Render(ErrorMessageStyle.Render("Error: " + a.err.Error()))
	}
	b := a.config.Keys.Bindings
	help := b.Search + ": search • " + b.NextPage + "/" + b.PrevPage + ": page • " + b.Refresh + ": refresh • " + b.Quit + ": quit"
	if a.view == ViewReader {
		help = b.Back + ": back • ↑/↓: scroll • " + b.Open + ": open • " + b.Quit + ": quit"
	}
	left := a.status
	if left != "" {
		left += " • "
	}
	return StatusBarStyle.Render(truncateEnd(left+help, max(a.width-2, 10)))
}

// headerTitle names the listing and shows the query string that
// reproduces it, e.g. for `qrsum summary --query`.
func (a *App) headerTitle() string {
	title := a.describeRequest()
	if qs := a.request.Values().Encode(); qs != "" {
		title += "  ?" + qs
	}
	return title
}

// describeRequest names the listing for the header.
func (a *App) describeRequest() string {
	if a.result == nil {
		return ""
	}
	switch qc := a.result.Context; qc.Type {
	case summary.TypeSearch:
		return "search: " + qc.Search
	case summary.TypeDate:
		return "archive: " + datefmt.Format(a.services.Formatter.DateFormat(qc.Granularity), qc.Date)
	case summary.TypeCategory:
		return "category: " + qc.Category
	case summary.TypeTag:
		return "tag: " + qc.Tag
	case summary.TypeAuthor:
		return "author: " + qc.Author
	default:
		return "all posts"
	}
}
